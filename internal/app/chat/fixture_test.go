package chat

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"flockr/internal/app/user"
	"flockr/internal/pkg/errs"
	"flockr/internal/pkg/logx"
)

var epoch = time.Unix(1_700_000_000, 0)

// fakeClock is the part of clockwork's fake clock the tests drive.
type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	t      *testing.T
	store  *Store
	dir    *user.Directory
	clock  fakeClock
	events *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logx.SetOutput(io.Discard, zerolog.Disabled)

	f := &fixture{
		t:      t,
		dir:    user.NewDirectory(bcrypt.MinCost),
		clock:  clockwork.NewFakeClockAt(epoch),
		events: &recorder{},
	}
	f.store = NewStore(f.dir, WithClock(f.clock), WithPublisher(f.events))
	t.Cleanup(f.store.Close)
	return f
}

// advance moves the clock forward and waits until the deferred tasks that
// came due have run, leaving remaining tasks pending.
func (f *fixture) advance(d time.Duration, remaining int) {
	f.t.Helper()
	f.clock.Advance(d)
	require.Eventually(f.t, func() bool {
		return f.store.PendingDeliveries() == remaining
	}, 2*time.Second, time.Millisecond)
}

// register creates a user named first+" Tester" and returns its id.
func (f *fixture) register(first string) int {
	f.t.Helper()
	s, cerr := f.dir.Register(strings.ToLower(first)+"@example.com", "password", first, "Tester")
	require.Nil(f.t, cerr)
	return s.UserID
}

func (f *fixture) channel(owner int, name string, public bool) int {
	f.t.Helper()
	id, cerr := f.store.CreateChannel(owner, name, public)
	require.Nil(f.t, cerr)
	return id
}

func (f *fixture) send(uid, channelID int, text string) int {
	f.t.Helper()
	id, cerr := f.store.Send(uid, channelID, text)
	require.Nil(f.t, cerr)
	return id
}

func requireKind(t *testing.T, kind errs.Kind, cerr *errs.CustomError) {
	t.Helper()
	require.NotNil(t, cerr)
	require.Equal(t, kind, cerr.Kind, cerr.Message)
}

func requireCode(t *testing.T, code int, cerr *errs.CustomError) {
	t.Helper()
	require.NotNil(t, cerr)
	require.Equal(t, code, cerr.Code, cerr.Message)
}
