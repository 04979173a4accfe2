package chat

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flockr/internal/app/user"
	"flockr/internal/pkg/errs"
	"flockr/internal/pkg/metrics"
)

func TestReset_WipesEverything(t *testing.T) {
	f := newFixture(t)
	alice := f.register("Alice")
	ch := f.channel(alice, "general", true)
	f.send(alice, ch, "one")
	f.send(alice, ch, "two")

	f.store.Reset()

	assert.Empty(t, f.dir.All())
	_, cerr := f.store.ListAllChannels(alice)
	requireKind(t, errs.AccessError, cerr)

	alice = f.register("Alice")
	all, cerr := f.store.ListAllChannels(alice)
	require.Nil(t, cerr)
	assert.Empty(t, all)

	ch = f.channel(alice, "fresh", true)
	assert.Equal(t, 0, ch)
	assert.Equal(t, 0, f.send(alice, ch, "first again"))
}

func TestReset_DropsStaleDeferredTasks(t *testing.T) {
	f := newFixture(t)
	alice := f.register("Alice")
	ch := f.channel(alice, "general", true)

	_, cerr := f.store.SendLater(alice, ch, "stale", epoch.Add(5*time.Second))
	require.Nil(t, cerr)
	_, cerr = f.store.StandupStart(alice, ch, 5)
	require.Nil(t, cerr)
	require.Nil(t, f.store.StandupSend(alice, ch, "stale line"))

	dropped := testutil.ToFloat64(metrics.DeferredDropped)

	f.store.Reset()
	alice = f.register("Alice")
	ch = f.channel(alice, "general", true)
	f.send(alice, ch, "fresh")

	f.advance(5*time.Second, 0)

	page, cerr := f.store.Paginate(alice, ch, 0)
	require.Nil(t, cerr)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "fresh", page.Messages[0].Message)
	assert.Equal(t, dropped+2, testutil.ToFloat64(metrics.DeferredDropped))

	status, cerr := f.store.StandupActive(alice, ch)
	require.Nil(t, cerr)
	assert.False(t, status.IsActive)
}

func TestClose_CancelsPendingDeliveries(t *testing.T) {
	f := newFixture(t)
	alice := f.register("Alice")
	ch := f.channel(alice, "general", true)

	_, cerr := f.store.SendLater(alice, ch, "never", epoch.Add(time.Second))
	require.Nil(t, cerr)
	require.Equal(t, 1, f.store.PendingDeliveries())

	f.store.Close()
	assert.Equal(t, 0, f.store.PendingDeliveries())

	f.clock.Advance(time.Minute)
	time.Sleep(10 * time.Millisecond)
	page, _ := f.store.Paginate(alice, ch, 0)
	assert.Empty(t, page.Messages)
}

func TestConcurrentSends_KeepOrderAndUniqueIDs(t *testing.T) {
	logStore := NewStore(newMapUsers(8))
	t.Cleanup(logStore.Close)

	ch, cerr := logStore.CreateChannel(0, "busy", true)
	require.Nil(t, cerr)
	for uid := 1; uid < 8; uid++ {
		require.Nil(t, logStore.Join(uid, ch))
	}

	const perUser = 40
	var wg sync.WaitGroup
	for uid := 0; uid < 8; uid++ {
		wg.Add(1)
		go func(uid int) {
			defer wg.Done()
			for i := 0; i < perUser; i++ {
				_, cerr := logStore.Send(uid, ch, fmt.Sprintf("%d-%d", uid, i))
				assert.Nil(t, cerr)
			}
		}(uid)
	}

	// Deferred deliveries race with the senders on the same channel lock.
	for i := 0; i < 10; i++ {
		_, cerr := logStore.SendLater(0, ch, "later", time.Now())
		require.Nil(t, cerr)
	}
	wg.Wait()

	require.Eventually(t, func() bool { return logStore.PendingDeliveries() == 0 }, 2*time.Second, 5*time.Millisecond)

	total := 8*perUser + 10
	seen := map[int]bool{}
	for start := 0; start < total; start += PageSize {
		page, cerr := logStore.Paginate(0, ch, start)
		require.Nil(t, cerr)
		for _, m := range page.Messages {
			require.False(t, seen[m.MessageID])
			seen[m.MessageID] = true
		}
	}
	assert.Len(t, seen, total)
}

func TestScheduler_RejectsAfterStop(t *testing.T) {
	c := clockwork.NewFakeClockAt(epoch)
	s := NewScheduler(c)

	var fired atomic.Int32
	require.True(t, s.After(time.Second, "test", func() { fired.Add(1) }))
	require.True(t, s.After(-time.Second, "test", func() { fired.Add(1) }))

	// A negative delay is due at the current instant.
	c.Advance(0)
	require.Eventually(t, func() bool { return s.Pending() == 1 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())

	s.Stop()
	s.Stop()
	assert.Equal(t, 0, s.Pending())
	assert.False(t, s.After(time.Second, "test", func() { fired.Add(1) }))

	c.Advance(time.Hour)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestScheduler_FiresAtDeadline(t *testing.T) {
	c := clockwork.NewFakeClockAt(epoch)
	s := NewScheduler(c)
	t.Cleanup(s.Stop)

	done := make(chan time.Time, 1)
	require.True(t, s.After(3*time.Second, "test", func() { done <- c.Now() }))

	c.Advance(2 * time.Second)
	select {
	case <-done:
		t.Fatal("task fired before its deadline")
	case <-time.After(10 * time.Millisecond):
	}
	assert.Equal(t, 1, s.Pending())

	c.Advance(time.Second)
	select {
	case at := <-done:
		assert.Equal(t, epoch.Add(3*time.Second), at)
	case <-time.After(2 * time.Second):
		t.Fatal("task did not fire at its deadline")
	}
	require.Eventually(t, func() bool { return s.Pending() == 0 }, 2*time.Second, time.Millisecond)
}

// mapUsers is a fixed user table; user 0 is the global admin.
type mapUsers struct {
	mu    sync.Mutex
	users map[int]bool
}

func newMapUsers(n int) *mapUsers {
	m := &mapUsers{users: map[int]bool{}}
	for i := 0; i < n; i++ {
		m.users[i] = true
	}
	return m
}

func (m *mapUsers) Get(id int) (user.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.users[id] {
		return user.User{}, false
	}
	role := user.RoleMember
	if id == 0 {
		role = user.RoleGlobalAdmin
	}
	return user.User{ID: id, Handle: fmt.Sprintf("user%d", id), Role: role}, true
}

func (m *mapUsers) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = map[int]bool{}
}
