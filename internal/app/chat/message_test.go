package chat

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flockr/internal/pkg/errs"
)

func TestPaginate_FiftyAndFiftyOne(t *testing.T) {
	f := newFixture(t)
	alice := f.register("Alice")
	ch := f.channel(alice, "general", true)

	for i := 0; i < 50; i++ {
		f.send(alice, ch, fmt.Sprintf("message %d", i))
	}

	page, cerr := f.store.Paginate(alice, ch, 0)
	require.Nil(t, cerr)
	assert.Len(t, page.Messages, 50)
	assert.Equal(t, 0, page.Start)
	assert.Equal(t, -1, page.End)
	assert.Equal(t, "message 49", page.Messages[0].Message)
	assert.Equal(t, "message 0", page.Messages[49].Message)

	f.send(alice, ch, "message 50")

	page, cerr = f.store.Paginate(alice, ch, 0)
	require.Nil(t, cerr)
	assert.Len(t, page.Messages, 50)
	assert.Equal(t, 50, page.End)
	assert.Equal(t, "message 50", page.Messages[0].Message)

	page, cerr = f.store.Paginate(alice, ch, 1)
	require.Nil(t, cerr)
	assert.Len(t, page.Messages, 50)
	assert.Equal(t, -1, page.End)
	assert.Equal(t, "message 0", page.Messages[49].Message)
}

func TestPaginate_EveryStart(t *testing.T) {
	for _, n := range []int{0, 1, 49, 50, 51, 100, 123} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			f := newFixture(t)
			alice := f.register("Alice")
			ch := f.channel(alice, "general", true)

			ids := make([]int, n)
			for i := 0; i < n; i++ {
				ids[i] = f.send(alice, ch, fmt.Sprintf("m%d", i))
			}

			for start := 0; start <= n; start++ {
				page, cerr := f.store.Paginate(alice, ch, start)
				require.Nil(t, cerr)

				want := n - start
				if want > PageSize {
					want = PageSize
				}
				require.Len(t, page.Messages, want)

				for i, m := range page.Messages {
					require.Equal(t, ids[n-1-start-i], m.MessageID)
				}

				if start+len(page.Messages) == n {
					require.Equal(t, -1, page.End)
				} else {
					require.Equal(t, start+PageSize, page.End)
				}
			}

			_, cerr := f.store.Paginate(alice, ch, n+1)
			requireCode(t, errs.ErrInvalidStart, cerr)
		})
	}
}

func TestPaginate_Errors(t *testing.T) {
	f := newFixture(t)
	alice := f.register("Alice")
	bob := f.register("Bob")
	ch := f.channel(alice, "general", true)

	_, cerr := f.store.Paginate(bob, ch, 0)
	requireCode(t, errs.ErrNotMember, cerr)

	_, cerr = f.store.Paginate(alice, 3, 0)
	requireCode(t, errs.ErrChannelNotFound, cerr)

	_, cerr = f.store.Paginate(alice, ch, -1)
	requireCode(t, errs.ErrInvalidStart, cerr)

	_, cerr = f.store.Paginate(17, ch, 0)
	requireKind(t, errs.AccessError, cerr)
}

func TestSend_Validation(t *testing.T) {
	f := newFixture(t)
	alice := f.register("Alice")
	bob := f.register("Bob")
	ch := f.channel(alice, "general", true)

	_, cerr := f.store.Send(alice, ch, "")
	requireCode(t, errs.ErrMessageEmpty, cerr)

	_, cerr = f.store.Send(alice, ch, strings.Repeat("a", MaxMessageLen+1))
	requireCode(t, errs.ErrMessageContentTooLong, cerr)

	_, cerr = f.store.Send(alice, ch, strings.Repeat("é", MaxMessageLen))
	require.Nil(t, cerr)

	_, cerr = f.store.Send(bob, ch, "hi")
	requireKind(t, errs.AccessError, cerr)

	_, cerr = f.store.Send(alice, 8, "hi")
	requireCode(t, errs.ErrChannelNotFound, cerr)
}

func TestMessageIDs_MonotonicAcrossChannelsAndRemoval(t *testing.T) {
	f := newFixture(t)
	alice := f.register("Alice")
	a := f.channel(alice, "a", true)
	b := f.channel(alice, "b", true)

	seen := map[int]bool{}
	last := -1
	for i := 0; i < 20; i++ {
		ch := a
		if i%2 == 1 {
			ch = b
		}
		id := f.send(alice, ch, "hello")
		require.Greater(t, id, last)
		require.False(t, seen[id])
		seen[id] = true
		last = id

		if i%3 == 0 {
			require.Nil(t, f.store.Remove(alice, id))
		}
	}

	later, cerr := f.store.SendLater(alice, a, "soon", epoch.Add(time.Minute))
	require.Nil(t, cerr)
	assert.Equal(t, last+1, later)
	assert.Equal(t, last+2, f.send(alice, b, "after"))
}

func TestRemove_Permissions(t *testing.T) {
	f := newFixture(t)
	admin := f.register("Admin")
	owner := f.register("Owner")
	bob := f.register("Bob")
	carol := f.register("Carol")

	ch := f.channel(owner, "general", true)
	require.Nil(t, f.store.Join(bob, ch))
	require.Nil(t, f.store.Join(carol, ch))

	bobs := f.send(bob, ch, "from bob")
	carols := f.send(carol, ch, "from carol")

	cerr := f.store.Remove(carol, bobs)
	requireKind(t, errs.AccessError, cerr)
	requireCode(t, errs.ErrNotMessageEditor, cerr)

	require.Nil(t, f.store.Remove(carol, carols))
	require.Nil(t, f.store.Remove(owner, bobs))

	again := f.send(bob, ch, "again")
	require.Nil(t, f.store.Remove(admin, again))

	for _, id := range []int{bobs, carols, again} {
		requireCode(t, errs.ErrMessageNotFound, f.store.Remove(owner, id))
		requireCode(t, errs.ErrMessageNotFound, f.store.Edit(owner, id, "x"))
	}

	page, cerr := f.store.Paginate(owner, ch, 0)
	require.Nil(t, cerr)
	assert.Empty(t, page.Messages)
}

func TestEdit(t *testing.T) {
	f := newFixture(t)
	alice := f.register("Alice")
	bob := f.register("Bob")
	ch := f.channel(alice, "general", true)
	require.Nil(t, f.store.Join(bob, ch))

	id := f.send(bob, ch, "first")
	f.advance(time.Minute, 0)

	require.Nil(t, f.store.Edit(bob, id, "second"))
	page, cerr := f.store.Paginate(bob, ch, 0)
	require.Nil(t, cerr)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "second", page.Messages[0].Message)
	assert.Equal(t, id, page.Messages[0].MessageID)
	assert.Equal(t, epoch.Unix(), page.Messages[0].TimeCreated)

	requireCode(t, errs.ErrMessageContentTooLong, f.store.Edit(bob, id, strings.Repeat("b", MaxMessageLen+1)))

	require.Nil(t, f.store.Edit(alice, id, ""))
	page, cerr = f.store.Paginate(bob, ch, 0)
	require.Nil(t, cerr)
	assert.Empty(t, page.Messages)
	requireCode(t, errs.ErrMessageNotFound, f.store.Remove(bob, id))
}

func TestReact(t *testing.T) {
	f := newFixture(t)
	alice := f.register("Alice")
	bob := f.register("Bob")
	ch := f.channel(alice, "general", true)
	require.Nil(t, f.store.Join(bob, ch))

	id := f.send(alice, ch, "react to me")

	requireCode(t, errs.ErrMessageNotFound, f.store.React(bob, 99, ReactThumbsUp))
	requireCode(t, errs.ErrInvalidReact, f.store.React(bob, id, 2))
	requireKind(t, errs.AccessError, f.store.React(55, id, ReactThumbsUp))

	requireCode(t, errs.ErrNotReacted, f.store.Unreact(bob, id, ReactThumbsUp))

	require.Nil(t, f.store.React(bob, id, ReactThumbsUp))
	require.Nil(t, f.store.React(bob, id, ReactThumbsUp))
	require.Nil(t, f.store.React(alice, id, ReactThumbsUp))

	page, cerr := f.store.Paginate(bob, ch, 0)
	require.Nil(t, cerr)
	reacts := page.Messages[0].Reacts
	require.Len(t, reacts, 1)
	assert.Equal(t, ReactThumbsUp, reacts[0].ReactID)
	assert.Equal(t, []int{bob, alice}, reacts[0].UserIDs)
	assert.True(t, reacts[0].IsThisUserReacted)

	require.Nil(t, f.store.Unreact(bob, id, ReactThumbsUp))
	requireCode(t, errs.ErrNotReacted, f.store.Unreact(bob, id, ReactThumbsUp))

	page, _ = f.store.Paginate(bob, ch, 0)
	assert.Equal(t, []int{alice}, page.Messages[0].Reacts[0].UserIDs)
	assert.False(t, page.Messages[0].Reacts[0].IsThisUserReacted)

	require.Nil(t, f.store.Unreact(alice, id, ReactThumbsUp))
	requireCode(t, errs.ErrNotReacted, f.store.Unreact(alice, id, ReactThumbsUp))
}

func TestPin(t *testing.T) {
	f := newFixture(t)
	admin := f.register("Admin")
	alice := f.register("Alice")
	bob := f.register("Bob")
	ch := f.channel(alice, "general", true)
	require.Nil(t, f.store.Join(bob, ch))

	id := f.send(bob, ch, "pin me")

	requireCode(t, errs.ErrNotOwner, f.store.Pin(bob, id))
	requireCode(t, errs.ErrNotMember, f.store.Pin(admin, id))
	requireCode(t, errs.ErrMessageNotFound, f.store.Pin(alice, 42))
	requireCode(t, errs.ErrNotPinned, f.store.Unpin(alice, id))

	require.Nil(t, f.store.Pin(alice, id))
	requireCode(t, errs.ErrAlreadyPinned, f.store.Pin(alice, id))

	page, _ := f.store.Paginate(bob, ch, 0)
	assert.True(t, page.Messages[0].IsPinned)

	require.Nil(t, f.store.Join(admin, ch))
	require.Nil(t, f.store.Unpin(admin, id))
	requireKind(t, errs.InputError, f.store.Unpin(admin, id))
}

func TestPrune(t *testing.T) {
	f := newFixture(t)
	alice := f.register("Alice")
	bob := f.register("Bob")
	ch := f.channel(alice, "general", true)
	require.Nil(t, f.store.Join(bob, ch))

	var ids []int
	for i := 0; i < 5; i++ {
		ids = append(ids, f.send(bob, ch, fmt.Sprintf("m%d", i)))
	}

	_, cerr := f.store.Prune(bob, ch, 1)
	requireCode(t, errs.ErrNotOwner, cerr)

	_, cerr = f.store.Prune(alice, ch, 0)
	requireCode(t, errs.ErrInvalidPruneCount, cerr)
	_, cerr = f.store.Prune(alice, ch, 6)
	requireCode(t, errs.ErrInvalidPruneCount, cerr)
	assert.Contains(t, cerr.Message, "5")

	removed, cerr := f.store.Prune(alice, ch, 2)
	require.Nil(t, cerr)
	assert.Equal(t, []int{ids[4], ids[3]}, removed)

	page, _ := f.store.Paginate(alice, ch, 0)
	require.Len(t, page.Messages, 3)
	assert.Equal(t, ids[2], page.Messages[0].MessageID)
	requireCode(t, errs.ErrMessageNotFound, f.store.Remove(alice, ids[4]))
}

func TestSendLater(t *testing.T) {
	f := newFixture(t)
	alice := f.register("Alice")
	bob := f.register("Bob")
	ch := f.channel(alice, "general", true)
	require.Nil(t, f.store.Join(bob, ch))

	_, cerr := f.store.SendLater(bob, ch, "too late", epoch.Add(-time.Second))
	requireCode(t, errs.ErrSendTimeInPast, cerr)
	_, cerr = f.store.SendLater(bob, ch, "", epoch.Add(time.Second))
	requireCode(t, errs.ErrMessageEmpty, cerr)
	_, cerr = f.store.SendLater(alice, 4, "x", epoch.Add(time.Second))
	requireCode(t, errs.ErrChannelNotFound, cerr)

	at := epoch.Add(10 * time.Second)
	id, cerr := f.store.SendLater(bob, ch, "from the future", at)
	require.Nil(t, cerr)
	assert.Equal(t, 1, f.store.PendingDeliveries())

	// Not delivered yet, and not addressable.
	page, _ := f.store.Paginate(alice, ch, 0)
	assert.Empty(t, page.Messages)
	requireCode(t, errs.ErrMessageNotFound, f.store.Remove(bob, id))

	// Delivery does not depend on the sender staying.
	require.Nil(t, f.store.Leave(bob, ch))

	f.advance(9*time.Second, 1)
	page, _ = f.store.Paginate(alice, ch, 0)
	assert.Empty(t, page.Messages)

	f.advance(time.Second, 0)
	page, _ = f.store.Paginate(alice, ch, 0)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, id, page.Messages[0].MessageID)
	assert.Equal(t, bob, page.Messages[0].UserID)
	assert.Equal(t, at.Unix(), page.Messages[0].TimeCreated)
	assert.Equal(t, 0, f.store.PendingDeliveries())

	require.Nil(t, f.store.Remove(alice, id))
}

func TestSendLater_Now(t *testing.T) {
	f := newFixture(t)
	alice := f.register("Alice")
	ch := f.channel(alice, "general", true)

	_, cerr := f.store.SendLater(alice, ch, "right now", epoch)
	require.Nil(t, cerr)

	f.advance(0, 0)
	page, _ := f.store.Paginate(alice, ch, 0)
	assert.Len(t, page.Messages, 1)
}

func TestEvents_Published(t *testing.T) {
	f := newFixture(t)
	alice := f.register("Alice")
	ch := f.channel(alice, "general", true)

	id := f.send(alice, ch, "one")
	require.Nil(t, f.store.Edit(alice, id, "two"))
	require.Nil(t, f.store.React(alice, id, ReactThumbsUp))
	require.Nil(t, f.store.Pin(alice, id))
	require.Nil(t, f.store.Remove(alice, id))

	assert.Equal(t, []EventType{
		EventMessageCreated,
		EventMessageEdited,
		EventReactChanged,
		EventPinChanged,
		EventMessageRemoved,
	}, f.events.types())

	f.events.mu.Lock()
	defer f.events.mu.Unlock()
	assert.Equal(t, ch, f.events.events[0].ChannelID)
	assert.Equal(t, "one", f.events.events[0].Message.Message)
	assert.Equal(t, []int{id}, f.events.events[4].MessageIDs)
	for i, ev := range f.events.events {
		assert.Equal(t, uint64(i+1), ev.Seq)
	}
}

func TestEvents_SequencedPerChannel(t *testing.T) {
	f := newFixture(t)
	alice := f.register("Alice")
	first := f.channel(alice, "first", true)
	second := f.channel(alice, "second", true)

	const perChannel = 50
	var wg sync.WaitGroup
	for _, ch := range []int{first, second, first, second} {
		wg.Add(1)
		go func(ch int) {
			defer wg.Done()
			for i := 0; i < perChannel/2; i++ {
				_, cerr := f.store.Send(alice, ch, "x")
				assert.Nil(t, cerr)
			}
		}(ch)
	}
	wg.Wait()

	// Every channel numbers its events 1..n without gaps, independently of
	// the order the publisher saw them in.
	seqs := map[int]map[uint64]bool{first: {}, second: {}}
	f.events.mu.Lock()
	for _, ev := range f.events.events {
		require.False(t, seqs[ev.ChannelID][ev.Seq], "duplicate seq %d", ev.Seq)
		seqs[ev.ChannelID][ev.Seq] = true
	}
	f.events.mu.Unlock()

	for _, ch := range []int{first, second} {
		require.Len(t, seqs[ch], perChannel)
		for seq := uint64(1); seq <= perChannel; seq++ {
			assert.True(t, seqs[ch][seq], "channel %d missing seq %d", ch, seq)
		}
	}
}
