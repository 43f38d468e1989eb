package watch

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDirectoryJoinCreatesOnce(t *testing.T) {
	d := NewDirectory(0, zap.NewNop())

	s1, _, _, _, ok := d.Join("room-1", testSeed(), identity("u1"), "conn-a")
	require.True(t, ok)
	other := testSeed()
	other.VideoURL = "https://www.youtube.com/watch?v=other"
	s2, _, _, _, ok := d.Join("room-1", other, identity("u2"), "conn-b")
	require.True(t, ok)

	assert.Same(t, s1, s2)
	// the live session is authoritative: a later seed is ignored
	assert.Equal(t, testSeed().VideoURL, s2.VideoState().URL)
	assert.Equal(t, 2, s2.MemberCount())
}

func TestDirectoryJoinWithoutSeedNeedsLiveSession(t *testing.T) {
	d := NewDirectory(0, zap.NewNop())

	s, _, _, _, ok := d.Join("room-1", nil, identity("u1"), "conn-a")
	assert.False(t, ok)
	assert.Nil(t, s)
	assert.Nil(t, d.Get("room-1"), "a nil seed must never create a session")
	assert.Equal(t, 0, d.Len())
}

func TestDirectoryConcurrentJoinSingleSession(t *testing.T) {
	d := NewDirectory(0, zap.NewNop())

	const n = 32
	sessions := make([]*Session, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("u%d", i)
			sessions[i], _, _, _, _ = d.Join("room-1", testSeed(), identity(user), "conn-"+user)
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, sessions[0], sessions[i])
	}
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, n, sessions[0].MemberCount())
}

func TestDirectoryJoinNotOrphanedByRemoval(t *testing.T) {
	// A join that overlaps a last-member leave must either land in the live
	// session or observe no session at all; it must never insert a member
	// into a session the directory has already dropped.
	d := NewDirectory(0, zap.NewNop())

	held, _, _, _, ok := d.Join("room-1", testSeed(), identity("u1"), "conn-a")
	require.True(t, ok)
	held.removeMember("u1")
	d.ScheduleRemoval("room-1")
	require.Nil(t, d.Get("room-1"))

	s, _, _, _, ok := d.Join("room-1", nil, identity("u2"), "conn-b")
	assert.False(t, ok, "removed room must force the caller back through the seed lookup")
	assert.Nil(t, s)
	assert.Equal(t, 0, held.MemberCount(), "no member may land in the detached session")

	recreated, _, _, _, ok := d.Join("room-1", testSeed(), identity("u2"), "conn-b")
	require.True(t, ok)
	assert.Same(t, recreated, d.Get("room-1"))
	assert.Equal(t, 1, recreated.MemberCount())
}

func TestDirectoryImmediateRemovalWhenEmpty(t *testing.T) {
	d := NewDirectory(0, zap.NewNop())
	s, _, _, _, _ := d.Join("room-1", testSeed(), identity("u1"), "conn-a")
	s.removeMember("u1")

	d.ScheduleRemoval("room-1")
	assert.Nil(t, d.Get("room-1"))
}

func TestDirectoryRemovalSparesOccupiedRoom(t *testing.T) {
	d := NewDirectory(0, zap.NewNop())
	d.Join("room-1", testSeed(), identity("u1"), "conn-a")

	d.RemoveIfEmpty("room-1")
	assert.NotNil(t, d.Get("room-1"))
}

func TestDirectoryGracePeriodAbsorbsRejoin(t *testing.T) {
	d := NewDirectory(20*time.Millisecond, zap.NewNop())
	s, _, _, _, _ := d.Join("room-1", testSeed(), identity("u1"), "conn-a")
	s.removeMember("u1")

	d.ScheduleRemoval("room-1")
	// still alive inside the grace period; a rejoin cancels the reaper
	require.NotNil(t, d.Get("room-1"))
	_, _, _, _, ok := d.Join("room-1", nil, identity("u1"), "conn-a2")
	require.True(t, ok)

	time.Sleep(50 * time.Millisecond)
	assert.NotNil(t, d.Get("room-1"), "rejoin during grace period must keep the session")
}

func TestDirectoryGracePeriodExpiry(t *testing.T) {
	d := NewDirectory(10*time.Millisecond, zap.NewNop())
	s, _, _, _, _ := d.Join("room-1", testSeed(), identity("u1"), "conn-a")
	s.removeMember("u1")

	d.ScheduleRemoval("room-1")
	time.Sleep(50 * time.Millisecond)
	assert.Nil(t, d.Get("room-1"))
}

func TestDirectoryRemoveIfEmptyUnknownRoom(t *testing.T) {
	d := NewDirectory(0, zap.NewNop())
	d.RemoveIfEmpty("nope") // must not panic
}
