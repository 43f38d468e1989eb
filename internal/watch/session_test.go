package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umeet/watchparty/internal/models"
)

func testSeed() *models.Room {
	return &models.Room{
		ID:       "room-1",
		Name:     "Movie Night",
		VideoURL: "https://www.youtube.com/watch?v=abc123",
		HostID:   "u1",
	}
}

func identity(n string) models.Identity {
	return models.Identity{UserID: n, Name: "User " + n, Email: n + "@example.com"}
}

func TestSessionFirstJoinerBecomesHost(t *testing.T) {
	s := newSession("room-1", testSeed(), time.UnixMilli(1000))

	m, prev, reconnect := s.addMember(identity("u2"), "conn-a")
	require.False(t, reconnect)
	assert.Empty(t, prev)
	assert.True(t, m.IsHost)
	assert.Equal(t, "u2", s.HostUserID())
}

func TestSessionHostIsAlwaysAMember(t *testing.T) {
	s := newSession("room-1", testSeed(), time.UnixMilli(1000))
	s.addMember(identity("u1"), "conn-a")
	s.addMember(identity("u2"), "conn-b")
	s.addMember(identity("u3"), "conn-c")

	for i := 0; i < 2; i++ {
		host := s.HostUserID()
		snap := s.Snapshot()
		_, ok := snap.Members[host]
		require.True(t, ok, "host %q must be a member", host)

		s.removeMember(host)
	}
	assert.Equal(t, 1, s.MemberCount())
}

func TestSessionHostFailoverEarliestJoiner(t *testing.T) {
	s := newSession("room-1", testSeed(), time.UnixMilli(1000))
	s.addMember(identity("u1"), "conn-a")
	s.addMember(identity("u2"), "conn-b")
	s.addMember(identity("u3"), "conn-c")

	_, newHost, empty, ok := s.removeMember("u1")
	require.True(t, ok)
	assert.False(t, empty)
	assert.Equal(t, "u2", newHost)
	assert.Equal(t, "u2", s.HostUserID())
	assert.True(t, s.Snapshot().Members["u2"].IsHost)
}

func TestSessionRemoveNonHostKeepsHost(t *testing.T) {
	s := newSession("room-1", testSeed(), time.UnixMilli(1000))
	s.addMember(identity("u1"), "conn-a")
	s.addMember(identity("u2"), "conn-b")

	_, newHost, empty, ok := s.removeMember("u2")
	require.True(t, ok)
	assert.False(t, empty)
	assert.Empty(t, newHost)
	assert.Equal(t, "u1", s.HostUserID())
}

func TestSessionReconnectReplacesConnection(t *testing.T) {
	s := newSession("room-1", testSeed(), time.UnixMilli(1000))
	s.addMember(identity("u1"), "conn-a")
	s.addMember(identity("u2"), "conn-b")

	m, prev, reconnect := s.addMember(identity("u1"), "conn-a2")
	assert.True(t, reconnect)
	assert.Equal(t, "conn-a", prev)
	assert.Equal(t, "conn-a2", m.ConnectionID)
	assert.Equal(t, 2, s.MemberCount())
	// host authority is untouched by a reconnect
	assert.Equal(t, "u1", s.HostUserID())
}

func TestSessionRemoveUnknownMember(t *testing.T) {
	s := newSession("room-1", testSeed(), time.UnixMilli(1000))
	s.addMember(identity("u1"), "conn-a")

	_, _, _, ok := s.removeMember("ghost")
	assert.False(t, ok)
	assert.Equal(t, 1, s.MemberCount())
}

func TestApplyStateChangeHostOnly(t *testing.T) {
	s := newSession("room-1", testSeed(), time.UnixMilli(1000))
	s.addMember(identity("u1"), "conn-a")
	s.addMember(identity("u2"), "conn-b")

	playing := true
	pos := 10.0
	before := s.VideoState()

	_, err := s.applyStateChange("u2", StateChange{IsPlaying: &playing, PositionSeconds: &pos}, time.UnixMilli(2000))
	require.ErrorIs(t, err, ErrNotAuthorized)
	assert.Equal(t, before, s.VideoState(), "videoState must be unchanged after a rejected mutation")

	state, err := s.applyStateChange("u1", StateChange{IsPlaying: &playing, PositionSeconds: &pos}, time.UnixMilli(2000))
	require.NoError(t, err)
	assert.True(t, state.IsPlaying)
	assert.Equal(t, 10.0, state.PositionSeconds)
	assert.Equal(t, int64(2000), state.UpdatedAtEpochMs)
}

func TestApplyStateChangeStampsServerTime(t *testing.T) {
	s := newSession("room-1", testSeed(), time.UnixMilli(1000))
	s.addMember(identity("u1"), "conn-a")

	pos := 5.0
	state, err := s.applyStateChange("u1", StateChange{PositionSeconds: &pos}, time.UnixMilli(7777))
	require.NoError(t, err)
	assert.Equal(t, int64(7777), state.UpdatedAtEpochMs)
}

func TestApplyStateChangeURLChangeResetsPosition(t *testing.T) {
	s := newSession("room-1", testSeed(), time.UnixMilli(1000))
	s.addMember(identity("u1"), "conn-a")

	playing := true
	pos := 42.0
	_, err := s.applyStateChange("u1", StateChange{IsPlaying: &playing, PositionSeconds: &pos}, time.UnixMilli(2000))
	require.NoError(t, err)

	url := "https://www.youtube.com/watch?v=next"
	state, err := s.applyStateChange("u1", StateChange{URL: &url, PositionSeconds: &pos}, time.UnixMilli(3000))
	require.NoError(t, err)
	assert.Equal(t, url, state.URL)
	assert.Equal(t, 0.0, state.PositionSeconds, "new video starts from zero, not the previous position")
	assert.False(t, state.IsPlaying, "new video defaults to paused")
}

func TestApplyStateChangeSameURLIsAPatch(t *testing.T) {
	s := newSession("room-1", testSeed(), time.UnixMilli(1000))
	s.addMember(identity("u1"), "conn-a")

	url := testSeed().VideoURL
	pos := 30.0
	state, err := s.applyStateChange("u1", StateChange{URL: &url, PositionSeconds: &pos}, time.UnixMilli(2000))
	require.NoError(t, err)
	assert.Equal(t, 30.0, state.PositionSeconds)
}

func TestSnapshotIsRawNotProjected(t *testing.T) {
	// Host sets playing at t=1000; a snapshot taken at t=3000 must still
	// report the raw authoritative state. Projection is the client's job.
	s := newSession("room-1", testSeed(), time.UnixMilli(0))
	s.addMember(identity("u1"), "conn-a")

	playing := true
	pos := 10.0
	_, err := s.applyStateChange("u1", StateChange{IsPlaying: &playing, PositionSeconds: &pos}, time.UnixMilli(1000))
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, 10.0, snap.VideoState.PositionSeconds)
	assert.Equal(t, int64(1000), snap.VideoState.UpdatedAtEpochMs)
	assert.InDelta(t, 12.0, snap.VideoState.ProjectedPosition(3000), 1e-9)
}
