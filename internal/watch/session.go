package watch

import (
	"sync"
	"time"

	"github.com/umeet/watchparty/internal/models"
)

// Session is the authoritative live state for one room: membership, host
// authority and playback state. It is created on first join, seeded from the
// persisted room record, and destroyed when the last member leaves.
//
// Members are keyed by user ID, never by connection: a reconnecting user
// replaces their stale connection entry instead of appearing twice. Join
// order is retained for deterministic host failover.
type Session struct {
	RoomID string
	Name   string

	mu         sync.Mutex
	hostUserID string
	members    map[string]*models.Member
	joinOrder  []string
	video      models.VideoState
	createdAt  time.Time
}

func newSession(roomID string, seed *models.Room, now time.Time) *Session {
	return &Session{
		RoomID: roomID,
		Name:   seed.Name,
		members: make(map[string]*models.Member),
		video: models.VideoState{
			URL:              seed.VideoURL,
			IsPlaying:        false,
			PositionSeconds:  0,
			UpdatedAtEpochMs: now.UnixMilli(),
		},
		hostUserID: seed.HostID,
		createdAt:  now,
	}
}

// addMember inserts or replaces the member entry for the identity. On a
// reconnect the stale connection reference is replaced and returned so the
// caller can evict it from the broadcast group. The first member to join an
// empty session becomes host.
func (s *Session) addMember(identity models.Identity, connectionID string) (member models.Member, prevConnectionID string, reconnect bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.members[identity.UserID]; ok {
		prev := m.ConnectionID
		m.ConnectionID = connectionID
		m.IsOnline = true
		return *m, prev, true
	}

	if len(s.members) == 0 {
		s.hostUserID = identity.UserID
	}
	m := &models.Member{
		UserID:       identity.UserID,
		Name:         identity.DisplayName(),
		Email:        identity.Email,
		ConnectionID: connectionID,
		IsHost:       identity.UserID == s.hostUserID,
		IsOnline:     true,
	}
	s.members[identity.UserID] = m
	s.joinOrder = append(s.joinOrder, identity.UserID)
	return *m, "", false
}

// removeMember deletes the member entry. If the departing member was host and
// others remain, host authority transfers to the earliest-joined remaining
// member. Returns the removed member, the new host's user ID ("" if host
// unchanged) and whether the session is now empty.
func (s *Session) removeMember(userID string) (removed models.Member, newHostID string, empty bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, present := s.members[userID]
	if !present {
		return models.Member{}, "", len(s.members) == 0, false
	}
	removed = *m
	delete(s.members, userID)
	for i, id := range s.joinOrder {
		if id == userID {
			s.joinOrder = append(s.joinOrder[:i], s.joinOrder[i+1:]...)
			break
		}
	}

	if len(s.members) == 0 {
		return removed, "", true, true
	}
	if s.hostUserID == userID {
		s.hostUserID = s.joinOrder[0]
		s.members[s.hostUserID].IsHost = true
		newHostID = s.hostUserID
	}
	return removed, newHostID, false, true
}

// connectionOf returns the connection currently bound to the member.
func (s *Session) connectionOf(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[userID]
	if !ok {
		return "", false
	}
	return m.ConnectionID, true
}

// HostUserID returns the user currently granted playback-control authority.
func (s *Session) HostUserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hostUserID
}

// MemberCount returns the number of member entries.
func (s *Session) MemberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members)
}

// VideoState returns a copy of the authoritative playback state.
func (s *Session) VideoState() models.VideoState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.video
}

// Snapshot returns the full room state sent to a joining connection.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := make(map[string]models.Member, len(s.members))
	for id, m := range s.members {
		members[id] = *m
	}
	return Snapshot{
		RoomID:     s.RoomID,
		Name:       s.Name,
		HostUserID: s.hostUserID,
		Members:    members,
		VideoState: s.video,
	}
}

// applyStateChange overwrites the provided videoState fields if the requester
// holds host authority. The server-assigned timestamp is always stamped. A URL
// change is a distinct state: position resets to 0 and isPlaying follows the
// request (default paused), never stale data from the previous video.
func (s *Session) applyStateChange(requesterUserID string, change StateChange, at time.Time) (models.VideoState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if requesterUserID != s.hostUserID {
		return models.VideoState{}, ErrNotAuthorized
	}
	if _, ok := s.members[requesterUserID]; !ok {
		return models.VideoState{}, ErrNotAuthorized
	}

	if change.URL != nil && *change.URL != s.video.URL {
		s.video.URL = *change.URL
		s.video.PositionSeconds = 0
		s.video.IsPlaying = false
	} else if change.PositionSeconds != nil {
		s.video.PositionSeconds = *change.PositionSeconds
	}
	if change.IsPlaying != nil {
		s.video.IsPlaying = *change.IsPlaying
	}
	s.video.UpdatedAtEpochMs = at.UnixMilli()
	return s.video, nil
}

// Snapshot is the full room state emitted to a joining connection.
type Snapshot struct {
	RoomID     string                   `json:"roomId"`
	Name       string                   `json:"name"`
	HostUserID string                   `json:"hostUserId"`
	Members    map[string]models.Member `json:"members"`
	VideoState models.VideoState        `json:"videoState"`
}

// StateChange is a partial videoState mutation requested by the host. Nil
// fields are left untouched.
type StateChange struct {
	URL             *string  `json:"videoUrl,omitempty"`
	IsPlaying       *bool    `json:"isPlaying,omitempty"`
	PositionSeconds *float64 `json:"positionSeconds,omitempty"`
}
