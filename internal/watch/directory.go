package watch

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/umeet/watchparty/internal/models"
)

// Directory is the in-memory map of room ID to live session. Sessions are
// created lazily on first join and destroyed when empty, optionally after a
// grace period that absorbs reconnect races.
//
// Creation and member insertion are atomic per room ID: concurrent joins for
// the same room resolve to a single session, the persisted seed is consulted
// only when no live session exists, and a session holds a member only while
// the directory still knows it.
type Directory struct {
	mu       sync.Mutex
	sessions map[string]*Session
	reapers  map[string]*time.Timer

	grace  time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewDirectory creates a room directory. grace is how long an empty session
// survives before destruction; zero destroys immediately.
func NewDirectory(grace time.Duration, logger *zap.Logger) *Directory {
	return &Directory{
		sessions: make(map[string]*Session),
		reapers:  make(map[string]*time.Timer),
		grace:    grace,
		logger:   logger,
		now:      time.Now,
	}
}

// Join atomically resolves the session and inserts the member, holding the
// directory lock across both so a join can never land a member in a session
// a concurrent removal has already detached. An existing session is
// authoritative: its seed is ignored. When no session exists and seed is nil,
// it reports ok=false without creating anything, so the caller can resolve
// the persisted seed outside the lock and retry.
func (d *Directory) Join(roomID string, seed *models.Room, identity models.Identity, connectionID string) (s *Session, member models.Member, prevConnectionID string, reconnect, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelReaperLocked(roomID)
	s, exists := d.sessions[roomID]
	if !exists {
		if seed == nil {
			return nil, models.Member{}, "", false, false
		}
		s = newSession(roomID, seed, d.now())
		d.sessions[roomID] = s
		d.logger.Info("room session created", zap.String("room_id", roomID), zap.String("video_url", seed.VideoURL))
	}
	member, prevConnectionID, reconnect = s.addMember(identity, connectionID)
	return s, member, prevConnectionID, reconnect, true
}

// Get returns the live session for roomID, or nil if none exists.
func (d *Directory) Get(roomID string) *Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessions[roomID]
}

// ScheduleRemoval arranges for the session to be destroyed once empty. With a
// zero grace period the removal happens inline; otherwise a timer fires after
// the grace period and re-checks emptiness, so a rejoin in between keeps the
// session alive.
func (d *Directory) ScheduleRemoval(roomID string) {
	if d.grace <= 0 {
		d.RemoveIfEmpty(roomID)
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelReaperLocked(roomID)
	d.reapers[roomID] = time.AfterFunc(d.grace, func() {
		d.RemoveIfEmpty(roomID)
	})
}

// RemoveIfEmpty destroys the session if it has no members. Safe to call for
// rooms that no longer exist.
func (d *Directory) RemoveIfEmpty(roomID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sessions[roomID]
	if !ok {
		return
	}
	if s.MemberCount() > 0 {
		return
	}
	delete(d.sessions, roomID)
	d.cancelReaperLocked(roomID)
	d.logger.Info("room session destroyed", zap.String("room_id", roomID))
}

// Len returns the number of live sessions.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

func (d *Directory) cancelReaperLocked(roomID string) {
	if t, ok := d.reapers[roomID]; ok {
		t.Stop()
		delete(d.reapers, roomID)
	}
}
