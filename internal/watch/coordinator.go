package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/umeet/watchparty/internal/models"
	"github.com/umeet/watchparty/internal/rooms"
)

// Broadcaster is the fan-out capability the coordinator mutates rooms
// through. The transport layer implements it by tracking which connections
// belong to which room's broadcast group. Delivery is best effort:
// connections that die mid-broadcast are tolerated.
type Broadcaster interface {
	// Broadcast sends an event to every connection in the room's group,
	// except excludeConnectionID when non-empty.
	Broadcast(roomID, event string, payload interface{}, excludeConnectionID string)
	// SendTo sends an event to a single connection.
	SendTo(connectionID, event string, payload interface{})
	// JoinGroup adds a connection to a room's broadcast group.
	JoinGroup(roomID, connectionID string)
	// LeaveGroup removes a connection from a room's broadcast group.
	LeaveGroup(roomID, connectionID string)
}

// SeedSource resolves the persisted room record used to seed a session on
// first join. Returns rooms.ErrNotFound when the room does not exist.
type SeedSource interface {
	RoomSeed(ctx context.Context, roomID string) (*models.Room, error)
}

// Coordinator drives all room-session mutations: membership, host authority,
// playback state and chat relay. Every mutation fans out through the
// Broadcaster; errors surface only to the triggering connection.
type Coordinator struct {
	directory *Directory
	seeds     SeedSource
	bcast     Broadcaster
	logger    *zap.Logger
	now       func() time.Time
}

// NewCoordinator creates the room coordinator.
func NewCoordinator(directory *Directory, seeds SeedSource, bcast Broadcaster, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		directory: directory,
		seeds:     seeds,
		bcast:     bcast,
		logger:    logger,
		now:       time.Now,
	}
}

// Directory exposes the room directory for read-only inspection.
func (c *Coordinator) Directory() *Directory {
	return c.directory
}

// Occupancy returns the live member count for a room, 0 if no session exists.
func (c *Coordinator) Occupancy(roomID string) int {
	session := c.directory.Get(roomID)
	if session == nil {
		return 0
	}
	return session.MemberCount()
}

// Join adds the identity to the room, creating the session from the persisted
// seed if this is the first join. The joining connection receives the full
// room snapshot; everyone else receives a membership delta. A join by a user
// already in the room replaces their stale connection instead of adding a
// duplicate participant.
func (c *Coordinator) Join(ctx context.Context, roomID string, identity models.Identity, connectionID string) error {
	if !identity.Valid() {
		return ErrAuthRequired
	}

	session, member, prevConn, reconnect, ok := c.directory.Join(roomID, nil, identity, connectionID)
	if !ok {
		// No live session: resolve the persisted seed outside the directory
		// lock (only this join waits on the lookup) and retry. A session
		// created in the meantime wins and the fresh seed is discarded.
		seed, err := c.seeds.RoomSeed(ctx, roomID)
		if err != nil {
			if errors.Is(err, rooms.ErrNotFound) {
				return ErrRoomNotFound
			}
			return fmt.Errorf("resolve room seed: %w", err)
		}
		session, member, prevConn, reconnect, _ = c.directory.Join(roomID, seed, identity, connectionID)
	}

	if reconnect && prevConn != "" && prevConn != connectionID {
		c.bcast.LeaveGroup(roomID, prevConn)
	}
	c.bcast.JoinGroup(roomID, connectionID)

	c.bcast.SendTo(connectionID, EventRoomState, session.Snapshot())
	c.bcast.SendTo(connectionID, EventRoomJoined, RoomJoined{RoomID: roomID})
	if !reconnect {
		c.bcast.Broadcast(roomID, EventParticipantJoined, ParticipantJoined{
			UserID: member.UserID,
			Email:  member.Email,
			Name:   member.Name,
			IsHost: member.IsHost,
		}, connectionID)
	}

	c.logger.Info("member joined",
		zap.String("room_id", roomID),
		zap.String("user_id", identity.UserID),
		zap.Bool("reconnect", reconnect),
	)
	return nil
}

// Leave removes the member from the room and broadcasts the delta. When
// connectionID is non-empty it must match the member's current connection,
// which makes a disconnect of an already-replaced connection a no-op. Safe to
// call twice: explicit leave and the disconnect cascade can race.
func (c *Coordinator) Leave(roomID, userID, connectionID string) {
	session := c.directory.Get(roomID)
	if session == nil {
		return
	}
	if connectionID != "" {
		current, ok := session.connectionOf(userID)
		if !ok || current != connectionID {
			return
		}
	}

	removed, newHostID, empty, ok := session.removeMember(userID)
	if !ok {
		return
	}
	c.bcast.LeaveGroup(roomID, removed.ConnectionID)
	c.bcast.Broadcast(roomID, EventParticipantLeft, ParticipantLeft{
		UserID:        removed.UserID,
		Email:         removed.Email,
		Name:          removed.Name,
		NewHostUserID: newHostID,
	}, "")

	if empty {
		c.directory.ScheduleRemoval(roomID)
	}
	c.logger.Info("member left",
		zap.String("room_id", roomID),
		zap.String("user_id", userID),
		zap.String("new_host", newHostID),
	)
}

// Disconnect is the cascade from the connection registry when a transport
// connection dies without an explicit leave. It is processed identically to
// Leave for whichever room the connection had joined.
func (c *Coordinator) Disconnect(roomID, userID, connectionID string) {
	c.Leave(roomID, userID, connectionID)
}

// ApplyStateChange mutates the room's playback state on behalf of the
// requester. Only the current host may mutate; everyone in the room,
// including the requester, receives the resulting state so a rejected
// optimistic change is corrected by the next broadcast. The authoritative
// timestamp is assigned here from the server clock, never taken from the
// client.
func (c *Coordinator) ApplyStateChange(roomID, requesterUserID string, change StateChange) (models.VideoState, error) {
	session := c.directory.Get(roomID)
	if session == nil {
		return models.VideoState{}, ErrRoomNotFound
	}

	state, err := session.applyStateChange(requesterUserID, change, c.now())
	if err != nil {
		return models.VideoState{}, err
	}
	c.bcast.Broadcast(roomID, EventVideoStateChange, state, "")

	c.logger.Debug("video state changed",
		zap.String("room_id", roomID),
		zap.String("user_id", requesterUserID),
		zap.Bool("is_playing", state.IsPlaying),
		zap.Float64("position", state.PositionSeconds),
	)
	return state, nil
}

// Relay fans a chat message out to every member of the room in arrival
// order. The relay keeps no history and does not deduplicate: the message ID
// is client-assigned and receivers suppress their own echo. Relaying into a
// room with no session is a no-op, not an error: the sender already left.
func (c *Coordinator) Relay(roomID string, sender models.Identity, msg models.ChatMessage) {
	session := c.directory.Get(roomID)
	if session == nil {
		return
	}
	if msg.SenderID == "" {
		msg.SenderID = sender.UserID
	}
	if msg.SenderName == "" {
		msg.SenderName = sender.DisplayName()
	}
	c.bcast.Broadcast(roomID, EventChatMessage, msg, "")
}
