package realtime

import (
	"github.com/umeet/watchparty/internal/models"
	"github.com/umeet/watchparty/internal/watch"
)

// Client-to-server event names. Server-to-client names live in the watch
// package next to the coordinator that emits them.
const (
	evJoinRoom         = "join-room"
	evLeaveRoom        = "leave-room"
	evChatMessage      = "chat-message"
	evVideoStateChange = "video-state-change"
)

type joinRoomPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type leaveRoomPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

type chatMessagePayload struct {
	RoomID  string             `json:"roomId"`
	Message models.ChatMessage `json:"message"`
}

type videoStateChangePayload struct {
	RoomID string `json:"roomId"`
	watch.StateChange
}

type connectSuccessPayload struct {
	ConnectionID string `json:"connectionId"`
}
