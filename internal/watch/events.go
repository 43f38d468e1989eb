package watch

// Server-to-client event names.
const (
	EventConnectSuccess    = "connect-success"
	EventRoomState         = "room-state"
	EventRoomJoined        = "room-joined"
	EventParticipantJoined = "participant-joined"
	EventParticipantLeft   = "participant-left"
	EventChatMessage       = "chat-message"
	EventVideoStateChange  = "video-state-change"
	EventError             = "error"
)

// ParticipantJoined is the membership delta broadcast when a new member joins.
type ParticipantJoined struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
}

// ParticipantLeft is the membership delta broadcast when a member leaves.
// NewHostUserID is set when the departure transferred host authority.
type ParticipantLeft struct {
	UserID        string `json:"userId"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	NewHostUserID string `json:"newHostUserId,omitempty"`
}

// RoomJoined confirms a successful join to the joining connection.
type RoomJoined struct {
	RoomID string `json:"roomId"`
}

// ErrorEvent is the payload of an error event; it goes only to the
// connection whose request was rejected.
type ErrorEvent struct {
	Message string `json:"message"`
}
