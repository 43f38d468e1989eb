package models

// Member is one participant entry in a live room session, keyed by user ID.
// A reconnecting user replaces ConnectionID rather than adding a second entry.
type Member struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ConnectionID string `json:"-"`
	IsHost       bool   `json:"isHost"`
	IsOnline     bool   `json:"isOnline"`
}
