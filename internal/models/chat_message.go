package models

// ChatMessage is a relayed chat message. ID is assigned by the originating
// client so it can suppress its own echo; the relay does not deduplicate.
type ChatMessage struct {
	ID               string `json:"id"`
	SenderID         string `json:"senderId"`
	SenderName       string `json:"senderName,omitempty"`
	Text             string `json:"text"`
	TimestampEpochMs int64  `json:"timestampEpochMs"`
}
