package models

import "time"

// Room is the persisted room record. Only the fields needed to seed a live
// session are consumed here; full room CRUD lives outside this service.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	VideoURL  string    `json:"videoUrl"`
	HostID    string    `json:"hostId"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
