package models

// Identity is the authenticated user bound to a connection. It is supplied
// by the signed identity token at connect time and is immutable for the
// connection's lifetime.
type Identity struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Valid reports whether the identity carries the fields required to join a
// room. Display name may be empty (the email stands in for it).
func (i Identity) Valid() bool {
	return i.UserID != "" && i.Email != ""
}

// DisplayName returns the name to show other participants.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Email
}
