package models

// StaticUserID is the id carried by the single administrator session
const StaticUserID = "1"

// StaticUser is the administrator configured through ADMIN_USERNAME. It is
// never persisted; it only identifies who holds a login session.
type StaticUser struct {
	ID       string `json:"id" example:"1"`
	Username string `json:"username" example:"admin"`
}

// NewStaticUser returns the administrator for the given username
func NewStaticUser(username string) *StaticUser {
	return &StaticUser{ID: StaticUserID, Username: username}
}
