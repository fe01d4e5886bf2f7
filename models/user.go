package models

import "time"

// Role names recognized by the notes feature.
const (
	RoleNoteAdmin  = "note_admin"
	RoleNoteEditor = "note_editor"
)

type User struct {
	ID                  int       `json:"id"`
	Username            string    `json:"username"`
	DisplayedAuthorName string    `json:"displayed_author_name"`
	PasswordHash        string    `json:"-"`
	CreatedAt           time.Time `json:"created_at"`
}
