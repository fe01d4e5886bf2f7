package initializers

import (
	"database/sql"

	"notehub-api/models"
)

// InitDefaults is called once on application start to ensure the roles the
// notes feature relies on exist.
func InitDefaults(db *sql.DB) error {
	if err := ensureRole(db, models.RoleNoteAdmin); err != nil {
		return err
	}
	return ensureRole(db, models.RoleNoteEditor)
}

func ensureRole(db *sql.DB, name string) error {
	_, err := db.Exec(`
		INSERT INTO role (name) VALUES ($1)
		ON CONFLICT (name) DO NOTHING`, name)
	return err
}
