package repository

import (
	"database/sql"

	"notehub-api/models"

	"golang.org/x/crypto/bcrypt"
)

type UsersRepository struct {
	db *sql.DB
}

func NewUsersRepository(db *sql.DB) *UsersRepository {
	return &UsersRepository{db: db}
}

func (r *UsersRepository) CreateUser(username, password, displayedAuthorName string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if displayedAuthorName == "" {
		displayedAuthorName = username
	}
	var user models.User
	err = r.db.QueryRow(`
		INSERT INTO users (username, displayed_author_name, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, username, displayed_author_name, created_at`,
		username, displayedAuthorName, string(hash)).Scan(
		&user.ID, &user.Username, &user.DisplayedAuthorName, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UsersRepository) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.QueryRow(`
		SELECT id, username, displayed_author_name, password_hash, created_at
		FROM users
		WHERE username = $1`, username).Scan(
		&user.ID, &user.Username, &user.DisplayedAuthorName,
		&user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UsersRepository) GetUserByID(id int) (*models.User, error) {
	var user models.User
	err := r.db.QueryRow(`
		SELECT id, username, displayed_author_name, password_hash, created_at
		FROM users
		WHERE id = $1`, id).Scan(
		&user.ID, &user.Username, &user.DisplayedAuthorName,
		&user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// HasRole reports whether the user carries the named role.
func (r *UsersRepository) HasRole(userID int, role string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM user_role ur
			JOIN role ro ON ro.id = ur.role_id
			WHERE ur.user_id = $1 AND ro.name = $2
		)`, userID, role).Scan(&ok)
	return ok, err
}

// GrantRole assigns the named role to the user, idempotently.
func (r *UsersRepository) GrantRole(userID int, role string) error {
	_, err := r.db.Exec(`
		INSERT INTO user_role (user_id, role_id)
		SELECT $1, id FROM role WHERE name = $2
		ON CONFLICT DO NOTHING`, userID, role)
	return err
}

// RevokeRole removes the named role from the user.
func (r *UsersRepository) RevokeRole(userID int, role string) error {
	_, err := r.db.Exec(`
		DELETE FROM user_role ur
		USING role ro
		WHERE ur.role_id = ro.id AND ur.user_id = $1 AND ro.name = $2`,
		userID, role)
	return err
}
