package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/pzyt/crystal-healing/internal/domain"
)

// ─── User Operations ────────────────────────────────────────────────────────

// CreateUser inserts a new account and returns it with the generated id.
// A duplicate email maps to domain.ErrEmailTaken.
func (db *DB) CreateUser(email, passwordHash, fullName string) (*domain.User, error) {
	res, err := db.db.Exec(`
		INSERT INTO users (email, password_hash, full_name)
		VALUES (?, ?, ?)
	`, email, passwordHash, fullName)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.UserByID(id)
}

// UserByEmail fetches an account by email.
func (db *DB) UserByEmail(email string) (*domain.User, error) {
	return db.scanUser(db.db.QueryRow(`
		SELECT id, email, password_hash, full_name, credits, created_at, updated_at
		FROM users WHERE email = ?
	`, email))
}

// UserByID fetches an account by id.
func (db *DB) UserByID(id int64) (*domain.User, error) {
	return db.scanUser(db.db.QueryRow(`
		SELECT id, email, password_hash, full_name, credits, created_at, updated_at
		FROM users WHERE id = ?
	`, id))
}

// UpdateUserProfile updates the display name.
func (db *DB) UpdateUserProfile(id int64, fullName string) (*domain.User, error) {
	res, err := db.db.Exec(`
		UPDATE users SET full_name = ?, updated_at = datetime('now') WHERE id = ?
	`, fullName, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrUserNotFound
	}
	return db.UserByID(id)
}

// AddCredits grants reading credits outside the payment flow (admin top-up).
func (db *DB) AddCredits(id int64, n int) error {
	res, err := db.db.Exec(`
		UPDATE users SET credits = credits + ?, updated_at = datetime('now') WHERE id = ?
	`, n, id)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (db *DB) scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var createdStr, updatedStr string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Credits, &createdStr, &updatedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = parseTime(createdStr)
	u.UpdatedAt = parseTime(updatedStr)
	return &u, nil
}
