package store

import (
	"fmt"
	"time"
)

// AdminUser is a login for the admin pages and JSON API.
type AdminUser struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

func (db *DB) CreateAdminUser(username, passwordHash string) error {
	if err := checkRequired("username", username, 50); err != nil {
		return err
	}
	if _, err := db.c().exec(`INSERT INTO admin_users (username, password_hash) VALUES (?, ?)`, username, passwordHash); err != nil {
		return fmt.Errorf("create admin user %s: %w", username, err)
	}
	return nil
}

func (db *DB) GetAdminUser(username string) (*AdminUser, error) {
	var (
		u         AdminUser
		createdAt any
	)
	err := db.c().queryRow(`SELECT id, username, password_hash, created_at FROM admin_users WHERE username=?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if err != nil {
		return nil, notFound(err)
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

func (db *DB) SetAdminPassword(username, passwordHash string) error {
	if err := mustAffect(db.c().exec(`UPDATE admin_users SET password_hash=? WHERE username=?`, passwordHash, username)); err != nil {
		return fmt.Errorf("set password for %s: %w", username, err)
	}
	return nil
}

func (db *DB) AdminUserExists() (bool, error) {
	var n int
	if err := db.c().queryRow(`SELECT COUNT(*) FROM admin_users`).Scan(&n); err != nil {
		return false, fmt.Errorf("count admin users: %w", err)
	}
	return n > 0, nil
}
