package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/MatanTal2/sayeret-givati-sub001/internal/model"
)

// CreateUser creates a new user with a generated ID.
func CreateUser(ctx context.Context, db *sql.DB, username, name, passwordHash, role string) (*model.User, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO users (id, username, name, password_hash, role) VALUES (?, ?, ?, ?, ?)`,
		id, username, name, passwordHash, role,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sql.DB, id string) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, name, password_hash, role, created_at, deleted_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns the active user holding a username. Soft
// deletion frees the username, so deleted accounts never match.
func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, name, password_hash, role, created_at, deleted_at
		 FROM users WHERE username = ? AND deleted_at IS NULL`, username,
	).Scan(&u.ID, &u.Username, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, username, name, password_hash, role, created_at, deleted_at
		 FROM users WHERE deleted_at IS NULL ORDER BY username`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser updates a user's display name and role.
func UpdateUser(ctx context.Context, db *sql.DB, id, name, role string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET name = ?, role = ? WHERE id = ? AND deleted_at IS NULL`,
		name, role, id,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}
