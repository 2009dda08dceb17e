package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cinetick/booking/internal/model"
)

// UserRepo resolves user records.  The booking core only ever looks a
// user up by id before creating a booking; account management belongs
// to the identity service that owns the `users` table.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// FindByID loads a user by primary key.  It returns ErrUserNotFound
// when no row exists.
func (r *UserRepo) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	const q = `SELECT id, email, full_name, is_active, created_at FROM users WHERE id = ?`
	var u model.User
	err := r.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Email, &u.FullName, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
