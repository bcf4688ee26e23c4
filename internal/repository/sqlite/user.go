package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/xid"

	"github.com/nahid/queryhive-server/internal/apperror"
	"github.com/nahid/queryhive-server/internal/model"
	"github.com/nahid/queryhive-server/internal/repository"
)

// Compile-time check that *DB implements repository.UserRepository.
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new user.
//
// The email carries a UNIQUE constraint; we pre-check it so a duplicate
// signup surfaces as a typed Conflict rather than a raw constraint error.
// The pre-check and insert aren't a race in practice (the pool is a single
// connection), and the UNIQUE constraint backstops them regardless.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	var existingID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE email = ?`, user.Email,
	).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return storeErr("checking user email", err)
	}
	if existingID != "" {
		return apperror.Conflict("user", user.Email)
	}

	user.ID = xid.New().String()
	user.CreatedAt = time.Now()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, name, photo_url, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Name,
		user.PhotoURL,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		return storeErr("inserting user", err)
	}

	return nil
}

// GetUserByEmail retrieves a user by email. Returns NotFound when no user
// is registered under it.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	var u model.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, name, photo_url, password_hash, created_at
		 FROM users WHERE email = ?`,
		email,
	).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PhotoURL,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, storeErr("getting user", err)
	}

	return &u, nil
}

// UpsertUserByEmail inserts the user, or refreshes name and photo on the
// existing row keyed by email. Social sign-in calls this on every login so
// a changed GitHub profile propagates; the password hash of an existing
// account is left alone.
func (db *DB) UpsertUserByEmail(ctx context.Context, user *model.User) error {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	var existingID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE email = ?`, user.Email,
	).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return storeErr("looking up user by email", err)
	}

	if existingID != "" {
		user.ID = existingID
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET name = ?, photo_url = ? WHERE id = ?`,
			user.Name,
			user.PhotoURL,
			user.ID,
		)
		if err != nil {
			return storeErr("updating user", err)
		}
		return nil
	}

	user.ID = xid.New().String()
	user.CreatedAt = time.Now()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, name, photo_url, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Name,
		user.PhotoURL,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		return storeErr("inserting user", err)
	}

	return nil
}
