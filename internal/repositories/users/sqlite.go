package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/isdelr/member-accounts-be/internal/models"
)

const userColumns = "id, username, email, password_hash, is_member, discount, access_token, created_at"

var _ Repository = (*SQLiteRepository)(nil)

// SQLiteRepository stores users in a sqlite table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an already migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts user with a fresh id and returns the stored row.
func (r *SQLiteRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	user.ID = uuid.New().String()

	stmt, err := r.db.PrepareContext(ctx, "INSERT INTO users(id, username, email, password_hash, is_member, discount, access_token) VALUES(?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return models.User{}, err
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, user.ID, user.Username, user.Email, user.PasswordHash, user.IsMember, user.Discount, user.AccessToken)
	if err != nil {
		return models.User{}, sqliteConstraintError(err)
	}
	return r.GetByID(ctx, user.ID)
}

// GetByID retrieves a single user by their ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	return r.getOne(ctx, "id", id)
}

// GetByUsername retrieves a single user by their username, including the password hash.
func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return r.getOne(ctx, "username", username)
}

// GetByToken retrieves the user owning an access token.
func (r *SQLiteRepository) GetByToken(ctx context.Context, token string) (models.User, error) {
	return r.getOne(ctx, "access_token", token)
}

// SetMembership marks the user as a member with the given discount.
func (r *SQLiteRepository) SetMembership(ctx context.Context, id string, discount float64) (models.User, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET is_member = 1, discount = ? WHERE id = ?", discount, id)
	if err != nil {
		return models.User{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.User{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes a user from the database.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// column is always one of the constants above, never user input.
func (r *SQLiteRepository) getOne(ctx context.Context, column, value string) (models.User, error) {
	var user models.User
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+column+" = ?", value)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.IsMember, &user.Discount, &user.AccessToken, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func sqliteConstraintError(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return err
	}
	switch {
	case strings.Contains(msg, "users.username"):
		return fmt.Errorf("%w: %v", ErrDuplicateUsername, err)
	case strings.Contains(msg, "users.email"):
		return fmt.Errorf("%w: %v", ErrDuplicateEmail, err)
	case strings.Contains(msg, "users.access_token"):
		return fmt.Errorf("%w: %v", ErrDuplicateToken, err)
	default:
		return err
	}
}
