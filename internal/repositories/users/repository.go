// Package users persists member accounts. Two backends implement Repository:
// sqlite through database/sql and MongoDB through the official driver.
package users

import (
	"context"
	"errors"

	"github.com/isdelr/member-accounts-be/internal/models"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("useremail already exists")
	ErrDuplicateToken    = errors.New("access token already exists")
)

// Repository stores users. Uniqueness of username, email and access token is
// enforced by the backend, so concurrent inserts race there and one wins.
type Repository interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	GetByToken(ctx context.Context, token string) (models.User, error)
	SetMembership(ctx context.Context, id string, discount float64) (models.User, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
