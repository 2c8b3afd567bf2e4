package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/isdelr/member-accounts-be/internal/apperr"
	"github.com/isdelr/member-accounts-be/internal/auth"
	"github.com/isdelr/member-accounts-be/internal/config"
	"github.com/isdelr/member-accounts-be/internal/models"
	"github.com/isdelr/member-accounts-be/internal/repositories/users"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var errCredentials = apperr.New(apperr.Unauthorized, "Credentials do not match")

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, username, email, password string) (models.User, error)
	Login(ctx context.Context, username, password string) (models.User, error)
	DeleteUser(ctx context.Context, actor models.User, id string) error
	GetUserByToken(ctx context.Context, token string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	Ping(ctx context.Context) error
}

// UserService provides business logic for member accounts.
type UserService struct {
	repo         users.Repository
	hasher       *auth.Hasher
	deletePolicy string
	newToken     func() (string, error)
}

// NewUserService creates a new UserService.
func NewUserService(repo users.Repository, hasher *auth.Hasher, deletePolicy string) *UserService {
	return &UserService{
		repo:         repo,
		hasher:       hasher,
		deletePolicy: deletePolicy,
		newToken:     auth.NewAccessToken,
	}
}

type registration struct {
	Username string
	Email    string
	Password string
}

func (r registration) validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required.Error("username is required")),
		validation.Field(&r.Email,
			validation.Required.Error("useremail is required"),
			validation.Match(emailPattern).Error("Invalid email address"),
		),
		validation.Field(&r.Password, validation.Required.Error("password is required")),
	)
}

// Register creates a new member account with a hashed password and a fresh
// access token.
func (s *UserService) Register(ctx context.Context, username, email, password string) (models.User, error) {
	in := registration{
		Username: strings.TrimSpace(username),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: password,
	}
	if err := in.validate(); err != nil {
		return models.User{}, apperr.Wrap(apperr.Validation, validationMessage(err), err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return models.User{}, apperr.Wrap(apperr.Validation, "password is too long", err)
		}
		return models.User{}, apperr.Wrap(apperr.Internal, "failed to hash password", err)
	}

	token, err := s.newToken()
	if err != nil {
		return models.User{}, apperr.Wrap(apperr.Internal, "failed to issue access token", err)
	}

	user, err := s.repo.Create(ctx, models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		AccessToken:  token,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrDuplicateUsername):
			return models.User{}, apperr.Wrap(apperr.Conflict, users.ErrDuplicateUsername.Error(), err)
		case errors.Is(err, users.ErrDuplicateEmail):
			return models.User{}, apperr.Wrap(apperr.Conflict, users.ErrDuplicateEmail.Error(), err)
		default:
			return models.User{}, apperr.Wrap(apperr.Internal, "failed to create user", err)
		}
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// Login verifies a user's credentials and grants membership. Repeated logins
// re-assert the same membership values.
func (s *UserService) Login(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return models.User{}, errCredentials
		}
		return models.User{}, apperr.Wrap(apperr.Internal, "failed to load user", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrMismatchedPassword) {
			return models.User{}, errCredentials
		}
		return models.User{}, apperr.Wrap(apperr.Internal, "failed to verify password", err)
	}

	user, err = s.repo.SetMembership(ctx, user.ID, models.MemberDiscount)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return models.User{}, errCredentials
		}
		return models.User{}, apperr.Wrap(apperr.Internal, "failed to update membership", err)
	}

	user.PasswordHash = ""
	return user, nil
}

// DeleteUser removes the account id on behalf of actor. Under the "any"
// policy every authenticated actor may delete every account.
func (s *UserService) DeleteUser(ctx context.Context, actor models.User, id string) error {
	if s.deletePolicy == config.DeletePolicyOwner && actor.ID != id {
		return apperr.New(apperr.Forbidden, "You can only delete your own account")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return apperr.Wrap(apperr.NotFound, "User not found", err)
		}
		return apperr.Wrap(apperr.Internal, fmt.Sprintf("failed to delete user %s", id), err)
	}
	return nil
}

// GetUserByToken resolves an access token to its account.
func (s *UserService) GetUserByToken(ctx context.Context, token string) (models.User, error) {
	user, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return models.User{}, apperr.Wrap(apperr.Unauthorized, "Please log in", err)
		}
		return models.User{}, apperr.Wrap(apperr.Internal, "failed to resolve access token", err)
	}
	user.PasswordHash = ""
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return models.User{}, apperr.Wrap(apperr.NotFound, "User not found", err)
		}
		return models.User{}, apperr.Wrap(apperr.Internal, "failed to load user", err)
	}
	user.PasswordHash = ""
	return user, nil
}

// Ping checks that the user store is reachable.
func (s *UserService) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return apperr.Wrap(apperr.Internal, "store unavailable", err)
	}
	return nil
}

// validationMessage flattens ozzo field errors into one stable message.
func validationMessage(err error) string {
	var fields validation.Errors
	if !errors.As(err, &fields) {
		return "Invalid request"
	}
	// Report fields in a fixed order.
	msgs := make([]string, 0, len(fields))
	for _, key := range []string{"Username", "Email", "Password"} {
		if ferr, ok := fields[key]; ok && ferr != nil {
			msgs = append(msgs, ferr.Error())
		}
	}
	if len(msgs) == 0 {
		return "Invalid request"
	}
	return strings.Join(msgs, "; ")
}
