package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/isdelr/member-accounts-be/internal/api/respond"
	"github.com/isdelr/member-accounts-be/internal/apperr"
	"github.com/isdelr/member-accounts-be/internal/auth"
	"github.com/isdelr/member-accounts-be/internal/services"
	"github.com/rs/zerolog/log"
)

// Greeting is the body served on the root path.
const Greeting = "Hello Technigo!"

var errInvalidBody = apperr.New(apperr.Validation, "Invalid request body")

// UserHandler handles HTTP requests for member accounts.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"useremail"`
	Password string `json:"password"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	Username    string `json:"username"`
	Email       string `json:"useremail"`
	ID          string `json:"id"`
	AccessToken string `json:"accessToken"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Username    string  `json:"username"`
	ID          string  `json:"id"`
	Email       string  `json:"useremail"`
	AccessToken string  `json:"accessToken"`
	Discount    float64 `json:"discount"`
}

// MeResponse describes the authenticated account.
type MeResponse struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	Email       string  `json:"useremail"`
	IsMember    bool    `json:"isMember"`
	Discount    float64 `json:"discount"`
	AccessToken string  `json:"accessToken"`
}

// Root serves the plain-text greeting.
func (h *UserHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(Greeting))
}

// Health reports whether the user store is reachable.
func (h *UserHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		log.Error().Err(err).Msg("Health check failed")
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok")
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Error(w, errInvalidBody)
		return
	}

	user, err := h.service.Register(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			log.Error().Err(err).Str("username", payload.Username).Msg("Failed to register user")
		} else {
			log.Info().Err(err).Str("username", payload.Username).Msg("Registration rejected")
		}
		respond.Error(w, err)
		return
	}

	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	respond.JSON(w, http.StatusCreated, RegisterResponse{
		Username:    user.Username,
		Email:       user.Email,
		ID:          user.ID,
		AccessToken: user.AccessToken,
	})
}

// Login handles credential checks and membership activation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Error(w, errInvalidBody)
		return
	}

	user, err := h.service.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			log.Error().Err(err).Str("username", payload.Username).Msg("Failed to log in user")
		} else {
			log.Warn().Str("username", payload.Username).Msg("Failed authentication attempt")
		}
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, LoginResponse{
		Username:    user.Username,
		ID:          user.ID,
		Email:       user.Email,
		AccessToken: user.AccessToken,
		Discount:    user.Discount,
	})
}

// GetMe returns the account attached to the request by the access guard.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve identity from context")
		respond.Error(w, apperr.New(apperr.Internal, "missing identity"))
		return
	}

	respond.JSON(w, http.StatusOK, MeResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		IsMember:    user.IsMember,
		Discount:    user.Discount,
		AccessToken: user.AccessToken,
	})
}

// Delete handles the permanent deletion of a user account.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve identity from context")
		respond.Error(w, apperr.New(apperr.Internal, "missing identity"))
		return
	}

	if err := h.service.DeleteUser(r.Context(), actor, id); err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			log.Error().Err(err).Str("user_id", id).Msg("Failed to delete user")
		} else {
			log.Info().Err(err).Str("user_id", id).Str("actor_id", actor.ID).Msg("Delete rejected")
		}
		respond.Error(w, err)
		return
	}

	log.Info().Str("user_id", id).Str("actor_id", actor.ID).Msg("User deleted")
	respond.JSON(w, http.StatusOK, "User deleted")
}
