// Package users serves account registration and the current-user lookup.
package users

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clairehq/claire/internal/auth"
	"github.com/clairehq/claire/internal/http/respond"
	"github.com/clairehq/claire/internal/user"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/register", h.register)
	r.Get("/me", h.me)
}

type userResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// register provisions the account behind the caller's identity token.
// Accounts are created lazily by the auth middleware, so this is
// idempotent: a repeat call returns the existing account.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	respond.JSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	respond.JSON(w, http.StatusOK, toUserResponse(u))
}
