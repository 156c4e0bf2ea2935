package handler

import (
	"net/http"

	"github.com/avezina/identity-service/internal/http/middleware"
	"github.com/avezina/identity-service/internal/http/response"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler { return &UserHandler{} }

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	session, _ := middleware.SessionFromContext(r.Context())
	response.JSON(w, r, http.StatusOK, map[string]any{
		"user":               user,
		"session_expires_at": session.ExpiresAt,
	})
}
