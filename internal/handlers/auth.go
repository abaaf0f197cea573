package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mwillfox/flowline/internal/services"
	"github.com/mwillfox/flowline/pkg/crypto"
	appErrors "github.com/mwillfox/flowline/pkg/errors"
	"github.com/mwillfox/flowline/pkg/metrics"
	"github.com/mwillfox/flowline/pkg/response"
)

// AuthHandler manages the local credential login/logout flow.
type AuthHandler struct {
	users    *services.UserService
	sessions SessionWriter
}

func NewAuthHandler(users *services.UserService, sessions SessionWriter) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/login. Pending users carry no password hash and can
// never authenticate here.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.GetByEmail(requestContext(c), strings.TrimSpace(req.Email))
	if err != nil || user.IsPending() || !crypto.VerifyPassword(user.Password, req.Password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, appErrors.ErrInvalidCredentials)
		return
	}

	if err := h.sessions.Issue(c, user); err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	response.Success(c, http.StatusOK, gin.H{"user": user.Public()})
}

// Logout handles POST /api/logout by clearing the session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"success": true})
}
