package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mwillfox/flowline/internal/middleware"
	"github.com/mwillfox/flowline/internal/models"
	"github.com/mwillfox/flowline/internal/services"
	appErrors "github.com/mwillfox/flowline/pkg/errors"
	"github.com/mwillfox/flowline/pkg/response"
)

// UserHandler exposes user administration: bulk invitation, listing,
// deletion with ownership transfer, and reinvitation.
type UserHandler struct {
	users   *services.UserService
	invites *services.InviteService
}

func NewUserHandler(users *services.UserService, invites *services.InviteService) *UserHandler {
	return &UserHandler{users: users, invites: invites}
}

type inviteRequest struct {
	Email string `json:"email" validate:"required"`
}

// Invite handles POST /api/users.
// The body is an array of {email}; the response is the per-email outcome list.
func (h *UserHandler) Invite(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req []inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return
	}

	emails := make([]string, 0, len(req))
	for _, item := range req {
		emails = append(emails, item.Email)
	}

	results, err := h.invites.InviteMany(requestContext(c), userID, emails)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, results)
}

// List handles GET /api/users. Every returned user is sanitized.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"users": models.PublicUsers(users)})
}

// Get handles GET /api/users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user.Public()})
}

// Delete handles DELETE /api/users/:id with an optional transferId query
// parameter selecting transfer instead of cascade for owned resources.
func (h *UserHandler) Delete(c *gin.Context) {
	callerID := c.GetString(middleware.CtxUserIDKey)
	if callerID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	targetID := c.Param("id")
	transferID := strings.TrimSpace(c.Query("transferId"))

	if err := h.users.Delete(requestContext(c), callerID, targetID, transferID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"success": true})
}

// Reinvite handles POST /api/users/:id/reinvite.
func (h *UserHandler) Reinvite(c *gin.Context) {
	callerID := c.GetString(middleware.CtxUserIDKey)
	if callerID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.invites.Reinvite(requestContext(c), callerID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"success": true})
}
