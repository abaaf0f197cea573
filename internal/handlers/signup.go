package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mwillfox/flowline/internal/services"
	apperrors "github.com/mwillfox/flowline/pkg/errors"
	"github.com/mwillfox/flowline/pkg/logger"
	"github.com/mwillfox/flowline/pkg/response"
)

// SignupHandler serves the public invite-acceptance flow: resolving a signup
// link into inviter display data, and activating a pending account.
type SignupHandler struct {
	signup   *services.SignupService
	sessions SessionWriter
}

func NewSignupHandler(signup *services.SignupService, sessions SessionWriter) *SignupHandler {
	return &SignupHandler{signup: signup, sessions: sessions}
}

type acceptInviteRequest struct {
	InviterID string `json:"inviterId" validate:"required"`
	InviteeID string `json:"inviteeId" validate:"required"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

// ResolveToken handles GET /api/resolve-signup-token. It validates the
// (inviterId, inviteeId) pair from the signup link and returns only the
// inviter's display name.
func (h *SignupHandler) ResolveToken(c *gin.Context) {
	inviter, err := h.signup.ResolveInvite(requestContext(c), c.Query("inviterId"), c.Query("inviteeId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"inviter": inviter})
}

// Accept handles POST /api/user. It activates the pending invitee, issues a
// session cookie for the now-active user, and returns the sanitized record.
func (h *SignupHandler) Accept(c *gin.Context) {
	var req acceptInviteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.signup.Accept(requestContext(c), services.AcceptInviteInput{
		InviterID: req.InviterID,
		InviteeID: req.InviteeID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	// The account is active at this point. A failed cookie write still has to
	// surface to the caller so they know to log in instead of retrying signup.
	if err := h.sessions.Issue(c, user); err != nil {
		logger.WithModule("handlers").Error("failed to issue session after invite acceptance",
			zap.Error(err))
		response.Error(c, apperrors.Wrap(err, "failed to issue session"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user.Public()})
}
