package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mwillfox/flowline/internal/models"
)

// SessionWriter issues and clears the auth cookie on outgoing responses.
// Satisfied by auth.SessionIssuer.
type SessionWriter interface {
	Issue(c *gin.Context, user *models.User) error
	Clear(c *gin.Context)
}
