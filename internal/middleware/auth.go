package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/mwillfox/flowline/internal/auth"
	"github.com/mwillfox/flowline/pkg/errors"
	"github.com/mwillfox/flowline/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
)

// extractToken pulls the access token from the session cookie or, failing
// that, a bearer Authorization header.
func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(iauth.SessionCookieName); err == nil && cookie != "" {
		return cookie
	}

	authz := c.GetHeader("Authorization")
	if len(authz) >= 8 && strings.EqualFold(authz[:7], "Bearer ") {
		return strings.TrimSpace(authz[7:])
	}

	return ""
}

// Auth enforces authentication using the supplied JWT service.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)

		c.Next()
	}
}

// Guest rejects callers that already hold a valid session. Accepting an
// invite while signed in would silently attach the invite to the wrong
// account.
func Guest(jwt *iauth.JWTService, rejection error) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token != "" {
			if _, err := jwt.ValidateAccessToken(token); err == nil {
				response.Error(c, rejection)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
