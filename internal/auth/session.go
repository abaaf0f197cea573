package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mwillfox/flowline/internal/models"
)

// SessionCookieName is the cookie carrying the signed access token.
const SessionCookieName = "flowline_auth"

// SessionIssuer writes and clears the session credential on HTTP responses.
type SessionIssuer struct {
	jwt    *JWTService
	secure bool
}

// NewSessionIssuer builds a SessionIssuer around the JWT service. When secure
// is set the cookie is only sent over TLS.
func NewSessionIssuer(jwt *JWTService, secure bool) (*SessionIssuer, error) {
	if jwt == nil {
		return nil, errors.New("session issuer: jwt service is required")
	}
	return &SessionIssuer{jwt: jwt, secure: secure}, nil
}

// Issue generates an access token for the user and sets it as an HttpOnly cookie.
func (s *SessionIssuer) Issue(c *gin.Context, user *models.User) error {
	if user == nil || user.ID == "" {
		return errors.New("session issuer: user is required")
	}

	token, err := s.jwt.GenerateAccessToken(user.ID)
	if err != nil {
		return err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, int(s.jwt.TTL().Seconds()), "/", "", s.secure, true)
	return nil
}

// Clear expires the session cookie.
func (s *SessionIssuer) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", s.secure, true)
}
