package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	iauth "github.com/mwillfox/flowline/internal/auth"
	"github.com/mwillfox/flowline/internal/database/testutil"
	"github.com/mwillfox/flowline/internal/models"
	"github.com/mwillfox/flowline/internal/services"
	"github.com/mwillfox/flowline/pkg/crypto"
	"github.com/mwillfox/flowline/pkg/mail"
	"github.com/mwillfox/flowline/pkg/response"
)

type recordingMailer struct {
	sent []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB, *recordingMailer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate(), testutil.WithSeedData())

	jwt, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "router-test-secret"})
	require.NoError(t, err)
	sessions, err := iauth.NewSessionIssuer(jwt, false)
	require.NoError(t, err)

	mailer := &recordingMailer{}
	users, err := services.NewUserService(db)
	require.NoError(t, err)
	invites, err := services.NewInviteService(db, mailer,
		services.WithInviteBaseURL("https://flowline.test"))
	require.NoError(t, err)
	signup, err := services.NewSignupService(db)
	require.NoError(t, err)

	router, err := NewRouter(Deps{
		DB:       db,
		JWT:      jwt,
		Sessions: sessions,
		Users:    users,
		Invites:  invites,
		Signup:   signup,
	})
	require.NoError(t, err)

	return router, db, mailer
}

func seedActiveUser(t *testing.T, db *gorm.DB, email, password string) *models.User {
	t.Helper()

	hash, err := crypto.HashPassword(password)
	require.NoError(t, err)

	var role models.Role
	require.NoError(t, db.
		Where("scope = ? AND name = ?", models.RoleScopeGlobal, models.RoleNameMember).
		First(&role).Error)

	user := models.User{
		Email:     email,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Password:  hash,
		RoleID:    role.ID,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func doJSON(router *gin.Engine, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func sessionCookie(t *testing.T, recorder *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == iauth.SessionCookieName && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestRouterPublicAndProtectedRoutes(t *testing.T) {
	router, _, _ := newTestRouter(t)

	recorder := doJSON(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSON(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	for _, route := range []struct {
		method string
		target string
	}{
		{http.MethodGet, "/api/users"},
		{http.MethodPost, "/api/users"},
		{http.MethodDelete, "/api/users/some-id"},
		{http.MethodPost, "/api/users/some-id/reinvite"},
	} {
		recorder = doJSON(router, route.method, route.target, "")
		require.Equal(t, http.StatusUnauthorized, recorder.Code,
			"%s %s should require auth", route.method, route.target)
	}
}

func TestRouterInviteAcceptLoginFlow(t *testing.T) {
	router, db, mailer := newTestRouter(t)
	owner := seedActiveUser(t, db, "owner@flowline.test", "owner-password")

	// Login as the inviting owner.
	login := doJSON(router, http.MethodPost, "/api/login",
		`{"email":"owner@flowline.test","password":"owner-password"}`)
	require.Equal(t, http.StatusOK, login.Code)
	ownerCookie := sessionCookie(t, login)

	// Invite a new member.
	invite := doJSON(router, http.MethodPost, "/api/users",
		`[{"email":"grace@flowline.test"}]`, ownerCookie)
	require.Equal(t, http.StatusOK, invite.Code)
	require.Len(t, mailer.sent, 1)

	var payload response.Response
	require.NoError(t, json.Unmarshal(invite.Body.Bytes(), &payload))
	data, err := json.Marshal(payload.Data)
	require.NoError(t, err)
	var results []services.InviteResult
	require.NoError(t, json.Unmarshal(data, &results))
	require.Len(t, results, 1)
	inviteeID := results[0].ID
	require.NotEmpty(t, inviteeID)

	acceptBody := `{"inviterId":"` + owner.ID + `","inviteeId":"` + inviteeID + `",` +
		`"firstName":"Grace","lastName":"Hopper","password":"compilers4ever"}`

	// A signed-in caller must not be able to accept an invite.
	hijack := doJSON(router, http.MethodPost, "/api/user", acceptBody, ownerCookie)
	require.Equal(t, http.StatusInternalServerError, hijack.Code)
	var hijackPayload response.Response
	require.NoError(t, json.Unmarshal(hijack.Body.Bytes(), &hijackPayload))
	require.Equal(t, "ALREADY_AUTHENTICATED", hijackPayload.Error.Code)

	// The guest invitee accepts and receives a session.
	accept := doJSON(router, http.MethodPost, "/api/user", acceptBody)
	require.Equal(t, http.StatusOK, accept.Code)
	inviteeCookie := sessionCookie(t, accept)

	// The now-active member can list users.
	list := doJSON(router, http.MethodGet, "/api/users", "", inviteeCookie)
	require.Equal(t, http.StatusOK, list.Code)
	require.NotContains(t, list.Body.String(), "password")
}

func TestRouterResolveSignupToken(t *testing.T) {
	router, db, _ := newTestRouter(t)
	owner := seedActiveUser(t, db, "owner@flowline.test", "owner-password")

	var memberRole models.Role
	require.NoError(t, db.First(&memberRole, "name = ?", models.RoleNameMember).Error)
	pending := models.User{Email: "pending@flowline.test", RoleID: memberRole.ID}
	require.NoError(t, db.Create(&pending).Error)

	recorder := doJSON(router, http.MethodGet,
		"/api/resolve-signup-token?inviterId="+owner.ID+"&inviteeId="+pending.ID, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "Ada")

	recorder = doJSON(router, http.MethodGet,
		"/api/resolve-signup-token?inviterId="+owner.ID+"&inviteeId=unknown", "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}
