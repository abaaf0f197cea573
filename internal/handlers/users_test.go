package handlers

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

	"github.com/mwillfox/flowline/internal/database/testutil"
	"github.com/mwillfox/flowline/internal/middleware"
	"github.com/mwillfox/flowline/internal/models"
	"github.com/mwillfox/flowline/internal/services"
	"github.com/mwillfox/flowline/pkg/crypto"
	"github.com/mwillfox/flowline/pkg/mail"
	"github.com/mwillfox/flowline/pkg/response"
)

type stubMailer struct {
	sent []mail.Message
}

func (m *stubMailer) Send(_ context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func newUserHandler(t *testing.T, db *gorm.DB, mailer mail.Mailer) *UserHandler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users, err := services.NewUserService(db)
	require.NoError(t, err)
	invites, err := services.NewInviteService(db, mailer,
		services.WithInviteBaseURL("https://flowline.test"))
	require.NoError(t, err)

	return NewUserHandler(users, invites)
}

func memberRoleID(t *testing.T, db *gorm.DB) string {
	t.Helper()

	var role models.Role
	require.NoError(t, db.
		Where("scope = ? AND name = ?", models.RoleScopeGlobal, models.RoleNameMember).
		First(&role).Error)
	return role.ID
}

func createActiveUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := crypto.HashPassword("correct horse battery")
	require.NoError(t, err)

	user := models.User{
		Email:     email,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Password:  hash,
		RoleID:    memberRoleID(t, db),
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder) response.Response {
	t.Helper()

	var payload response.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	return payload
}

func TestUserHandlerInviteCreatesPendingUsers(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate(), testutil.WithSeedData())
	mailer := &stubMailer{}
	handler := newUserHandler(t, db, mailer)
	inviter := createActiveUser(t, db, "owner@flowline.test")

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Set(middleware.CtxUserIDKey, inviter.ID)
	c.Request = jsonRequest(http.MethodPost, "/api/users",
		`[{"email":"a@flowline.test"},{"email":"b@flowline.test"}]`)

	handler.Invite(c)

	require.Equal(t, http.StatusOK, recorder.Code)
	payload := decodeResponse(t, recorder)
	require.True(t, payload.Success)

	data, err := json.Marshal(payload.Data)
	require.NoError(t, err)
	var results []services.InviteResult
	require.NoError(t, json.Unmarshal(data, &results))
	require.Len(t, results, 2)
	for _, result := range results {
		require.NotEmpty(t, result.ID)
		require.Empty(t, result.Error)
	}
	require.Len(t, mailer.sent, 2)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("password = ''").Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestUserHandlerInviteWithoutMailer(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate(), testutil.WithSeedData())
	handler := newUserHandler(t, db, nil)
	inviter := createActiveUser(t, db, "owner@flowline.test")

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Set(middleware.CtxUserIDKey, inviter.ID)
	c.Request = jsonRequest(http.MethodPost, "/api/users", `[{"email":"a@flowline.test"}]`)

	handler.Invite(c)

	require.Equal(t, http.StatusInternalServerError, recorder.Code)
	payload := decodeResponse(t, recorder)
	require.False(t, payload.Success)
	require.Equal(t, "EMAIL_NOT_CONFIGURED", payload.Error.Code)
}

func TestUserHandlerInviteRejectsMalformedBody(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate(), testutil.WithSeedData())
	handler := newUserHandler(t, db, &stubMailer{})
	inviter := createActiveUser(t, db, "owner@flowline.test")

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Set(middleware.CtxUserIDKey, inviter.ID)
	c.Request = jsonRequest(http.MethodPost, "/api/users", `{"email":"not-an-array"}`)

	handler.Invite(c)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestUserHandlerListSanitizesUsers(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate(), testutil.WithSeedData())
	handler := newUserHandler(t, db, &stubMailer{})
	createActiveUser(t, db, "owner@flowline.test")

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/users", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotContains(t, recorder.Body.String(), "password")
	require.NotContains(t, recorder.Body.String(), "correct horse battery")

	payload := decodeResponse(t, recorder)
	require.True(t, payload.Success)
}

func TestUserHandlerDeleteSelfRejected(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate(), testutil.WithSeedData())
	handler := newUserHandler(t, db, &stubMailer{})
	caller := createActiveUser(t, db, "owner@flowline.test")

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Set(middleware.CtxUserIDKey, caller.ID)
	c.Params = gin.Params{gin.Param{Key: "id", Value: caller.ID}}
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/users/"+caller.ID, nil)

	handler.Delete(c)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	payload := decodeResponse(t, recorder)
	require.Equal(t, "CANNOT_DELETE_SELF", payload.Error.Code)
}

func TestUserHandlerDeleteWithTransfer(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate(), testutil.WithSeedData())
	handler := newUserHandler(t, db, &stubMailer{})
	caller := createActiveUser(t, db, "owner@flowline.test")
	target := createActiveUser(t, db, "target@flowline.test")
	heir := createActiveUser(t, db, "heir@flowline.test")

	workflow := models.Workflow{Name: "nightly-sync"}
	require.NoError(t, db.Create(&workflow).Error)
	require.NoError(t, db.Create(&models.SharedWorkflow{UserID: target.ID, WorkflowID: workflow.ID}).Error)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Set(middleware.CtxUserIDKey, caller.ID)
	c.Params = gin.Params{gin.Param{Key: "id", Value: target.ID}}
	c.Request = httptest.NewRequest(http.MethodDelete,
		"/api/users/"+target.ID+"?transferId="+heir.ID, nil)

	handler.Delete(c)

	require.Equal(t, http.StatusOK, recorder.Code)
	payload := decodeResponse(t, recorder)
	require.True(t, payload.Success)

	var share models.SharedWorkflow
	require.NoError(t, db.Where("workflow_id = ?", workflow.ID).First(&share).Error)
	require.Equal(t, heir.ID, share.UserID)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", target.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestUserHandlerReinvitePendingUser(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate(), testutil.WithSeedData())
	mailer := &stubMailer{}
	handler := newUserHandler(t, db, mailer)
	inviter := createActiveUser(t, db, "owner@flowline.test")

	pending := models.User{Email: "pending@flowline.test", RoleID: memberRoleID(t, db)}
	require.NoError(t, db.Create(&pending).Error)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Set(middleware.CtxUserIDKey, inviter.ID)
	c.Params = gin.Params{gin.Param{Key: "id", Value: pending.ID}}
	c.Request = httptest.NewRequest(http.MethodPost, "/api/users/"+pending.ID+"/reinvite", nil)

	handler.Reinvite(c)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, mailer.sent, 1)
	require.Contains(t, mailer.sent[0].To, pending.Email)
}

func TestUserHandlerGetUnknownUser(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate(), testutil.WithSeedData())
	handler := newUserHandler(t, db, &stubMailer{})

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Params = gin.Params{gin.Param{Key: "id", Value: "missing"}}
	c.Request = httptest.NewRequest(http.MethodGet, "/api/users/missing", nil)

	handler.Get(c)

	require.Equal(t, http.StatusNotFound, recorder.Code)
}
