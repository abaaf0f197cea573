package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/mwillfox/flowline/pkg/errors"
)

// Errors raised by the account lifecycle services. Each maps onto an HTTP
// status at the transport boundary.
var (
	// ErrEmailNotConfigured guards invitation flows that require outbound email.
	ErrEmailNotConfigured = apperrors.New(
		"EMAIL_NOT_CONFIGURED",
		"Email sending must be set up in order to invite other users",
		http.StatusInternalServerError,
	)
	// ErrUserCreationFailed wraps a failed (and rolled back) invite batch transaction.
	ErrUserCreationFailed = apperrors.New(
		"USER_CREATION_FAILED",
		"An error occurred during user creation",
		http.StatusInternalServerError,
	)
	// ErrInvalidInviteLink indicates an unresolvable or inconsistent inviter/invitee pair.
	ErrInvalidInviteLink = apperrors.New(
		"INVALID_INVITE_LINK",
		"Invalid invite URL",
		http.StatusBadRequest,
	)
	// ErrInviteAlreadyAccepted signals the invitee already holds a password.
	ErrInviteAlreadyAccepted = apperrors.New(
		"INVITE_ALREADY_ACCEPTED",
		"This invite has been accepted already",
		http.StatusBadRequest,
	)
	// ErrAlreadyAuthenticated rejects invite acceptance from a signed-in caller.
	// Classified as a server error to match the upstream behaviour this flow
	// replicates; see DESIGN.md.
	ErrAlreadyAuthenticated = apperrors.New(
		"ALREADY_AUTHENTICATED",
		"Please log out before accepting another invite",
		http.StatusInternalServerError,
	)
	// ErrCannotDeleteSelf blocks deleting the calling user's own account.
	ErrCannotDeleteSelf = apperrors.New(
		"CANNOT_DELETE_SELF",
		"You cannot delete your own user",
		http.StatusBadRequest,
	)
	// ErrTransferSameAsDeleted blocks transferring ownership to the deleted user.
	ErrTransferSameAsDeleted = apperrors.New(
		"TRANSFER_TARGET_SAME_AS_DELETED",
		"Removed user and transferred user cannot be the same",
		http.StatusBadRequest,
	)
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New(
		"USER_NOT_FOUND",
		"User not found",
		http.StatusNotFound,
	)
	// ErrEmailDeliveryFailed is fatal for single reinvites, unlike batch invites.
	ErrEmailDeliveryFailed = apperrors.New(
		"EMAIL_DELIVERY_FAILED",
		"Failed to send invite email",
		http.StatusInternalServerError,
	)
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") ||
		strings.Contains(lower, "duplicate") ||
		strings.Contains(lower, "constraint")
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
