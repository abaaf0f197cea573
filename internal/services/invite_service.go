package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mwillfox/flowline/internal/models"
	apperrors "github.com/mwillfox/flowline/pkg/errors"
	"github.com/mwillfox/flowline/pkg/logger"
	"github.com/mwillfox/flowline/pkg/mail"
	"github.com/mwillfox/flowline/pkg/metrics"
	appvalidator "github.com/mwillfox/flowline/pkg/validator"
)

var errMemberRoleMissing = apperrors.New(
	"MEMBER_ROLE_MISSING",
	"Member role not found in database - inconsistent state",
	http.StatusInternalServerError,
)

// InviteOption customises InviteService behaviour.
type InviteOption func(*InviteService)

// WithInviteBaseURL configures the base URL used to build signup-accept links.
// A trailing slash is stripped so links always have a single separator.
func WithInviteBaseURL(url string) InviteOption {
	return func(s *InviteService) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// InviteResult is the per-email outcome of one invitation batch. Emails that
// belong to already-active members carry no ID and receive no email.
type InviteResult struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email"`
	Error string `json:"error,omitempty"`
}

// InviteService creates pending accounts in bulk and dispatches signup links.
// Notifications run strictly after the creation transaction commits; delivery
// failures are reported per recipient and never roll accounts back.
type InviteService struct {
	db      *gorm.DB
	mailer  mail.Mailer
	baseURL string
	log     *zap.Logger
}

// NewInviteService constructs an InviteService. A nil mailer means outbound
// email is not configured and every invitation call fails its precondition.
func NewInviteService(db *gorm.DB, mailer mail.Mailer, opts ...InviteOption) (*InviteService, error) {
	if db == nil {
		return nil, errors.New("invite service: db is required")
	}

	service := &InviteService{
		db:     db,
		mailer: mailer,
		log:    logger.WithModule("invites"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// InviteMany validates the batch, creates pending users for emails that do not
// resolve to an existing account, and emails a signup link to each newly
// created user. Emails of active members are skipped; emails of still-pending
// users resolve to the existing account without a duplicate row or a resend.
func (s *InviteService) InviteMany(ctx context.Context, inviterID string, emails []string) ([]InviteResult, error) {
	ctx = ensureContext(ctx)

	if s.mailer == nil {
		return nil, ErrEmailNotConfigured
	}

	// Validate and deduplicate before touching the store. The first invalid
	// address fails the whole batch.
	requested := make([]string, 0, len(emails))
	ids := make(map[string]string, len(emails))
	for _, raw := range emails {
		email := strings.ToLower(strings.TrimSpace(raw))
		if !appvalidator.IsEmail(email) {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("Invalid email address %s", raw))
		}
		if _, seen := ids[email]; seen {
			continue
		}
		ids[email] = ""
		requested = append(requested, email)
	}

	if len(requested) == 0 {
		return []InviteResult{}, nil
	}

	// Resolve existing accounts in one query. Active members leave the
	// creation set entirely; pending users keep their existing id.
	var existing []models.User
	if err := s.db.WithContext(ctx).Where("email IN ?", requested).Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("invite service: find existing users: %w", err)
	}

	skipped := make(map[string]bool, len(existing))
	for _, user := range existing {
		if user.IsPending() {
			ids[user.Email] = user.ID
			continue
		}
		skipped[user.Email] = true
	}

	role, err := s.memberRole(ctx)
	if err != nil {
		return nil, err
	}

	// Create every unresolved email as a pending user inside one transaction.
	// Any insert failure (including an email-uniqueness race with a concurrent
	// batch) rolls back the whole batch.
	created := make(map[string]bool, len(requested))
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, email := range requested {
			if skipped[email] || ids[email] != "" {
				continue
			}
			user := &models.User{Email: email, RoleID: role.ID}
			if err := tx.Create(user).Error; err != nil {
				return err
			}
			ids[email] = user.ID
			created[email] = true
		}
		return nil
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			s.log.Warn("invite batch lost uniqueness race", zap.Error(err))
		}
		return nil, ErrUserCreationFailed.WithInternal(err)
	}

	// Post-commit notification: best effort, at most once, never compensating.
	results := make([]InviteResult, 0, len(requested))
	for _, email := range requested {
		result := InviteResult{Email: email}
		if skipped[email] {
			results = append(results, result)
			continue
		}

		result.ID = ids[email]
		if created[email] {
			if err := s.sendInvite(ctx, email, inviterID, result.ID); err != nil {
				s.log.Warn("invite email failed",
					zap.String("email", email),
					zap.Error(err),
				)
				metrics.InviteEmails.WithLabelValues("failed").Inc()
				result.Error = "Email could not be sent"
			} else {
				metrics.InviteEmails.WithLabelValues("sent").Inc()
			}
		}
		results = append(results, result)
	}

	return results, nil
}

// Reinvite resends the signup link to a still-pending user. Delivery failure
// is fatal here, unlike during bulk invitation.
func (s *InviteService) Reinvite(ctx context.Context, inviterID, userID string) error {
	ctx = ensureContext(ctx)

	if s.mailer == nil {
		return ErrEmailNotConfigured
	}

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("invite service: load user: %w", err)
	}

	if !user.IsPending() {
		return ErrInviteAlreadyAccepted
	}

	if err := s.sendInvite(ctx, user.Email, inviterID, user.ID); err != nil {
		metrics.InviteEmails.WithLabelValues("failed").Inc()
		appErr := apperrors.New(
			ErrEmailDeliveryFailed.Code,
			fmt.Sprintf("Failed to send email to %s", user.Email),
			ErrEmailDeliveryFailed.StatusCode,
		)
		return appErr.WithInternal(err)
	}

	metrics.InviteEmails.WithLabelValues("sent").Inc()
	return nil
}

// SignupLink builds the accept URL embedded in invite emails.
func (s *InviteService) SignupLink(inviterID, inviteeID string) string {
	return fmt.Sprintf("%s/signup?inviterId=%s&inviteeId=%s", s.baseURL, inviterID, inviteeID)
}

func (s *InviteService) memberRole(ctx context.Context) (*models.Role, error) {
	var role models.Role
	err := s.db.WithContext(ctx).
		Where("scope = ? AND name = ?", models.RoleScopeGlobal, models.RoleNameMember).
		First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errMemberRoleMissing
	}
	if err != nil {
		return nil, fmt.Errorf("invite service: load member role: %w", err)
	}
	return &role, nil
}

func (s *InviteService) sendInvite(ctx context.Context, email, inviterID, inviteeID string) error {
	link := s.SignupLink(inviterID, inviteeID)
	message := mail.Message{
		To:      []string{email},
		Subject: "You've been invited to Flowline",
		Body: fmt.Sprintf(
			"Hello,\n\nYou have been invited to join Flowline. Use the following link to set up your account:\n%s\n\nIf you did not expect this email, you can ignore it.\n",
			link,
		),
	}
	return s.mailer.Send(ctx, message)
}
