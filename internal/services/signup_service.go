package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mwillfox/flowline/internal/models"
	"github.com/mwillfox/flowline/pkg/crypto"
	apperrors "github.com/mwillfox/flowline/pkg/errors"
)

// InviterDisplay is the only inviter data exposed on the public signup form.
type InviterDisplay struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AcceptInviteInput carries the fields required to activate a pending account.
type AcceptInviteInput struct {
	InviterID string
	InviteeID string
	FirstName string
	LastName  string
	Password  string
}

// SignupService resolves signup links and converts pending users into active
// accounts exactly once.
type SignupService struct {
	db *gorm.DB
}

// NewSignupService constructs a SignupService instance.
func NewSignupService(db *gorm.DB) (*SignupService, error) {
	if db == nil {
		return nil, errors.New("signup service: db is required")
	}
	return &SignupService{db: db}, nil
}

// ResolveInvite validates the (inviter, invitee) pair from a signup link and
// returns the inviter's display name. The inviter must be an active account
// with an email and first name on record.
func (s *SignupService) ResolveInvite(ctx context.Context, inviterID, inviteeID string) (*InviterDisplay, error) {
	ctx = ensureContext(ctx)

	inviterID = strings.TrimSpace(inviterID)
	inviteeID = strings.TrimSpace(inviteeID)
	if inviterID == "" || inviteeID == "" {
		return nil, apperrors.NewBadRequest("Invalid payload")
	}

	users, err := s.findPair(ctx, inviterID, inviteeID)
	if err != nil {
		return nil, err
	}

	var inviter *models.User
	for i := range users {
		if users[i].ID == inviterID {
			inviter = &users[i]
		}
	}

	if inviter == nil || inviter.Email == "" || inviter.FirstName == "" {
		return nil, ErrInvalidInviteLink
	}

	return &InviterDisplay{FirstName: inviter.FirstName, LastName: inviter.LastName}, nil
}

// Accept activates a pending account: it sets the name fields and the password
// hash in a single write, exactly once per invitee.
func (s *SignupService) Accept(ctx context.Context, input AcceptInviteInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	if input.InviterID == "" || input.InviteeID == "" ||
		strings.TrimSpace(input.FirstName) == "" ||
		strings.TrimSpace(input.LastName) == "" ||
		input.Password == "" {
		return nil, apperrors.NewBadRequest("Invalid payload")
	}

	users, err := s.findPair(ctx, input.InviterID, input.InviteeID)
	if err != nil {
		return nil, err
	}

	var invitee *models.User
	for i := range users {
		if users[i].ID == input.InviteeID {
			invitee = &users[i]
		}
	}

	if invitee == nil || !invitee.IsPending() {
		return nil, ErrInviteAlreadyAccepted
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("signup service: hash password: %w", err)
	}

	updates := map[string]any{
		"first_name": strings.TrimSpace(input.FirstName),
		"last_name":  strings.TrimSpace(input.LastName),
		"password":   hashed,
	}
	if err := s.db.WithContext(ctx).Model(invitee).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("signup service: activate user: %w", err)
	}

	if err := s.db.WithContext(ctx).Preload("Role").First(invitee, "id = ?", invitee.ID).Error; err != nil {
		return nil, fmt.Errorf("signup service: reload user: %w", err)
	}

	return invitee, nil
}

// findPair loads the inviter and invitee rows; anything other than two
// distinct users means the link is stale or forged.
func (s *SignupService) findPair(ctx context.Context, inviterID, inviteeID string) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("id IN ?", []string{inviterID, inviteeID}).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("signup service: find invite pair: %w", err)
	}
	if len(users) != 2 {
		return nil, ErrInvalidInviteLink
	}
	return users, nil
}
