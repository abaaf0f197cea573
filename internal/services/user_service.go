package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mwillfox/flowline/internal/models"
	"github.com/mwillfox/flowline/pkg/metrics"
)

// deletionMode selects how a deleted user's owned resources are resolved.
type deletionMode int

const (
	// deletionTransfer repoints every ownership record to another user.
	deletionTransfer deletionMode = iota
	// deletionCascade removes the owned resources together with the user.
	deletionCascade
)

func (m deletionMode) String() string {
	if m == deletionTransfer {
		return "transfer"
	}
	return "cascade"
}

// ownedRelation describes one class of ownership records so both deletion
// modes run through a single procedure instead of per-entity copies.
type ownedRelation struct {
	shares     func() any // share row model, e.g. *models.SharedWorkflow
	resource   func() any // owned resource model, e.g. *models.Workflow
	resourceFK string     // share column referencing the resource
}

var ownedRelations = []ownedRelation{
	{
		shares:     func() any { return &models.SharedWorkflow{} },
		resource:   func() any { return &models.Workflow{} },
		resourceFK: "workflow_id",
	},
	{
		shares:     func() any { return &models.SharedCredential{} },
		resource:   func() any { return &models.Credential{} },
		resourceFK: "credential_id",
	},
}

// UserService lists accounts and removes them with their ownership records.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// GetByID loads a single user with role information.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// GetByEmail loads a single user by email address.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx = ensureContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user by email: %w", err)
	}
	return &user, nil
}

// List returns every account with role information attached.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	ctx = ensureContext(ctx)

	var users []models.User
	err := s.db.WithContext(ctx).
		Preload("Role").
		Order("created_at").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("user service: list users: %w", err)
	}
	return users, nil
}

// Delete removes the target user. When transferID is set, every ownership
// record is repointed to the transfer user and resources survive; otherwise
// the owned resources are deleted with the account. Either path runs as one
// transaction, so a partial failure leaves nothing orphaned.
func (s *UserService) Delete(ctx context.Context, callerID, targetID, transferID string) error {
	ctx = ensureContext(ctx)

	targetID = strings.TrimSpace(targetID)
	transferID = strings.TrimSpace(transferID)

	if targetID == callerID {
		return ErrCannotDeleteSelf
	}

	mode := deletionCascade
	searchIDs := []string{targetID}
	if transferID != "" {
		if transferID == targetID {
			return ErrTransferSameAsDeleted
		}
		mode = deletionTransfer
		searchIDs = append(searchIDs, transferID)
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", searchIDs).Find(&users).Error; err != nil {
		return fmt.Errorf("user service: find users: %w", err)
	}
	if (mode == deletionTransfer && len(users) != 2) || len(users) == 0 {
		return ErrUserNotFound
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rel := range ownedRelations {
			if err := resolveOwnership(tx, rel, mode, targetID, transferID); err != nil {
				return err
			}
		}
		return tx.Delete(&models.User{}, "id = ?", targetID).Error
	})
	if err != nil {
		return fmt.Errorf("user service: delete user: %w", err)
	}

	metrics.UserDeletions.WithLabelValues(mode.String()).Inc()
	return nil
}

// resolveOwnership handles one ownership relation inside the deletion
// transaction, either repointing share rows or removing shares and resources.
func resolveOwnership(tx *gorm.DB, rel ownedRelation, mode deletionMode, targetID, transferID string) error {
	if mode == deletionTransfer {
		return tx.Model(rel.shares()).
			Where("user_id = ?", targetID).
			Update("user_id", transferID).Error
	}

	var resourceIDs []string
	if err := tx.Model(rel.shares()).
		Where("user_id = ?", targetID).
		Pluck(rel.resourceFK, &resourceIDs).Error; err != nil {
		return err
	}

	if err := tx.Where("user_id = ?", targetID).Delete(rel.shares()).Error; err != nil {
		return err
	}

	if len(resourceIDs) > 0 {
		if err := tx.Where("id IN ?", resourceIDs).Delete(rel.resource()).Error; err != nil {
			return err
		}
	}

	return nil
}
