package database

import (
	"gorm.io/gorm"

	"github.com/mwillfox/flowline/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Workflow{},
		&models.Credential{},
		&models.SharedWorkflow{},
		&models.SharedCredential{},
	)
}

// SeedData populates the global role catalog. Roles are looked up at runtime
// and never created per request, so missing rows here are a deployment fault.
func SeedData(db *gorm.DB) error {
	roles := []models.Role{
		{Scope: models.RoleScopeGlobal, Name: models.RoleNameOwner},
		{Scope: models.RoleScopeGlobal, Name: models.RoleNameMember},
	}

	for _, role := range roles {
		if err := db.
			Where(models.Role{Scope: role.Scope, Name: role.Name}).
			Attrs(role).
			FirstOrCreate(&models.Role{}).Error; err != nil {
			return err
		}
	}

	return nil
}
