package models

// Credential stores third-party connection secrets used by workflows. The
// encrypted payload is opaque to this service and never serialised to clients.
type Credential struct {
	BaseModel

	Name string `gorm:"not null" json:"name"`
	Type string `gorm:"not null;index" json:"type"`
	Data string `json:"-"`
}

// SharedCredential links an owning user to a credential.
type SharedCredential struct {
	BaseModel

	UserID       string `gorm:"type:uuid;not null;index" json:"user_id"`
	CredentialID string `gorm:"type:uuid;not null;index" json:"credential_id"`

	User       *User       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Credential *Credential `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
