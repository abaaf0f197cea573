package models

import "gorm.io/datatypes"

// Workflow is an automation definition. Node and connection payloads are
// opaque to this service and stored as JSON.
type Workflow struct {
	BaseModel

	Name        string         `gorm:"not null" json:"name"`
	Active      bool           `gorm:"default:false" json:"active"`
	Nodes       datatypes.JSON `json:"nodes,omitempty"`
	Connections datatypes.JSON `json:"connections,omitempty"`
}

// SharedWorkflow links an owning user to a workflow.
type SharedWorkflow struct {
	BaseModel

	UserID     string `gorm:"type:uuid;not null;index" json:"user_id"`
	WorkflowID string `gorm:"type:uuid;not null;index" json:"workflow_id"`

	User     *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Workflow *Workflow `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
