package models

import (
	"time"

	"gorm.io/gorm"
)

// Feature request statuses
const (
	FeatureStatusOpen     = "open"
	FeatureStatusPlanned  = "planned"
	FeatureStatusBuilding = "building"
	FeatureStatusShipped  = "shipped"
	FeatureStatusDeclined = "declined"
)

// FeatureRequest represents one wish on the back-office feature board
type FeatureRequest struct {
	ID          uint64         `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"type:varchar(255)" json:"title" validate:"required,min=3,max=255"`
	Description string         `gorm:"type:text" json:"description" validate:"required"`
	Category    string         `gorm:"type:varchar(50);index" json:"category" validate:"omitempty,max=50"`
	Status      string         `gorm:"type:varchar(20);default:'open';index" json:"status"`
	Votes       int            `gorm:"default:0" json:"votes"`
	SubmittedBy string         `gorm:"type:varchar(100)" json:"submitted_by" validate:"omitempty,max=100"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the FeatureRequest model
func (FeatureRequest) TableName() string {
	return "feature_requests"
}

// IsValidStatus reports whether s is one of the known feature statuses
func IsValidStatus(s string) bool {
	switch s {
	case FeatureStatusOpen, FeatureStatusPlanned, FeatureStatusBuilding, FeatureStatusShipped, FeatureStatusDeclined:
		return true
	}
	return false
}
