package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InstallmentPlan states what percentage of a month's net charge is billed
// immediately; the remainder is deferred to the next period. A row with a
// null InstitutionID is a global/default plan.
type InstallmentPlan struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	InstitutionID *uuid.UUID `gorm:"type:uuid;index"`
	Name          string     `gorm:"not null"`
	BillPercent   int        `gorm:"not null"` // 1..100
	IsActive      bool       `gorm:"default:true"`

	gorm.Model
}
