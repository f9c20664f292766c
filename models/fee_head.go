package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Fee head frequency classifications
const (
	FeeFrequencyMonthly = "monthly"
	FeeFrequencyOneTime = "one-time"
	FeeFrequencyAdhoc   = "adhoc"
)

// FeeHead is a named charge category (e.g. Tuition Fee, Transport Fee).
// Shared across institutions; referenced by fee structures, discounts and
// voucher items.
type FeeHead struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name         string    `gorm:"uniqueIndex;not null"`
	Priority     int       `gorm:"default:0"` // application/display order, lowest first
	AccountClass string    `gorm:"type:varchar(40)"`
	Frequency    string    `gorm:"type:varchar(20);default:'monthly'"`
	IsActive     bool      `gorm:"default:true"`

	FeeStructures []FeeStructure `gorm:"foreignKey:FeeHeadID"`

	gorm.Model
}
