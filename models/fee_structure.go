package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FeeStructure is one row of the per-class fee matrix: the base amount owed
// for one fee head by every student of a class in an academic year.
type FeeStructure struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	InstitutionID uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_structure_row,priority:1"`
	AcademicYear  string    `gorm:"not null;uniqueIndex:idx_structure_row,priority:2"`
	ClassID       uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_structure_row,priority:3"`
	FeeHeadID     uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_structure_row,priority:4"`

	Amount decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	FeeHead FeeHead `gorm:"foreignKey:FeeHeadID"`
	Class   Class   `gorm:"foreignKey:ClassID"`

	gorm.Model
}
