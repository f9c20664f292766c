package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Student struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	InstitutionID   uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_institution_admission,priority:1"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null"`

	AdmissionNumber string `gorm:"not null;uniqueIndex:idx_institution_admission,priority:2"`
	Name            string `gorm:"not null"`
	GuardianName    string
	GuardianPhone   string

	ClassID      uuid.UUID `gorm:"type:uuid;index;not null"`
	AcademicYear string    `gorm:"not null"` // e.g. "2026-2027"
	AdmittedAt   *time.Time
	IsEnrolled   bool `gorm:"default:true"`

	Class     Class             `gorm:"foreignKey:ClassID"`
	Discounts []StudentDiscount `gorm:"foreignKey:StudentID"`
	Vouchers  []FeeVoucher      `gorm:"foreignKey:StudentID"`

	gorm.Model
}
