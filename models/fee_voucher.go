package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Voucher statuses. Status is always derived from paid vs. total due, never
// set directly by callers.
const (
	VoucherStatusGenerated = "generated"
	VoucherStatusPartial   = "partial"
	VoucherStatusPaid      = "paid"
)

// FeeVoucher is one student's bill for one calendar month at one institution.
// Exactly one voucher may exist per (institution, student, year, month).
// The billed fields (Items through TotalDue) represent what was billed and are
// immutable after generation; only the payment fields change afterwards.
// Corrections require delete-and-regenerate, never in-place mutation.
type FeeVoucher struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	InstitutionID uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_voucher_period,priority:1"`
	StudentID     uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_voucher_period,priority:2"`
	Year          int       `gorm:"not null;uniqueIndex:idx_voucher_period,priority:3"`
	Month         int       `gorm:"not null;uniqueIndex:idx_voucher_period,priority:4"` // 1..12

	VoucherNumber string `gorm:"uniqueIndex;not null"`
	AcademicYear  string `gorm:"not null"`

	Items   []VoucherItem `gorm:"foreignKey:VoucherID"`
	Student Student       `gorm:"foreignKey:StudentID"`

	CurrentMonthAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	BilledAmount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DeferredAmount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ArrearsBroughtForward decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalDue              decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	PaidAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status          string          `gorm:"type:varchar(20);not null;default:'generated'"`

	InstallmentPlanID *uuid.UUID `gorm:"type:uuid;index"`
	BillPercent       int        `gorm:"not null;default:100"` // snapshot of the plan used

	DueDate         time.Time
	GeneratedAt     time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	LastPaymentDate *time.Time
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// VoucherItem is one fee head billed on a voucher. The fee head name is
// snapshotted so the voucher reads the same even if the catalog is renamed.
type VoucherItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	VoucherID   uuid.UUID `gorm:"type:uuid;index;not null"`
	FeeHeadID   uuid.UUID `gorm:"type:uuid;index;not null"`
	FeeHeadName string    `gorm:"not null"`
	Priority    int       `gorm:"default:0"`

	BaseAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null"` // BaseAmount - DiscountAmount, never negative
}
