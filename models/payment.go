package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is the audit record of one payment applied to a voucher. The
// voucher's PaidAmount is the running total; payments are never edited.
type Payment struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	InstitutionID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	VoucherID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	StudentID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentDate      time.Time       `gorm:"not null"`
	Method           string          `gorm:"type:varchar(20);default:'cash'"` // cash, bank, online
	ReceivedByUserID uuid.UUID       `gorm:"type:uuid;index"`
	Notes            string

	CreatedAt time.Time
}
