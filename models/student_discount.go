package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Discount types
const (
	DiscountTypeAmount     = "amount"
	DiscountTypePercentage = "percentage"
)

// StudentDiscount is a standing reduction applied at every future voucher
// generation until deactivated. A null FeeHeadID means the discount applies
// to the voucher's net total; otherwise only to that fee head's item.
// Inactive discounts never affect new generation but remain for audit.
type StudentDiscount struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	InstitutionID uuid.UUID  `gorm:"type:uuid;index;not null"`
	StudentID     uuid.UUID  `gorm:"type:uuid;index;not null"`
	FeeHeadID     *uuid.UUID `gorm:"type:uuid;index"`

	DiscountType string          `gorm:"type:varchar(20);not null"` // 'amount' or 'percentage'
	Value        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reason       string
	IsActive     bool `gorm:"default:true"`

	FeeHead *FeeHead `gorm:"foreignKey:FeeHeadID"`

	gorm.Model
}
