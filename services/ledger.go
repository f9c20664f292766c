package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"schoolpro-backend/models"
)

// VoucherLedger is the durable store of generated vouchers. The storage
// layer enforces the (institution, student, year, month) and voucher-number
// uniqueness so concurrent generation attempts fail safely instead of racing.
// Billed fields are written once at Insert; RecordPayment may only touch the
// payment-related columns.
type VoucherLedger interface {
	FindByID(id uuid.UUID) (*models.FeeVoucher, error)
	FindByPeriod(institutionID, studentID uuid.UUID, year, month int) (*models.FeeVoucher, error)
	FindLatestBefore(institutionID, studentID uuid.UUID, year, month int) (*models.FeeVoucher, error)
	FindLatest(institutionID, studentID uuid.UUID) (*models.FeeVoucher, error)
	FindByNumber(institutionID uuid.UUID, voucherNumber string) (*models.FeeVoucher, error)
	Insert(v *models.FeeVoucher) error
	// RecordPayment persists the recomputed payment fields and the payment
	// audit row, conditional on the voucher's stored PaidAmount still being
	// expectedPaid. A lost race returns ErrConcurrentUpdate.
	RecordPayment(v *models.FeeVoucher, expectedPaid decimal.Decimal, payment *models.Payment) error
	Delete(id uuid.UUID) error
}

type gormVoucherLedger struct{ db *gorm.DB }

// NewVoucherLedger returns the Postgres-backed ledger.
func NewVoucherLedger(db *gorm.DB) VoucherLedger {
	return &gormVoucherLedger{db: db}
}

func (l *gormVoucherLedger) FindByID(id uuid.UUID) (*models.FeeVoucher, error) {
	var v models.FeeVoucher
	err := l.db.Preload("Items").First(&v, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVoucherNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// FindByPeriod returns (nil, nil) when no voucher exists for the period.
func (l *gormVoucherLedger) FindByPeriod(institutionID, studentID uuid.UUID, year, month int) (*models.FeeVoucher, error) {
	var v models.FeeVoucher
	err := l.db.Preload("Items").
		Where("institution_id = ? AND student_id = ? AND year = ? AND month = ?",
			institutionID, studentID, year, month).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// FindLatestBefore returns the most recent voucher strictly before the given
// period, by (year, month) ordering, or (nil, nil) when none exists.
func (l *gormVoucherLedger) FindLatestBefore(institutionID, studentID uuid.UUID, year, month int) (*models.FeeVoucher, error) {
	var v models.FeeVoucher
	err := l.db.
		Where("institution_id = ? AND student_id = ? AND (year < ? OR (year = ? AND month < ?))",
			institutionID, studentID, year, year, month).
		Order("year DESC, month DESC").
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (l *gormVoucherLedger) FindLatest(institutionID, studentID uuid.UUID) (*models.FeeVoucher, error) {
	var v models.FeeVoucher
	err := l.db.
		Where("institution_id = ? AND student_id = ?", institutionID, studentID).
		Order("year DESC, month DESC").
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (l *gormVoucherLedger) FindByNumber(institutionID uuid.UUID, voucherNumber string) (*models.FeeVoucher, error) {
	var v models.FeeVoucher
	err := l.db.Preload("Items").
		Where("institution_id = ? AND voucher_number = ?", institutionID, voucherNumber).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVoucherNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (l *gormVoucherLedger) Insert(v *models.FeeVoucher) error {
	err := l.db.Create(v).Error
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "idx_voucher_period") {
		return ErrDuplicatePeriod
	}
	if strings.Contains(msg, "voucher_number") {
		return errDuplicateVoucherNumber
	}
	if strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique") {
		return ErrDuplicatePeriod
	}
	return err
}

func (l *gormVoucherLedger) RecordPayment(v *models.FeeVoucher, expectedPaid decimal.Decimal, payment *models.Payment) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.FeeVoucher{}).
			Where("id = ? AND paid_amount = ?", v.ID, expectedPaid).
			Updates(map[string]interface{}{
				"paid_amount":       v.PaidAmount,
				"remaining_amount":  v.RemainingAmount,
				"status":            v.Status,
				"last_payment_date": v.LastPaymentDate,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrentUpdate
		}
		return tx.Create(payment).Error
	})
}

func (l *gormVoucherLedger) Delete(id uuid.UUID) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("voucher_id = ?", id).Delete(&models.VoucherItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.FeeVoucher{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVoucherNotFound
		}
		return nil
	})
}
