package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Domain errors surfaced by the voucher engine. All of them are recoverable
// at the caller: batch generation collects them per student and continues,
// payment endpoints return them for operator correction. Only storage-layer
// failures propagate as plain infrastructure errors.
var (
	ErrNoFeeStructure       = errors.New("no fee structure configured for the student's class and academic year")
	ErrStudentNotEnrolled   = errors.New("student is not enrolled for the academic year")
	ErrDuplicatePeriod      = errors.New("a voucher already exists for this student and period")
	ErrInvalidPeriod        = errors.New("month must be between 1 and 12")
	ErrInvalidPaymentAmount = errors.New("payment amount must be greater than zero")
	ErrOverpaymentRejected  = errors.New("payment would exceed the voucher's total due")
	ErrVoucherNotFound      = errors.New("voucher not found")
	ErrConcurrentUpdate     = errors.New("voucher was updated concurrently, retry the payment")
	ErrVoucherNotDeletable  = errors.New("only a student's most recent voucher with no payments can be deleted")

	// internal: unique-index collision on the voucher number, retried once
	errDuplicateVoucherNumber = errors.New("voucher number already taken")
)

// OverpaymentError carries the rejected amount and the voucher's current
// balances so the operator can correct the entry.
type OverpaymentError struct {
	Amount    decimal.Decimal
	TotalDue  decimal.Decimal
	Remaining decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment of %s rejected: total due is %s, remaining %s",
		e.Amount.StringFixed(2), e.TotalDue.StringFixed(2), e.Remaining.StringFixed(2))
}

func (e *OverpaymentError) Unwrap() error { return ErrOverpaymentRejected }
