package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolpro-backend/models"
)

func TestApplyPaymentPartialThenPaid(t *testing.T) {
	f := newFixture(twoHeadLines())
	v := f.generate(t, 2026, 4) // total due 1500

	paymentDate := time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)
	updated, err := f.svc.ApplyPayment(v.ID, dec("600.00"), paymentDate, "cash", testOperator)
	require.NoError(t, err)
	assert.Equal(t, models.VoucherStatusPartial, updated.Status)
	assert.True(t, dec("600.00").Equal(updated.PaidAmount))
	assert.True(t, dec("900.00").Equal(updated.RemainingAmount))
	require.NotNil(t, updated.LastPaymentDate)
	assert.Equal(t, paymentDate, *updated.LastPaymentDate)

	updated, err = f.svc.ApplyPayment(v.ID, dec("900.00"), paymentDate.AddDate(0, 0, 3), "bank", testOperator)
	require.NoError(t, err)
	assert.Equal(t, models.VoucherStatusPaid, updated.Status)
	assert.True(t, updated.RemainingAmount.IsZero())

	// One audit row per payment
	require.Len(t, f.ledger.payments, 2)
	assert.True(t, dec("600.00").Equal(f.ledger.payments[0].Amount))
	assert.Equal(t, "cash", f.ledger.payments[0].Method)
	assert.True(t, dec("900.00").Equal(f.ledger.payments[1].Amount))
	assert.Equal(t, "bank", f.ledger.payments[1].Method)
}

func TestApplyPaymentWithinEpsilonSettles(t *testing.T) {
	f := newFixture(twoHeadLines())
	v := f.generate(t, 2026, 4)

	// 0.01 short still settles the voucher
	updated, err := f.svc.ApplyPayment(v.ID, dec("1499.99"), testDueDate, "cash", testOperator)
	require.NoError(t, err)
	assert.Equal(t, models.VoucherStatusPaid, updated.Status)
	assert.True(t, dec("0.01").Equal(updated.RemainingAmount))
}

func TestApplyPaymentRejectsNonPositiveAmounts(t *testing.T) {
	f := newFixture(twoHeadLines())
	v := f.generate(t, 2026, 4)

	_, err := f.svc.ApplyPayment(v.ID, dec("0"), testDueDate, "cash", testOperator)
	assert.ErrorIs(t, err, ErrInvalidPaymentAmount)

	_, err = f.svc.ApplyPayment(v.ID, dec("-50.00"), testDueDate, "cash", testOperator)
	assert.ErrorIs(t, err, ErrInvalidPaymentAmount)
}

func TestApplyPaymentRejectsOverpayment(t *testing.T) {
	f := newFixture(twoHeadLines())
	v := f.generate(t, 2026, 4) // total due 1500

	_, err := f.svc.ApplyPayment(v.ID, dec("1500.01"), testDueDate, "cash", testOperator)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOverpaymentRejected)

	var overpayment *OverpaymentError
	require.True(t, errors.As(err, &overpayment))
	assert.True(t, dec("1500.01").Equal(overpayment.Amount))
	assert.True(t, dec("1500.00").Equal(overpayment.TotalDue))

	// Nothing was recorded
	stored, err := f.svc.Ledger.FindByID(v.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.IsZero())
	assert.Empty(t, f.ledger.payments)
}

func TestApplyPaymentOverpaymentAllowance(t *testing.T) {
	f := newFixture(twoHeadLines())
	f.svc.OverpaymentAllowance = dec("5.00")
	v := f.generate(t, 2026, 4)

	updated, err := f.svc.ApplyPayment(v.ID, dec("1503.00"), testDueDate, "cash", testOperator)
	require.NoError(t, err)
	assert.Equal(t, models.VoucherStatusPaid, updated.Status)
	// Remaining never goes negative
	assert.True(t, updated.RemainingAmount.IsZero())

	_, err = f.svc.ApplyPayment(v.ID, dec("10.00"), testDueDate, "cash", testOperator)
	assert.ErrorIs(t, err, ErrOverpaymentRejected)
}

func TestApplyPaymentUnknownVoucher(t *testing.T) {
	f := newFixture(twoHeadLines())
	_, err := f.svc.ApplyPayment(testInstitution, dec("100.00"), testDueDate, "cash", testOperator)
	assert.ErrorIs(t, err, ErrVoucherNotFound)
}

func TestApplyPaymentConcurrentUpdate(t *testing.T) {
	f := newFixture(twoHeadLines())
	v := f.generate(t, 2026, 4)

	f.ledger.failNextPayment = true
	_, err := f.svc.ApplyPayment(v.ID, dec("100.00"), testDueDate, "cash", testOperator)
	assert.ErrorIs(t, err, ErrConcurrentUpdate)

	// A retry after the lost race goes through
	updated, err := f.svc.ApplyPayment(v.ID, dec("100.00"), testDueDate, "cash", testOperator)
	require.NoError(t, err)
	assert.True(t, dec("100.00").Equal(updated.PaidAmount))
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, models.VoucherStatusGenerated, deriveStatus(dec("100.00"), dec("0")))
	assert.Equal(t, models.VoucherStatusPartial, deriveStatus(dec("100.00"), dec("50.00")))
	assert.Equal(t, models.VoucherStatusPaid, deriveStatus(dec("100.00"), dec("100.00")))
	assert.Equal(t, models.VoucherStatusPaid, deriveStatus(dec("100.00"), dec("99.99")))
	assert.Equal(t, models.VoucherStatusPartial, deriveStatus(dec("100.00"), dec("99.98")))
	assert.Equal(t, models.VoucherStatusPaid, deriveStatus(dec("0"), dec("0")))
}

func TestSplitBilledIdentity(t *testing.T) {
	cases := []struct {
		current string
		percent int
		billed  string
	}{
		{"1000.00", 100, "1000.00"},
		{"1000.00", 60, "600.00"},
		{"999.99", 60, "599.99"},
		{"0.01", 50, "0.00"},
		{"333.33", 33, "109.99"},
	}
	for _, tc := range cases {
		billed, deferred := splitBilled(dec(tc.current), tc.percent)
		assert.True(t, dec(tc.billed).Equal(billed), "billed for %s at %d%%", tc.current, tc.percent)
		assert.True(t, billed.Add(deferred).Equal(dec(tc.current)), "identity for %s at %d%%", tc.current, tc.percent)
	}
}
