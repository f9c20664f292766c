package services

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"schoolpro-backend/models"
	"schoolpro-backend/utils"
)

// Remainders at or below this are treated as fully paid, so cash entries a
// paisa off don't leave a voucher stuck in partial.
var paymentEpsilon = decimal.New(1, -2) // 0.01

var oneHundred = decimal.NewFromInt(100)

// VoucherService generates monthly fee vouchers and applies payments to them.
// All monetary arithmetic is decimal at two places; the invariants
// billed + deferred == currentMonth and totalDue == billed + arrears hold
// exactly for every voucher it produces.
type VoucherService struct {
	Structures  FeeStructureSource
	Discounts   DiscountSource
	Plans       PlanSource
	Enrollments EnrollmentSource
	Ledger      VoucherLedger

	// Payments may exceed totalDue by at most this much before being
	// rejected. Zero by default; overpayment credit is not handled here.
	OverpaymentAllowance decimal.Decimal
}

// NewVoucherService wires the Postgres-backed sources and ledger.
func NewVoucherService(db *gorm.DB) *VoucherService {
	allowance := decimal.Zero
	if env := os.Getenv("VOUCHER_OVERPAYMENT_ALLOWANCE"); env != "" {
		if d, err := decimal.NewFromString(env); err == nil && !d.IsNegative() {
			allowance = d
		}
	}
	return &VoucherService{
		Structures:           &gormFeeStructureSource{db: db},
		Discounts:            &gormDiscountSource{db: db},
		Plans:                &gormPlanSource{db: db},
		Enrollments:          &gormEnrollmentSource{db: db},
		Ledger:               NewVoucherLedger(db),
		OverpaymentAllowance: allowance,
	}
}

// Generate computes and persists the fee voucher for one student and one
// billing period:
//
//  1. base amounts from the class fee structure
//  2. per-head and overall discounts
//  3. billed/deferred split per the resolved installment plan
//  4. arrears brought forward from the immediately preceding voucher
//
// Re-invoking for a period that already has a voucher fails with
// ErrDuplicatePeriod; corrections go through delete-and-regenerate.
func (s *VoucherService) Generate(institutionID, studentID uuid.UUID, academicYear string, year, month int, dueDate time.Time, generatedBy uuid.UUID) (*models.FeeVoucher, error) {
	if month < 1 || month > 12 {
		return nil, ErrInvalidPeriod
	}

	enrollment, err := s.Enrollments.Enrollment(institutionID, studentID)
	if err != nil {
		return nil, err
	}
	if !enrollment.IsEnrolled || enrollment.AcademicYear != academicYear {
		return nil, ErrStudentNotEnrolled
	}

	// Cheap pre-check; the ledger's unique index is what actually guards
	// against two concurrent generations for the same period.
	if existing, err := s.Ledger.FindByPeriod(institutionID, studentID, year, month); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrDuplicatePeriod
	}

	lines, err := s.Structures.StructureFor(institutionID, academicYear, enrollment.ClassID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrNoFeeStructure
	}

	discounts, err := s.Discounts.ActiveDiscounts(institutionID, studentID)
	if err != nil {
		return nil, err
	}

	items := buildItems(lines, discounts)

	currentMonth := decimal.Zero
	for _, item := range items {
		currentMonth = currentMonth.Add(item.FinalAmount)
	}

	plan, err := s.Plans.ResolvePlan(institutionID)
	if err != nil {
		return nil, err
	}
	billPercent := 100
	var planID *uuid.UUID
	if plan != nil {
		billPercent = plan.BillPercent
		planID = &plan.ID
	}
	billed, deferred := splitBilled(currentMonth, billPercent)

	// Arrears are threaded from the single immediately preceding voucher,
	// never aggregated across periods, so the chain stays auditable.
	arrears := decimal.Zero
	prior, err := s.Ledger.FindLatestBefore(institutionID, studentID, year, month)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		arrears = prior.RemainingAmount.Add(prior.DeferredAmount)
	}

	totalDue := billed.Add(arrears)
	status := models.VoucherStatusGenerated
	if totalDue.IsZero() {
		status = models.VoucherStatusPaid
	}

	voucher := &models.FeeVoucher{
		ID:                    uuid.New(),
		InstitutionID:         institutionID,
		StudentID:             studentID,
		Year:                  year,
		Month:                 month,
		AcademicYear:          academicYear,
		Items:                 items,
		CurrentMonthAmount:    currentMonth,
		BilledAmount:          billed,
		DeferredAmount:        deferred,
		ArrearsBroughtForward: arrears,
		TotalDue:              totalDue,
		PaidAmount:            decimal.Zero,
		RemainingAmount:       totalDue,
		Status:                status,
		InstallmentPlanID:     planID,
		BillPercent:           billPercent,
		DueDate:               dueDate,
		GeneratedAt:           time.Now(),
		CreatedByUserID:       generatedBy,
	}

	// The number only has to be unique; retry once on a suffix collision.
	for attempt := 0; ; attempt++ {
		voucher.VoucherNumber = fmt.Sprintf("FV-%04d%02d-%s", year, month, utils.GenerateRandomString(6))
		err = s.Ledger.Insert(voucher)
		if errors.Is(err, errDuplicateVoucherNumber) && attempt == 0 {
			continue
		}
		break
	}
	if err != nil {
		return nil, err
	}
	return voucher, nil
}

// BatchFailure names the student and cause for one failed generation.
type BatchFailure struct {
	StudentID       uuid.UUID `json:"studentId"`
	AdmissionNumber string    `json:"admissionNumber"`
	Error           string    `json:"error"`
	Err             error     `json:"-"`
}

// BatchResult summarizes one institution-wide generation run.
type BatchResult struct {
	Year      int            `json:"year"`
	Month     int            `json:"month"`
	Generated int            `json:"generated"`
	Failures  []BatchFailure `json:"failures"`
}

// GenerateBatch generates the period's voucher for every enrolled student of
// the institution. A student's failure never aborts the batch; failures are
// collected and reported while successes commit independently.
func (s *VoucherService) GenerateBatch(institutionID uuid.UUID, academicYear string, year, month int, dueDate time.Time, generatedBy uuid.UUID) (*BatchResult, error) {
	if month < 1 || month > 12 {
		return nil, ErrInvalidPeriod
	}

	students, err := s.Enrollments.EnrolledStudents(institutionID, academicYear)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Year: year, Month: month}
	for _, student := range students {
		if _, err := s.Generate(institutionID, student.ID, academicYear, year, month, dueDate, generatedBy); err != nil {
			result.Failures = append(result.Failures, BatchFailure{
				StudentID:       student.ID,
				AdmissionNumber: student.AdmissionNumber,
				Error:           err.Error(),
				Err:             err,
			})
			continue
		}
		result.Generated++
	}
	return result, nil
}

// ApplyPayment adds a payment to the voucher and recomputes its remaining
// balance and status. Multiple partial payments are expected; the ledger's
// conditional update guarantees two concurrent payments can't both read the
// same PaidAmount and lose one of the updates.
func (s *VoucherService) ApplyPayment(voucherID uuid.UUID, amount decimal.Decimal, paymentDate time.Time, method string, receivedBy uuid.UUID) (*models.FeeVoucher, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidPaymentAmount
	}

	voucher, err := s.Ledger.FindByID(voucherID)
	if err != nil {
		return nil, err
	}

	expectedPaid := voucher.PaidAmount
	newPaid := expectedPaid.Add(amount)
	if newPaid.GreaterThan(voucher.TotalDue.Add(s.OverpaymentAllowance)) {
		return nil, &OverpaymentError{
			Amount:    amount,
			TotalDue:  voucher.TotalDue,
			Remaining: voucher.RemainingAmount,
		}
	}

	voucher.PaidAmount = newPaid
	voucher.RemainingAmount = decimal.Max(decimal.Zero, voucher.TotalDue.Sub(newPaid))
	voucher.Status = deriveStatus(voucher.TotalDue, newPaid)
	voucher.LastPaymentDate = &paymentDate

	payment := &models.Payment{
		ID:               uuid.New(),
		InstitutionID:    voucher.InstitutionID,
		VoucherID:        voucher.ID,
		StudentID:        voucher.StudentID,
		Amount:           amount,
		PaymentDate:      paymentDate,
		Method:           method,
		ReceivedByUserID: receivedBy,
	}

	if err := s.Ledger.RecordPayment(voucher, expectedPaid, payment); err != nil {
		return nil, err
	}
	return voucher, nil
}

// GetVoucher looks a voucher up by period.
func (s *VoucherService) GetVoucher(institutionID, studentID uuid.UUID, year, month int) (*models.FeeVoucher, error) {
	voucher, err := s.Ledger.FindByPeriod(institutionID, studentID, year, month)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}
	return voucher, nil
}

// GetVoucherByNumber looks a voucher up by its external reference number.
func (s *VoucherService) GetVoucherByNumber(institutionID uuid.UUID, voucherNumber string) (*models.FeeVoucher, error) {
	return s.Ledger.FindByNumber(institutionID, voucherNumber)
}

// DeleteForRegeneration removes a voucher as the first half of the explicit
// delete-and-regenerate correction workflow. Only the student's most recent
// voucher may go, and only while nothing has been paid against it; anything
// else would either break the arrears chain of later vouchers or discard
// recorded payments.
func (s *VoucherService) DeleteForRegeneration(institutionID, voucherID uuid.UUID) error {
	voucher, err := s.Ledger.FindByID(voucherID)
	if err != nil {
		return err
	}
	if voucher.InstitutionID != institutionID {
		return ErrVoucherNotFound
	}

	latest, err := s.Ledger.FindLatest(institutionID, voucher.StudentID)
	if err != nil {
		return err
	}
	if latest == nil || latest.ID != voucher.ID || !voucher.PaidAmount.IsZero() {
		return ErrVoucherNotDeletable
	}
	return s.Ledger.Delete(voucher.ID)
}

/* ---------------- computation helpers ---------------- */

// buildItems turns structure lines into voucher items with discounts applied.
// Per-head discounts bind to their item; overall discounts spread over the
// items that have no per-head discount: percentages uniformly per item, flat
// amounts pro-rata by base share with the last item absorbing the rounding
// remainder so the sum is exact.
func buildItems(lines []StructureLine, discounts []models.StudentDiscount) []models.VoucherItem {
	perHead := make(map[uuid.UUID][]models.StudentDiscount)
	overallPercent := decimal.Zero
	overallFlat := decimal.Zero
	for _, d := range discounts {
		if !d.IsActive {
			continue
		}
		if d.FeeHeadID == nil {
			if d.DiscountType == models.DiscountTypePercentage {
				overallPercent = overallPercent.Add(d.Value)
			} else {
				overallFlat = overallFlat.Add(d.Value)
			}
			continue
		}
		perHead[*d.FeeHeadID] = append(perHead[*d.FeeHeadID], d)
	}
	if overallPercent.GreaterThan(oneHundred) {
		overallPercent = oneHundred
	}

	items := make([]models.VoucherItem, 0, len(lines))
	var uncovered []int // indexes of items with no per-head discount
	for _, line := range lines {
		item := models.VoucherItem{
			ID:             uuid.New(),
			FeeHeadID:      line.FeeHeadID,
			FeeHeadName:    line.FeeHeadName,
			Priority:       line.Priority,
			BaseAmount:     line.Amount,
			DiscountAmount: decimal.Zero,
		}
		if heads := perHead[line.FeeHeadID]; len(heads) > 0 {
			for _, d := range heads {
				item.DiscountAmount = item.DiscountAmount.Add(discountValue(d, line.Amount))
			}
			item.DiscountAmount = decimal.Min(item.DiscountAmount, item.BaseAmount)
		} else {
			uncovered = append(uncovered, len(items))
		}
		items = append(items, item)
	}

	if overallPercent.IsPositive() {
		for _, i := range uncovered {
			cut := items[i].BaseAmount.Mul(overallPercent).Div(oneHundred).Round(2)
			items[i].DiscountAmount = decimal.Min(items[i].DiscountAmount.Add(cut), items[i].BaseAmount)
		}
	}

	if overallFlat.IsPositive() && len(uncovered) > 0 {
		// Headroom left on the uncovered items after the percentage pass.
		subtotal := decimal.Zero
		for _, i := range uncovered {
			subtotal = subtotal.Add(items[i].BaseAmount)
		}
		headroom := decimal.Zero
		for _, i := range uncovered {
			headroom = headroom.Add(items[i].BaseAmount.Sub(items[i].DiscountAmount))
		}
		flat := decimal.Min(overallFlat, headroom)

		distributed := decimal.Zero
		for n, i := range uncovered {
			var share decimal.Decimal
			if n == len(uncovered)-1 {
				share = flat.Sub(distributed)
			} else {
				share = flat.Mul(items[i].BaseAmount).Div(subtotal).Round(2)
				share = decimal.Min(share, items[i].BaseAmount.Sub(items[i].DiscountAmount))
			}
			items[i].DiscountAmount = decimal.Min(items[i].DiscountAmount.Add(share), items[i].BaseAmount)
			distributed = distributed.Add(share)
		}
	}

	for i := range items {
		items[i].FinalAmount = decimal.Max(decimal.Zero, items[i].BaseAmount.Sub(items[i].DiscountAmount))
	}
	return items
}

func discountValue(d models.StudentDiscount, base decimal.Decimal) decimal.Decimal {
	var v decimal.Decimal
	if d.DiscountType == models.DiscountTypePercentage {
		v = base.Mul(d.Value).Div(oneHundred).Round(2)
	} else {
		v = d.Value
	}
	return decimal.Min(v, base)
}

// splitBilled divides the month's net charge into the immediately billed part
// and the deferred part. The billed part rounds down to the minor unit and
// the deferred part takes the remainder, so the two always sum exactly to the
// input.
func splitBilled(currentMonth decimal.Decimal, billPercent int) (billed, deferred decimal.Decimal) {
	if billPercent >= 100 {
		return currentMonth, decimal.Zero
	}
	billed = currentMonth.Mul(decimal.NewFromInt(int64(billPercent))).Div(oneHundred).Truncate(2)
	deferred = currentMonth.Sub(billed)
	return billed, deferred
}

// deriveStatus maps paid vs. total due onto the voucher status. Status is
// never stored independently of these inputs.
func deriveStatus(totalDue, paid decimal.Decimal) string {
	remaining := totalDue.Sub(paid)
	switch {
	case remaining.LessThanOrEqual(paymentEpsilon) && (paid.IsPositive() || totalDue.IsZero()):
		return models.VoucherStatusPaid
	case paid.IsPositive():
		return models.VoucherStatusPartial
	default:
		return models.VoucherStatusGenerated
	}
}
