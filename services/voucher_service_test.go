package services

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolpro-backend/models"
)

var (
	testInstitution = uuid.New()
	testOperator    = uuid.New()
	testDueDate     = time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fixture struct {
	svc        *VoucherService
	ledger     *fakeLedger
	classID    uuid.UUID
	studentID  uuid.UUID
	structures *fakeStructureSource
	discounts  *fakeDiscountSource
	plans      *fakePlanSource
	enrolls    *fakeEnrollmentSource
}

func newFixture(lines []StructureLine) *fixture {
	classID := uuid.New()
	studentID := uuid.New()

	structures := &fakeStructureSource{lines: map[uuid.UUID][]StructureLine{classID: lines}}
	discounts := &fakeDiscountSource{discounts: map[uuid.UUID][]models.StudentDiscount{}}
	plans := &fakePlanSource{}
	enrolls := &fakeEnrollmentSource{
		enrollments: map[uuid.UUID]Enrollment{
			studentID: {ClassID: classID, AcademicYear: "2026-2027", IsEnrolled: true},
		},
	}
	ledger := newFakeLedger()

	return &fixture{
		svc: &VoucherService{
			Structures:  structures,
			Discounts:   discounts,
			Plans:       plans,
			Enrollments: enrolls,
			Ledger:      ledger,
		},
		ledger:     ledger,
		classID:    classID,
		studentID:  studentID,
		structures: structures,
		discounts:  discounts,
		plans:      plans,
		enrolls:    enrolls,
	}
}

func (f *fixture) generate(t *testing.T, year, month int) *models.FeeVoucher {
	t.Helper()
	v, err := f.svc.Generate(testInstitution, f.studentID, "2026-2027", year, month, testDueDate, testOperator)
	require.NoError(t, err)
	return v
}

func twoHeadLines() []StructureLine {
	return []StructureLine{
		{FeeHeadID: uuid.New(), FeeHeadName: "Tuition Fee", Priority: 1, Amount: dec("1000.00")},
		{FeeHeadID: uuid.New(), FeeHeadName: "Transport Fee", Priority: 2, Amount: dec("500.00")},
	}
}

func TestGenerateBasicVoucher(t *testing.T) {
	f := newFixture(twoHeadLines())

	v := f.generate(t, 2026, 4)

	assert.True(t, dec("1500.00").Equal(v.CurrentMonthAmount))
	assert.True(t, dec("1500.00").Equal(v.BilledAmount))
	assert.True(t, v.DeferredAmount.IsZero())
	assert.True(t, v.ArrearsBroughtForward.IsZero())
	assert.True(t, dec("1500.00").Equal(v.TotalDue))
	assert.True(t, v.PaidAmount.IsZero())
	assert.True(t, dec("1500.00").Equal(v.RemainingAmount))
	assert.Equal(t, models.VoucherStatusGenerated, v.Status)
	assert.Equal(t, 100, v.BillPercent)
	assert.Nil(t, v.InstallmentPlanID)

	require.Len(t, v.Items, 2)
	assert.Equal(t, "Tuition Fee", v.Items[0].FeeHeadName)
	assert.Equal(t, "Transport Fee", v.Items[1].FeeHeadName)
	assert.True(t, strings.HasPrefix(v.VoucherNumber, "FV-202604-"))
}

func TestGeneratePerHeadDiscounts(t *testing.T) {
	lines := twoHeadLines()
	f := newFixture(lines)
	f.discounts.discounts[f.studentID] = []models.StudentDiscount{
		{InstitutionID: testInstitution, StudentID: f.studentID, FeeHeadID: &lines[0].FeeHeadID,
			DiscountType: models.DiscountTypePercentage, Value: dec("10"), IsActive: true},
		{InstitutionID: testInstitution, StudentID: f.studentID, FeeHeadID: &lines[1].FeeHeadID,
			DiscountType: models.DiscountTypeAmount, Value: dec("50.00"), IsActive: true},
	}

	v := f.generate(t, 2026, 4)

	require.Len(t, v.Items, 2)
	assert.True(t, dec("100.00").Equal(v.Items[0].DiscountAmount))
	assert.True(t, dec("900.00").Equal(v.Items[0].FinalAmount))
	assert.True(t, dec("50.00").Equal(v.Items[1].DiscountAmount))
	assert.True(t, dec("450.00").Equal(v.Items[1].FinalAmount))
	assert.True(t, dec("1350.00").Equal(v.CurrentMonthAmount))
}

func TestGenerateInactiveDiscountIgnored(t *testing.T) {
	lines := twoHeadLines()
	f := newFixture(lines)
	f.discounts.discounts[f.studentID] = []models.StudentDiscount{
		{FeeHeadID: &lines[0].FeeHeadID, DiscountType: models.DiscountTypePercentage,
			Value: dec("50"), IsActive: false},
	}

	v := f.generate(t, 2026, 4)
	assert.True(t, dec("1500.00").Equal(v.CurrentMonthAmount))
}

func TestGenerateOverallDiscountSpreadsOverUncoveredItems(t *testing.T) {
	tuitionID := uuid.New()
	lines := []StructureLine{
		{FeeHeadID: tuitionID, FeeHeadName: "Tuition Fee", Priority: 1, Amount: dec("1000.00")},
		{FeeHeadID: uuid.New(), FeeHeadName: "Library Fee", Priority: 2, Amount: dec("300.00")},
		{FeeHeadID: uuid.New(), FeeHeadName: "Lab Fee", Priority: 3, Amount: dec("200.00")},
	}
	f := newFixture(lines)
	f.discounts.discounts[f.studentID] = []models.StudentDiscount{
		// per-head discount shields tuition from the overall discounts
		{FeeHeadID: &tuitionID, DiscountType: models.DiscountTypeAmount, Value: dec("100.00"), IsActive: true},
		{DiscountType: models.DiscountTypePercentage, Value: dec("25"), IsActive: true},
		{DiscountType: models.DiscountTypeAmount, Value: dec("100.00"), IsActive: true},
	}

	v := f.generate(t, 2026, 4)
	require.Len(t, v.Items, 3)

	// Tuition keeps only its own discount
	assert.True(t, dec("100.00").Equal(v.Items[0].DiscountAmount))

	// 25% of 300 = 75, plus 100*300/500 = 60 of the flat amount
	assert.True(t, dec("135.00").Equal(v.Items[1].DiscountAmount))
	// 25% of 200 = 50, plus the flat remainder 40
	assert.True(t, dec("90.00").Equal(v.Items[2].DiscountAmount))

	totalDiscount := decimal.Zero
	totalFinal := decimal.Zero
	for _, item := range v.Items {
		totalDiscount = totalDiscount.Add(item.DiscountAmount)
		totalFinal = totalFinal.Add(item.FinalAmount)
	}
	assert.True(t, dec("325.00").Equal(totalDiscount))
	assert.True(t, totalFinal.Equal(v.CurrentMonthAmount))
}

func TestGenerateDiscountNeverExceedsBase(t *testing.T) {
	tuitionID := uuid.New()
	lines := []StructureLine{
		{FeeHeadID: tuitionID, FeeHeadName: "Tuition Fee", Priority: 1, Amount: dec("1000.00")},
	}
	f := newFixture(lines)
	f.discounts.discounts[f.studentID] = []models.StudentDiscount{
		{FeeHeadID: &tuitionID, DiscountType: models.DiscountTypeAmount, Value: dec("2000.00"), IsActive: true},
	}

	v := f.generate(t, 2026, 4)
	assert.True(t, dec("1000.00").Equal(v.Items[0].DiscountAmount))
	assert.True(t, v.Items[0].FinalAmount.IsZero())
	assert.True(t, v.CurrentMonthAmount.IsZero())
}

func TestGenerateOverallPercentagesCapAtHundred(t *testing.T) {
	f := newFixture(twoHeadLines())
	f.discounts.discounts[f.studentID] = []models.StudentDiscount{
		{DiscountType: models.DiscountTypePercentage, Value: dec("60"), IsActive: true},
		{DiscountType: models.DiscountTypePercentage, Value: dec("60"), IsActive: true},
	}

	v := f.generate(t, 2026, 4)
	assert.True(t, v.CurrentMonthAmount.IsZero())
	assert.True(t, v.TotalDue.IsZero())
	// Nothing to collect, so the voucher is born settled
	assert.Equal(t, models.VoucherStatusPaid, v.Status)
}

func TestGenerateInstallmentPlanSplit(t *testing.T) {
	lines := []StructureLine{
		{FeeHeadID: uuid.New(), FeeHeadName: "Tuition Fee", Priority: 1, Amount: dec("999.99")},
	}
	f := newFixture(lines)
	planID := uuid.New()
	f.plans.plan = &models.InstallmentPlan{ID: planID, Name: "Sixty Percent", BillPercent: 60, IsActive: true}

	v := f.generate(t, 2026, 4)

	// 60% of 999.99 is 599.994; the billed part rounds down
	assert.True(t, dec("599.99").Equal(v.BilledAmount))
	assert.True(t, dec("400.00").Equal(v.DeferredAmount))
	assert.True(t, v.BilledAmount.Add(v.DeferredAmount).Equal(v.CurrentMonthAmount))
	assert.True(t, v.TotalDue.Equal(v.BilledAmount))
	assert.Equal(t, 60, v.BillPercent)
	require.NotNil(t, v.InstallmentPlanID)
	assert.Equal(t, planID, *v.InstallmentPlanID)
}

func TestGenerateArrearsCarryForward(t *testing.T) {
	lines := []StructureLine{
		{FeeHeadID: uuid.New(), FeeHeadName: "Tuition Fee", Priority: 1, Amount: dec("1000.00")},
	}
	f := newFixture(lines)
	f.plans.plan = &models.InstallmentPlan{ID: uuid.New(), Name: "Sixty Percent", BillPercent: 60, IsActive: true}

	april := f.generate(t, 2026, 4)
	assert.True(t, dec("600.00").Equal(april.BilledAmount))
	assert.True(t, dec("400.00").Equal(april.DeferredAmount))

	// Pay 100 of the 600 due, leaving 500 unpaid
	_, err := f.svc.ApplyPayment(april.ID, dec("100.00"), testDueDate, "cash", testOperator)
	require.NoError(t, err)

	may := f.generate(t, 2026, 5)
	// Arrears = April's unpaid remainder plus its deferred portion
	assert.True(t, dec("900.00").Equal(may.ArrearsBroughtForward))
	assert.True(t, dec("600.00").Equal(may.BilledAmount))
	assert.True(t, dec("1500.00").Equal(may.TotalDue))
}

func TestGenerateArrearsAcrossYearBoundary(t *testing.T) {
	lines := []StructureLine{
		{FeeHeadID: uuid.New(), FeeHeadName: "Tuition Fee", Priority: 1, Amount: dec("1000.00")},
	}
	f := newFixture(lines)

	december := f.generate(t, 2026, 12)
	assert.True(t, dec("1000.00").Equal(december.TotalDue))

	january := f.generate(t, 2027, 1)
	assert.True(t, dec("1000.00").Equal(january.ArrearsBroughtForward))
	assert.True(t, dec("2000.00").Equal(january.TotalDue))
}

func TestGenerateArrearsComeFromImmediatePredecessorOnly(t *testing.T) {
	lines := []StructureLine{
		{FeeHeadID: uuid.New(), FeeHeadName: "Tuition Fee", Priority: 1, Amount: dec("1000.00")},
	}
	f := newFixture(lines)

	f.generate(t, 2026, 4)
	may := f.generate(t, 2026, 5)
	assert.True(t, dec("1000.00").Equal(may.ArrearsBroughtForward))

	june := f.generate(t, 2026, 6)
	// May's total already folds April in; June reads May alone
	assert.True(t, dec("2000.00").Equal(june.ArrearsBroughtForward))
	assert.True(t, dec("3000.00").Equal(june.TotalDue))
}

func TestGenerateDuplicatePeriodRejected(t *testing.T) {
	f := newFixture(twoHeadLines())
	f.generate(t, 2026, 4)

	_, err := f.svc.Generate(testInstitution, f.studentID, "2026-2027", 2026, 4, testDueDate, testOperator)
	assert.ErrorIs(t, err, ErrDuplicatePeriod)
}

func TestGenerateInvalidMonth(t *testing.T) {
	f := newFixture(twoHeadLines())
	_, err := f.svc.Generate(testInstitution, f.studentID, "2026-2027", 2026, 13, testDueDate, testOperator)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = f.svc.Generate(testInstitution, f.studentID, "2026-2027", 2026, 0, testDueDate, testOperator)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestGenerateUnknownStudent(t *testing.T) {
	f := newFixture(twoHeadLines())
	_, err := f.svc.Generate(testInstitution, uuid.New(), "2026-2027", 2026, 4, testDueDate, testOperator)
	assert.ErrorIs(t, err, ErrStudentNotEnrolled)
}

func TestGenerateUnenrolledStudent(t *testing.T) {
	f := newFixture(twoHeadLines())
	f.enrolls.enrollments[f.studentID] = Enrollment{ClassID: f.classID, AcademicYear: "2026-2027", IsEnrolled: false}

	_, err := f.svc.Generate(testInstitution, f.studentID, "2026-2027", 2026, 4, testDueDate, testOperator)
	assert.ErrorIs(t, err, ErrStudentNotEnrolled)
}

func TestGenerateWrongAcademicYear(t *testing.T) {
	f := newFixture(twoHeadLines())
	_, err := f.svc.Generate(testInstitution, f.studentID, "2025-2026", 2026, 4, testDueDate, testOperator)
	assert.ErrorIs(t, err, ErrStudentNotEnrolled)
}

func TestGenerateNoFeeStructure(t *testing.T) {
	f := newFixture(nil)
	_, err := f.svc.Generate(testInstitution, f.studentID, "2026-2027", 2026, 4, testDueDate, testOperator)
	assert.ErrorIs(t, err, ErrNoFeeStructure)
}

func TestVoucherLookups(t *testing.T) {
	f := newFixture(twoHeadLines())
	v := f.generate(t, 2026, 4)

	byPeriod, err := f.svc.GetVoucher(testInstitution, f.studentID, 2026, 4)
	require.NoError(t, err)
	assert.Equal(t, v.ID, byPeriod.ID)

	_, err = f.svc.GetVoucher(testInstitution, f.studentID, 2026, 5)
	assert.ErrorIs(t, err, ErrVoucherNotFound)

	byNumber, err := f.svc.GetVoucherByNumber(testInstitution, v.VoucherNumber)
	require.NoError(t, err)
	assert.Equal(t, v.ID, byNumber.ID)

	_, err = f.svc.GetVoucherByNumber(testInstitution, "FV-000000-XXXXXX")
	assert.ErrorIs(t, err, ErrVoucherNotFound)
}

func TestDeleteForRegeneration(t *testing.T) {
	f := newFixture(twoHeadLines())
	april := f.generate(t, 2026, 4)
	may := f.generate(t, 2026, 5)

	// April is no longer the latest voucher
	err := f.svc.DeleteForRegeneration(testInstitution, april.ID)
	assert.ErrorIs(t, err, ErrVoucherNotDeletable)

	// Wrong tenant never sees the voucher
	err = f.svc.DeleteForRegeneration(uuid.New(), may.ID)
	assert.ErrorIs(t, err, ErrVoucherNotFound)

	require.NoError(t, f.svc.DeleteForRegeneration(testInstitution, may.ID))

	// The period is open again
	regenerated := f.generate(t, 2026, 5)
	assert.True(t, dec("1500.00").Equal(regenerated.TotalDue))
}

func TestDeleteForRegenerationRejectsPaidVoucher(t *testing.T) {
	f := newFixture(twoHeadLines())
	v := f.generate(t, 2026, 4)

	_, err := f.svc.ApplyPayment(v.ID, dec("10.00"), testDueDate, "cash", testOperator)
	require.NoError(t, err)

	err = f.svc.DeleteForRegeneration(testInstitution, v.ID)
	assert.ErrorIs(t, err, ErrVoucherNotDeletable)
}

func TestGenerateBatchCollectsFailures(t *testing.T) {
	classWithFees := uuid.New()
	classWithout := uuid.New()
	lines := []StructureLine{
		{FeeHeadID: uuid.New(), FeeHeadName: "Tuition Fee", Priority: 1, Amount: dec("1000.00")},
	}

	good1 := models.Student{ID: uuid.New(), AdmissionNumber: "A-001", ClassID: classWithFees, AcademicYear: "2026-2027", IsEnrolled: true}
	good2 := models.Student{ID: uuid.New(), AdmissionNumber: "A-002", ClassID: classWithFees, AcademicYear: "2026-2027", IsEnrolled: true}
	orphan := models.Student{ID: uuid.New(), AdmissionNumber: "A-003", ClassID: classWithout, AcademicYear: "2026-2027", IsEnrolled: true}

	svc := &VoucherService{
		Structures: &fakeStructureSource{lines: map[uuid.UUID][]StructureLine{classWithFees: lines}},
		Discounts:  &fakeDiscountSource{discounts: map[uuid.UUID][]models.StudentDiscount{}},
		Plans:      &fakePlanSource{},
		Enrollments: &fakeEnrollmentSource{
			enrollments: map[uuid.UUID]Enrollment{
				good1.ID:  {ClassID: classWithFees, AcademicYear: "2026-2027", IsEnrolled: true},
				good2.ID:  {ClassID: classWithFees, AcademicYear: "2026-2027", IsEnrolled: true},
				orphan.ID: {ClassID: classWithout, AcademicYear: "2026-2027", IsEnrolled: true},
			},
			students: []models.Student{good1, good2, orphan},
		},
		Ledger: newFakeLedger(),
	}

	result, err := svc.GenerateBatch(testInstitution, "2026-2027", 2026, 4, testDueDate, testOperator)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Generated)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "A-003", result.Failures[0].AdmissionNumber)
	assert.ErrorIs(t, result.Failures[0].Err, ErrNoFeeStructure)

	// A rerun only reports duplicates, nothing is generated twice
	rerun, err := svc.GenerateBatch(testInstitution, "2026-2027", 2026, 4, testDueDate, testOperator)
	require.NoError(t, err)
	assert.Equal(t, 0, rerun.Generated)
	require.Len(t, rerun.Failures, 3)
	for _, failure := range rerun.Failures[:2] {
		assert.ErrorIs(t, failure.Err, ErrDuplicatePeriod)
	}
}
