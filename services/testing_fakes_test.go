package services

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"schoolpro-backend/models"
)

// In-memory fakes of the generation sources and the ledger so the engine's
// arithmetic and state transitions can be tested without a database.

type fakeStructureSource struct {
	lines map[uuid.UUID][]StructureLine // keyed by class ID
}

func (f *fakeStructureSource) StructureFor(_ uuid.UUID, _ string, classID uuid.UUID) ([]StructureLine, error) {
	lines := append([]StructureLine(nil), f.lines[classID]...)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Priority < lines[j].Priority })
	return lines, nil
}

type fakeDiscountSource struct {
	discounts map[uuid.UUID][]models.StudentDiscount // keyed by student ID
}

func (f *fakeDiscountSource) ActiveDiscounts(_, studentID uuid.UUID) ([]models.StudentDiscount, error) {
	var active []models.StudentDiscount
	for _, d := range f.discounts[studentID] {
		if d.IsActive {
			active = append(active, d)
		}
	}
	return active, nil
}

type fakePlanSource struct {
	plan *models.InstallmentPlan
}

func (f *fakePlanSource) ResolvePlan(_ uuid.UUID) (*models.InstallmentPlan, error) {
	return f.plan, nil
}

type fakeEnrollmentSource struct {
	enrollments map[uuid.UUID]Enrollment // keyed by student ID
	students    []models.Student
}

func (f *fakeEnrollmentSource) Enrollment(_, studentID uuid.UUID) (Enrollment, error) {
	e, ok := f.enrollments[studentID]
	if !ok {
		return Enrollment{}, ErrStudentNotEnrolled
	}
	return e, nil
}

func (f *fakeEnrollmentSource) EnrolledStudents(_ uuid.UUID, academicYear string) ([]models.Student, error) {
	var out []models.Student
	for _, s := range f.students {
		if s.IsEnrolled && s.AcademicYear == academicYear {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeLedger struct {
	mu       sync.Mutex
	vouchers map[uuid.UUID]*models.FeeVoucher
	payments []*models.Payment

	// when set, the next RecordPayment fails as if another writer won
	failNextPayment bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{vouchers: make(map[uuid.UUID]*models.FeeVoucher)}
}

func (l *fakeLedger) FindByID(id uuid.UUID) (*models.FeeVoucher, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.vouchers[id]
	if !ok {
		return nil, ErrVoucherNotFound
	}
	copied := *v
	return &copied, nil
}

func (l *fakeLedger) FindByPeriod(institutionID, studentID uuid.UUID, year, month int) (*models.FeeVoucher, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, v := range l.vouchers {
		if v.InstitutionID == institutionID && v.StudentID == studentID && v.Year == year && v.Month == month {
			copied := *v
			return &copied, nil
		}
	}
	return nil, nil
}

func (l *fakeLedger) FindLatestBefore(institutionID, studentID uuid.UUID, year, month int) (*models.FeeVoucher, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var latest *models.FeeVoucher
	for _, v := range l.vouchers {
		if v.InstitutionID != institutionID || v.StudentID != studentID {
			continue
		}
		if v.Year > year || (v.Year == year && v.Month >= month) {
			continue
		}
		if latest == nil || v.Year > latest.Year || (v.Year == latest.Year && v.Month > latest.Month) {
			latest = v
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (l *fakeLedger) FindLatest(institutionID, studentID uuid.UUID) (*models.FeeVoucher, error) {
	return l.FindLatestBefore(institutionID, studentID, 10000, 1)
}

func (l *fakeLedger) FindByNumber(institutionID uuid.UUID, voucherNumber string) (*models.FeeVoucher, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, v := range l.vouchers {
		if v.InstitutionID == institutionID && v.VoucherNumber == voucherNumber {
			copied := *v
			return &copied, nil
		}
	}
	return nil, ErrVoucherNotFound
}

func (l *fakeLedger) Insert(v *models.FeeVoucher) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.vouchers {
		if existing.InstitutionID == v.InstitutionID && existing.StudentID == v.StudentID &&
			existing.Year == v.Year && existing.Month == v.Month {
			return ErrDuplicatePeriod
		}
		if existing.VoucherNumber == v.VoucherNumber {
			return errDuplicateVoucherNumber
		}
	}
	copied := *v
	l.vouchers[v.ID] = &copied
	return nil
}

func (l *fakeLedger) RecordPayment(v *models.FeeVoucher, expectedPaid decimal.Decimal, payment *models.Payment) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failNextPayment {
		l.failNextPayment = false
		return ErrConcurrentUpdate
	}
	stored, ok := l.vouchers[v.ID]
	if !ok {
		return ErrVoucherNotFound
	}
	if !stored.PaidAmount.Equal(expectedPaid) {
		return ErrConcurrentUpdate
	}
	stored.PaidAmount = v.PaidAmount
	stored.RemainingAmount = v.RemainingAmount
	stored.Status = v.Status
	stored.LastPaymentDate = v.LastPaymentDate
	l.payments = append(l.payments, payment)
	return nil
}

func (l *fakeLedger) Delete(id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.vouchers[id]; !ok {
		return ErrVoucherNotFound
	}
	delete(l.vouchers, id)
	return nil
}
