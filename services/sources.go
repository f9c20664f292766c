package services

import (
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"schoolpro-backend/models"
)

// StructureLine is one fee head's base amount from the class fee matrix,
// ordered by the fee head's priority.
type StructureLine struct {
	FeeHeadID   uuid.UUID
	FeeHeadName string
	Priority    int
	Amount      decimal.Decimal
}

// FeeStructureSource supplies the base amounts owed per fee head for a class.
type FeeStructureSource interface {
	StructureFor(institutionID uuid.UUID, academicYear string, classID uuid.UUID) ([]StructureLine, error)
}

// DiscountSource supplies a student's active standing discounts.
type DiscountSource interface {
	ActiveDiscounts(institutionID, studentID uuid.UUID) ([]models.StudentDiscount, error)
}

// PlanSource resolves the installment plan applicable to an institution:
// the institution's active plan first, else a global active plan. A nil
// result means no plan is configured and the full amount is billed.
type PlanSource interface {
	ResolvePlan(institutionID uuid.UUID) (*models.InstallmentPlan, error)
}

// Enrollment describes a student's current enrollment.
type Enrollment struct {
	ClassID      uuid.UUID
	AcademicYear string
	IsEnrolled   bool
}

// EnrollmentSource supplies enrollment lookups for generation.
type EnrollmentSource interface {
	Enrollment(institutionID, studentID uuid.UUID) (Enrollment, error)
	EnrolledStudents(institutionID uuid.UUID, academicYear string) ([]models.Student, error)
}

/* ---------------- GORM implementations ---------------- */

type gormFeeStructureSource struct{ db *gorm.DB }

func (s *gormFeeStructureSource) StructureFor(institutionID uuid.UUID, academicYear string, classID uuid.UUID) ([]StructureLine, error) {
	var rows []models.FeeStructure
	if err := s.db.Preload("FeeHead").
		Where("institution_id = ? AND academic_year = ? AND class_id = ?", institutionID, academicYear, classID).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	lines := make([]StructureLine, 0, len(rows))
	for _, row := range rows {
		if !row.FeeHead.IsActive || !row.Amount.IsPositive() {
			continue
		}
		lines = append(lines, StructureLine{
			FeeHeadID:   row.FeeHeadID,
			FeeHeadName: row.FeeHead.Name,
			Priority:    row.FeeHead.Priority,
			Amount:      row.Amount,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Priority < lines[j].Priority })
	return lines, nil
}

type gormDiscountSource struct{ db *gorm.DB }

func (s *gormDiscountSource) ActiveDiscounts(institutionID, studentID uuid.UUID) ([]models.StudentDiscount, error) {
	var discounts []models.StudentDiscount
	err := s.db.
		Where("institution_id = ? AND student_id = ? AND is_active = true", institutionID, studentID).
		Find(&discounts).Error
	return discounts, err
}

type gormPlanSource struct{ db *gorm.DB }

func (s *gormPlanSource) ResolvePlan(institutionID uuid.UUID) (*models.InstallmentPlan, error) {
	// Lowest name wins when an institution has several active plans, so
	// resolution stays deterministic.
	var plan models.InstallmentPlan
	err := s.db.
		Where("institution_id = ? AND is_active = true", institutionID).
		Order("name").
		First(&plan).Error
	if err == nil {
		return &plan, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = s.db.
		Where("institution_id IS NULL AND is_active = true").
		Order("name").
		First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

type gormEnrollmentSource struct{ db *gorm.DB }

func (s *gormEnrollmentSource) Enrollment(institutionID, studentID uuid.UUID) (Enrollment, error) {
	var student models.Student
	err := s.db.
		Where("institution_id = ? AND id = ?", institutionID, studentID).
		First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Enrollment{}, ErrStudentNotEnrolled
	}
	if err != nil {
		return Enrollment{}, err
	}
	return Enrollment{
		ClassID:      student.ClassID,
		AcademicYear: student.AcademicYear,
		IsEnrolled:   student.IsEnrolled,
	}, nil
}

func (s *gormEnrollmentSource) EnrolledStudents(institutionID uuid.UUID, academicYear string) ([]models.Student, error) {
	var students []models.Student
	err := s.db.
		Where("institution_id = ? AND academic_year = ? AND is_enrolled = true", institutionID, academicYear).
		Order("admission_number").
		Find(&students).Error
	return students, err
}
