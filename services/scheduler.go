// services/scheduler.go
package services

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"schoolpro-backend/models"
	"schoolpro-backend/utils"
)

// Scheduler drives the recurring billing jobs: monthly voucher generation for
// institutions that opted in, and daily fee-due reminders.
type Scheduler struct {
	db        *gorm.DB
	vouchers  *VoucherService
	reminders *ReminderService
}

func NewScheduler(db *gorm.DB) *Scheduler {
	return &Scheduler{
		db:        db,
		vouchers:  NewVoucherService(db),
		reminders: NewReminderService(db),
	}
}

func (s *Scheduler) Start() {
	c := cron.New()

	// Generate the month's vouchers on the 1st at 2 AM
	c.AddFunc("0 2 1 * *", s.GenerateMonthlyVouchers)

	// Fee-due reminders daily at 9 AM
	c.AddFunc("0 9 * * *", s.reminders.SendDailyReminders)

	c.Start()
	log.Println("Billing scheduler started")
}

// GenerateMonthlyVouchers runs the current period's batch for every
// institution with auto-generation enabled. One institution's failure never
// blocks the others; per-student failures are reported by the batch itself.
func (s *Scheduler) GenerateMonthlyVouchers() {
	log.Println("Starting monthly voucher generation...")

	var institutions []models.Institution
	if err := s.db.Find(&institutions, "auto_generate_vouchers = ?", true).Error; err != nil {
		log.Printf("Failed to fetch institutions: %v", err)
		return
	}

	now := time.Now()
	year, month := now.Year(), int(now.Month())
	dueDate := utils.DefaultDueDate(year, month, dueDay())

	for _, institution := range institutions {
		academicYear := academicYearFor(institution, now)
		result, err := s.vouchers.GenerateBatch(institution.ID, academicYear, year, month, dueDate, uuid.Nil)
		if err != nil {
			log.Printf("Institution %s: batch generation failed: %v", institution.ID, err)
			continue
		}
		log.Printf("Institution %s: generated %d vouchers for %04d-%02d, %d failures",
			institution.ID, result.Generated, year, month, len(result.Failures))
		for _, failure := range result.Failures {
			log.Printf("Institution %s: student %s (%s), period %04d-%02d: %v",
				institution.ID, failure.AdmissionNumber, failure.StudentID, year, month, failure.Err)
		}
	}

	log.Println("Monthly voucher generation completed")
}

func dueDay() int {
	if env := os.Getenv("VOUCHER_DUE_DAY"); env != "" {
		if d, err := strconv.Atoi(env); err == nil && d >= 1 && d <= 31 {
			return d
		}
	}
	return 10
}

// academicYearFor reads the institution's configured academic year, falling
// back to an April-to-March session derived from the clock.
func academicYearFor(institution models.Institution, now time.Time) string {
	if v, ok := institution.Settings["academicYear"].(string); ok && v != "" {
		return v
	}
	return utils.CurrentAcademicYear(now)
}
