// services/reminder_service.go
package services

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"

	"schoolpro-backend/models"
	"schoolpro-backend/utils"
)

// ReminderService texts guardians about vouchers that are about to fall due
// or are overdue. Reminders are a courtesy channel only; they never touch
// voucher state.
type ReminderService struct {
	db     *gorm.DB
	client *twilio.RestClient
}

func NewReminderService(db *gorm.DB) *ReminderService {
	// Initialize Twilio client
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")

	return &ReminderService{
		db: db,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
	}
}

func (s *ReminderService) SendDailyReminders() {
	log.Println("Starting daily fee reminder processing...")

	var institutions []models.Institution
	if err := s.db.Find(&institutions, "sms_reminders = ?", true).Error; err != nil {
		log.Printf("Failed to fetch institutions: %v", err)
		return
	}

	for _, institution := range institutions {
		s.ProcessInstitutionReminders(institution.ID)
	}

	log.Println("Daily fee reminder processing completed")
}

func (s *ReminderService) ProcessInstitutionReminders(institutionID uuid.UUID) {
	dueSoon, err := s.getUnpaidVouchers(institutionID, models.ReminderTypeDueSoon)
	if err != nil {
		log.Printf("Institution %s: Failed to get due-soon vouchers: %v", institutionID, err)
	} else {
		s.sendReminders(institutionID, dueSoon, models.ReminderTypeDueSoon)
	}

	overdue, err := s.getUnpaidVouchers(institutionID, models.ReminderTypeOverdue)
	if err != nil {
		log.Printf("Institution %s: Failed to get overdue vouchers: %v", institutionID, err)
	} else {
		s.sendReminders(institutionID, overdue, models.ReminderTypeOverdue)
	}
}

// getUnpaidVouchers selects vouchers falling due in the next 3 days
// (due_soon) or already past due (overdue) that still carry a balance.
func (s *ReminderService) getUnpaidVouchers(institutionID uuid.UUID, reminderType string) ([]models.FeeVoucher, error) {
	today := utils.BeginningOfDay(time.Now())

	query := s.db.Where("institution_id = ? AND status <> ?", institutionID, models.VoucherStatusPaid)

	switch reminderType {
	case models.ReminderTypeDueSoon:
		query = query.Where("due_date >= ? AND due_date < ?", today, today.AddDate(0, 0, 3))
	case models.ReminderTypeOverdue:
		query = query.Where("due_date < ?", today)
	}

	var vouchers []models.FeeVoucher
	err := query.Find(&vouchers).Error
	return vouchers, err
}

func (s *ReminderService) sendReminders(institutionID uuid.UUID, vouchers []models.FeeVoucher, reminderType string) {
	// Get active template for this reminder type
	var template models.ReminderTemplate
	if err := s.db.Where("institution_id = ? AND type = ? AND is_active = true", institutionID, reminderType).
		First(&template).Error; err != nil {
		log.Printf("Institution %s: No active template for %s: %v", institutionID, reminderType, err)
		return
	}

	for _, voucher := range vouchers {
		// Skip if this voucher was already reminded for this type recently
		var recent int64
		s.db.Model(&models.ReminderLog{}).
			Where("voucher_id = ? AND type = ? AND status = ? AND sent_at > ?",
				voucher.ID, reminderType, "sent", time.Now().AddDate(0, 0, -7)).
			Count(&recent)
		if recent > 0 {
			continue
		}

		var student models.Student
		if err := s.db.First(&student, "id = ?", voucher.StudentID).Error; err != nil {
			log.Printf("Institution %s: student %s not found for voucher %s", institutionID, voucher.StudentID, voucher.VoucherNumber)
			continue
		}
		if student.GuardianPhone == "" {
			continue
		}

		// Replace placeholders in the template
		message := strings.ReplaceAll(template.Message, "[StudentName]", student.Name)
		message = strings.ReplaceAll(message, "[VoucherNumber]", voucher.VoucherNumber)
		message = strings.ReplaceAll(message, "[Amount]", voucher.RemainingAmount.StringFixed(2))
		message = strings.ReplaceAll(message, "[DueDate]", voucher.DueDate.Format("02 Jan 2006"))

		// Send message via Twilio
		params := &twilioApi.CreateMessageParams{}
		params.SetTo(student.GuardianPhone)
		params.SetBody(message)
		params.SetFrom(os.Getenv("TWILIO_PHONE_NUMBER"))

		resp, err := s.client.Api.CreateMessage(params)
		status := "sent"
		errorMsg := ""

		if err != nil {
			log.Printf("Failed to send reminder to %s: %v", student.GuardianPhone, err)
			status = "failed"
			errorMsg = err.Error()
		} else if resp.Sid != nil {
			log.Printf("Reminder sent to %s, SID: %s", student.GuardianPhone, *resp.Sid)
		} else {
			log.Printf("Reminder sent to %s, but no SID returned", student.GuardianPhone)
		}

		// Log the reminder
		reminderLog := models.ReminderLog{
			InstitutionID: institutionID,
			StudentID:     student.ID,
			VoucherID:     voucher.ID,
			Type:          reminderType,
			Message:       message,
			Status:        status,
			ErrorMessage:  errorMsg,
			SentAt:        time.Now(),
		}

		if err := s.db.Create(&reminderLog).Error; err != nil {
			log.Printf("Failed to log reminder for voucher %s: %v", voucher.VoucherNumber, err)
		}
	}
}
