// controllers/report.go
package controllers

import (
	"net/http"
	"time"

	"schoolpro-backend/config"
	"schoolpro-backend/models"
	"schoolpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CollectionRow is one day's collections broken down by method
type CollectionRow struct {
	Date   string          `json:"date"`
	Method string          `json:"method"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// DefaulterRow is one student's overdue position
type DefaulterRow struct {
	StudentID       uuid.UUID       `json:"studentId"`
	StudentName     string          `json:"studentName"`
	AdmissionNumber string          `json:"admissionNumber"`
	GuardianPhone   string          `json:"guardianPhone"`
	VoucherNumber   string          `json:"voucherNumber"`
	DueDate         time.Time       `json:"dueDate"`
	DaysOverdue     int             `json:"daysOverdue"`
	Remaining       decimal.Decimal `json:"remaining"`
}

// GetCollectionReport returns collections per day and payment method over a
// date range. Defaults to the last 30 days.
func GetCollectionReport(c *gin.Context) {
	institutionID, exists := c.Get("institutionId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Institution ID not found in context")
		return
	}

	institutionUUID, err := uuid.Parse(institutionID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid institution ID format")
		return
	}

	endDate := utils.BeginningOfDay(time.Now()).AddDate(0, 0, 1)
	startDate := endDate.AddDate(0, 0, -30)
	if raw := c.Query("startDate"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			startDate = parsed
		}
	}
	if raw := c.Query("endDate"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			endDate = parsed.AddDate(0, 0, 1)
		}
	}

	var rows []CollectionRow
	if err := config.DB.Model(&models.Payment{}).
		Select("TO_CHAR(payment_date, 'YYYY-MM-DD') AS date, method, COUNT(*) AS count, SUM(amount) AS amount").
		Where("institution_id = ? AND payment_date >= ? AND payment_date < ?", institutionUUID, startDate, endDate).
		Group("TO_CHAR(payment_date, 'YYYY-MM-DD'), method").
		Order("date, method").
		Scan(&rows).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to build collection report")
		return
	}

	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Amount)
	}

	c.JSON(http.StatusOK, gin.H{
		"startDate": startDate.Format("2006-01-02"),
		"endDate":   endDate.AddDate(0, 0, -1).Format("2006-01-02"),
		"total":     total,
		"rows":      rows,
	})
}

// GetDefaulterReport lists students with vouchers past due, worst first
func GetDefaulterReport(c *gin.Context) {
	institutionID, exists := c.Get("institutionId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Institution ID not found in context")
		return
	}

	institutionUUID, err := uuid.Parse(institutionID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid institution ID format")
		return
	}

	today := utils.BeginningOfDay(time.Now())

	var vouchers []models.FeeVoucher
	if err := config.DB.Preload("Student").
		Where("institution_id = ? AND status <> ? AND due_date < ?", institutionUUID, models.VoucherStatusPaid, today).
		Order("due_date").
		Find(&vouchers).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to build defaulter report")
		return
	}

	rows := make([]DefaulterRow, 0, len(vouchers))
	totalOverdue := decimal.Zero
	for _, v := range vouchers {
		rows = append(rows, DefaulterRow{
			StudentID:       v.StudentID,
			StudentName:     v.Student.Name,
			AdmissionNumber: v.Student.AdmissionNumber,
			GuardianPhone:   v.Student.GuardianPhone,
			VoucherNumber:   v.VoucherNumber,
			DueDate:         v.DueDate,
			DaysOverdue:     utils.DaysBetween(v.DueDate, today),
			Remaining:       v.RemainingAmount,
		})
		totalOverdue = totalOverdue.Add(v.RemainingAmount)
	}

	c.JSON(http.StatusOK, gin.H{
		"totalOverdue": totalOverdue,
		"defaulters":   rows,
	})
}

// GetStudentLedger returns a student's full voucher history with payments,
// the statement a guardian asks for at the office
func GetStudentLedger(c *gin.Context) {
	institutionID, exists := c.Get("institutionId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Institution ID not found in context")
		return
	}

	institutionUUID, err := uuid.Parse(institutionID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid institution ID format")
		return
	}

	studentID := c.Param("id")
	studentUUID, err := uuid.Parse(studentID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid student ID format")
		return
	}

	var student models.Student
	if err := config.DB.Where("institution_id = ? AND id = ?", institutionUUID, studentUUID).
		First(&student).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Student not found")
		return
	}

	var vouchers []models.FeeVoucher
	config.DB.Preload("Items").
		Where("institution_id = ? AND student_id = ?", institutionUUID, studentUUID).
		Order("year, month").
		Find(&vouchers)

	var payments []models.Payment
	config.DB.Where("institution_id = ? AND student_id = ?", institutionUUID, studentUUID).
		Order("payment_date").
		Find(&payments)

	totalBilled := decimal.Zero
	totalPaid := decimal.Zero
	for _, v := range vouchers {
		totalBilled = totalBilled.Add(v.BilledAmount)
		totalPaid = totalPaid.Add(v.PaidAmount)
	}

	c.JSON(http.StatusOK, gin.H{
		"student":     student,
		"vouchers":    vouchers,
		"payments":    payments,
		"totalBilled": totalBilled,
		"totalPaid":   totalPaid,
	})
}
