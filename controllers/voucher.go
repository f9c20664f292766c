// controllers/voucher.go
package controllers

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"schoolpro-backend/config"
	"schoolpro-backend/models"
	"schoolpro-backend/services"
	"schoolpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	voucherSvcOnce sync.Once
	voucherSvc     *services.VoucherService
)

// voucherService builds the service on first use, after config.DB is connected
func voucherService() *services.VoucherService {
	voucherSvcOnce.Do(func() {
		voucherSvc = services.NewVoucherService(config.DB)
	})
	return voucherSvc
}

// GenerateVoucherInput defines the expected JSON structure for single generation
type GenerateVoucherInput struct {
	StudentID    uuid.UUID `json:"studentId" binding:"required"`
	AcademicYear string    `json:"academicYear" binding:"required"`
	Year         int       `json:"year" binding:"required"`
	Month        int       `json:"month" binding:"required,min=1,max=12"`
	DueDate      *string   `json:"dueDate"` // YYYY-MM-DD, defaults per institution policy
}

// GenerateBatchInput defines the expected JSON structure for batch generation
type GenerateBatchInput struct {
	AcademicYear string  `json:"academicYear" binding:"required"`
	Year         int     `json:"year" binding:"required"`
	Month        int     `json:"month" binding:"required,min=1,max=12"`
	DueDate      *string `json:"dueDate"`
}

// ApplyPaymentInput defines the expected JSON structure for recording a payment
type ApplyPaymentInput struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	PaymentDate *string         `json:"paymentDate"` // YYYY-MM-DD, defaults to today
	Method      string          `json:"method" binding:"required,oneof=cash bank online"`
}

// respondVoucherError translates the voucher domain errors into HTTP responses
func respondVoucherError(c *gin.Context, err error) {
	var overpayment *services.OverpaymentError
	switch {
	case errors.Is(err, services.ErrVoucherNotFound):
		utils.RespondWithError(c, http.StatusNotFound, "Voucher not found")
	case errors.Is(err, services.ErrDuplicatePeriod):
		utils.RespondWithError(c, http.StatusConflict, "Voucher already exists for this period")
	case errors.Is(err, services.ErrConcurrentUpdate):
		utils.RespondWithError(c, http.StatusConflict, "Voucher was modified concurrently, please retry")
	case errors.Is(err, services.ErrStudentNotEnrolled):
		utils.RespondWithError(c, http.StatusUnprocessableEntity, "Student is not enrolled for this academic year")
	case errors.Is(err, services.ErrNoFeeStructure):
		utils.RespondWithError(c, http.StatusUnprocessableEntity, "No fee structure defined for the student's class")
	case errors.Is(err, services.ErrInvalidPeriod):
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid billing period")
	case errors.Is(err, services.ErrInvalidPaymentAmount):
		utils.RespondWithError(c, http.StatusBadRequest, "Payment amount must be positive")
	case errors.As(err, &overpayment):
		utils.RespondWithError(c, http.StatusUnprocessableEntity, overpayment.Error())
	case errors.Is(err, services.ErrVoucherNotDeletable):
		utils.RespondWithError(c, http.StatusConflict, "Only the student's latest unpaid voucher can be deleted")
	default:
		utils.RespondWithError(c, http.StatusInternalServerError, "Voucher operation failed")
	}
}

func parseDateOrDefault(raw *string, fallback time.Time) (time.Time, error) {
	if raw == nil || *raw == "" {
		return fallback, nil
	}
	return time.Parse("2006-01-02", *raw)
}

// GenerateVoucher generates the fee voucher for one student and period
func GenerateVoucher(c *gin.Context) {
	institutionID, exists := c.Get("institutionId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Institution ID not found in context")
		return
	}
	userID, _ := c.Get("userId")

	institutionUUID, err := uuid.Parse(institutionID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid institution ID format")
		return
	}
	userUUID, err := uuid.Parse(userID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID format")
		return
	}

	var input GenerateVoucherInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	dueDate, err := parseDateOrDefault(input.DueDate, utils.DefaultDueDate(input.Year, input.Month, institutionDueDay()))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid due date format, expected YYYY-MM-DD")
		return
	}

	voucher, err := voucherService().Generate(institutionUUID, input.StudentID, input.AcademicYear, input.Year, input.Month, dueDate, userUUID)
	if err != nil {
		respondVoucherError(c, err)
		return
	}

	c.JSON(http.StatusCreated, voucher)
}

// GenerateVoucherBatch generates the period's vouchers for every enrolled student
func GenerateVoucherBatch(c *gin.Context) {
	institutionID, exists := c.Get("institutionId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Institution ID not found in context")
		return
	}
	userID, _ := c.Get("userId")

	institutionUUID, err := uuid.Parse(institutionID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid institution ID format")
		return
	}
	userUUID, err := uuid.Parse(userID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID format")
		return
	}

	var input GenerateBatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	dueDate, err := parseDateOrDefault(input.DueDate, utils.DefaultDueDate(input.Year, input.Month, institutionDueDay()))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid due date format, expected YYYY-MM-DD")
		return
	}

	result, err := voucherService().GenerateBatch(institutionUUID, input.AcademicYear, input.Year, input.Month, dueDate, userUUID)
	if err != nil {
		respondVoucherError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetVouchers lists vouchers with optional filters
func GetVouchers(c *gin.Context) {
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

	query := config.DB.Preload("Items").Preload("Student").
		Where("institution_id = ?", institutionUUID)
	if studentID := c.Query("studentId"); studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if year := c.Query("year"); year != "" {
		if y, err := strconv.Atoi(year); err == nil {
			query = query.Where("year = ?", y)
		}
	}
	if month := c.Query("month"); month != "" {
		if m, err := strconv.Atoi(month); err == nil {
			query = query.Where("month = ?", m)
		}
	}

	var vouchers []models.FeeVoucher
	if err := query.Order("year DESC, month DESC").Find(&vouchers).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve vouchers")
		return
	}

	c.JSON(http.StatusOK, vouchers)
}

// GetVoucherByID retrieves one voucher with its items and payments
func GetVoucherByID(c *gin.Context) {
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

	voucherID := c.Param("id")
	voucherUUID, err := uuid.Parse(voucherID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid voucher ID format")
		return
	}

	var voucher models.FeeVoucher
	if err := config.DB.Preload("Items").Preload("Student").
		Where("institution_id = ? AND id = ?", institutionUUID, voucherUUID).
		First(&voucher).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Voucher not found")
		return
	}

	var payments []models.Payment
	config.DB.Where("voucher_id = ?", voucher.ID).Order("payment_date").Find(&payments)

	c.JSON(http.StatusOK, gin.H{"voucher": voucher, "payments": payments})
}

// GetVoucherByNumber retrieves a voucher by its printed reference number,
// the lookup a counter operator does when a guardian brings the slip in
func GetVoucherByNumber(c *gin.Context) {
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

	voucher, err := voucherService().GetVoucherByNumber(institutionUUID, c.Param("number"))
	if err != nil {
		respondVoucherError(c, err)
		return
	}

	c.JSON(http.StatusOK, voucher)
}

// ApplyPayment records a payment against a voucher
func ApplyPayment(c *gin.Context) {
	institutionID, exists := c.Get("institutionId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Institution ID not found in context")
		return
	}
	userID, _ := c.Get("userId")

	institutionUUID, err := uuid.Parse(institutionID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid institution ID format")
		return
	}
	userUUID, err := uuid.Parse(userID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID format")
		return
	}

	voucherID := c.Param("id")
	voucherUUID, err := uuid.Parse(voucherID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid voucher ID format")
		return
	}

	var input ApplyPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	paymentDate, err := parseDateOrDefault(input.PaymentDate, utils.BeginningOfDay(time.Now()))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid payment date format, expected YYYY-MM-DD")
		return
	}

	// Tenant check before touching the ledger
	var owned models.FeeVoucher
	if err := config.DB.Select("id").
		Where("institution_id = ? AND id = ?", institutionUUID, voucherUUID).
		First(&owned).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Voucher not found")
		return
	}

	voucher, err := voucherService().ApplyPayment(voucherUUID, input.Amount, paymentDate, input.Method, userUUID)
	if err != nil {
		respondVoucherError(c, err)
		return
	}

	c.JSON(http.StatusOK, voucher)
}

// DeleteVoucher removes a voucher so it can be regenerated with corrected
// inputs. The service only permits this for the student's latest voucher
// while nothing has been paid against it.
func DeleteVoucher(c *gin.Context) {
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

	voucherID := c.Param("id")
	voucherUUID, err := uuid.Parse(voucherID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid voucher ID format")
		return
	}

	if err := voucherService().DeleteForRegeneration(institutionUUID, voucherUUID); err != nil {
		respondVoucherError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Voucher deleted successfully"})
}

// institutionDueDay reads the default due day of month from the environment
func institutionDueDay() int {
	if env := os.Getenv("VOUCHER_DUE_DAY"); env != "" {
		if day, err := strconv.Atoi(env); err == nil && day >= 1 && day <= 28 {
			return day
		}
	}
	return 10
}
