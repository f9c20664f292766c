// controllers/dashboard.go
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"schoolpro-backend/config"
	"schoolpro-backend/models"
	"schoolpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DashboardStats aggregates the numbers the landing screen shows
type DashboardStats struct {
	Year               int             `json:"year"`
	Month              int             `json:"month"`
	TotalStudents      int64           `json:"totalStudents"`
	VouchersGenerated  int64           `json:"vouchersGenerated"`
	VouchersPaid       int64           `json:"vouchersPaid"`
	VouchersPartial    int64           `json:"vouchersPartial"`
	VouchersUnpaid     int64           `json:"vouchersUnpaid"`
	VouchersOverdue    int64           `json:"vouchersOverdue"`
	BilledThisMonth    decimal.Decimal `json:"billedThisMonth"`
	CollectedThisMonth decimal.Decimal `json:"collectedThisMonth"`
	OutstandingArrears decimal.Decimal `json:"outstandingArrears"`
	DeferredThisMonth  decimal.Decimal `json:"deferredThisMonth"`
	CollectionRatePct  decimal.Decimal `json:"collectionRatePct"`
}

// GetDashboardStats returns the billing and collection summary for a period.
// Defaults to the current calendar month when year/month are omitted.
func GetDashboardStats(c *gin.Context) {
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

	now := time.Now()
	year, month := now.Year(), int(now.Month())
	if raw := c.Query("year"); raw != "" {
		if y, err := strconv.Atoi(raw); err == nil {
			year = y
		}
	}
	if raw := c.Query("month"); raw != "" {
		if m, err := strconv.Atoi(raw); err == nil && m >= 1 && m <= 12 {
			month = m
		}
	}

	stats := DashboardStats{Year: year, Month: month}

	config.DB.Model(&models.Student{}).
		Where("institution_id = ? AND is_enrolled = true", institutionUUID).
		Count(&stats.TotalStudents)

	config.DB.Model(&models.FeeVoucher{}).
		Where("institution_id = ? AND year = ? AND month = ?", institutionUUID, year, month).
		Count(&stats.VouchersGenerated)

	config.DB.Model(&models.FeeVoucher{}).
		Where("institution_id = ? AND year = ? AND month = ? AND status = ?", institutionUUID, year, month, models.VoucherStatusPaid).
		Count(&stats.VouchersPaid)
	config.DB.Model(&models.FeeVoucher{}).
		Where("institution_id = ? AND year = ? AND month = ? AND status = ?", institutionUUID, year, month, models.VoucherStatusPartial).
		Count(&stats.VouchersPartial)
	config.DB.Model(&models.FeeVoucher{}).
		Where("institution_id = ? AND year = ? AND month = ? AND status = ?", institutionUUID, year, month, models.VoucherStatusGenerated).
		Count(&stats.VouchersUnpaid)
	config.DB.Model(&models.FeeVoucher{}).
		Where("institution_id = ? AND status <> ? AND due_date < ?", institutionUUID, models.VoucherStatusPaid, utils.BeginningOfDay(now)).
		Count(&stats.VouchersOverdue)

	type sums struct {
		Billed   decimal.Decimal
		Deferred decimal.Decimal
	}
	var monthSums sums
	config.DB.Model(&models.FeeVoucher{}).
		Select("COALESCE(SUM(billed_amount), 0) AS billed, COALESCE(SUM(deferred_amount), 0) AS deferred").
		Where("institution_id = ? AND year = ? AND month = ?", institutionUUID, year, month).
		Scan(&monthSums)
	stats.BilledThisMonth = monthSums.Billed
	stats.DeferredThisMonth = monthSums.Deferred

	// Collections count payment rows received during the calendar month,
	// regardless of which period's voucher they settle
	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)
	var collected decimal.NullDecimal
	config.DB.Model(&models.Payment{}).
		Select("SUM(amount)").
		Where("institution_id = ? AND payment_date >= ? AND payment_date < ?", institutionUUID, monthStart, monthEnd).
		Scan(&collected)
	if collected.Valid {
		stats.CollectedThisMonth = collected.Decimal
	}

	// Outstanding across all periods: what remains unpaid on every voucher
	var outstanding decimal.NullDecimal
	config.DB.Model(&models.FeeVoucher{}).
		Select("SUM(remaining_amount)").
		Where("institution_id = ? AND status <> ?", institutionUUID, models.VoucherStatusPaid).
		Scan(&outstanding)
	if outstanding.Valid {
		stats.OutstandingArrears = outstanding.Decimal
	}

	if stats.BilledThisMonth.IsPositive() {
		stats.CollectionRatePct = stats.CollectedThisMonth.
			Div(stats.BilledThisMonth).
			Mul(decimal.NewFromInt(100)).
			Round(1)
	}

	c.JSON(http.StatusOK, stats)
}
