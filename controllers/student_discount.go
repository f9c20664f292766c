// controllers/student_discount.go
package controllers

import (
	"errors"
	"net/http"
	"schoolpro-backend/config"
	"schoolpro-backend/models"
	"schoolpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateStudentDiscountInput defines the expected JSON structure for a discount
type CreateStudentDiscountInput struct {
	StudentID    uuid.UUID       `json:"studentId" binding:"required"`
	FeeHeadID    *uuid.UUID      `json:"feeHeadId"` // null applies to the voucher's net total
	DiscountType string          `json:"discountType" binding:"required,oneof=amount percentage"`
	Value        decimal.Decimal `json:"value" binding:"required"`
	Reason       string          `json:"reason"`
}

// UpdateStudentDiscountInput allows deactivation only; value changes are a
// new discount so the audit trail stays intact
type UpdateStudentDiscountInput struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// CreateStudentDiscount grants a standing discount to a student
func CreateStudentDiscount(c *gin.Context) {
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

	var input CreateStudentDiscountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.Value.IsNegative() {
		utils.RespondWithError(c, http.StatusBadRequest, "Discount value must not be negative")
		return
	}
	if input.DiscountType == models.DiscountTypePercentage &&
		input.Value.GreaterThan(decimal.NewFromInt(100)) {
		utils.RespondWithError(c, http.StatusBadRequest, "Percentage discount cannot exceed 100")
		return
	}

	// Validate student belongs to the institution
	var student models.Student
	if err := config.DB.Where("institution_id = ? AND id = ?", institutionUUID, input.StudentID).
		First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Student not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	// Validate fee head when the discount is scoped to one
	if input.FeeHeadID != nil {
		var head models.FeeHead
		if err := config.DB.First(&head, "id = ?", *input.FeeHeadID).Error; err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Fee head not found")
			return
		}
	}

	discount := models.StudentDiscount{
		ID:            uuid.New(),
		InstitutionID: institutionUUID,
		StudentID:     input.StudentID,
		FeeHeadID:     input.FeeHeadID,
		DiscountType:  input.DiscountType,
		Value:         input.Value.Round(2),
		Reason:        input.Reason,
		IsActive:      true,
	}

	if err := config.DB.Create(&discount).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create discount")
		return
	}

	c.JSON(http.StatusCreated, discount)
}

// GetStudentDiscounts retrieves discounts, optionally filtered by student
func GetStudentDiscounts(c *gin.Context) {
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

	query := config.DB.Preload("FeeHead").Where("institution_id = ?", institutionUUID)
	if studentID := c.Query("studentId"); studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}

	var discounts []models.StudentDiscount
	if err := query.Find(&discounts).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve discounts")
		return
	}

	c.JSON(http.StatusOK, discounts)
}

// UpdateStudentDiscount activates or deactivates a discount. Inactive
// discounts stop affecting new vouchers but stay on record for audit.
func UpdateStudentDiscount(c *gin.Context) {
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

	discountID := c.Param("id")
	discountUUID, err := uuid.Parse(discountID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid discount ID format")
		return
	}

	var input UpdateStudentDiscountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	result := config.DB.Model(&models.StudentDiscount{}).
		Where("institution_id = ? AND id = ?", institutionUUID, discountUUID).
		Update("is_active", *input.IsActive)
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update discount")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Discount not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Discount updated successfully"})
}
