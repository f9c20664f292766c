// controllers/fee_structure.go
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

// CreateFeeStructureInput defines the expected JSON structure for a matrix row
type CreateFeeStructureInput struct {
	AcademicYear string          `json:"academicYear" binding:"required"`
	ClassID      uuid.UUID       `json:"classId" binding:"required"`
	FeeHeadID    uuid.UUID       `json:"feeHeadId" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
}

// UpdateFeeStructureInput defines the expected JSON structure for updating a row
type UpdateFeeStructureInput struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// CreateFeeStructure adds one row to the class fee matrix
func CreateFeeStructure(c *gin.Context) {
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

	var input CreateFeeStructureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.Amount.IsNegative() {
		utils.RespondWithError(c, http.StatusBadRequest, "Amount must not be negative")
		return
	}

	// Validate class belongs to the institution
	var class models.Class
	if err := config.DB.Where("institution_id = ? AND id = ?", institutionUUID, input.ClassID).
		First(&class).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Class not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	// Validate fee head exists
	var head models.FeeHead
	if err := config.DB.First(&head, "id = ?", input.FeeHeadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Fee head not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	structure := models.FeeStructure{
		ID:            uuid.New(),
		InstitutionID: institutionUUID,
		AcademicYear:  input.AcademicYear,
		ClassID:       input.ClassID,
		FeeHeadID:     input.FeeHeadID,
		Amount:        input.Amount.Round(2),
	}

	if err := config.DB.Create(&structure).Error; err != nil {
		utils.RespondWithError(c, http.StatusConflict, "Fee structure row for this class, year and fee head already exists")
		return
	}

	c.JSON(http.StatusCreated, structure)
}

// GetFeeStructures retrieves matrix rows, optionally filtered by class and year
func GetFeeStructures(c *gin.Context) {
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

	query := config.DB.Preload("FeeHead").Preload("Class").
		Where("institution_id = ?", institutionUUID)
	if classID := c.Query("classId"); classID != "" {
		query = query.Where("class_id = ?", classID)
	}
	if academicYear := c.Query("academicYear"); academicYear != "" {
		query = query.Where("academic_year = ?", academicYear)
	}

	var structures []models.FeeStructure
	if err := query.Find(&structures).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve fee structures")
		return
	}

	c.JSON(http.StatusOK, structures)
}

// UpdateFeeStructure changes the amount of a matrix row. Existing vouchers
// are unaffected; the new amount applies from the next generation onward.
func UpdateFeeStructure(c *gin.Context) {
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

	structureID := c.Param("id")
	structureUUID, err := uuid.Parse(structureID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid fee structure ID format")
		return
	}

	var input UpdateFeeStructureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Amount.IsNegative() {
		utils.RespondWithError(c, http.StatusBadRequest, "Amount must not be negative")
		return
	}

	var structure models.FeeStructure
	if err := config.DB.Where("institution_id = ? AND id = ?", institutionUUID, structureUUID).
		First(&structure).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Fee structure row not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	structure.Amount = input.Amount.Round(2)
	if err := config.DB.Save(&structure).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update fee structure")
		return
	}

	c.JSON(http.StatusOK, structure)
}

// DeleteFeeStructure removes a matrix row
func DeleteFeeStructure(c *gin.Context) {
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

	structureID := c.Param("id")
	structureUUID, err := uuid.Parse(structureID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid fee structure ID format")
		return
	}

	result := config.DB.Where("institution_id = ? AND id = ?", institutionUUID, structureUUID).
		Delete(&models.FeeStructure{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete fee structure")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Fee structure row not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Fee structure row deleted successfully"})
}
