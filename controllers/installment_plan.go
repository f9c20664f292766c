// controllers/installment_plan.go
package controllers

import (
	"errors"
	"net/http"
	"schoolpro-backend/config"
	"schoolpro-backend/models"
	"schoolpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateInstallmentPlanInput defines the expected JSON structure for a plan
type CreateInstallmentPlanInput struct {
	Name        string `json:"name" binding:"required"`
	BillPercent int    `json:"billPercent" binding:"required,min=1,max=100"`
}

// UpdateInstallmentPlanInput defines the expected JSON structure for updating a plan
type UpdateInstallmentPlanInput struct {
	Name        *string `json:"name"`
	BillPercent *int    `json:"billPercent" binding:"omitempty,min=1,max=100"`
	IsActive    *bool   `json:"isActive"`
}

// CreateInstallmentPlan creates a billing policy for the institution
func CreateInstallmentPlan(c *gin.Context) {
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

	var input CreateInstallmentPlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Plan names are unique within the institution
	var existingPlan models.InstallmentPlan
	if err := config.DB.Where("institution_id = ? AND name = ?", institutionUUID, input.Name).
		First(&existingPlan).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Installment plan with this name already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	plan := models.InstallmentPlan{
		ID:            uuid.New(),
		InstitutionID: &institutionUUID,
		Name:          input.Name,
		BillPercent:   input.BillPercent,
		IsActive:      true,
	}

	if err := config.DB.Create(&plan).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create installment plan")
		return
	}

	c.JSON(http.StatusCreated, plan)
}

// GetInstallmentPlans retrieves the institution's plans plus global defaults
func GetInstallmentPlans(c *gin.Context) {
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

	var plans []models.InstallmentPlan
	if err := config.DB.
		Where("institution_id = ? OR institution_id IS NULL", institutionUUID).
		Order("name").
		Find(&plans).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve installment plans")
		return
	}

	c.JSON(http.StatusOK, plans)
}

// UpdateInstallmentPlan updates an institution-owned plan. Vouchers already
// generated keep the percent they were generated with.
func UpdateInstallmentPlan(c *gin.Context) {
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

	planID := c.Param("id")
	planUUID, err := uuid.Parse(planID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid plan ID format")
		return
	}

	var input UpdateInstallmentPlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var plan models.InstallmentPlan
	if err := config.DB.Where("institution_id = ? AND id = ?", institutionUUID, planUUID).
		First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Installment plan not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Name != nil {
		plan.Name = *input.Name
	}
	if input.BillPercent != nil {
		plan.BillPercent = *input.BillPercent
	}
	if input.IsActive != nil {
		plan.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&plan).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update installment plan")
		return
	}

	c.JSON(http.StatusOK, plan)
}
