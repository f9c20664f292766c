// controllers/fee_head.go
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

// CreateFeeHeadInput defines the expected JSON structure for creating a fee head
type CreateFeeHeadInput struct {
	Name         string `json:"name" binding:"required"`
	Priority     int    `json:"priority" binding:"min=0"`
	AccountClass string `json:"accountClass"`
	Frequency    string `json:"frequency" binding:"omitempty,oneof=monthly one-time adhoc"`
}

// UpdateFeeHeadInput defines the expected JSON structure for updating a fee head
type UpdateFeeHeadInput struct {
	Priority     *int    `json:"priority"`
	AccountClass *string `json:"accountClass"`
	IsActive     *bool   `json:"isActive"`
}

// CreateFeeHead adds a charge category to the shared catalog.
// Fee heads are shared across institutions; their identity is immutable once
// referenced, so updates are limited to priority, classification and the
// active flag.
func CreateFeeHead(c *gin.Context) {
	var input CreateFeeHeadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Check if the name is already taken
	var existingHead models.FeeHead
	if err := config.DB.Where("name = ?", input.Name).First(&existingHead).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Fee head with this name already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	frequency := input.Frequency
	if frequency == "" {
		frequency = models.FeeFrequencyMonthly
	}

	head := models.FeeHead{
		ID:           uuid.New(),
		Name:         input.Name,
		Priority:     input.Priority,
		AccountClass: input.AccountClass,
		Frequency:    frequency,
		IsActive:     true,
	}

	if err := config.DB.Create(&head).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create fee head")
		return
	}

	c.JSON(http.StatusCreated, head)
}

// GetFeeHeads retrieves the shared fee head catalog
func GetFeeHeads(c *gin.Context) {
	var heads []models.FeeHead
	if err := config.DB.Order("priority, name").Find(&heads).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve fee heads")
		return
	}

	c.JSON(http.StatusOK, heads)
}

// GetFeeHead retrieves a specific fee head by ID
func GetFeeHead(c *gin.Context) {
	headID := c.Param("id")
	headUUID, err := uuid.Parse(headID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid fee head ID format")
		return
	}

	var head models.FeeHead
	if err := config.DB.First(&head, "id = ?", headUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Fee head not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, head)
}

// UpdateFeeHead updates a fee head's mutable fields
func UpdateFeeHead(c *gin.Context) {
	headID := c.Param("id")
	headUUID, err := uuid.Parse(headID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid fee head ID format")
		return
	}

	var input UpdateFeeHeadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var head models.FeeHead
	if err := config.DB.First(&head, "id = ?", headUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Fee head not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Priority != nil {
		head.Priority = *input.Priority
	}
	if input.AccountClass != nil {
		head.AccountClass = *input.AccountClass
	}
	if input.IsActive != nil {
		head.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&head).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update fee head")
		return
	}

	c.JSON(http.StatusOK, head)
}
