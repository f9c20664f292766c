// controllers/profile.go
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

// UpdateInstitutionInput defines the expected JSON structure for profile updates
type UpdateInstitutionInput struct {
	Name                 *string       `json:"name"`
	Address              *string       `json:"address"`
	Phone                *string       `json:"phone"`
	Settings             *models.JSONB `json:"settings"`
	AutoGenerateVouchers *bool         `json:"autoGenerateVouchers"`
	SMSReminders         *bool         `json:"smsReminders"`
}

// GetInstitutionProfile retrieves the institution's profile and settings
func GetInstitutionProfile(c *gin.Context) {
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

	var institution models.Institution
	if err := config.DB.First(&institution, "id = ?", institutionUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Institution not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, institution)
}

// UpdateInstitutionProfile updates the profile, settings and automation flags
func UpdateInstitutionProfile(c *gin.Context) {
	institutionID, exists := c.Get("institutionId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Institution ID not found in context")
		return
	}
	role, _ := c.Get("userRole")
	if role != models.RoleOwner {
		utils.RespondWithError(c, http.StatusForbidden, "Only the owner can update the institution profile")
		return
	}

	institutionUUID, err := uuid.Parse(institutionID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid institution ID format")
		return
	}

	var input UpdateInstitutionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var institution models.Institution
	if err := config.DB.First(&institution, "id = ?", institutionUUID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Institution not found")
		return
	}

	if input.Name != nil {
		institution.Name = *input.Name
	}
	if input.Address != nil {
		institution.Address = *input.Address
	}
	if input.Phone != nil {
		if !utils.ValidatePhone(*input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		institution.Phone = *input.Phone
	}
	if input.Settings != nil {
		// Merge instead of replace so callers can patch a single key
		if institution.Settings == nil {
			institution.Settings = models.JSONB{}
		}
		for key, value := range *input.Settings {
			institution.Settings[key] = value
		}
	}
	if input.AutoGenerateVouchers != nil {
		institution.AutoGenerateVouchers = *input.AutoGenerateVouchers
	}
	if input.SMSReminders != nil {
		institution.SMSReminders = *input.SMSReminders
	}

	if err := config.DB.Save(&institution).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update institution")
		return
	}

	c.JSON(http.StatusOK, institution)
}
