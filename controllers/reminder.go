// controllers/reminder.go
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

// CreateReminderTemplateInput defines the expected JSON structure for a template.
// Message supports the placeholders [StudentName], [VoucherNumber], [Amount]
// and [DueDate].
type CreateReminderTemplateInput struct {
	Type    string `json:"type" binding:"required,oneof=due_soon overdue"`
	Message string `json:"message" binding:"required"`
}

// UpdateReminderTemplateInput defines the expected JSON structure for updates
type UpdateReminderTemplateInput struct {
	Message  *string `json:"message"`
	IsActive *bool   `json:"isActive"`
}

// CreateReminderTemplate creates an SMS template for the institution
func CreateReminderTemplate(c *gin.Context) {
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

	var input CreateReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// One active template per type; deactivate the previous one
	config.DB.Model(&models.ReminderTemplate{}).
		Where("institution_id = ? AND type = ? AND is_active = true", institutionUUID, input.Type).
		Update("is_active", false)

	template := models.ReminderTemplate{
		ID:            uuid.New(),
		InstitutionID: institutionUUID,
		Type:          input.Type,
		Message:       input.Message,
		IsActive:      true,
	}

	if err := config.DB.Create(&template).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create reminder template")
		return
	}

	c.JSON(http.StatusCreated, template)
}

// GetReminderTemplates retrieves the institution's templates
func GetReminderTemplates(c *gin.Context) {
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

	var templates []models.ReminderTemplate
	if err := config.DB.Where("institution_id = ?", institutionUUID).
		Order("type, created_at DESC").
		Find(&templates).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve reminder templates")
		return
	}

	c.JSON(http.StatusOK, templates)
}

// UpdateReminderTemplate updates a template's message or active flag
func UpdateReminderTemplate(c *gin.Context) {
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

	templateID := c.Param("id")
	templateUUID, err := uuid.Parse(templateID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid template ID format")
		return
	}

	var input UpdateReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var template models.ReminderTemplate
	if err := config.DB.Where("institution_id = ? AND id = ?", institutionUUID, templateUUID).
		First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Reminder template not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Message != nil {
		template.Message = *input.Message
	}
	if input.IsActive != nil {
		template.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&template).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update reminder template")
		return
	}

	c.JSON(http.StatusOK, template)
}

// GetReminderLogs retrieves the delivery history, newest first
func GetReminderLogs(c *gin.Context) {
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

	query := config.DB.Where("institution_id = ?", institutionUUID)
	if studentID := c.Query("studentId"); studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var logs []models.ReminderLog
	if err := query.Order("sent_at DESC").Limit(200).Find(&logs).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve reminder logs")
		return
	}

	c.JSON(http.StatusOK, logs)
}
