// controllers/class.go
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

// CreateClassInput defines the expected JSON structure for creating a class
type CreateClassInput struct {
	Name    string `json:"name" binding:"required"`
	Section string `json:"section"`
}

// UpdateClassInput defines the expected JSON structure for updating a class
type UpdateClassInput struct {
	Name     *string `json:"name"`
	Section  *string `json:"section"`
	IsActive *bool   `json:"isActive"`
}

// CreateClass creates a new class for the institution
func CreateClass(c *gin.Context) {
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

	var input CreateClassInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	class := models.Class{
		ID:            uuid.New(),
		InstitutionID: institutionUUID,
		Name:          input.Name,
		Section:       input.Section,
		IsActive:      true,
	}

	if err := config.DB.Create(&class).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create class")
		return
	}

	c.JSON(http.StatusCreated, class)
}

// GetClasses retrieves all classes for the institution
func GetClasses(c *gin.Context) {
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

	var classes []models.Class
	if err := config.DB.Where("institution_id = ?", institutionUUID).Order("name").Find(&classes).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve classes")
		return
	}

	c.JSON(http.StatusOK, classes)
}

// GetClass retrieves a specific class by ID
func GetClass(c *gin.Context) {
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

	classID := c.Param("id")
	classUUID, err := uuid.Parse(classID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid class ID format")
		return
	}

	var class models.Class
	if err := config.DB.Where("institution_id = ? AND id = ?", institutionUUID, classUUID).
		First(&class).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Class not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, class)
}

// UpdateClass updates an existing class
func UpdateClass(c *gin.Context) {
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

	classID := c.Param("id")
	classUUID, err := uuid.Parse(classID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid class ID format")
		return
	}

	var input UpdateClassInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var class models.Class
	if err := config.DB.Where("institution_id = ? AND id = ?", institutionUUID, classUUID).
		First(&class).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Class not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Name != nil {
		class.Name = *input.Name
	}
	if input.Section != nil {
		class.Section = *input.Section
	}
	if input.IsActive != nil {
		class.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&class).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update class")
		return
	}

	c.JSON(http.StatusOK, class)
}

// DeleteClass soft deletes a class
func DeleteClass(c *gin.Context) {
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

	classID := c.Param("id")
	classUUID, err := uuid.Parse(classID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid class ID format")
		return
	}

	// Refuse to delete a class that still has enrolled students
	var enrolled int64
	config.DB.Model(&models.Student{}).
		Where("institution_id = ? AND class_id = ? AND is_enrolled = true", institutionUUID, classUUID).
		Count(&enrolled)
	if enrolled > 0 {
		utils.RespondWithError(c, http.StatusConflict, "Class still has enrolled students")
		return
	}

	result := config.DB.Where("institution_id = ? AND id = ?", institutionUUID, classUUID).
		Delete(&models.Class{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete class")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Class not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Class deleted successfully"})
}
