package controllers

import (
	"errors"
	"net/http"
	"schoolpro-backend/config"
	"schoolpro-backend/models"
	"schoolpro-backend/utils"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateStudentInput defines the expected JSON structure for admitting a student
type CreateStudentInput struct {
	AdmissionNumber string     `json:"admissionNumber" binding:"required"`
	Name            string     `json:"name" binding:"required"`
	GuardianName    string     `json:"guardianName"`
	GuardianPhone   string     `json:"guardianPhone"`
	ClassID         uuid.UUID  `json:"classId" binding:"required"`
	AcademicYear    string     `json:"academicYear" binding:"required"`
	AdmittedAt      *time.Time `json:"admittedAt"`
}

// UpdateStudentInput defines the expected JSON structure for updating a student
type UpdateStudentInput struct {
	Name          *string    `json:"name"`
	GuardianName  *string    `json:"guardianName"`
	GuardianPhone *string    `json:"guardianPhone"`
	ClassID       *uuid.UUID `json:"classId"`
	AcademicYear  *string    `json:"academicYear"`
	IsEnrolled    *bool      `json:"isEnrolled"`
}

// CreateStudent admits a new student to the institution
func CreateStudent(c *gin.Context) {
	institutionID, exists := c.Get("institutionId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Institution ID not found in context")
		return
	}
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	institutionUUID, err := uuid.Parse(institutionID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid institution ID format")
		return
	}

	var input CreateStudentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Validate guardian phone format when provided
	if input.GuardianPhone != "" && !utils.ValidatePhone(input.GuardianPhone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid guardian phone number format")
		return
	}

	// Validate class exists in the same institution
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

	// Check if admission number already exists for this institution
	var existingStudent models.Student
	if err := config.DB.Where("institution_id = ? AND admission_number = ?", institutionUUID, input.AdmissionNumber).
		First(&existingStudent).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Student with this admission number already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	student := models.Student{
		ID:              uuid.New(),
		InstitutionID:   institutionUUID,
		CreatedByUserID: uuid.Must(uuid.Parse(userID.(string))),
		AdmissionNumber: input.AdmissionNumber,
		Name:            input.Name,
		GuardianName:    input.GuardianName,
		GuardianPhone:   input.GuardianPhone,
		ClassID:         input.ClassID,
		AcademicYear:    input.AcademicYear,
		AdmittedAt:      input.AdmittedAt,
		IsEnrolled:      true,
	}

	if err := config.DB.Create(&student).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create student")
		return
	}

	c.JSON(http.StatusCreated, student)
}

// GetStudents retrieves all students for the institution
func GetStudents(c *gin.Context) {
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
	if classID := c.Query("classId"); classID != "" {
		query = query.Where("class_id = ?", classID)
	}
	if academicYear := c.Query("academicYear"); academicYear != "" {
		query = query.Where("academic_year = ?", academicYear)
	}

	var students []models.Student
	if err := query.Order("admission_number").Find(&students).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve students")
		return
	}

	c.JSON(http.StatusOK, students)
}

// GetStudent retrieves a specific student by ID
func GetStudent(c *gin.Context) {
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
	if err := config.DB.Preload("Class").Preload("Discounts").
		Where("institution_id = ? AND id = ?", institutionUUID, studentUUID).
		First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Student not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, student)
}

// UpdateStudent updates an existing student
func UpdateStudent(c *gin.Context) {
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

	var input UpdateStudentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var student models.Student
	if err := config.DB.Where("institution_id = ? AND id = ?", institutionUUID, studentUUID).
		First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Student not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Name != nil {
		student.Name = *input.Name
	}
	if input.GuardianName != nil {
		student.GuardianName = *input.GuardianName
	}
	if input.GuardianPhone != nil {
		if *input.GuardianPhone != "" && !utils.ValidatePhone(*input.GuardianPhone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid guardian phone number format")
			return
		}
		student.GuardianPhone = *input.GuardianPhone
	}
	if input.ClassID != nil {
		var class models.Class
		if err := config.DB.Where("institution_id = ? AND id = ?", institutionUUID, *input.ClassID).
			First(&class).Error; err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Class not found")
			return
		}
		student.ClassID = *input.ClassID
	}
	if input.AcademicYear != nil {
		student.AcademicYear = *input.AcademicYear
	}
	if input.IsEnrolled != nil {
		student.IsEnrolled = *input.IsEnrolled
	}

	if err := config.DB.Save(&student).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update student")
		return
	}

	c.JSON(http.StatusOK, student)
}

// DeleteStudent soft deletes a student
func DeleteStudent(c *gin.Context) {
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

	result := config.DB.Where("institution_id = ? AND id = ?", institutionUUID, studentUUID).
		Delete(&models.Student{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete student")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Student not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Student deleted successfully"})
}
