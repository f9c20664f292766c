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

type RegisterInput struct {
	Email              string       `json:"email" binding:"required,email"`
	Phone              string       `json:"phone" binding:"required"`
	Name               string       `json:"name" binding:"required"`
	Password           string       `json:"password" binding:"required,min=8"`
	InstitutionName    string       `json:"institutionName" binding:"required"`
	InstitutionAddress string       `json:"institutionAddress"`
	Settings           models.JSONB `json:"settings"`
}

type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"` // Can be email or phone
	Password   string `json:"password" binding:"required"`
}

// Register creates an institution and its owner account
func Register(c *gin.Context) {
	var input RegisterInput

	// Bind and validate input
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Check if email or phone already exists
	var existingUser models.User
	result := config.DB.Where("email = ? OR phone = ?", input.Email, input.Phone).First(&existingUser)

	if result.Error == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email or phone already registered")
		return
	} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	institution := models.Institution{
		ID:       uuid.New(),
		Name:     input.InstitutionName,
		Address:  input.InstitutionAddress,
		Phone:    input.Phone,
		Settings: input.Settings,
	}
	if institution.Settings == nil {
		institution.Settings = models.JSONB{
			"academicYear": utils.CurrentAcademicYear(time.Now()),
			"currency":     "PKR",
		}
	}

	newUser := models.User{
		Email:         input.Email,
		Phone:         input.Phone,
		Name:          input.Name,
		Password:      input.Password, // Will be hashed in BeforeCreate hook
		Role:          models.RoleOwner,
		InstitutionID: institution.ID,
	}

	// Start transaction
	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&institution).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create institution")
		return
	}

	if err := tx.Create(&newUser).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	tx.Commit()

	// Generate token
	token, err := utils.GenerateToken(newUser.ID.String(), institution.ID.String(), newUser.Role)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":         token,
		"userId":        newUser.ID,
		"institutionId": institution.ID,
	})
}

// Login authenticates by email or phone
func Login(c *gin.Context) {
	var input LoginInput

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var user models.User
	if err := config.DB.Where("email = ? OR phone = ?", input.Identifier, input.Identifier).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if !user.IsActive {
		utils.RespondWithError(c, http.StatusUnauthorized, "Account is disabled")
		return
	}

	if !utils.CheckPasswordHash(input.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	now := time.Now()
	config.DB.Model(&user).Update("last_login", now)

	token, err := utils.GenerateToken(user.ID.String(), user.InstitutionID.String(), user.Role)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":         token,
		"userId":        user.ID,
		"institutionId": user.InstitutionID,
		"name":          user.Name,
		"role":          user.Role,
	})
}

// Me returns the authenticated user and institution
func Me(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var user models.User
	if err := config.DB.Preload("Institution").First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          user.ID,
		"email":       user.Email,
		"name":        user.Name,
		"phone":       user.Phone,
		"role":        user.Role,
		"institution": user.Institution,
	})
}
