package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reminder types
const (
	ReminderTypeDueSoon = "due_soon"
	ReminderTypeOverdue = "overdue"
)

type ReminderTemplate struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	InstitutionID uuid.UUID `gorm:"type:uuid;index;not null"`
	Type          string    `gorm:"type:varchar(20);not null"` // due_soon, overdue
	Message       string    `gorm:"type:text;not null"`
	IsActive      bool      `gorm:"default:true"`
	gorm.Model
}
