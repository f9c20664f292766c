// models/reminder_log.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReminderLog struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	InstitutionID uuid.UUID `gorm:"type:uuid;index;not null"`
	StudentID     uuid.UUID `gorm:"type:uuid;index;not null"`
	VoucherID     uuid.UUID `gorm:"type:uuid;index;not null"`
	Type          string    `gorm:"type:varchar(20)"` // due_soon, overdue
	Message       string    `gorm:"type:text"`
	Status        string    `gorm:"type:varchar(20)"` // sent, failed
	ErrorMessage  string    `gorm:"type:text"`
	SentAt        time.Time
	gorm.Model
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	r.ID = uuid.New()
	return
}
