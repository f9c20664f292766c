package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Institution struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	Name     string    `gorm:"not null"`
	Address  string
	Phone    string
	Settings JSONB `gorm:"type:jsonb;default:'{}'"`

	AutoGenerateVouchers bool `gorm:"default:false"`
	SMSReminders         bool `gorm:"default:false"`

	Users            []User            `gorm:"foreignKey:InstitutionID"`
	Classes          []Class           `gorm:"foreignKey:InstitutionID"`
	Students         []Student         `gorm:"foreignKey:InstitutionID"`
	FeeStructures    []FeeStructure    `gorm:"foreignKey:InstitutionID"`
	InstallmentPlans []InstallmentPlan `gorm:"foreignKey:InstitutionID"`
	FeeVouchers      []FeeVoucher      `gorm:"foreignKey:InstitutionID"`

	gorm.Model
}

// Custom JSONB type for institution settings
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, &j)
}
