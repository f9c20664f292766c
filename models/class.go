package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Class struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	InstitutionID uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_institution_class,priority:1"`
	Name          string    `gorm:"not null;uniqueIndex:idx_institution_class,priority:2"`
	Section       string
	IsActive      bool `gorm:"default:true"`

	Students      []Student      `gorm:"foreignKey:ClassID"`
	FeeStructures []FeeStructure `gorm:"foreignKey:ClassID"`

	gorm.Model
}
