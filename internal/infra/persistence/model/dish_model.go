package model

import (
	"time"

	"github.com/google/uuid"
)

// DishModel mirrors the 'dishes' table. Prices are stored in cents to avoid
// floating point arithmetic on money.
type DishModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	CookID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(150);not null"`
	Description string    `gorm:"type:text"`
	Price       int64     `gorm:"not null"`
	ImageURL    string    `gorm:"type:varchar(512)"`
	Tags        []string  `gorm:"type:jsonb;serializer:json"`
	Available   bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time `gorm:"index"`
}

// TableName explicitly sets the table name for GORM.
func (DishModel) TableName() string {
	return "dishes"
}
