package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. PostgreSQL generates UUIDs via uuid_generate_v7().
// It is an exported type so it can be used by the GORM Gen tool from other packages.
type UserModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Email     string    `gorm:"type:varchar(255);unique;not null"`
	Name      string    `gorm:"type:varchar(100)"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`

	CustomerProfile *CustomerProfileModel `gorm:"foreignKey:UserID"`
	CookProfile     *CookProfileModel     `gorm:"foreignKey:UserID"`
	Authentications []AuthenticationModel `gorm:"foreignKey:UserID"`
	RefreshTokens   []RefreshTokenModel   `gorm:"foreignKey:UserID"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// CustomerProfileModel mirrors the 'customer_profiles' table. UserID references users.id (UUID).
type CustomerProfileModel struct {
	UserID            uuid.UUID `gorm:"primaryKey"`
	DefaultAddress    string    `gorm:"type:text"`
	DietaryNotes      string    `gorm:"type:text"`
	FavouriteCuisines []string  `gorm:"type:jsonb;serializer:json"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName explicitly sets the table name for GORM.
func (CustomerProfileModel) TableName() string {
	return "customer_profiles"
}

// CookProfileModel mirrors the 'cook_profiles' table. UserID references users.id (UUID).
type CookProfileModel struct {
	UserID      uuid.UUID `gorm:"primaryKey"`
	KitchenName string    `gorm:"type:varchar(100);not null"`
	Bio         string    `gorm:"type:text"`
	Latitude    float64   `gorm:"type:double precision;not null"`
	Longitude   float64   `gorm:"type:double precision;not null"`
	Rating      float64   `gorm:"type:double precision;not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName explicitly sets the table name for GORM.
func (CookProfileModel) TableName() string {
	return "cook_profiles"
}
