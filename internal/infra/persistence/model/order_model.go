package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderModel mirrors the 'orders' table. Line items are frozen copies of the
// dish at purchase time, so later dish edits never rewrite order history.
type OrderModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	TotalAmount int64     `gorm:"not null"`
	Note        string    `gorm:"type:text"`
	Status      string    `gorm:"type:varchar(20);not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items []OrderItemModel `gorm:"foreignKey:OrderID"`
}

// TableName explicitly sets the table name for GORM.
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel mirrors the 'order_items' table.
type OrderItemModel struct {
	ID                  uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	OrderID             uuid.UUID `gorm:"type:uuid;not null;index"`
	DishID              uuid.UUID `gorm:"type:uuid;not null"`
	CookID              uuid.UUID `gorm:"type:uuid;not null;index"`
	Name                string    `gorm:"type:varchar(150);not null"`
	UnitPrice           int64     `gorm:"not null"`
	Quantity            int       `gorm:"not null"`
	SpecialInstructions string    `gorm:"type:text"`
	CreatedAt           time.Time
}

// TableName explicitly sets the table name for GORM.
func (OrderItemModel) TableName() string {
	return "order_items"
}
