package models

import (
	"encoding/json"
	"time"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name         string    `gorm:"not null"                      json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                      json:"-"`
	Role         string    `gorm:"not null;default:customer"     json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Product struct {
	ID             uint            `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name           string          `gorm:"not null;index"            json:"name"`
	Description    string          `json:"description"`
	Price          float64         `gorm:"not null;type:numeric(10,2)" json:"price"`
	Stock          uint            `gorm:"not null;default:0"        json:"stock"`
	Category       string          `gorm:"not null;index"            json:"category"`
	Brand          *string         `json:"brand"`
	Image          *string         `json:"image"`
	Specifications json.RawMessage `gorm:"type:jsonb"                json:"specifications"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CartItem holds one (user, product) line. The composite unique index is the
// final arbiter for merge semantics under concurrent adds.
type CartItem struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                       json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_user_product"     json:"product_id"`
	Quantity  uint      `gorm:"not null;default:1"                             json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User    User    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Product Product `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
