package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Code        string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	UserID      int64           `gorm:"not null;index" json:"user_id"`
	AddressID   *int64          `json:"address_id"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	Subtotal    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	ShippingFee decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shipping_fee"`
	Discount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount"`
	Total       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Currency    string          `gorm:"type:varchar(3);not null" json:"currency"`
	AdminNote   *string         `gorm:"type:text" json:"admin_note"`
	SoftDelete  `gorm:"embedded"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
	UpdatedBy   *int64    `json:"updated_by"`
}
