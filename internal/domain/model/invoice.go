package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft  InvoiceStatus = "draft"
	InvoiceStatusIssued InvoiceStatus = "issued"
	InvoiceStatusPaid   InvoiceStatus = "paid"
	InvoiceStatusVoid   InvoiceStatus = "void"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusIssued, InvoiceStatusPaid, InvoiceStatusVoid:
		return true
	}
	return false
}

// 請求書。注文とは order_code（文字列）でゆるく紐づくだけで外部キーはない。
type Invoice struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Number         string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"number"`
	OrderCode      *string         `gorm:"type:varchar(64);index" json:"order_code"`
	CustomerName   string          `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerEmail  string          `gorm:"type:varchar(255)" json:"customer_email"`
	BillingAddress string          `gorm:"type:text" json:"billing_address"`
	Amount         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency       string          `gorm:"type:varchar(3);not null" json:"currency"`
	Status         InvoiceStatus   `gorm:"type:varchar(20);not null" json:"status"`
	IssuedAt       time.Time       `gorm:"not null" json:"issued_at"`
	DueAt          *time.Time      `json:"due_at"`
	Notes          string          `gorm:"type:text" json:"notes"`
	SoftDelete     `gorm:"embedded"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
