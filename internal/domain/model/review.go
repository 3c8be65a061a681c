package model

import "time"

type Review struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID  int64  `gorm:"not null;index" json:"product_id"`
	UserID     int64  `gorm:"not null;index" json:"user_id"`
	Rating     int    `gorm:"not null" json:"rating"`
	Title      string `gorm:"type:varchar(255)" json:"title"`
	Body       string `gorm:"type:text" json:"body"`
	IsApproved bool   `gorm:"not null;default:false" json:"is_approved"`
	SoftDelete `gorm:"embedded"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
