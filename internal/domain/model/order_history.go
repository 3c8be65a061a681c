package model

import "time"

// 注文ステータスの変更履歴。追記のみ（更新・削除しない）。
type OrderHistory struct {
	ID        int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64       `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"type:varchar(20);not null" json:"status"`
	Note      *string     `gorm:"type:text" json:"note"`
	ChangedBy int64       `gorm:"not null" json:"changed_by"`
	ChangedAt time.Time   `gorm:"not null;index" json:"changed_at"`
}

func (OrderHistory) TableName() string {
	return "order_history"
}
