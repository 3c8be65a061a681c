package model

import (
	"errors"
	"fmt"
)

type OrderStatus string

const (
	OrderStatusDraft      OrderStatus = "draft"
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusReturned   OrderStatus = "returned"
)

var (
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrIllegalTransition = errors.New("illegal status transition")
)

// 表示・バリデーション用の固定順
var AllOrderStatuses = []OrderStatus{
	OrderStatusDraft,
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusFailed,
	OrderStatusRefunded,
	OrderStatusReturned,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, st := range AllOrderStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (s OrderStatus) Valid() bool {
	_, err := ParseOrderStatus(string(s))
	return err == nil
}

// 管理者にも通知するステータス
func (s OrderStatus) NotifiesAdmin() bool {
	switch s {
	case OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusFailed, OrderStatusRefunded:
		return true
	}
	return false
}

// 遷移表（strict 時だけ使う）。同じステータスの再適用はどこからでも可（履歴は毎回残る）。
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:      {OrderStatusPending, OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped, OrderStatusCancelled, OrderStatusFailed},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusShipped, OrderStatusCancelled, OrderStatusFailed},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled, OrderStatusFailed},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusReturned, OrderStatusFailed},
	OrderStatusDelivered:  {OrderStatusReturned, OrderStatusRefunded},
	OrderStatusCancelled:  {OrderStatusRefunded},
	OrderStatusFailed:     {OrderStatusPending, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusReturned:   {OrderStatusRefunded},
	OrderStatusRefunded:   {},
}

// CheckTransition は from -> to が許可されているかを判定する唯一の場所。
// strict=false（既定）の場合は列挙値であれば何でも通す。後戻りも可。
func CheckTransition(from, to OrderStatus, strict bool) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if !strict || from == to {
		return nil
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}

// from から遷移できるステータス一覧（UIの選択肢用）
func AllowedNextStatuses(from OrderStatus, strict bool) []OrderStatus {
	out := make([]OrderStatus, 0, len(AllOrderStatuses))
	for _, st := range AllOrderStatuses {
		if CheckTransition(from, st, strict) == nil {
			out = append(out, st)
		}
	}
	return out
}
