package model

import "time"

// 論理削除フラグ。物理削除はしない。
// 一覧・詳細のクエリは必ず is_deleted = false で絞る。
type SoftDelete struct {
	IsDeleted bool       `gorm:"not null;default:false;index" json:"-"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// 削除済みにする
func (s *SoftDelete) MarkDeleted(now time.Time) {
	s.IsDeleted = true
	s.DeletedAt = &now
}
