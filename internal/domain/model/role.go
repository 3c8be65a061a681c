package model

import (
	"sort"
	"time"
)

type RoleName string

const (
	RoleSuperadmin RoleName = "superadmin"
	RoleAdmin      RoleName = "admin"
	RoleEditor     RoleName = "editor"
)

func (r RoleName) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleEditor:
		return true
	}
	return false
}

type Role struct {
	ID         int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       RoleName `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
	SoftDelete `gorm:"embedded"`
	CreatedAt  time.Time `json:"created_at"`
}

// users と roles の中間テーブル
type UserRole struct {
	ID         int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64 `gorm:"not null;index" json:"user_id"`
	RoleID     int64 `gorm:"not null;index" json:"role_id"`
	SoftDelete `gorm:"embedded"`
	CreatedAt  time.Time `json:"created_at"`
}

// ロールの集合
type RoleSet map[RoleName]struct{}

func NewRoleSet(names ...RoleName) RoleSet {
	s := make(RoleSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s RoleSet) Has(n RoleName) bool {
	_, ok := s[n]
	return ok
}

func (s RoleSet) Add(n RoleName) {
	s[n] = struct{}{}
}

// 名前順のスライス（JSONやキャッシュ用）
func (s RoleSet) Names() []RoleName {
	out := make([]RoleName, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
