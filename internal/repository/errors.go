package repository

import "errors"

var (
	// 存在しない、または論理削除済み
	ErrNotFound = errors.New("not found")
	// 一意制約違反など
	ErrConflict = errors.New("conflict")
)
