package repository

import (
	"context"

	"backoffice/internal/domain/model"
)

type RoleRepository interface {
	// user_roles と roles を結合して有効なロール名を返す（論理削除は除外）
	ListNamesByUserID(ctx context.Context, userID int64) ([]model.RoleName, error)
	FindByName(ctx context.Context, name model.RoleName) (model.Role, error)
	// 既に付与済みなら false
	Assign(ctx context.Context, userID int64, roleID int64) (bool, error)
	// 付与されていなければ false
	Revoke(ctx context.Context, userID int64, roleID int64) (bool, error)
}
