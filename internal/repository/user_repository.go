package repository

import (
	"backoffice/internal/domain/model"
	"context"
	"errors"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

type UserListFilter struct {
	Page  int
	Limit int
	Q     string
}

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//メールからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, f UserListFilter) ([]model.User, int64, error)
	// 名前・有効フラグ・最終ログインなど
	Update(ctx context.Context, user *model.User) error
	SoftDelete(ctx context.Context, userID int64) error
}
