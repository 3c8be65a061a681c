package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"backoffice/internal/domain/model"
	domainrepo "backoffice/internal/repository"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

// Create はユーザーを新規作成
func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// emailでユーザーを1件取得（大文字小文字は区別しない）
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Scopes(notDeleted("")).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &u, nil
}

// IDでユーザーを1件取得
func (r *userGormRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Scopes(notDeleted("")).
		Where("id = ?", id).
		First(&u).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &u, nil
}

func (r *userGormRepository) List(ctx context.Context, f domainrepo.UserListFilter) ([]model.User, int64, error) {
	limit, offset := paginate(f.Page, f.Limit, 100, 20)

	q := r.db.WithContext(ctx).Model(&model.User{}).Scopes(notDeleted(""))
	if strings.TrimSpace(f.Q) != "" {
		like := likePattern(f.Q)
		q = q.Where("email ILIKE ? OR name ILIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	if err := q.Order("id asc").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ユーザーを更新。パスワードは空なら触らない
func (r *userGormRepository) Update(ctx context.Context, user *model.User) error {
	cols := map[string]interface{}{
		"name":          user.Name,
		"is_active":     user.IsActive,
		"last_login_at": user.LastLoginAt,
		"updated_at":    time.Now(),
	}
	if user.PasswordHash != "" {
		cols["password_hash"] = user.PasswordHash
	}

	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Scopes(notDeleted("")).
		Where("id = ?", user.ID).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}

// 論理削除。付与済みロールも一緒に外す
func (r *userGormRepository) SoftDelete(ctx context.Context, id int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).
			Scopes(notDeleted("")).
			Where("id = ?", id).
			Updates(softDeleteColumns(now))
		if res.Error != nil {
			return res.Error
		}
		// 0件更新は「対象がない」
		if res.RowsAffected == 0 {
			return domainrepo.ErrUserNotFound
		}

		return tx.Model(&model.UserRole{}).
			Scopes(notDeleted("")).
			Where("user_id = ?", id).
			Updates(softDeleteColumns(now)).Error
	})
}
