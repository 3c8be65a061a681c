package repository

import (
	"context"
	"time"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"gorm.io/gorm"
)

type RoleGormRepository struct {
	db *gorm.DB
}

func NewRoleGormRepository(db *gorm.DB) *RoleGormRepository {
	return &RoleGormRepository{db: db}
}

func (r *RoleGormRepository) ListNamesByUserID(ctx context.Context, userID int64) ([]model.RoleName, error) {
	var names []model.RoleName
	err := r.db.WithContext(ctx).
		Table("user_roles AS ur").
		Joins("JOIN roles AS r ON r.id = ur.role_id").
		Where("ur.user_id = ?", userID).
		Scopes(notDeleted("ur"), notDeleted("r")).
		Order("r.name asc").
		Pluck("r.name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (r *RoleGormRepository) FindByName(ctx context.Context, name model.RoleName) (model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Scopes(notDeleted("")).Where("name = ?", name).First(&role).Error
	if err != nil {
		return model.Role{}, translateError(err)
	}
	return role, nil
}

// uq_user_roles_live に当たったら付与済み扱い
func (r *RoleGormRepository) Assign(ctx context.Context, userID int64, roleID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.UserRole{}).
		Scopes(notDeleted("")).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	ur := model.UserRole{UserID: userID, RoleID: roleID}
	if err := r.db.WithContext(ctx).Create(&ur).Error; err != nil {
		if translateError(err) == repo.ErrConflict {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *RoleGormRepository) Revoke(ctx context.Context, userID int64, roleID int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.UserRole{}).
		Scopes(notDeleted("")).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Updates(softDeleteColumns(time.Now()))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
