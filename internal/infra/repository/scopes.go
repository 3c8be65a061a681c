package repository

import (
	"errors"
	"strings"
	"time"

	repo "backoffice/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// 論理削除されていない行だけ
func notDeleted(table string) func(*gorm.DB) *gorm.DB {
	col := "is_deleted"
	if table != "" {
		col = table + ".is_deleted"
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(col+" = ?", false)
	}
}

// 論理削除の更新内容
func softDeleteColumns(now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"is_deleted": true,
		"deleted_at": now,
	}
}

func paginate(page, limit, maxLimit, defLimit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > maxLimit {
		limit = defLimit
	}
	return limit, (page - 1) * limit
}

func likePattern(q string) string {
	return "%" + strings.TrimSpace(q) + "%"
}

// gorm/pgx のエラーをリポジトリのエラーへ
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repo.ErrConflict
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repo.ErrConflict
	}
	return err
}
