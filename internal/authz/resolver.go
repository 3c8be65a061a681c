package authz

import (
	"context"
	"strings"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"go.uber.org/zap"
)

// リポジトリ側と同じ値。errors.Is でどちらでも判定できる
var ErrUserNotFound = repo.ErrUserNotFound

// ロール集合のキャッシュ。redis 実装は infra/cache
type RoleCache interface {
	Get(ctx context.Context, userID int64) ([]model.RoleName, bool, error)
	Set(ctx context.Context, userID int64, names []model.RoleName) error
	Invalidate(ctx context.Context, userID int64) error
}

// 権限判定はすべてここを通す。許可リストを見るのもここだけ。
type Resolver struct {
	users     repo.UserRepository
	roles     repo.RoleRepository
	cache     RoleCache
	allowList map[string]struct{}
	log       *zap.Logger
}

// cache は nil 可
func NewResolver(users repo.UserRepository, roles repo.RoleRepository, cache RoleCache, superadminEmails []string, log *zap.Logger) *Resolver {
	allow := make(map[string]struct{}, len(superadminEmails))
	for _, e := range superadminEmails {
		e = normalizeEmail(e)
		if e != "" {
			allow[e] = struct{}{}
		}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{users: users, roles: roles, cache: cache, allowList: allow, log: log}
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// メールが固定superadminの許可リストに入っているか
func (r *Resolver) IsPrimarySuperadmin(email string) bool {
	_, ok := r.allowList[normalizeEmail(email)]
	return ok
}

// DB上のロール（キャッシュ経由）。許可リストは含まない
func (r *Resolver) storedRoles(ctx context.Context, userID int64) ([]model.RoleName, error) {
	if r.cache != nil {
		names, ok, err := r.cache.Get(ctx, userID)
		if err != nil {
			r.log.Warn("role cache get failed", zap.Int64("user_id", userID), zap.Error(err))
		} else if ok {
			return names, nil
		}
	}

	names, err := r.roles.ListNamesByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, userID, names); err != nil {
			r.log.Warn("role cache set failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	return names, nil
}

// RolesFor はユーザーが読み込み済みのときに使う
func (r *Resolver) RolesFor(ctx context.Context, u *model.User) (model.RoleSet, error) {
	names, err := r.storedRoles(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	set := model.NewRoleSet()
	for _, n := range names {
		if n.Valid() {
			set.Add(n)
		}
	}
	if r.IsPrimarySuperadmin(u.Email) {
		set.Add(model.RoleSuperadmin)
	}
	return set, nil
}

func (r *Resolver) Roles(ctx context.Context, userID int64) (model.RoleSet, error) {
	u, err := r.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return r.RolesFor(ctx, u)
}

func (r *Resolver) Capabilities(ctx context.Context, userID int64) (CapabilitySet, error) {
	roles, err := r.Roles(ctx, userID)
	if err != nil {
		return nil, err
	}
	return CapabilitiesFor(roles), nil
}

func (r *Resolver) Can(ctx context.Context, userID int64, c Capability) (bool, error) {
	caps, err := r.Capabilities(ctx, userID)
	if err != nil {
		return false, err
	}
	return caps.Has(c), nil
}

// ロール変更・ユーザー削除の後に呼ぶ
func (r *Resolver) Invalidate(ctx context.Context, userID int64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, userID); err != nil {
		r.log.Warn("role cache invalidate failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}
