package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"backoffice/internal/authz"
	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// 権限判定の窓口（authz.Resolver）
type Authorizer interface {
	RolesFor(ctx context.Context, u *model.User) (model.RoleSet, error)
	Can(ctx context.Context, userID int64, c authz.Capability) (bool, error)
	IsPrimarySuperadmin(email string) bool
	Invalidate(ctx context.Context, userID int64)
}

const minPasswordLen = 8

type UserDTO struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	IsActive     bool       `json:"is_active"`
	Roles        []string   `json:"roles"`
	IsPrimary    bool       `json:"is_primary_superadmin"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	Capabilities []string   `json:"capabilities,omitempty"`
}

type UserUsecase struct {
	users     repo.UserRepository
	roles     repo.RoleRepository
	auditRepo repo.AuditLogRepository
	authz     Authorizer
	log       *zap.Logger
}

func NewUserUsecase(users repo.UserRepository, roles repo.RoleRepository, auditRepo repo.AuditLogRepository, az Authorizer, log *zap.Logger) *UserUsecase {
	return &UserUsecase{users: users, roles: roles, auditRepo: auditRepo, authz: az, log: log}
}

func (u *UserUsecase) toDTO(ctx context.Context, user *model.User) (UserDTO, error) {
	roles, err := u.authz.RolesFor(ctx, user)
	if err != nil {
		return UserDTO{}, err
	}
	names := roles.Names()
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, string(n))
	}
	return UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		IsActive:    user.IsActive,
		Roles:       out,
		IsPrimary:   u.authz.IsPrimarySuperadmin(user.Email),
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}, nil
}

type ListUsersInput struct {
	Page  int
	Limit int
	Q     string
}

func (u *UserUsecase) List(ctx context.Context, in ListUsersInput) (ListOutput[UserDTO], error) {
	if err := checkPaging(in.Page, in.Limit); err != nil {
		return ListOutput[UserDTO]{}, err
	}

	users, total, err := u.users.List(ctx, repo.UserListFilter{Page: in.Page, Limit: in.Limit, Q: strings.TrimSpace(in.Q)})
	if err != nil {
		return ListOutput[UserDTO]{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items := make([]UserDTO, 0, len(users))
	for i := range users {
		dto, err := u.toDTO(ctx, &users[i])
		if err != nil {
			return ListOutput[UserDTO]{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		items = append(items, dto)
	}
	return ListOutput[UserDTO]{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

func (u *UserUsecase) load(ctx context.Context, id int64) (*model.User, error) {
	if id <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return nil, NewHTTPError(http.StatusNotFound, "not found")
	}
	return user, nil
}

func (u *UserUsecase) Get(ctx context.Context, id int64) (UserDTO, error) {
	user, err := u.load(ctx, id)
	if err != nil {
		return UserDTO{}, err
	}
	dto, err := u.toDTO(ctx, user)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return dto, nil
}

type CreateUserInput struct {
	Email    string
	Name     string
	Password string
}

func (u *UserUsecase) Create(ctx context.Context, in CreateUserInput) (UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if len(in.Password) < minPasswordLen {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := &model.User{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(pwHash),
		IsActive:     true,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return UserDTO{}, NewHTTPError(http.StatusConflict, "email already exists")
		}
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	dto, err := u.toDTO(ctx, user)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return dto, nil
}

type UpdateUserInput struct {
	Name     *string
	IsActive *bool
	Password *string
}

func (u *UserUsecase) Update(ctx context.Context, id int64, in UpdateUserInput) (UserDTO, error) {
	user, err := u.load(ctx, id)
	if err != nil {
		return UserDTO{}, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.IsActive != nil {
		//固定superadminは停止できない
		if !*in.IsActive && u.authz.IsPrimarySuperadmin(user.Email) {
			return UserDTO{}, NewHTTPError(http.StatusForbidden, "primary superadmin cannot be deactivated")
		}
		user.IsActive = *in.IsActive
	}
	user.PasswordHash = ""
	if in.Password != nil {
		if len(*in.Password) < minPasswordLen {
			return UserDTO{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
		}
		h, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		user.PasswordHash = string(h)
	}

	if err := u.users.Update(ctx, user); err != nil {
		return UserDTO{}, repoError(err)
	}
	return u.Get(ctx, id)
}

// 論理削除。users:delete が必要。自分自身と固定superadminは消せない
func (u *UserUsecase) Delete(ctx context.Context, actorID int64, id int64) error {
	ok, err := u.authz.Can(ctx, actorID, authz.CapUsersDelete)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !ok {
		return NewHTTPError(http.StatusForbidden, "Only superadmin can delete users")
	}
	if actorID == id {
		return NewHTTPError(http.StatusBadRequest, "cannot delete yourself")
	}

	user, err := u.load(ctx, id)
	if err != nil {
		return err
	}
	if u.authz.IsPrimarySuperadmin(user.Email) {
		return NewHTTPError(http.StatusForbidden, "primary superadmin cannot be deleted")
	}

	if err := u.users.SoftDelete(ctx, id); err != nil {
		return repoError(err)
	}
	u.authz.Invalidate(ctx, id)

	if err := u.auditRepo.Create(ctx, softDeleteAudit(actorID, model.AuditResourceUser, id)); err != nil {
		u.log.Warn("audit log for user delete", zap.Int64("user_id", id), zap.Error(err))
	}
	return nil
}

type RoleChangeOutput struct {
	UserID  int64    `json:"user_id"`
	Roles   []string `json:"roles"`
	Changed bool     `json:"changed"`
}

func (u *UserUsecase) requireRoleManager(ctx context.Context, actorID int64) error {
	ok, err := u.authz.Can(ctx, actorID, authz.CapRolesManage)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !ok {
		return NewHTTPError(http.StatusForbidden, "Only superadmin can manage roles")
	}
	return nil
}

func (u *UserUsecase) findRole(ctx context.Context, name string) (model.Role, error) {
	rn := model.RoleName(strings.ToLower(strings.TrimSpace(name)))
	if !rn.Valid() {
		return model.Role{}, NewHTTPError(http.StatusBadRequest, "invalid role")
	}
	role, err := u.roles.FindByName(ctx, rn)
	if err != nil {
		return model.Role{}, repoError(err)
	}
	return role, nil
}

// 付与済みなら何もしない（changed=false）
func (u *UserUsecase) AssignRole(ctx context.Context, actorID int64, userID int64, roleName string) (RoleChangeOutput, error) {
	if err := u.requireRoleManager(ctx, actorID); err != nil {
		return RoleChangeOutput{}, err
	}
	user, err := u.load(ctx, userID)
	if err != nil {
		return RoleChangeOutput{}, err
	}
	role, err := u.findRole(ctx, roleName)
	if err != nil {
		return RoleChangeOutput{}, err
	}

	changed, err := u.roles.Assign(ctx, user.ID, role.ID)
	if err != nil {
		return RoleChangeOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.afterRoleChange(ctx, actorID, user, role, model.AuditActionAssignRole, changed)
}

func (u *UserUsecase) RevokeRole(ctx context.Context, actorID int64, userID int64, roleName string) (RoleChangeOutput, error) {
	if err := u.requireRoleManager(ctx, actorID); err != nil {
		return RoleChangeOutput{}, err
	}
	user, err := u.load(ctx, userID)
	if err != nil {
		return RoleChangeOutput{}, err
	}
	role, err := u.findRole(ctx, roleName)
	if err != nil {
		return RoleChangeOutput{}, err
	}
	if role.Name == model.RoleSuperadmin && u.authz.IsPrimarySuperadmin(user.Email) {
		return RoleChangeOutput{}, NewHTTPError(http.StatusForbidden, "primary superadmin cannot lose superadmin")
	}

	changed, err := u.roles.Revoke(ctx, user.ID, role.ID)
	if err != nil {
		return RoleChangeOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.afterRoleChange(ctx, actorID, user, role, model.AuditActionRevokeRole, changed)
}

func (u *UserUsecase) afterRoleChange(ctx context.Context, actorID int64, user *model.User, role model.Role, action model.AuditAction, changed bool) (RoleChangeOutput, error) {
	if changed {
		u.authz.Invalidate(ctx, user.ID)

		//「誰が」「何を」「どの対象に」「どう変えたか」を残す
		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       action,
			ResourceType: model.AuditResourceUser,
			ResourceID:   user.ID,
			AfterJSON:    fmt.Sprintf(`{"role":%q}`, role.Name),
			CreatedAt:    time.Now(),
		}); err != nil {
			u.log.Warn("audit log for role change", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}

	dto, err := u.toDTO(ctx, user)
	if err != nil {
		return RoleChangeOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return RoleChangeOutput{UserID: user.ID, Roles: dto.Roles, Changed: changed}, nil
}
