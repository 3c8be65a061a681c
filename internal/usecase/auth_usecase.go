package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"backoffice/internal/authz"
	"backoffice/internal/config"
	"backoffice/internal/domain/model"
	"backoffice/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

var (
	//401 認証失敗
	ErrUnauthorized = errors.New("unauthorized")
	//403　権限
	ErrForbidden = errors.New("forbidden")
	//500
	ErrInternal = errors.New("internal error")
)

type AuthLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserDTO   `json:"user"`
}

type AuthUsecase struct {
	cfg   config.Config
	users repository.UserRepository
	authz Authorizer
	now   func() time.Time
}

func NewAuthUsecase(cfg config.Config, users repository.UserRepository, az Authorizer) *AuthUsecase {
	return &AuthUsecase{cfg: cfg, users: users, authz: az, now: time.Now}
}

func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest) (*LoginResult, error) {
	//ユーザー取得
	user, err := u.users.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, ErrInternal
	}
	if user == nil {
		return nil, ErrUnauthorized
	}

	//パスワード照合（bcrypt）
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrUnauthorized
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return nil, ErrForbidden
	}

	//last_login更新
	now := u.now()
	user.LastLoginAt = &now
	user.PasswordHash = ""
	_ = u.users.Update(ctx, user)

	token, exp, err := u.issueSessionToken(user.ID, now)
	if err != nil {
		return nil, ErrInternal
	}

	dto, err := u.describe(ctx, user)
	if err != nil {
		return nil, ErrInternal
	}

	return &LoginResult{Token: token, ExpiresAt: exp, User: dto}, nil
}

// ログイン中ユーザー（ロールと権限つき）
func (u *AuthUsecase) Me(ctx context.Context, userID int64) (*UserDTO, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrInternal
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	if !user.IsActive {
		return nil, ErrForbidden
	}

	dto, err := u.describe(ctx, user)
	if err != nil {
		return nil, ErrInternal
	}
	return &dto, nil
}

func (u *AuthUsecase) describe(ctx context.Context, user *model.User) (UserDTO, error) {
	roles, err := u.authz.RolesFor(ctx, user)
	if err != nil {
		return UserDTO{}, err
	}
	names := make([]string, 0, len(roles))
	for _, n := range roles.Names() {
		names = append(names, string(n))
	}
	return UserDTO{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		IsActive:     user.IsActive,
		Roles:        names,
		IsPrimary:    u.authz.IsPrimarySuperadmin(user.Email),
		LastLoginAt:  user.LastLoginAt,
		CreatedAt:    user.CreatedAt,
		Capabilities: authz.CapabilitiesFor(roles).List(),
	}, nil
}

// jwt発行（session クッキーにも同じものを入れる）
func (u *AuthUsecase) issueSessionToken(userID int64, now time.Time) (string, time.Time, error) {
	exp := now.Add(u.cfg.SessionTTL)

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := t.SignedString([]byte(u.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
