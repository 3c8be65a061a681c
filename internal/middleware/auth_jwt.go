package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"backoffice/internal/config"
	"backoffice/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey = "user_id" // int64

	SessionCookie   = "session"
	DevBypassCookie = "dev_bypass"
)

// Bearer ヘッダ、なければ session クッキーのJWTを検証する。
// 開発環境で DEV_AUTH_BYPASS が有効なときだけ dev_bypass クッキー（メール）も受け付ける。
func AuthSession(cfg config.Config, users repository.UserRepository) echo.MiddlewareFunc {
	bypass := cfg.DevAuthBypass && !cfg.IsProduction()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawToken, ok := sessionToken(c)
			if ok {
				userID, err := parseSession(rawToken, cfg.JWTSecret)
				if err != nil || userID <= 0 {
					return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
				}
				//停止・削除済みユーザーは通さない
				u, err := users.FindByID(c.Request().Context(), userID)
				if err != nil || u == nil || !u.IsActive {
					return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
				}
				c.Set(CtxUserIDKey, userID)
				return next(c)
			}

			if bypass {
				if ck, err := c.Cookie(DevBypassCookie); err == nil && strings.TrimSpace(ck.Value) != "" {
					u, err := users.FindByEmail(c.Request().Context(), ck.Value)
					if err == nil && u != nil && u.IsActive {
						c.Set(CtxUserIDKey, u.ID)
						return next(c)
					}
				}
			}

			return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
		}
	}
}

func sessionToken(c echo.Context) (string, bool) {
	//Authorizationヘッダを優先
	if authz := c.Request().Header.Get("Authorization"); authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if t := strings.TrimSpace(parts[1]); t != "" {
				return t, true
			}
		}
	}
	if ck, err := c.Cookie(SessionCookie); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	return "", false
}

// JWTをパースして sub(user_id) を返す
func parseSession(rawToken, secret string) (int64, error) {
	token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || token == nil || !token.Valid {
		return 0, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid claims")
	}
	return parseUserID(claims["sub"])
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// user_idをint64に変換する
func parseUserID(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errors.New("invalid sub")
	}
}
