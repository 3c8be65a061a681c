package middleware

import (
	"context"
	"errors"
	"net/http"

	"backoffice/internal/authz"
	"backoffice/internal/repository"

	"github.com/labstack/echo/v4"
)

type CapabilityChecker interface {
	Capabilities(ctx context.Context, userID int64) (authz.CapabilitySet, error)
}

const CtxCapabilitiesKey = "capabilities" // authz.CapabilitySet

// 権限を1つでも持っていれば管理画面に入れる
func RequireBackoffice(checker CapabilityChecker) echo.MiddlewareFunc {
	return guard(checker, func(caps authz.CapabilitySet) bool { return !caps.Empty() })
}

// contextのuser_idが指定の権限を持っているか確認します。
func RequireCapability(checker CapabilityChecker, want authz.Capability) echo.MiddlewareFunc {
	return guard(checker, func(caps authz.CapabilitySet) bool { return caps.Has(want) })
}

func guard(checker CapabilityChecker, allowed func(authz.CapabilitySet) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := c.Get(CtxUserIDKey).(int64)
			if !ok || userID <= 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//同じリクエスト内では1回だけ解決する
			caps, ok := c.Get(CtxCapabilitiesKey).(authz.CapabilitySet)
			if !ok {
				var err error
				caps, err = checker.Capabilities(c.Request().Context(), userID)
				if errors.Is(err, repository.ErrUserNotFound) {
					return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
				}
				if err != nil {
					return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
				}
				c.Set(CtxCapabilitiesKey, caps)
			}

			if !allowed(caps) {
				return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
			}
			return next(c)
		}
	}
}
