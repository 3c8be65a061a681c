package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"backoffice/internal/authz"
	"backoffice/internal/config"
	"backoffice/internal/domain/model"
	"backoffice/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testSecret = "test-secret"

// =====================
// UserRepository モック
// =====================

type userRepoMock struct {
	mock.Mock
	repository.UserRepository
}

func (m *userRepoMock) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *userRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

type checkerMock struct{ mock.Mock }

func (m *checkerMock) Capabilities(ctx context.Context, userID int64) (authz.CapabilitySet, error) {
	args := m.Called(ctx, userID)
	caps, _ := args.Get(0).(authz.CapabilitySet)
	return caps, args.Error(1)
}

// =====================
// helper
// =====================

func signToken(t *testing.T, secret string, sub int64, method jwt.SigningMethod, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(method, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(sub, 10),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func echoUserID(c echo.Context) error {
	id, _ := c.Get(CtxUserIDKey).(int64)
	return c.JSON(http.StatusOK, map[string]int64{"user_id": id})
}

func newAuthEcho(cfg config.Config, users repository.UserRepository) *echo.Echo {
	e := echo.New()
	e.GET("/api/me", echoUserID, AuthSession(cfg, users))
	return e
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var r struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&r))
	return r.Error
}

// =====================
// AuthSession
// =====================

func TestAuthSession_BearerAndCookie(t *testing.T) {
	users := &userRepoMock{}
	users.On("FindByID", mock.Anything, int64(7)).Return(&model.User{ID: 7, IsActive: true}, nil)

	e := newAuthEcho(config.Config{JWTSecret: testSecret}, users)
	token := signToken(t, testSecret, 7, jwt.SigningMethodHS256, time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":7}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthSession_Rejects(t *testing.T) {
	users := &userRepoMock{}
	users.On("FindByID", mock.Anything, int64(7)).Return(&model.User{ID: 7, IsActive: true}, nil)
	users.On("FindByID", mock.Anything, int64(8)).Return(&model.User{ID: 8, IsActive: false}, nil)
	users.On("FindByID", mock.Anything, int64(9)).Return(nil, nil)

	e := newAuthEcho(config.Config{JWTSecret: testSecret}, users)
	later := time.Now().Add(time.Hour)

	tests := []struct {
		name   string
		header string
	}{
		{name: "no credentials", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "garbage", header: "Bearer not-a-jwt"},
		{name: "wrong secret", header: "Bearer " + signToken(t, "other", 7, jwt.SigningMethodHS256, later)},
		{name: "wrong alg", header: "Bearer " + signToken(t, testSecret, 7, jwt.SigningMethodHS512, later)},
		{name: "expired", header: "Bearer " + signToken(t, testSecret, 7, jwt.SigningMethodHS256, time.Now().Add(-time.Minute))},
		{name: "inactive user", header: "Bearer " + signToken(t, testSecret, 8, jwt.SigningMethodHS256, later)},
		{name: "deleted user", header: "Bearer " + signToken(t, testSecret, 9, jwt.SigningMethodHS256, later)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthorized", decodeError(t, rec))
		})
	}
}

func TestAuthSession_DevBypass(t *testing.T) {
	users := &userRepoMock{}
	users.On("FindByEmail", mock.Anything, "dev@example.com").Return(&model.User{ID: 11, Email: "dev@example.com", IsActive: true}, nil)

	tests := []struct {
		name string
		cfg  config.Config
		want int
	}{
		{name: "enabled in development", cfg: config.Config{AppEnv: "development", DevAuthBypass: true, JWTSecret: testSecret}, want: http.StatusOK},
		{name: "flag off", cfg: config.Config{AppEnv: "development", JWTSecret: testSecret}, want: http.StatusUnauthorized},
		{name: "ignored in production", cfg: config.Config{AppEnv: config.EnvProduction, DevAuthBypass: true, JWTSecret: testSecret}, want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newAuthEcho(tt.cfg, users)
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			req.AddCookie(&http.Cookie{Name: DevBypassCookie, Value: "dev@example.com"})
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"user_id":11}`, rec.Body.String())
			}
		})
	}
}

// =====================
// RequireBackoffice / RequireCapability
// =====================

func withUser(id int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id > 0 {
				c.Set(CtxUserIDKey, id)
			}
			return next(c)
		}
	}
}

func TestRequireCapability(t *testing.T) {
	checker := &checkerMock{}
	checker.On("Capabilities", mock.Anything, int64(1)).Return(authz.CapabilitiesFor(model.NewRoleSet(model.RoleEditor)), nil)
	checker.On("Capabilities", mock.Anything, int64(2)).Return(authz.CapabilitySet{}, nil)
	checker.On("Capabilities", mock.Anything, int64(3)).Return(nil, repository.ErrUserNotFound)
	checker.On("Capabilities", mock.Anything, int64(4)).Return(nil, errors.New("db down"))

	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

	tests := []struct {
		name string
		user int64
		path string
		want int
	}{
		{name: "editor reads", user: 1, path: "/admin/catalog", want: http.StatusNoContent},
		{name: "editor cannot manage roles", user: 1, path: "/admin/roles", want: http.StatusForbidden},
		{name: "no capabilities", user: 2, path: "/admin/catalog", want: http.StatusForbidden},
		{name: "unknown user", user: 3, path: "/admin/catalog", want: http.StatusUnauthorized},
		{name: "store error", user: 4, path: "/admin/catalog", want: http.StatusInternalServerError},
		{name: "anonymous", user: 0, path: "/admin/catalog", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			g := e.Group("/admin", withUser(tt.user), RequireBackoffice(checker))
			g.GET("/catalog", ok, RequireCapability(checker, authz.CapCatalogWrite))
			g.GET("/roles", ok, RequireCapability(checker, authz.CapRolesManage))

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireCapability_ResolvesOncePerRequest(t *testing.T) {
	checker := &checkerMock{}
	checker.On("Capabilities", mock.Anything, int64(1)).
		Return(authz.CapabilitiesFor(model.NewRoleSet(model.RoleAdmin)), nil).Once()

	e := echo.New()
	g := e.Group("/admin", withUser(1), RequireBackoffice(checker))
	g.GET("/orders", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, RequireCapability(checker, authz.CapOrdersRead))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/orders", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	checker.AssertNumberOfCalls(t, "Capabilities", 1)
}

// =====================
// RequestID / RequestLogger
// =====================

func TestRequestIDAndLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	e.Use(RequestID(), RequestLogger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/boom", func(c echo.Context) error {
		c.Set(CtxHandlerErrorKey, errors.New("db exploded"))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	})

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(HeaderRequestID))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, "db exploded", entries[1].ContextMap()["error"])
}
