package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"backoffice/internal/authz"
	"backoffice/internal/config"
	"backoffice/internal/domain/model"
	"backoffice/internal/handler"
	"backoffice/internal/repository"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type pinger struct{ err error }

func (p pinger) PingContext(ctx context.Context) error { return p.err }

type noUsers struct{ repository.UserRepository }

func (noUsers) FindByID(ctx context.Context, id int64) (*model.User, error) { return nil, nil }

func (noUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}

type noCaps struct{}

func (noCaps) Capabilities(ctx context.Context, userID int64) (authz.CapabilitySet, error) {
	return authz.CapabilitySet{}, nil
}

func testDeps(db pinger) Deps {
	cfg := config.Config{JWTSecret: "secret"}
	return Deps{
		Users:      noUsers{},
		Resolver:   noCaps{},
		Auth:       handler.NewAuthHandler(cfg, nil),
		Health:     handler.NewHealthHandler(db),
		Orders:     handler.NewAdminOrderHandler(nil, nil),
		Products:   handler.NewAdminProductHandler(nil),
		Categories: handler.NewCategoryHandler(nil),
		Invoices:   handler.NewInvoiceHandler(nil),
		Reviews:    handler.NewReviewHandler(nil),
		UsersAdmin: handler.NewAdminUserHandler(nil),
		Addresses:  handler.NewAddressHandler(nil),
		Dashboard:  handler.NewDashboardHandler(nil),
		AuditLogs:  handler.NewAuditLogHandler(nil),
	}
}

func serve(cfg config.Config, db pinger, req *http.Request) *httptest.ResponseRecorder {
	e := New(cfg, zap.NewNop(), testDeps(db))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	cfg := config.Config{JWTSecret: "secret"}

	rec := serve(cfg, pinger{}, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = serve(cfg, pinger{err: errors.New("down")}, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_AdminRoutesRequireSession(t *testing.T) {
	cfg := config.Config{JWTSecret: "secret"}

	for _, path := range []string{"/admin/orders", "/admin/orders/ORD-1001", "/admin/products", "/admin/users", "/admin/dashboard", "/admin/audit-logs", "/api/me"} {
		rec := serve(cfg, pinger{}, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String(), path)
	}
}

func TestServer_UnknownRouteUsesErrorShape(t *testing.T) {
	rec := serve(config.Config{JWTSecret: "secret"}, pinger{}, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())
}

func TestServer_DevCORS(t *testing.T) {
	preflight := func() *http.Request {
		req := httptest.NewRequest(http.MethodOptions, "/healthz", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		return req
	}

	dev := config.Config{JWTSecret: "secret", DevAllowCORS: true, DevCORSOrigins: []string{"http://localhost:3000"}}
	rec := serve(dev, pinger{}, preflight())
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	off := config.Config{JWTSecret: "secret"}
	rec = serve(off, pinger{}, preflight())
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
