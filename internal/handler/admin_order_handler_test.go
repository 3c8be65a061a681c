package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backoffice/internal/authz"
	"backoffice/internal/domain/model"
	"backoffice/internal/infra/mailer"
	"backoffice/internal/middleware"
	repo "backoffice/internal/repository"
	"backoffice/internal/usecase"
	"backoffice/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =====================
// 最小限のフェイク（使わないメソッドは埋め込みのまま）
// =====================

type fakeOrders struct {
	repo.OrderRepository
	byCode map[string]model.Order
}

func (f *fakeOrders) find(pred func(model.Order) bool) (model.Order, error) {
	for _, o := range f.byCode {
		if pred(o) {
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (f *fakeOrders) FindByID(ctx context.Context, id int64) (model.Order, error) {
	return f.find(func(o model.Order) bool { return o.ID == id })
}

func (f *fakeOrders) FindByCode(ctx context.Context, code string) (model.Order, error) {
	return f.find(func(o model.Order) bool { return o.Code == code })
}

func (f *fakeOrders) FindByIDForUpdate(ctx context.Context, id int64) (model.Order, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeOrders) UpdateStatus(ctx context.Context, ch repo.OrderStatusChange) error {
	o, err := f.FindByID(ctx, ch.OrderID)
	if err != nil {
		return err
	}
	o.Status = ch.Status
	f.byCode[o.Code] = o
	return nil
}

type fakeHistory struct{ rows []model.OrderHistory }

func (f *fakeHistory) Append(ctx context.Context, h *model.OrderHistory) error {
	f.rows = append(f.rows, *h)
	return nil
}

func (f *fakeHistory) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderHistory, error) {
	return nil, nil
}

type fakeItems struct{ repo.OrderItemRepository }

func (fakeItems) ListDetailedByOrderID(ctx context.Context, orderID int64) ([]repo.OrderItemDetail, error) {
	return nil, nil
}

type fakeUsers struct{ repo.UserRepository }

func (fakeUsers) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return &model.User{ID: id, Email: "jane@example.com", Name: "Jane"}, nil
}

type fakeInvoices struct{ repo.InvoiceRepository }

func (fakeInvoices) FindByOrderCode(ctx context.Context, code string) (model.Invoice, bool, error) {
	return model.Invoice{}, false, nil
}

type fakeTx struct {
	orders  *fakeOrders
	history *fakeHistory
}

type fakeTxRepos struct {
	repo.TxRepos
	tx *fakeTx
}

func (r fakeTxRepos) Orders() repo.OrderRepository              { return r.tx.orders }
func (r fakeTxRepos) OrderHistory() repo.OrderHistoryRepository { return r.tx.history }

func (t *fakeTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(fakeTxRepos{tx: t})
}

type failingSender struct{}

func (failingSender) Send(ctx context.Context, msgs []mailer.Message) ([]mailer.Result, error) {
	return nil, errors.New("smtp down")
}

// =====================
// helper
// =====================

func allowAll(authz.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
}

func asUser(id int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.CtxUserIDKey, id)
			return next(c)
		}
	}
}

func newOrderTestServer(t *testing.T) (*echo.Echo, *fakeHistory) {
	t.Helper()
	orders := &fakeOrders{byCode: map[string]model.Order{
		"ORD-1001": {ID: 1001, Code: "ORD-1001", UserID: 42, Status: model.OrderStatusPending, Total: decimal.Zero},
	}}
	history := &fakeHistory{}

	reader := usecase.NewOrderUsecase(orders, fakeItems{}, history, fakeUsers{}, nil, fakeInvoices{}, zap.NewNop())
	notifier := usecase.NewOrderNotifier(failingSender{}, "support@example.com", "https://shop.example.com", zap.NewNop())
	updater := usecase.NewAdminOrderUsecase(&fakeTx{orders: orders, history: history}, fakeUsers{}, notifier, true, zap.NewNop())

	e := echo.New()
	e.Validator = validator.New()
	admin := e.Group("/admin", asUser(1))
	NewAdminOrderHandler(reader, updater).RegisterRoutes(admin, allowAll)
	return e, history
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// =====================
// tests
// =====================

func TestAdminOrderHandler_Detail(t *testing.T) {
	e, _ := newOrderTestServer(t)

	rec := doJSON(e, http.MethodGet, "/admin/orders/ORD-404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"order not found"}`, rec.Body.String())

	rec = doJSON(e, http.MethodGet, "/admin/orders/ORD-1001", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Order struct {
			Code   string `json:"code"`
			Status string `json:"status"`
		} `json:"order"`
		Customer    *usecase.CustomerDTO `json:"customer"`
		AllowedNext []string             `json:"allowed_next"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ORD-1001", body.Order.Code)
	require.NotNil(t, body.Customer)
	assert.Equal(t, "jane@example.com", body.Customer.Email)
	assert.Contains(t, body.AllowedNext, "shipped")
	assert.NotContains(t, body.AllowedNext, "refunded")
}

func TestAdminOrderHandler_UpdateStatus(t *testing.T) {
	e, history := newOrderTestServer(t)

	rec := doJSON(e, http.MethodPut, "/admin/orders/ORD-1001/status", `{"status":"shipped"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Order          model.Order                `json:"order"`
		PreviousStatus string                     `json:"previous_status"`
		Notification   usecase.NotificationResult `json:"notification"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, model.OrderStatusShipped, body.Order.Status)
	assert.Equal(t, "pending", body.PreviousStatus)

	// メール失敗はレスポンスに載るだけ
	assert.False(t, body.Notification.Success)
	assert.Contains(t, body.Notification.Error, "smtp down")
	require.Len(t, history.rows, 1)
}

func TestAdminOrderHandler_UpdateStatus_FormPost(t *testing.T) {
	e, history := newOrderTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/orders/1001/status", strings.NewReader("status=confirmed"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, history.rows, 1)
	assert.Equal(t, model.OrderStatusConfirmed, history.rows[0].Status)
}

func TestAdminOrderHandler_UpdateStatus_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		want int
		msg  string
	}{
		{name: "missing status", path: "/admin/orders/ORD-1001/status", body: `{}`, want: http.StatusBadRequest, msg: "status is required"},
		{name: "bad json", path: "/admin/orders/ORD-1001/status", body: `{`, want: http.StatusBadRequest, msg: "invalid body"},
		{name: "unknown status", path: "/admin/orders/ORD-1001/status", body: `{"status":"lost"}`, want: http.StatusBadRequest, msg: "invalid status"},
		{name: "missing order", path: "/admin/orders/ORD-404/status", body: `{"status":"shipped"}`, want: http.StatusNotFound, msg: "not found"},
		{name: "illegal transition", path: "/admin/orders/ORD-1001/status", body: `{"status":"refunded"}`, want: http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, history := newOrderTestServer(t)
			rec := doJSON(e, http.MethodPut, tt.path, tt.body)

			assert.Equal(t, tt.want, rec.Code)
			var er ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
			if tt.msg != "" {
				assert.Equal(t, tt.msg, er.Error)
			} else {
				assert.NotEmpty(t, er.Error)
			}
			assert.Empty(t, history.rows)
		})
	}
}
