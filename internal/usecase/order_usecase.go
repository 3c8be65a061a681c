package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type CustomerDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type OrderItemOutput struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Currency  string          `json:"currency"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// 注文詳細（管理画面用にまとめたもの）
type OrderDetail struct {
	Order    model.Order          `json:"order"`
	Customer *CustomerDTO         `json:"customer"`
	Address  *model.Address       `json:"address"`
	Items    []OrderItemOutput    `json:"items"`
	History  []model.OrderHistory `json:"history"`
	Invoice  *model.Invoice       `json:"invoice"`

	// 明細合計 + 送料 - 値引き。保存値 total とは別に計算して出す
	ComputedTotal decimal.Decimal `json:"computed_total"`
	TotalsMatch   bool            `json:"totals_match"`
}

type OrderUsecase struct {
	orders    repo.OrderRepository
	items     repo.OrderItemRepository
	history   repo.OrderHistoryRepository
	users     repo.UserRepository
	addresses repo.AddressRepository
	invoices  repo.InvoiceRepository
	log       *zap.Logger
}

func NewOrderUsecase(
	orders repo.OrderRepository,
	items repo.OrderItemRepository,
	history repo.OrderHistoryRepository,
	users repo.UserRepository,
	addresses repo.AddressRepository,
	invoices repo.InvoiceRepository,
	log *zap.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		orders:    orders,
		items:     items,
		history:   history,
		users:     users,
		addresses: addresses,
		invoices:  invoices,
		log:       log,
	}
}

// 数字だけなら id、それ以外は注文コード
func parseOrderRef(ref string) (id int64, code string, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, "", NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	if isDigits(ref) {
		id, err := strconv.ParseInt(ref, 10, 64)
		if err != nil || id <= 0 {
			return 0, "", NewHTTPError(http.StatusBadRequest, "invalid order id")
		}
		return id, "", nil
	}
	return 0, ref, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func findOrder(ctx context.Context, orders repo.OrderRepository, ref string) (model.Order, error) {
	id, code, err := parseOrderRef(ref)
	if err != nil {
		return model.Order{}, err
	}
	if id > 0 {
		return orders.FindByID(ctx, id)
	}
	return orders.FindByCode(ctx, code)
}

// Get は見つからない・論理削除済みのとき found=false を返す（エラーではない）
func (u *OrderUsecase) Get(ctx context.Context, ref string) (OrderDetail, bool, error) {
	o, err := findOrder(ctx, u.orders, ref)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderDetail{}, false, nil
	}
	if err != nil {
		return OrderDetail{}, false, repoError(err)
	}

	out := OrderDetail{Order: o}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		user, err := u.users.FindByID(gctx, o.UserID)
		if err != nil {
			return err
		}
		if user != nil {
			out.Customer = &CustomerDTO{ID: user.ID, Name: user.Name, Email: user.Email}
		}
		return nil
	})

	if o.AddressID != nil {
		addressID := *o.AddressID
		g.Go(func() error {
			a, err := u.addresses.FindByID(gctx, addressID)
			if errors.Is(err, repo.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			out.Address = &a
			return nil
		})
	}

	g.Go(func() error {
		rows, err := u.items.ListDetailedByOrderID(gctx, o.ID)
		if err != nil {
			return err
		}
		out.Items = make([]OrderItemOutput, 0, len(rows))
		for _, it := range rows {
			out.Items = append(out.Items, OrderItemOutput{
				ID:        it.ID,
				ProductID: it.ProductID,
				Name:      it.ProductName,
				SKU:       it.ProductSKU,
				Currency:  it.Currency,
				UnitPrice: it.UnitPrice,
				Quantity:  it.Quantity,
				LineTotal: it.LineTotal(),
			})
		}
		return nil
	})

	g.Go(func() error {
		hs, err := u.history.ListByOrderID(gctx, o.ID)
		if err != nil {
			return err
		}
		out.History = hs
		return nil
	})

	g.Go(func() error {
		inv, found, err := u.invoices.FindByOrderCode(gctx, o.Code)
		if err != nil {
			return err
		}
		if found {
			out.Invoice = &inv
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		u.log.Error("load order detail", zap.Int64("order_id", o.ID), zap.Error(err))
		return OrderDetail{}, false, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if out.History == nil {
		out.History = []model.OrderHistory{}
	}
	out.ComputedTotal = computeTotal(o, out.Items)
	out.TotalsMatch = out.ComputedTotal.Equal(o.Total)

	return out, true, nil
}

func computeTotal(o model.Order, items []OrderItemOutput) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal)
	}
	return sum.Add(o.ShippingFee).Sub(o.Discount)
}

type OrderListInput struct {
	Page   int
	Limit  int
	Status string
	Code   string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

// 管理者用の注文一覧（新しい順）
func (u *OrderUsecase) List(ctx context.Context, in OrderListInput) (ListOutput[model.Order], error) {
	if err := checkPaging(in.Page, in.Limit); err != nil {
		return ListOutput[model.Order]{}, err
	}
	if in.Status != "" {
		if _, err := model.ParseOrderStatus(in.Status); err != nil {
			return ListOutput[model.Order]{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
	}
	if in.From != nil && in.To != nil && in.From.After(*in.To) {
		return ListOutput[model.Order]{}, NewHTTPError(http.StatusBadRequest, "from must be <= to")
	}

	items, total, err := u.orders.ListAdmin(ctx, repo.AdminOrderListFilter{
		Page:   in.Page,
		Limit:  in.Limit,
		Status: in.Status,
		Code:   strings.TrimSpace(in.Code),
		UserID: in.UserID,
		From:   in.From,
		To:     in.To,
	})
	if err != nil {
		return ListOutput[model.Order]{}, repoError(err)
	}

	return ListOutput[model.Order]{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}
