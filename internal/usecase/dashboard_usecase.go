package usecase

import (
	"context"
	"net/http"
	"time"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type DashboardOutput struct {
	From           *time.Time                  `json:"from"`
	To             *time.Time                  `json:"to"`
	OrdersByStatus map[model.OrderStatus]int64 `json:"orders_by_status"`
	TotalOrders    int64                       `json:"total_orders"`
	Revenue        map[string]decimal.Decimal  `json:"revenue"`
}

type DashboardUsecase struct {
	repo repo.DashboardRepository
}

func NewDashboardUsecase(r repo.DashboardRepository) *DashboardUsecase {
	return &DashboardUsecase{repo: r}
}

func (u *DashboardUsecase) Summary(ctx context.Context, from, to *time.Time) (DashboardOutput, error) {
	if from != nil && to != nil && from.After(*to) {
		return DashboardOutput{}, NewHTTPError(http.StatusBadRequest, "from must be <= to")
	}

	out := DashboardOutput{
		From:           from,
		To:             to,
		OrdersByStatus: make(map[model.OrderStatus]int64, len(model.AllOrderStatuses)),
	}
	//0件のステータスも出す
	for _, st := range model.AllOrderStatuses {
		out.OrdersByStatus[st] = 0
	}

	var counts []repo.StatusCount
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = u.repo.CountOrdersByStatus(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		out.Revenue, err = u.repo.RevenueByCurrency(gctx, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	for _, c := range counts {
		out.OrdersByStatus[c.Status] = c.Count
		out.TotalOrders += c.Count
	}
	if out.Revenue == nil {
		out.Revenue = map[string]decimal.Decimal{}
	}
	return out, nil
}
