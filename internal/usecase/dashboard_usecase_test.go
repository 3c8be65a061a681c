package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type dashboardRepoMock struct{ mock.Mock }

func (m *dashboardRepoMock) CountOrdersByStatus(ctx context.Context, from, to *time.Time) ([]repo.StatusCount, error) {
	args := m.Called(ctx, from, to)
	counts, _ := args.Get(0).([]repo.StatusCount)
	return counts, args.Error(1)
}

func (m *dashboardRepoMock) RevenueByCurrency(ctx context.Context, from, to *time.Time) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, from, to)
	rev, _ := args.Get(0).(map[string]decimal.Decimal)
	return rev, args.Error(1)
}

func TestDashboardUsecase_Summary(t *testing.T) {
	m := &dashboardRepoMock{}
	m.On("CountOrdersByStatus", mock.Anything, mock.Anything, mock.Anything).Return([]repo.StatusCount{
		{Status: model.OrderStatusPending, Count: 3},
		{Status: model.OrderStatusDelivered, Count: 2},
	}, nil)
	m.On("RevenueByCurrency", mock.Anything, mock.Anything, mock.Anything).Return(map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("50.00"),
	}, nil)

	out, err := NewDashboardUsecase(m).Summary(context.Background(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(5), out.TotalOrders)
	assert.Len(t, out.OrdersByStatus, len(model.AllOrderStatuses))
	assert.Equal(t, int64(3), out.OrdersByStatus[model.OrderStatusPending])
	assert.Zero(t, out.OrdersByStatus[model.OrderStatusShipped])
	assert.True(t, out.Revenue["USD"].Equal(decimal.NewFromInt(50)))
	m.AssertExpectations(t)
}

func TestDashboardUsecase_Summary_Errors(t *testing.T) {
	from := fixedNow
	to := fixedNow.Add(-time.Hour)

	m := &dashboardRepoMock{}
	_, err := NewDashboardUsecase(m).Summary(context.Background(), &from, &to)
	assertStatus(t, err, http.StatusBadRequest)
	m.AssertNotCalled(t, "CountOrdersByStatus", mock.Anything, mock.Anything, mock.Anything)

	m = &dashboardRepoMock{}
	m.On("CountOrdersByStatus", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
	m.On("RevenueByCurrency", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	_, err = NewDashboardUsecase(m).Summary(context.Background(), nil, nil)
	assertStatus(t, err, http.StatusInternalServerError)
}
