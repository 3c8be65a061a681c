package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	st, err := ParseOrderStatus("shipped")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, st)

	_, err = ParseOrderStatus("Shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = ParseOrderStatus("")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		wantErr  error
	}{
		{OrderStatusPending, OrderStatusShipped, nil},
		{OrderStatusShipped, OrderStatusDelivered, nil},
		{OrderStatusDelivered, OrderStatusRefunded, nil},
		{OrderStatusFailed, OrderStatusPending, nil},
		{OrderStatusDelivered, OrderStatusDelivered, nil},
		{OrderStatusRefunded, OrderStatusRefunded, nil},
		{OrderStatusPending, OrderStatusRefunded, ErrIllegalTransition},
		{OrderStatusRefunded, OrderStatusPending, ErrIllegalTransition},
		{OrderStatusDelivered, OrderStatusShipped, ErrIllegalTransition},
		{OrderStatusPending, OrderStatus("lost"), ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to, true)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCheckTransition_NonStrict(t *testing.T) {
	for _, from := range AllOrderStatuses {
		for _, to := range AllOrderStatuses {
			assert.NoError(t, CheckTransition(from, to, false))
		}
	}
	assert.ErrorIs(t, CheckTransition(OrderStatusPending, "lost", false), ErrInvalidStatus)
}

func TestTransitionTableCoversEveryStatus(t *testing.T) {
	for _, st := range AllOrderStatuses {
		_, ok := orderTransitions[st]
		assert.True(t, ok, st)
	}
}

func TestNotifiesAdmin(t *testing.T) {
	var got []OrderStatus
	for _, st := range AllOrderStatuses {
		if st.NotifiesAdmin() {
			got = append(got, st)
		}
	}
	assert.ElementsMatch(t, []OrderStatus{
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
		OrderStatusFailed,
		OrderStatusRefunded,
	}, got)
}

func TestAllowedNextStatuses(t *testing.T) {
	assert.Equal(t,
		[]OrderStatus{OrderStatusShipped, OrderStatusDelivered, OrderStatusFailed, OrderStatusReturned},
		AllowedNextStatuses(OrderStatusShipped, true),
	)
}
