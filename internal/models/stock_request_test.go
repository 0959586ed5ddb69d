package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-scm-api-server/internal/stock"
)

func TestValidateItems(t *testing.T) {
	valid := []StockRequestItem{
		{ProductID: "PRD-AAAA1111", Quantity: 5},
		{ProductID: "PRD-BBBB2222", Quantity: 1},
	}
	require.NoError(t, ValidateItems(valid))

	assert.ErrorIs(t, ValidateItems(nil), ErrNoItems)
	assert.ErrorIs(t, ValidateItems([]StockRequestItem{}), ErrNoItems)

	assert.ErrorIs(t, ValidateItems([]StockRequestItem{
		{ProductID: "PRD-AAAA1111", Quantity: 0},
	}), ErrBadItemQuantity)
	assert.ErrorIs(t, ValidateItems([]StockRequestItem{
		{ProductID: "PRD-AAAA1111", Quantity: -3},
	}), ErrBadItemQuantity)
	assert.ErrorIs(t, ValidateItems([]StockRequestItem{
		{ProductID: "", Quantity: 2},
	}), ErrBadItemProduct)

	// The first bad line wins, even when a later line is also bad.
	err := ValidateItems([]StockRequestItem{
		{ProductID: "PRD-AAAA1111", Quantity: 2},
		{ProductID: "", Quantity: 2},
		{ProductID: "PRD-CCCC3333", Quantity: 0},
	})
	assert.ErrorIs(t, err, ErrBadItemProduct)
	assert.Contains(t, err.Error(), "item 1")
}

func TestStockRequestView(t *testing.T) {
	created := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	r := StockRequest{
		RequestID:     "SR-12345678",
		RequestedFrom: "admin-9F3A21BC",
		RequestedByID: "agent-77AA88BB",
		Status:        stock.StatusPending,
		CreatedAt:     created,
		Items: []StockRequestItem{
			{ProductID: "PRD-AAAA1111", Quantity: 10},
			{ProductID: "PRD-BBBB2222", Quantity: 4},
		},
	}

	view := r.View()
	assert.Equal(t, stock.TargetUser, view.Target.Kind)
	assert.Equal(t, "admin-9F3A21BC", view.Target.UserID)
	assert.Equal(t, "agent-77AA88BB", view.RequestedBy)
	assert.Equal(t, stock.StatusPending, view.Status)
	assert.Equal(t, created, view.CreatedAt)
	assert.Equal(t, 14, view.TotalQuantity)
}

func TestStockRequestViewSentinelTargets(t *testing.T) {
	superior := StockRequest{RequestedFrom: "super-admin"}
	assert.Equal(t, stock.TargetSuperAdmin, superior.View().Target.Kind)

	pool := StockRequest{RequestedFrom: "admin"}
	assert.Equal(t, stock.TargetAnyAdmin, pool.View().Target.Kind)
}
