package models

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"solar-scm-api-server/internal/stock"
)

// StockRequestItem is one product line inside a stock request. Items are
// owned by their request and never shared.
type StockRequestItem struct {
	ProductID string `bson:"productID" json:"product_id"`
	Quantity  int    `bson:"quantity" json:"quantity"`
}

// StockRequest is one transfer of goods between two parties in the
// hierarchy. RequestedFrom keeps the compact wire form; domain code parses
// it with stock.ParseTarget before reasoning about it.
type StockRequest struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	RequestID         string             `bson:"requestID" json:"id"`
	RequestedFrom     string             `bson:"requestedFrom" json:"requested_from"`
	RequestedByID     string             `bson:"requestedByID" json:"requested_by_id"`
	RequestedByName   string             `bson:"requestedByName,omitempty" json:"requested_by_name,omitempty"`
	Items             []StockRequestItem `bson:"items" json:"items"`
	Status            stock.Status       `bson:"status" json:"status"`
	Notes             string             `bson:"notes,omitempty" json:"notes,omitempty"`
	RejectionReason   string             `bson:"rejectionReason,omitempty" json:"rejection_reason,omitempty"`
	DispatchedBy      string             `bson:"dispatchedBy,omitempty" json:"dispatched_by,omitempty"`
	DispatchImage     string             `bson:"dispatchImage,omitempty" json:"dispatch_image,omitempty"`
	ConfirmationImage string             `bson:"confirmationImage,omitempty" json:"confirmation_image,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"created_at"`
	DispatchedAt      *time.Time         `bson:"dispatchedAt,omitempty" json:"dispatched_at,omitempty"`
	ConfirmedAt       *time.Time         `bson:"confirmedAt,omitempty" json:"confirmed_at,omitempty"`
}

var (
	ErrNoItems         = errors.New("a stock request needs at least one item")
	ErrBadItemQuantity = errors.New("item quantity must be a positive integer")
	ErrBadItemProduct  = errors.New("item product_id must not be empty")
)

// ValidateItems enforces the submission contract before anything is written.
func ValidateItems(items []StockRequestItem) error {
	if len(items) == 0 {
		return ErrNoItems
	}
	for i, item := range items {
		if item.ProductID == "" {
			return fmt.Errorf("item %d: %w", i, ErrBadItemProduct)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("item %d: %w", i, ErrBadItemQuantity)
		}
	}
	return nil
}

// TotalQuantity is the sum of item quantities, used throughout aggregation.
func (r StockRequest) TotalQuantity() int {
	total := 0
	for _, item := range r.Items {
		total += item.Quantity
	}
	return total
}

// View builds the domain projection the classifier and lifecycle rules use.
func (r StockRequest) View() stock.RequestView {
	return stock.RequestView{
		Target:        stock.ParseTarget(r.RequestedFrom),
		RequestedBy:   r.RequestedByID,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
		TotalQuantity: r.TotalQuantity(),
	}
}
