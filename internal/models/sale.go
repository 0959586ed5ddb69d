package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sale types. B2B sales carry company details, B2C a retail customer.
const (
	SaleTypeB2B = "b2b"
	SaleTypeB2C = "b2c"
)

// SaleItem is one product line of a sale or quotation.
type SaleItem struct {
	ProductID   string  `bson:"productID" json:"product_id"`
	ProductName string  `bson:"productName" json:"product_name"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	UnitPrice   float64 `bson:"unitPrice" json:"unit_price"`
}

// Sale records a completed B2B or B2C sale by an admin or agent. The
// seller's stock levels are decremented when the sale is recorded.
type Sale struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SaleID          string             `bson:"saleID" json:"id"`
	SellerID        string             `bson:"sellerID" json:"seller_id"`
	SellerName      string             `bson:"sellerName,omitempty" json:"seller_name,omitempty"`
	Type            string             `bson:"type" json:"type"` // b2b or b2c
	CustomerName    string             `bson:"customerName" json:"customer_name"`
	CustomerPhone   string             `bson:"customerPhone,omitempty" json:"customer_phone,omitempty"`
	CustomerAddress string             `bson:"customerAddress,omitempty" json:"customer_address,omitempty"`
	Items           []SaleItem         `bson:"items" json:"items"`
	Total           float64            `bson:"total" json:"total"`
	CreatedAt       time.Time          `bson:"createdAt" json:"created_at"`
}

// Quotation is a priced offer that can be rendered to PDF. It never touches
// stock levels; only a recorded sale does.
type Quotation struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	QuotationID     string             `bson:"quotationID" json:"id"`
	CreatedByID     string             `bson:"createdByID" json:"created_by_id"`
	CreatedByName   string             `bson:"createdByName,omitempty" json:"created_by_name,omitempty"`
	CustomerName    string             `bson:"customerName" json:"customer_name"`
	CustomerPhone   string             `bson:"customerPhone,omitempty" json:"customer_phone,omitempty"`
	CustomerAddress string             `bson:"customerAddress,omitempty" json:"customer_address,omitempty"`
	Items           []SaleItem         `bson:"items" json:"items"`
	Total           float64            `bson:"total" json:"total"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	ValidUntil      time.Time          `bson:"validUntil" json:"valid_until"`
	CreatedAt       time.Time          `bson:"createdAt" json:"created_at"`
}

// SumItems computes the total price over sale or quotation items.
func SumItems(items []SaleItem) float64 {
	total := 0.0
	for _, item := range items {
		total += float64(item.Quantity) * item.UnitPrice
	}
	return total
}
