package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"solar-scm-api-server/internal/stock"
)

// StockReturn records excess stock handed back up the hierarchy. AdminID is
// the superior who accepts the goods: a concrete admin id for agent returns,
// the super-admin sentinel for admin returns.
type StockReturn struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ReturnID     string             `bson:"returnID" json:"id"`
	AdminID      string             `bson:"adminID" json:"admin_id"`
	ReturnedByID string             `bson:"returnedByID" json:"returned_by_id"`
	ProductID    string             `bson:"productID" json:"product_id"`
	Quantity     int                `bson:"quantity" json:"quantity"`
	Reason       string             `bson:"reason" json:"reason"`
	Status       stock.ReturnStatus `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"createdAt" json:"created_at"`
	ProcessedAt  *time.Time         `bson:"processedAt,omitempty" json:"processed_at,omitempty"`
}

// View builds the domain projection used by the process rule.
func (r StockReturn) View() stock.ReturnView {
	return stock.ReturnView{
		Superior: stock.ParseTarget(r.AdminID),
		Status:   r.Status,
	}
}
