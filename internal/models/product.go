package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is one sellable item of solar equipment.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ProductID   string             `bson:"productID" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CategoryID  string             `bson:"categoryID" json:"category_id"`
	Unit        string             `bson:"unit" json:"unit"` // e.g. "piece", "panel", "set"
	UnitPrice   float64            `bson:"unitPrice" json:"unit_price"`
	Active      bool               `bson:"active" json:"active"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updated_at"`
}

// Category groups products, e.g. "Panels", "Inverters", "Batteries".
type Category struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	CategoryID string             `bson:"categoryID" json:"id"`
	Name       string             `bson:"name" json:"name"`
	CreatedAt  time.Time          `bson:"createdAt" json:"created_at"`
}

// StockLevel is one user's holding of one product. Confirmed requests,
// processed returns and sales all move quantity between holdings.
type StockLevel struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	OwnerID   string             `bson:"ownerID" json:"owner_id"` // user id or the super-admin sentinel
	ProductID string             `bson:"productID" json:"product_id"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updated_at"`
}
