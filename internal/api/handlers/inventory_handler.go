package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"solar-scm-api-server/internal/api/middleware"
	"solar-scm-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type InventoryHandler struct {
	DB *mongo.Database
}

var ErrInsufficientStock = errors.New("insufficient stock")

// creditStock adds quantity to an owner's holding of a product, creating
// the holding document when it does not exist yet.
func creditStock(ctx context.Context, db *mongo.Database, ownerID, productID string, qty int) error {
	collection := db.Collection("stock_levels")
	_, err := collection.UpdateOne(ctx,
		bson.M{"ownerID": ownerID, "productID": productID},
		bson.M{
			"$inc": bson.M{"quantity": qty},
			"$set": bson.M{"updatedAt": time.Now()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// debitStock removes quantity from an owner's holding. The filter includes
// the quantity guard so a concurrent debit can never drive a holding
// negative; the loser of the race gets ErrInsufficientStock.
func debitStock(ctx context.Context, db *mongo.Database, ownerID, productID string, qty int) error {
	collection := db.Collection("stock_levels")
	result, err := collection.UpdateOne(ctx,
		bson.M{"ownerID": ownerID, "productID": productID, "quantity": bson.M{"$gte": qty}},
		bson.M{
			"$inc": bson.M{"quantity": -qty},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// creditStockItems credits a whole item list, debiting already credited
// lines back when a later line fails so a partial transfer is never left
// behind.
func creditStockItems(ctx context.Context, db *mongo.Database, ownerID string, items []models.StockRequestItem) error {
	for i, item := range items {
		if err := creditStock(ctx, db, ownerID, item.ProductID, item.Quantity); err != nil {
			for j := 0; j < i; j++ {
				_ = debitStock(ctx, db, ownerID, items[j].ProductID, items[j].Quantity)
			}
			return err
		}
	}
	return nil
}

// debitStockItems debits a whole item list, re-crediting already debited
// lines when a later line fails so a partial transfer is never left behind.
func debitStockItems(ctx context.Context, db *mongo.Database, ownerID string, items []models.StockRequestItem) error {
	for i, item := range items {
		if err := debitStock(ctx, db, ownerID, item.ProductID, item.Quantity); err != nil {
			for j := 0; j < i; j++ {
				_ = creditStock(ctx, db, ownerID, items[j].ProductID, items[j].Quantity)
			}
			return err
		}
	}
	return nil
}

// GetMyInventory returns the caller's own stock levels.
func (h *InventoryHandler) GetMyInventory(c *gin.Context) {
	ownerID := c.GetString(middleware.CtxUserID)

	collection := h.DB.Collection("stock_levels")
	cursor, err := collection.Find(context.Background(), bson.M{"ownerID": ownerID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query stock levels"})
		return
	}
	defer cursor.Close(context.Background())

	var levels []models.StockLevel
	if err = cursor.All(context.Background(), &levels); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode stock levels"})
		return
	}
	if levels == nil {
		levels = []models.StockLevel{}
	}

	c.JSON(http.StatusOK, levels)
}

// GetInventoryByUser returns another user's stock levels. Offered to the
// super-admin and account roles for reporting.
func (h *InventoryHandler) GetInventoryByUser(c *gin.Context) {
	ownerID := c.Param("id")

	collection := h.DB.Collection("stock_levels")
	cursor, err := collection.Find(context.Background(), bson.M{"ownerID": ownerID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query stock levels"})
		return
	}
	defer cursor.Close(context.Background())

	var levels []models.StockLevel
	if err = cursor.All(context.Background(), &levels); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode stock levels"})
		return
	}
	if levels == nil {
		levels = []models.StockLevel{}
	}

	c.JSON(http.StatusOK, levels)
}

type ReceiveStockRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// ReceiveStock records procurement into the super-admin warehouse. This is
// how stock enters the system; everything downstream moves via requests.
func (h *InventoryHandler) ReceiveStock(c *gin.Context) {
	ownerID := c.GetString(middleware.CtxUserID)

	var req ReceiveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	productCollection := h.DB.Collection("products")
	count, err := productCollection.CountDocuments(context.Background(), bson.M{"productID": req.ProductID})
	if err != nil || count == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product does not exist"})
		return
	}

	if err := creditStock(context.Background(), h.DB, ownerID, req.ProductID, req.Quantity); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock level"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Stock received"})
}
