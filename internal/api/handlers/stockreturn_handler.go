package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"solar-scm-api-server/internal/models"
	"solar-scm-api-server/internal/socket"
	"solar-scm-api-server/internal/stock"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type StockReturnHandler struct {
	DB  *mongo.Database
	Hub *socket.Hub
}

type CreateStockReturnPayload struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Reason    string `json:"reason" binding:"required"`
}

// CreateStockReturn records excess stock going back up the hierarchy. The
// goods stay in the returner's holding until the superior processes the
// return; creating it only announces the intent.
func (h *StockReturnHandler) CreateStockReturn(c *gin.Context) {
	viewer := viewerFromContext(c)

	var payload CreateStockReturnPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	superior, err := h.superiorOf(viewer)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	newReturn := models.StockReturn{
		ReturnID:     fmt.Sprintf("RT-%s", strings.ToUpper(uuid.New().String()[:8])),
		AdminID:      superior,
		ReturnedByID: viewer.ID,
		ProductID:    payload.ProductID,
		Quantity:     payload.Quantity,
		Reason:       payload.Reason,
		Status:       stock.ReturnPending,
		CreatedAt:    time.Now(),
	}

	collection := h.DB.Collection("stock_returns")
	result, err := collection.InsertOne(context.Background(), newReturn)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create stock return"})
		return
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		newReturn.ID = oid
	}

	_ = h.Hub.Notify(superior, socket.Event{
		Type:      "stock_return.created",
		RequestID: newReturn.ReturnID,
		Message:   "A subordinate wants to return stock",
	})

	c.JSON(http.StatusCreated, newReturn)
}

// superiorOf resolves who accepts a return from the given user: the
// creating admin for agents, the super-admin for admins.
func (h *StockReturnHandler) superiorOf(viewer stock.Viewer) (string, error) {
	switch viewer.Role {
	case stock.RoleAdmin:
		return stock.RoleSuperAdmin, nil
	case stock.RoleAgent:
		var user models.User
		err := h.DB.Collection("users").FindOne(context.Background(), bson.M{"userID": viewer.ID}).Decode(&user)
		if err != nil || user.ParentID == "" {
			return "", errors.New("no superior admin found for this agent")
		}
		return user.ParentID, nil
	default:
		return "", errors.New("only admins and agents return stock")
	}
}

// GetStockReturns lists returns visible to the caller, optionally filtered
// by status. Superiors see returns addressed to them plus their own.
func (h *StockReturnHandler) GetStockReturns(c *gin.Context) {
	viewer := viewerFromContext(c)

	filter := returnListFilter(viewer, c.Query("status"))

	collection := h.DB.Collection("stock_returns")
	cursor, err := collection.Find(context.Background(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query stock returns"})
		return
	}
	defer cursor.Close(context.Background())

	var returns []models.StockReturn
	if err = cursor.All(context.Background(), &returns); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode stock returns"})
		return
	}
	if returns == nil {
		returns = []models.StockReturn{}
	}

	c.JSON(http.StatusOK, returns)
}

// returnListFilter scopes the returns query to the caller plus the optional
// status filter: superiors see returns addressed to them and their own, the
// super-admin and account roles see all.
func returnListFilter(viewer stock.Viewer, status string) bson.M {
	var filter bson.M
	switch viewer.Role {
	case stock.RoleSuperAdmin, stock.RoleAccount:
		filter = bson.M{}
	case stock.RoleAdmin:
		filter = bson.M{"$or": []bson.M{
			{"returnedByID": viewer.ID},
			{"adminID": viewer.ID},
		}}
	default:
		filter = bson.M{"returnedByID": viewer.ID}
	}
	if status != "" {
		filter["status"] = status
	}
	return filter
}

// ProcessStockReturn accepts a pending return: the goods move from the
// returner's holding to the superior's, and the return becomes processed.
func (h *StockReturnHandler) ProcessStockReturn(c *gin.Context) {
	viewer := viewerFromContext(c)
	returnID := c.Param("id")

	collection := h.DB.Collection("stock_returns")
	var ret models.StockReturn
	if err := collection.FindOne(context.Background(), bson.M{"returnID": returnID}).Decode(&ret); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stock return not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve stock return"})
		}
		return
	}

	if err := stock.AuthorizeProcessReturn(ret.View(), viewer); err != nil {
		if errors.Is(err, stock.ErrNotAllowed) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		}
		return
	}

	// The status flip is the lock: of two concurrent processors only one
	// matches the pending filter, and the loser moves no stock at all.
	now := time.Now()
	result, err := collection.UpdateOne(context.Background(),
		bson.M{"returnID": returnID, "status": stock.ReturnPending},
		bson.M{"$set": bson.M{
			"status":      stock.ReturnProcessed,
			"processedAt": now,
		}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock return"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Stock return is no longer pending"})
		return
	}
	revert := func() {
		_, _ = collection.UpdateOne(context.Background(),
			bson.M{"returnID": returnID, "status": stock.ReturnProcessed},
			bson.M{
				"$set":   bson.M{"status": stock.ReturnPending},
				"$unset": bson.M{"processedAt": ""},
			})
	}

	if err := debitStock(context.Background(), h.DB, ret.ReturnedByID, ret.ProductID, ret.Quantity); err != nil {
		revert()
		if errors.Is(err, ErrInsufficientStock) {
			c.JSON(http.StatusConflict, gin.H{"error": "The returner no longer holds this quantity"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock levels"})
		}
		return
	}
	if err := creditStock(context.Background(), h.DB, viewer.ID, ret.ProductID, ret.Quantity); err != nil {
		_ = creditStock(context.Background(), h.DB, ret.ReturnedByID, ret.ProductID, ret.Quantity)
		revert()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock levels"})
		return
	}

	_ = h.Hub.Notify(ret.ReturnedByID, socket.Event{
		Type:      "stock_return.processed",
		RequestID: ret.ReturnID,
		Message:   "Your stock return has been processed",
	})

	var updated models.StockReturn
	if err := collection.FindOne(context.Background(), bson.M{"returnID": returnID}).Decode(&updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve stock return"})
		return
	}
	c.JSON(http.StatusOK, updated)
}
