package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"solar-scm-api-server/internal/api/middleware"
	"solar-scm-api-server/internal/models"
	"solar-scm-api-server/internal/stock"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type SaleHandler struct {
	DB *mongo.Database
}

type SaleItemPayload struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type CreateSalePayload struct {
	Type            string            `json:"type" binding:"required,oneof=b2b b2c"`
	CustomerName    string            `json:"customer_name" binding:"required"`
	CustomerPhone   string            `json:"customer_phone"`
	CustomerAddress string            `json:"customer_address"`
	Items           []SaleItemPayload `json:"items" binding:"required,dive"`
}

// CreateSale records a sale and debits the seller's stock. Prices are
// resolved from the catalogue at sale time, never trusted from the client.
func (h *SaleHandler) CreateSale(c *gin.Context) {
	viewer := viewerFromContext(c)
	viewerName := c.GetString(middleware.CtxUserName)

	var payload CreateSalePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(payload.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A sale needs at least one item"})
		return
	}

	productCollection := h.DB.Collection("products")
	saleItems := make([]models.SaleItem, 0, len(payload.Items))
	requestItems := make([]models.StockRequestItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		var product models.Product
		if err := productCollection.FindOne(context.Background(), bson.M{"productID": item.ProductID, "active": true}).Decode(&product); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Product '%s' is not available for sale", item.ProductID)})
			return
		}
		saleItems = append(saleItems, models.SaleItem{
			ProductID:   product.ProductID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.UnitPrice,
		})
		requestItems = append(requestItems, models.StockRequestItem{
			ProductID: product.ProductID,
			Quantity:  item.Quantity,
		})
	}

	if err := debitStockItems(context.Background(), h.DB, viewer.ID, requestItems); err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			c.JSON(http.StatusConflict, gin.H{"error": "Insufficient stock for this sale"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock levels"})
		}
		return
	}

	newSale := models.Sale{
		SaleID:          fmt.Sprintf("SL-%s", strings.ToUpper(uuid.New().String()[:8])),
		SellerID:        viewer.ID,
		SellerName:      viewerName,
		Type:            payload.Type,
		CustomerName:    payload.CustomerName,
		CustomerPhone:   payload.CustomerPhone,
		CustomerAddress: payload.CustomerAddress,
		Items:           saleItems,
		Total:           models.SumItems(saleItems),
		CreatedAt:       time.Now(),
	}

	collection := h.DB.Collection("sales")
	result, err := collection.InsertOne(context.Background(), newSale)
	if err != nil {
		// Do not keep the debit when the record was never written.
		for _, item := range requestItems {
			_ = creditStock(context.Background(), h.DB, viewer.ID, item.ProductID, item.Quantity)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record sale"})
		return
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		newSale.ID = oid
	}

	c.JSON(http.StatusCreated, newSale)
}

// GetSales lists sales scoped by role: sellers see their own, an admin also
// sees their agents' sales, the super-admin and account roles see all.
func (h *SaleHandler) GetSales(c *gin.Context) {
	viewer := viewerFromContext(c)

	var filter bson.M
	switch viewer.Role {
	case stock.RoleSuperAdmin, stock.RoleAccount:
		filter = bson.M{}
	case stock.RoleAdmin:
		agentIDs, err := h.agentIDsOf(viewer.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve agents"})
			return
		}
		filter = bson.M{"sellerID": bson.M{"$in": append(agentIDs, viewer.ID)}}
	default:
		filter = bson.M{"sellerID": viewer.ID}
	}
	if saleType := c.Query("type"); saleType != "" {
		filter["type"] = saleType
	}

	collection := h.DB.Collection("sales")
	cursor, err := collection.Find(context.Background(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query sales"})
		return
	}
	defer cursor.Close(context.Background())

	var sales []models.Sale
	if err = cursor.All(context.Background(), &sales); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode sales"})
		return
	}
	if sales == nil {
		sales = []models.Sale{}
	}

	c.JSON(http.StatusOK, sales)
}

func (h *SaleHandler) agentIDsOf(adminID string) ([]string, error) {
	cursor, err := h.DB.Collection("users").Find(context.Background(), bson.M{"parentID": adminID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(context.Background())

	var agents []models.User
	if err := cursor.All(context.Background(), &agents); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(agents))
	for _, a := range agents {
		ids = append(ids, a.UserID)
	}
	return ids, nil
}

// GetSaleByID returns one sale, scoped the same way as the listing.
func (h *SaleHandler) GetSaleByID(c *gin.Context) {
	viewer := viewerFromContext(c)
	saleID := c.Param("id")

	collection := h.DB.Collection("sales")
	var sale models.Sale
	if err := collection.FindOne(context.Background(), bson.M{"saleID": saleID}).Decode(&sale); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sale not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sale"})
		}
		return
	}

	sellerParentID := ""
	if viewer.Role == stock.RoleAdmin && sale.SellerID != viewer.ID {
		var seller models.User
		if err := h.DB.Collection("users").FindOne(context.Background(), bson.M{"userID": sale.SellerID}).Decode(&seller); err == nil {
			sellerParentID = seller.ParentID
		}
	}
	if !canViewSale(sale, sellerParentID, viewer) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this sale"})
		return
	}

	c.JSON(http.StatusOK, sale)
}

// canViewSale mirrors the listing scope for single-document reads: sellers
// see their own sales, an admin also those of their agents, the super-admin
// and account roles see all.
func canViewSale(sale models.Sale, sellerParentID string, u stock.Viewer) bool {
	switch u.Role {
	case stock.RoleSuperAdmin, stock.RoleAccount:
		return true
	case stock.RoleAdmin:
		return sale.SellerID == u.ID || sellerParentID == u.ID
	default:
		return sale.SellerID == u.ID
	}
}
