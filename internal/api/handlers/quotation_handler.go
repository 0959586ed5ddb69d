package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"solar-scm-api-server/internal/api/middleware"
	"solar-scm-api-server/internal/models"
	"solar-scm-api-server/internal/report"
	"solar-scm-api-server/internal/stock"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type QuotationHandler struct {
	DB     *mongo.Database
	Report *report.Client
}

type CreateQuotationPayload struct {
	CustomerName    string            `json:"customer_name" binding:"required"`
	CustomerPhone   string            `json:"customer_phone"`
	CustomerAddress string            `json:"customer_address"`
	Items           []SaleItemPayload `json:"items" binding:"required,dive"`
	Notes           string            `json:"notes"`
	ValidDays       int               `json:"valid_days"`
}

// CreateQuotation prices an offer from the catalogue and stores it. Stock is
// untouched until an actual sale is recorded.
func (h *QuotationHandler) CreateQuotation(c *gin.Context) {
	viewer := viewerFromContext(c)
	viewerName := c.GetString(middleware.CtxUserName)

	var payload CreateQuotationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(payload.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A quotation needs at least one item"})
		return
	}
	validDays := payload.ValidDays
	if validDays <= 0 {
		validDays = 30
	}

	productCollection := h.DB.Collection("products")
	items := make([]models.SaleItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		var product models.Product
		if err := productCollection.FindOne(context.Background(), bson.M{"productID": item.ProductID, "active": true}).Decode(&product); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Product '%s' is not available", item.ProductID)})
			return
		}
		items = append(items, models.SaleItem{
			ProductID:   product.ProductID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.UnitPrice,
		})
	}

	now := time.Now()
	newQuotation := models.Quotation{
		QuotationID:     fmt.Sprintf("QT-%s", strings.ToUpper(uuid.New().String()[:8])),
		CreatedByID:     viewer.ID,
		CreatedByName:   viewerName,
		CustomerName:    payload.CustomerName,
		CustomerPhone:   payload.CustomerPhone,
		CustomerAddress: payload.CustomerAddress,
		Items:           items,
		Total:           models.SumItems(items),
		Notes:           payload.Notes,
		ValidUntil:      now.AddDate(0, 0, validDays),
		CreatedAt:       now,
	}

	collection := h.DB.Collection("quotations")
	result, err := collection.InsertOne(context.Background(), newQuotation)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create quotation"})
		return
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		newQuotation.ID = oid
	}

	c.JSON(http.StatusCreated, newQuotation)
}

// GetQuotations lists quotations scoped by role.
func (h *QuotationHandler) GetQuotations(c *gin.Context) {
	viewer := viewerFromContext(c)

	var filter bson.M
	switch viewer.Role {
	case stock.RoleSuperAdmin, stock.RoleAccount:
		filter = bson.M{}
	default:
		filter = bson.M{"createdByID": viewer.ID}
	}

	collection := h.DB.Collection("quotations")
	cursor, err := collection.Find(context.Background(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query quotations"})
		return
	}
	defer cursor.Close(context.Background())

	var quotations []models.Quotation
	if err = cursor.All(context.Background(), &quotations); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode quotations"})
		return
	}
	if quotations == nil {
		quotations = []models.Quotation{}
	}

	c.JSON(http.StatusOK, quotations)
}

// GetQuotationByID returns one quotation.
func (h *QuotationHandler) GetQuotationByID(c *gin.Context) {
	quotation, ok := h.findQuotation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, quotation)
}

// GetQuotationPDF renders a stored quotation to PDF via Gotenberg and
// streams the document back.
func (h *QuotationHandler) GetQuotationPDF(c *gin.Context) {
	quotation, ok := h.findQuotation(c)
	if !ok {
		return
	}

	html, err := report.QuotationHTML(quotation)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render quotation"})
		return
	}
	pdf, err := h.Report.RenderHTML(c.Request.Context(), html)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "PDF service is unavailable"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", quotation.QuotationID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *QuotationHandler) findQuotation(c *gin.Context) (models.Quotation, bool) {
	viewer := viewerFromContext(c)
	quotationID := c.Param("id")

	var quotation models.Quotation
	err := h.DB.Collection("quotations").FindOne(context.Background(), bson.M{"quotationID": quotationID}).Decode(&quotation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quotation not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve quotation"})
		}
		return models.Quotation{}, false
	}
	if viewer.Role != stock.RoleSuperAdmin && viewer.Role != stock.RoleAccount && quotation.CreatedByID != viewer.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this quotation"})
		return models.Quotation{}, false
	}
	return quotation, true
}
