package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"solar-scm-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ProductHandler struct {
	DB *mongo.Database
}

type CreateProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	CategoryID  string  `json:"category_id" binding:"required"`
	Unit        string  `json:"unit" binding:"required"`
	UnitPrice   float64 `json:"unit_price" binding:"required,gt=0"`
}

// CreateProduct adds a product to the catalogue.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	categoryCollection := h.DB.Collection("categories")
	count, err := categoryCollection.CountDocuments(context.Background(), bson.M{"categoryID": req.CategoryID})
	if err != nil || count == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category does not exist"})
		return
	}

	newProduct := models.Product{
		ProductID:   fmt.Sprintf("PRD-%s", strings.ToUpper(uuid.New().String()[:8])),
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Unit:        req.Unit,
		UnitPrice:   req.UnitPrice,
		Active:      true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	collection := h.DB.Collection("products")
	result, err := collection.InsertOne(context.Background(), newProduct)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		newProduct.ID = oid
	}

	c.JSON(http.StatusCreated, newProduct)
}

// GetAllProducts lists catalogue products, optionally filtered by category
// or active state.
func (h *ProductHandler) GetAllProducts(c *gin.Context) {
	filter := bson.M{}
	if categoryID := c.Query("category_id"); categoryID != "" {
		filter["categoryID"] = categoryID
	}
	if active := c.Query("active"); active != "" {
		filter["active"] = active == "true"
	}

	collection := h.DB.Collection("products")
	cursor, err := collection.Find(context.Background(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query products"})
		return
	}
	defer cursor.Close(context.Background())

	var products []models.Product
	if err = cursor.All(context.Background(), &products); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode products"})
		return
	}
	if products == nil {
		products = []models.Product{}
	}

	c.JSON(http.StatusOK, products)
}

// GetProductByID returns one product.
func (h *ProductHandler) GetProductByID(c *gin.Context) {
	productID := c.Param("id")

	collection := h.DB.Collection("products")
	var product models.Product
	if err := collection.FindOne(context.Background(), bson.M{"productID": productID}).Decode(&product); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve product"})
		}
		return
	}

	c.JSON(http.StatusOK, product)
}

type UpdateProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	CategoryID  string  `json:"category_id" binding:"required"`
	Unit        string  `json:"unit" binding:"required"`
	UnitPrice   float64 `json:"unit_price" binding:"required,gt=0"`
	Active      *bool   `json:"active" binding:"required"`
}

// UpdateProduct replaces the mutable fields of a product.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	productID := c.Param("id")

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collection := h.DB.Collection("products")
	result, err := collection.UpdateOne(context.Background(), bson.M{"productID": productID}, bson.M{"$set": bson.M{
		"name":        req.Name,
		"description": req.Description,
		"categoryID":  req.CategoryID,
		"unit":        req.Unit,
		"unitPrice":   req.UnitPrice,
		"active":      *req.Active,
		"updatedAt":   time.Now(),
	}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully"})
}

// DeleteProduct removes a product from the catalogue.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	productID := c.Param("id")

	collection := h.DB.Collection("products")
	result, err := collection.DeleteOne(context.Background(), bson.M{"productID": productID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}
	if result.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
