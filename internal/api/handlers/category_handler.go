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

type CategoryHandler struct {
	DB *mongo.Database
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateCategory adds a product category.
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collection := h.DB.Collection("categories")
	count, err := collection.CountDocuments(context.Background(), bson.M{"name": req.Name})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking for category"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Category with this name already exists"})
		return
	}

	newCategory := models.Category{
		CategoryID: fmt.Sprintf("CAT-%s", strings.ToUpper(uuid.New().String()[:8])),
		Name:       req.Name,
		CreatedAt:  time.Now(),
	}

	result, err := collection.InsertOne(context.Background(), newCategory)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		newCategory.ID = oid
	}

	c.JSON(http.StatusCreated, newCategory)
}

// GetAllCategories lists all categories.
func (h *CategoryHandler) GetAllCategories(c *gin.Context) {
	collection := h.DB.Collection("categories")
	cursor, err := collection.Find(context.Background(), bson.M{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query categories"})
		return
	}
	defer cursor.Close(context.Background())

	var categories []models.Category
	if err = cursor.All(context.Background(), &categories); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode categories"})
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}

	c.JSON(http.StatusOK, categories)
}

// DeleteCategory removes a category that no product references.
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	categoryID := c.Param("id")

	productCollection := h.DB.Collection("products")
	count, err := productCollection.CountDocuments(context.Background(), bson.M{"categoryID": categoryID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking category usage"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Category is still in use by products"})
		return
	}

	collection := h.DB.Collection("categories")
	result, err := collection.DeleteOne(context.Background(), bson.M{"categoryID": categoryID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}
	if result.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
