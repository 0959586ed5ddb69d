package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"solar-scm-api-server/internal/api/middleware"
	"solar-scm-api-server/internal/auth"
	"solar-scm-api-server/internal/models"
	"solar-scm-api-server/internal/stock"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserHandler struct {
	DB      *mongo.Database
	AuthSvc *auth.Service
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
}

// Login checks credentials and issues a bearer token.
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collection := h.DB.Collection("users")
	var user models.User
	err := collection.FindOne(context.Background(), bson.M{"email": strings.ToLower(req.Email)}).Decode(&user)
	if err != nil || !auth.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if user.Status != "ACTIVE" {
		c.JSON(http.StatusForbidden, gin.H{"error": "This account is inactive"})
		return
	}

	token, err := h.AuthSvc.GenerateToken(user.UserID, user.Email, user.Name, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// CreateUser creates a subordinate account. The super-admin creates admins
// and account users; an admin creates agents under themselves.
func (h *UserHandler) CreateUser(c *gin.Context) {
	callerID := c.GetString(middleware.CtxUserID)
	callerRole := c.GetString(middleware.CtxUserRole)

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	allowed := map[string][]string{
		stock.RoleSuperAdmin: {stock.RoleAdmin, stock.RoleAccount},
		stock.RoleAdmin:      {stock.RoleAgent},
	}
	permitted := false
	for _, role := range allowed[callerRole] {
		if role == req.Role {
			permitted = true
			break
		}
	}
	if !permitted {
		c.JSON(http.StatusForbidden, gin.H{"error": fmt.Sprintf("A %s cannot create a %s account", callerRole, req.Role)})
		return
	}

	collection := h.DB.Collection("users")
	email := strings.ToLower(req.Email)
	count, err := collection.CountDocuments(context.Background(), bson.M{"email": email})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking for user"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "A user with this email already exists"})
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	newUser := models.User{
		UserID:    fmt.Sprintf("%s-%s", req.Role, uuid.New().String()[:8]),
		Email:     email,
		Name:      req.Name,
		Password:  hashedPassword,
		Role:      req.Role,
		Status:    "ACTIVE",
		CreatedAt: time.Now(),
	}
	if callerRole == stock.RoleAdmin {
		newUser.ParentID = callerID
	}

	if _, err := collection.InsertOne(context.Background(), newUser); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, newUser)
}

// GetUsers lists accounts visible to the caller: the super-admin and
// account role see everyone, an admin sees themselves and their agents.
func (h *UserHandler) GetUsers(c *gin.Context) {
	callerID := c.GetString(middleware.CtxUserID)
	callerRole := c.GetString(middleware.CtxUserRole)

	filter := bson.M{}
	switch callerRole {
	case stock.RoleSuperAdmin, stock.RoleAccount:
		// no filter
	case stock.RoleAdmin:
		filter = bson.M{"$or": []bson.M{
			{"userID": callerID},
			{"parentID": callerID},
		}}
	default:
		filter = bson.M{"userID": callerID}
	}
	if role := c.Query("role"); role != "" {
		filter["role"] = role
	}

	collection := h.DB.Collection("users")
	cursor, err := collection.Find(context.Background(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query users"})
		return
	}
	defer cursor.Close(context.Background())

	var users []models.User
	if err = cursor.All(context.Background(), &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode users"})
		return
	}
	if users == nil {
		users = []models.User{}
	}

	c.JSON(http.StatusOK, users)
}

// Me returns the authenticated user's own record.
func (h *UserHandler) Me(c *gin.Context) {
	callerID := c.GetString(middleware.CtxUserID)

	collection := h.DB.Collection("users")
	var user models.User
	if err := collection.FindOne(context.Background(), bson.M{"userID": callerID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return
	}

	c.JSON(http.StatusOK, user)
}
