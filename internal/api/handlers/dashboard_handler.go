package handlers

import (
	"context"
	"net/http"
	"time"

	"solar-scm-api-server/internal/models"
	"solar-scm-api-server/internal/stock"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type DashboardHandler struct {
	DB *mongo.Database
}

// DashboardStats is the aggregate view rendered on the dashboard. Everything
// is recomputed from the stored documents on each call.
type DashboardStats struct {
	Requests       stock.Summary `json:"requests"`
	PendingReturns int           `json:"pending_returns"`
	SalesTotal     float64       `json:"sales_total"`
	SalesCount     int           `json:"sales_count"`
}

// GetStats summarizes the requests, returns and sales visible to the caller.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	viewer := viewerFromContext(c)

	requestFilter := h.requestScope(viewer)
	cursor, err := h.DB.Collection("stock_requests").Find(context.Background(), requestFilter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query stock requests"})
		return
	}
	defer cursor.Close(context.Background())

	var requests []models.StockRequest
	if err = cursor.All(context.Background(), &requests); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode stock requests"})
		return
	}

	views := make([]stock.RequestView, 0, len(requests))
	for _, r := range requests {
		views = append(views, r.View())
	}
	stats := DashboardStats{Requests: stock.Summarize(views, time.Now())}

	returnFilter := h.returnScope(viewer)
	returnFilter["status"] = stock.ReturnPending
	pendingReturns, err := h.DB.Collection("stock_returns").CountDocuments(context.Background(), returnFilter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query stock returns"})
		return
	}
	stats.PendingReturns = int(pendingReturns)

	salesCursor, err := h.DB.Collection("sales").Find(context.Background(), h.salesScope(viewer))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query sales"})
		return
	}
	defer salesCursor.Close(context.Background())

	var sales []models.Sale
	if err = salesCursor.All(context.Background(), &sales); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode sales"})
		return
	}
	for _, s := range sales {
		stats.SalesCount++
		stats.SalesTotal += s.Total
	}

	c.JSON(http.StatusOK, stats)
}

// requestScope mirrors the listing filter of the stock-request endpoint so
// the dashboard counts exactly what the caller can see there.
func (h *DashboardHandler) requestScope(viewer stock.Viewer) bson.M {
	switch viewer.Role {
	case stock.RoleSuperAdmin, stock.RoleAccount:
		return bson.M{}
	case stock.RoleAdmin:
		return bson.M{"$or": []bson.M{
			{"requestedByID": viewer.ID},
			{"requestedFrom": stock.RoleAdmin},
			{"requestedFrom": viewer.ID},
		}}
	default:
		return bson.M{"requestedByID": viewer.ID}
	}
}

func (h *DashboardHandler) returnScope(viewer stock.Viewer) bson.M {
	switch viewer.Role {
	case stock.RoleSuperAdmin, stock.RoleAccount:
		return bson.M{}
	case stock.RoleAdmin:
		return bson.M{"$or": []bson.M{
			{"returnedByID": viewer.ID},
			{"adminID": viewer.ID},
		}}
	default:
		return bson.M{"returnedByID": viewer.ID}
	}
}

func (h *DashboardHandler) salesScope(viewer stock.Viewer) bson.M {
	switch viewer.Role {
	case stock.RoleSuperAdmin, stock.RoleAccount:
		return bson.M{}
	default:
		return bson.M{"sellerID": viewer.ID}
	}
}
