package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"

	"solar-scm-api-server/internal/models"
	"solar-scm-api-server/internal/socket"
	"solar-scm-api-server/internal/stock"
)

func TestReturnListFilter(t *testing.T) {
	t.Run("agent sees own returns only", func(t *testing.T) {
		filter := returnListFilter(stock.Viewer{ID: "agent-1", Role: stock.RoleAgent}, "")
		assert.Equal(t, bson.M{"returnedByID": "agent-1"}, filter)
	})

	t.Run("admin sees own and addressed returns", func(t *testing.T) {
		filter := returnListFilter(stock.Viewer{ID: "admin-1", Role: stock.RoleAdmin}, "")
		assert.Equal(t, bson.M{"$or": []bson.M{
			{"returnedByID": "admin-1"},
			{"adminID": "admin-1"},
		}}, filter)
	})

	t.Run("super-admin and account see all", func(t *testing.T) {
		assert.Equal(t, bson.M{}, returnListFilter(stock.Viewer{ID: "root", Role: stock.RoleSuperAdmin}, ""))
		assert.Equal(t, bson.M{}, returnListFilter(stock.Viewer{ID: "acct-1", Role: stock.RoleAccount}, ""))
	})

	t.Run("status query narrows the view", func(t *testing.T) {
		// A pending-only view must never match a processed return.
		filter := returnListFilter(stock.Viewer{ID: "agent-1", Role: stock.RoleAgent}, string(stock.ReturnPending))
		assert.Equal(t, string(stock.ReturnPending), filter["status"])
		assert.NotEqual(t, string(stock.ReturnProcessed), filter["status"])

		unfiltered := returnListFilter(stock.Viewer{ID: "agent-1", Role: stock.RoleAgent}, "")
		_, hasStatus := unfiltered["status"]
		assert.False(t, hasStatus)
	})
}

func TestProcessStockReturnDoubleSubmit(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "solar_scm.stock_returns"

	mt.Run("second process never moves stock again", func(mt *mtest.T) {
		pending := models.StockReturn{
			ReturnID:     "RT-TEST0001",
			AdminID:      "super-admin",
			ReturnedByID: "admin-1",
			ProductID:    "PRD-AAAA1111",
			Quantity:     3,
			Reason:       "overstocked",
			Status:       stock.ReturnPending,
		}

		// Read plus a guarded update that matches nothing; a stock movement
		// after that would hit the mock as an unexpected command.
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toBSON(mt.T, pending)),
			updateResponse(0, 0),
		)

		h := &StockReturnHandler{DB: mt.DB, Hub: socket.NewHub(zap.NewNop())}
		w := httptest.NewRecorder()
		viewer := stock.Viewer{ID: "super-admin", Role: stock.RoleSuperAdmin}
		c := handlerContext(w, jsonRequest(""), viewer)
		c.Params = gin.Params{{Key: "id", Value: "RT-TEST0001"}}

		h.ProcessStockReturn(c)

		assert.Equal(mt.T, http.StatusConflict, w.Code)
		assert.Contains(mt.T, w.Body.String(), "no longer pending")
	})
}
