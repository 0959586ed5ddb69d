package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"

	"solar-scm-api-server/internal/api/middleware"
	"solar-scm-api-server/internal/models"
	"solar-scm-api-server/internal/socket"
	"solar-scm-api-server/internal/stock"
)

func handlerContext(w *httptest.ResponseRecorder, req *http.Request, viewer stock.Viewer) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(middleware.CtxUserID, viewer.ID)
	c.Set(middleware.CtxUserRole, viewer.Role)
	c.Set(middleware.CtxUserName, "Test User")
	return c
}

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, fields map[string]string, fileField string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, "proof.jpg")
		require.NoError(t, err)
		_, err = io.WriteString(fw, "not-really-a-jpeg")
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestDispatchInput(t *testing.T) {
	h := &StockRequestHandler{}

	t.Run("multipart with reason and image", func(t *testing.T) {
		w := httptest.NewRecorder()
		c := handlerContext(w, multipartRequest(t, map[string]string{"rejection_reason": "damaged goods"}, "dispatch_image"), stock.Viewer{ID: "admin-1", Role: stock.RoleAdmin})
		reason, hasImage := h.dispatchInput(c)
		assert.Equal(t, "damaged goods", reason)
		assert.True(t, hasImage)
	})

	t.Run("multipart with image only", func(t *testing.T) {
		w := httptest.NewRecorder()
		c := handlerContext(w, multipartRequest(t, nil, "dispatch_image"), stock.Viewer{ID: "admin-1", Role: stock.RoleAdmin})
		reason, hasImage := h.dispatchInput(c)
		assert.Empty(t, reason)
		assert.True(t, hasImage)
	})

	t.Run("json reject body", func(t *testing.T) {
		w := httptest.NewRecorder()
		c := handlerContext(w, jsonRequest(`{"rejection_reason":"out of season"}`), stock.Viewer{ID: "admin-1", Role: stock.RoleAdmin})
		reason, hasImage := h.dispatchInput(c)
		assert.Equal(t, "out of season", reason)
		assert.False(t, hasImage)
	})

	t.Run("empty body is approve without image", func(t *testing.T) {
		w := httptest.NewRecorder()
		c := handlerContext(w, jsonRequest(""), stock.Viewer{ID: "admin-1", Role: stock.RoleAdmin})
		reason, hasImage := h.dispatchInput(c)
		assert.Empty(t, reason)
		assert.False(t, hasImage)
	})
}

func TestWriteLifecycleError(t *testing.T) {
	h := &StockRequestHandler{}
	cases := []struct {
		err  error
		code int
	}{
		{stock.ErrNotAllowed, http.StatusForbidden},
		{stock.ErrReasonRequired, http.StatusBadRequest},
		{stock.ErrImageRequired, http.StatusBadRequest},
		{stock.ErrNotPending, http.StatusConflict},
		{stock.ErrNotDispatched, http.StatusConflict},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c := handlerContext(w, jsonRequest(""), stock.Viewer{ID: "admin-1", Role: stock.RoleAdmin})
		h.writeLifecycleError(c, tc.err)
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
		assert.Contains(t, w.Body.String(), "error")
	}
}

func TestCanViewRequest(t *testing.T) {
	poolRequest := stock.RequestView{Target: stock.ParseTarget("admin"), RequestedBy: "agent-1"}

	assert.True(t, canViewRequest(poolRequest, stock.Viewer{ID: "agent-1", Role: stock.RoleAgent}))
	assert.True(t, canViewRequest(poolRequest, stock.Viewer{ID: "admin-1", Role: stock.RoleAdmin}))
	assert.True(t, canViewRequest(poolRequest, stock.Viewer{ID: "root", Role: stock.RoleSuperAdmin}))
	assert.True(t, canViewRequest(poolRequest, stock.Viewer{ID: "acct-1", Role: stock.RoleAccount}))
	assert.False(t, canViewRequest(poolRequest, stock.Viewer{ID: "agent-2", Role: stock.RoleAgent}))

	transfer := stock.RequestView{Target: stock.ParseTarget("admin-2"), RequestedBy: "admin-1"}
	assert.True(t, canViewRequest(transfer, stock.Viewer{ID: "admin-1", Role: stock.RoleAdmin}))
	assert.True(t, canViewRequest(transfer, stock.Viewer{ID: "admin-2", Role: stock.RoleAdmin}))
	assert.False(t, canViewRequest(transfer, stock.Viewer{ID: "admin-3", Role: stock.RoleAdmin}))
	assert.False(t, canViewRequest(transfer, stock.Viewer{ID: "agent-9", Role: stock.RoleAgent}))
}

func toBSON(t *testing.T, v interface{}) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func pendingRequest() models.StockRequest {
	return models.StockRequest{
		RequestID:     "SR-TEST0001",
		RequestedFrom: "admin",
		RequestedByID: "agent-1",
		Status:        stock.StatusPending,
		Items: []models.StockRequestItem{
			{ProductID: "PRD-AAAA1111", Quantity: 5},
		},
	}
}

func updateResponse(matched, modified int32) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: matched},
		bson.E{Key: "nModified", Value: modified},
	)
}

func TestDispatchStockRequest(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	viewer := stock.Viewer{ID: "admin-1", Role: stock.RoleAdmin}
	ns := "solar_scm.stock_requests"

	mt.Run("winner dispatches and debits", func(mt *mtest.T) {
		dispatched := pendingRequest()
		dispatched.Status = stock.StatusDispatched
		dispatched.DispatchedBy = viewer.ID

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toBSON(mt.T, pendingRequest())),
			updateResponse(1, 1), // status flip pending -> dispatched
			updateResponse(1, 1), // stock debit
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toBSON(mt.T, dispatched)),
		)

		h := &StockRequestHandler{DB: mt.DB, Hub: socket.NewHub(zap.NewNop())}
		w := httptest.NewRecorder()
		c := handlerContext(w, jsonRequest(""), viewer)
		c.Params = gin.Params{{Key: "id", Value: "SR-TEST0001"}}

		h.DispatchStockRequest(c)

		assert.Equal(mt.T, http.StatusOK, w.Code)
		assert.Contains(mt.T, w.Body.String(), string(stock.StatusDispatched))
	})

	mt.Run("loser of a concurrent dispatch gets a conflict", func(mt *mtest.T) {
		// The read still sees pending, but the guarded update matches
		// nothing because another dispatcher already resolved the request.
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toBSON(mt.T, pendingRequest())),
			updateResponse(0, 0),
		)

		h := &StockRequestHandler{DB: mt.DB, Hub: socket.NewHub(zap.NewNop())}
		w := httptest.NewRecorder()
		c := handlerContext(w, jsonRequest(""), viewer)
		c.Params = gin.Params{{Key: "id", Value: "SR-TEST0001"}}

		h.DispatchStockRequest(c)

		assert.Equal(mt.T, http.StatusConflict, w.Code)
		assert.Contains(mt.T, w.Body.String(), "no longer pending")
	})

	mt.Run("insufficient stock reverts the status flip", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toBSON(mt.T, pendingRequest())),
			updateResponse(1, 1), // status flip succeeds
			updateResponse(0, 0), // debit matches nothing: not enough stock
			updateResponse(1, 1), // revert back to pending
		)

		h := &StockRequestHandler{DB: mt.DB, Hub: socket.NewHub(zap.NewNop())}
		w := httptest.NewRecorder()
		c := handlerContext(w, jsonRequest(""), viewer)
		c.Params = gin.Params{{Key: "id", Value: "SR-TEST0001"}}

		h.DispatchStockRequest(c)

		assert.Equal(mt.T, http.StatusConflict, w.Code)
		assert.Contains(mt.T, w.Body.String(), "Insufficient stock")
	})

	mt.Run("stale reject gets a conflict", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toBSON(mt.T, pendingRequest())),
			updateResponse(0, 0),
		)

		h := &StockRequestHandler{DB: mt.DB, Hub: socket.NewHub(zap.NewNop())}
		w := httptest.NewRecorder()
		c := handlerContext(w, jsonRequest(`{"rejection_reason":"too late"}`), viewer)
		c.Params = gin.Params{{Key: "id", Value: "SR-TEST0001"}}

		h.DispatchStockRequest(c)

		assert.Equal(mt.T, http.StatusConflict, w.Code)
		assert.Contains(mt.T, w.Body.String(), "no longer pending")
	})
}

func TestConfirmStockRequestDoubleSubmit(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "solar_scm.stock_requests"

	mt.Run("second confirm never credits stock again", func(mt *mtest.T) {
		dispatched := pendingRequest()
		dispatched.Status = stock.StatusDispatched
		dispatched.DispatchedBy = "admin-1"

		// Only two responses are primed: the read and the guarded update.
		// If the handler went on to credit inventory the mock would fail
		// the test with an unexpected-command error.
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toBSON(mt.T, dispatched)),
			updateResponse(0, 0),
		)

		h := &StockRequestHandler{DB: mt.DB, Hub: socket.NewHub(zap.NewNop())}
		w := httptest.NewRecorder()
		viewer := stock.Viewer{ID: "agent-1", Role: stock.RoleAgent}
		c := handlerContext(w, multipartRequest(mt.T, nil, "confirmation_image"), viewer)
		c.Params = gin.Params{{Key: "id", Value: "SR-TEST0001"}}

		h.ConfirmStockRequest(c)

		assert.Equal(mt.T, http.StatusConflict, w.Code)
		assert.Contains(mt.T, w.Body.String(), "no longer dispatched")
	})
}
