package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"solar-scm-api-server/internal/api/middleware"
	"solar-scm-api-server/internal/metrics"
	"solar-scm-api-server/internal/models"
	"solar-scm-api-server/internal/s3"
	"solar-scm-api-server/internal/socket"
	"solar-scm-api-server/internal/stock"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type StockRequestHandler struct {
	DB         *mongo.Database
	S3Uploader *s3.Uploader
	Hub        *socket.Hub
}

type CreateStockRequestPayload struct {
	RequestedFrom string                    `json:"requested_from" binding:"required"`
	Items         []models.StockRequestItem `json:"items" binding:"required"`
	Notes         string                    `json:"notes"`
}

// StockRequestView decorates a stored request with the caller-specific
// classification so thin clients can render controls without re-deriving it.
type StockRequestView struct {
	models.StockRequest
	Relationship  stock.Relationship `json:"relationship"`
	AllowedAction stock.Action       `json:"allowed_action"`
}

func viewerFromContext(c *gin.Context) stock.Viewer {
	return stock.Viewer{
		ID:   c.GetString(middleware.CtxUserID),
		Role: c.GetString(middleware.CtxUserRole),
	}
}

func decorate(r models.StockRequest, u stock.Viewer) StockRequestView {
	view := r.View()
	return StockRequestView{
		StockRequest:  r,
		Relationship:  stock.Classify(view, u),
		AllowedAction: stock.AllowedAction(view, u),
	}
}

// CreateStockRequest validates and stores a new pending request.
func (h *StockRequestHandler) CreateStockRequest(c *gin.Context) {
	viewer := viewerFromContext(c)
	viewerName := c.GetString(middleware.CtxUserName)

	var payload CreateStockRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := models.ValidateItems(payload.Items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target := stock.ParseTarget(payload.RequestedFrom)
	if err := h.validateTarget(target, viewer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	productCollection := h.DB.Collection("products")
	for _, item := range payload.Items {
		count, err := productCollection.CountDocuments(context.Background(), bson.M{"productID": item.ProductID})
		if err != nil || count == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Product '%s' does not exist", item.ProductID)})
			return
		}
	}

	newRequest := models.StockRequest{
		RequestID:       fmt.Sprintf("SR-%s", strings.ToUpper(uuid.New().String()[:8])),
		RequestedFrom:   target.String(),
		RequestedByID:   viewer.ID,
		RequestedByName: viewerName,
		Items:           payload.Items,
		Status:          stock.StatusPending,
		Notes:           payload.Notes,
		CreatedAt:       time.Now(),
	}

	collection := h.DB.Collection("stock_requests")
	result, err := collection.InsertOne(context.Background(), newRequest)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create stock request"})
		return
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		newRequest.ID = oid
	}

	h.notifyFulfillers(newRequest, socket.Event{
		Type:      "stock_request.created",
		RequestID: newRequest.RequestID,
		Message:   fmt.Sprintf("New stock request from %s", viewerName),
	})

	c.JSON(http.StatusCreated, decorate(newRequest, viewer))
}

// validateTarget checks that the requested_from value makes sense for the
// caller's place in the hierarchy.
func (h *StockRequestHandler) validateTarget(target stock.Target, viewer stock.Viewer) error {
	switch viewer.Role {
	case stock.RoleAgent:
		if target.Kind == stock.TargetUser {
			return errors.New("agents request stock from their superior, not a named user")
		}
	case stock.RoleAdmin:
		if target.Kind == stock.TargetAnyAdmin {
			return errors.New("admins cannot request stock from the admin pool")
		}
		if target.Kind == stock.TargetUser {
			if target.UserID == viewer.ID {
				return errors.New("cannot request stock from yourself")
			}
			count, err := h.DB.Collection("users").CountDocuments(context.Background(),
				bson.M{"userID": target.UserID, "role": stock.RoleAdmin})
			if err != nil || count == 0 {
				return errors.New("transfer target is not a known admin")
			}
		}
	default:
		return errors.New("only admins and agents create stock requests")
	}
	return nil
}

// GetStockRequests lists requests visible to the caller, scoped by role:
// admins see their own plus everything they may act on, agents see their
// own, the super-admin and account roles see all. Optional ?status= filter.
func (h *StockRequestHandler) GetStockRequests(c *gin.Context) {
	viewer := viewerFromContext(c)

	var filter bson.M
	switch viewer.Role {
	case stock.RoleSuperAdmin, stock.RoleAccount:
		filter = bson.M{}
	case stock.RoleAdmin:
		filter = bson.M{"$or": []bson.M{
			{"requestedByID": viewer.ID},
			{"requestedFrom": stock.RoleAdmin},
			{"requestedFrom": viewer.ID},
		}}
	default:
		filter = bson.M{"requestedByID": viewer.ID}
	}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}

	collection := h.DB.Collection("stock_requests")
	cursor, err := collection.Find(context.Background(), filter)
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

	views := []StockRequestView{}
	for _, r := range requests {
		views = append(views, decorate(r, viewer))
	}

	c.JSON(http.StatusOK, views)
}

// GetStockRequestByID returns one request with the caller's classification.
func (h *StockRequestHandler) GetStockRequestByID(c *gin.Context) {
	viewer := viewerFromContext(c)
	requestID := c.Param("id")

	collection := h.DB.Collection("stock_requests")
	var request models.StockRequest
	if err := collection.FindOne(context.Background(), bson.M{"requestID": requestID}).Decode(&request); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stock request not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve stock request"})
		}
		return
	}

	if !canViewRequest(request.View(), viewer) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this stock request"})
		return
	}

	c.JSON(http.StatusOK, decorate(request, viewer))
}

// canViewRequest mirrors the listing scope for single-document reads: the
// super-admin and account roles see everything, everyone else only requests
// they are a party to.
func canViewRequest(r stock.RequestView, u stock.Viewer) bool {
	if u.Role == stock.RoleSuperAdmin || u.Role == stock.RoleAccount {
		return true
	}
	if r.RequestedBy == u.ID {
		return true
	}
	return stock.Classify(r, u) != stock.Unrelated
}

// DispatchStockRequest resolves a pending request. A non-empty
// rejection_reason selects the reject path; otherwise the request is
// approved and dispatched, optionally with a proof-of-shipment image.
// The body is multipart when an image is attached, JSON otherwise.
func (h *StockRequestHandler) DispatchStockRequest(c *gin.Context) {
	viewer := viewerFromContext(c)
	requestID := c.Param("id")

	collection := h.DB.Collection("stock_requests")
	var request models.StockRequest
	if err := collection.FindOne(context.Background(), bson.M{"requestID": requestID}).Decode(&request); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stock request not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve stock request"})
		}
		return
	}

	rejectionReason, hasImage := h.dispatchInput(c)

	if rejectionReason != "" {
		h.rejectRequest(c, collection, request, viewer, rejectionReason)
		return
	}

	if err := stock.AuthorizeDispatch(request.View(), viewer); err != nil {
		h.writeLifecycleError(c, err)
		return
	}

	// The status flip is the lock: of two concurrent dispatchers only one
	// matches the pending filter, and the loser moves no stock at all.
	now := time.Now()
	result, err := collection.UpdateOne(context.Background(),
		bson.M{"requestID": requestID, "status": stock.StatusPending},
		bson.M{"$set": bson.M{
			"status":       stock.StatusDispatched,
			"dispatchedAt": now,
			"dispatchedBy": viewer.ID,
		}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock request"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Stock request is no longer pending"})
		return
	}
	revert := func() {
		_, _ = collection.UpdateOne(context.Background(),
			bson.M{"requestID": requestID, "status": stock.StatusDispatched},
			bson.M{
				"$set":   bson.M{"status": stock.StatusPending},
				"$unset": bson.M{"dispatchedAt": "", "dispatchedBy": "", "dispatchImage": ""},
			})
	}

	if err := debitStockItems(context.Background(), h.DB, viewer.ID, request.Items); err != nil {
		revert()
		if errors.Is(err, ErrInsufficientStock) {
			c.JSON(http.StatusConflict, gin.H{"error": "Insufficient stock to dispatch this request"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock levels"})
		}
		return
	}

	if hasImage {
		imageURL, err := h.uploadImage(c, "dispatch_image", fmt.Sprintf("dispatch/%s", request.RequestID))
		if err != nil {
			// The image is optional, but a half-recorded dispatch is not:
			// put the stock and the status back and report.
			for _, item := range request.Items {
				_ = creditStock(context.Background(), h.DB, viewer.ID, item.ProductID, item.Quantity)
			}
			revert()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload dispatch image"})
			return
		}
		if _, err := collection.UpdateOne(context.Background(),
			bson.M{"requestID": requestID},
			bson.M{"$set": bson.M{"dispatchImage": imageURL}}); err != nil {
			for _, item := range request.Items {
				_ = creditStock(context.Background(), h.DB, viewer.ID, item.ProductID, item.Quantity)
			}
			revert()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock request"})
			return
		}
	}
	metrics.StockRequestTransitions.WithLabelValues(string(stock.StatusDispatched)).Inc()

	_ = h.Hub.Notify(request.RequestedByID, socket.Event{
		Type:      "stock_request.dispatched",
		RequestID: request.RequestID,
		Message:   "Your stock request has been dispatched",
	})

	h.respondWithFreshRequest(c, collection, requestID, viewer)
}

// rejectRequest is the reject arm of the dispatch endpoint.
func (h *StockRequestHandler) rejectRequest(c *gin.Context, collection *mongo.Collection, request models.StockRequest, viewer stock.Viewer, reason string) {
	if err := stock.AuthorizeReject(request.View(), viewer, reason); err != nil {
		h.writeLifecycleError(c, err)
		return
	}

	update := bson.M{"$set": bson.M{
		"status":          stock.StatusRejected,
		"rejectionReason": reason,
	}}
	result, err := collection.UpdateOne(context.Background(), bson.M{"requestID": request.RequestID, "status": stock.StatusPending}, update)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock request"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Stock request is no longer pending"})
		return
	}
	metrics.StockRequestTransitions.WithLabelValues(string(stock.StatusRejected)).Inc()

	_ = h.Hub.Notify(request.RequestedByID, socket.Event{
		Type:      "stock_request.rejected",
		RequestID: request.RequestID,
		Message:   fmt.Sprintf("Your stock request was rejected: %s", reason),
	})

	h.respondWithFreshRequest(c, collection, request.RequestID, viewer)
}

// ConfirmStockRequest acknowledges receipt of dispatched goods. The
// confirmation image is mandatory; without it nothing is written.
func (h *StockRequestHandler) ConfirmStockRequest(c *gin.Context) {
	viewer := viewerFromContext(c)
	requestID := c.Param("id")

	collection := h.DB.Collection("stock_requests")
	var request models.StockRequest
	if err := collection.FindOne(context.Background(), bson.M{"requestID": requestID}).Decode(&request); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stock request not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve stock request"})
		}
		return
	}

	hasImage := false
	if file, err := c.FormFile("confirmation_image"); err == nil && file != nil {
		hasImage = true
	}

	if err := stock.AuthorizeConfirm(request.View(), viewer, hasImage); err != nil {
		h.writeLifecycleError(c, err)
		return
	}

	// Flip the status first: a double-submitted confirm loses the guarded
	// update and therefore never reaches the credit below.
	now := time.Now()
	result, err := collection.UpdateOne(context.Background(),
		bson.M{"requestID": requestID, "status": stock.StatusDispatched},
		bson.M{"$set": bson.M{
			"status":      stock.StatusConfirmed,
			"confirmedAt": now,
		}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock request"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Stock request is no longer dispatched"})
		return
	}
	revert := func() {
		_, _ = collection.UpdateOne(context.Background(),
			bson.M{"requestID": requestID, "status": stock.StatusConfirmed},
			bson.M{
				"$set":   bson.M{"status": stock.StatusDispatched},
				"$unset": bson.M{"confirmedAt": "", "confirmationImage": ""},
			})
	}

	imageURL, err := h.uploadImage(c, "confirmation_image", fmt.Sprintf("confirmation/%s", request.RequestID))
	if err != nil {
		revert()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload confirmation image"})
		return
	}
	if _, err := collection.UpdateOne(context.Background(),
		bson.M{"requestID": requestID},
		bson.M{"$set": bson.M{"confirmationImage": imageURL}}); err != nil {
		revert()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock request"})
		return
	}

	// Goods arrive in the requester's holding only on confirmation.
	if err := creditStockItems(context.Background(), h.DB, request.RequestedByID, request.Items); err != nil {
		revert()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock levels"})
		return
	}
	metrics.StockRequestTransitions.WithLabelValues(string(stock.StatusConfirmed)).Inc()

	if request.DispatchedBy != "" {
		_ = h.Hub.Notify(request.DispatchedBy, socket.Event{
			Type:      "stock_request.confirmed",
			RequestID: request.RequestID,
			Message:   "Receipt confirmed for a request you dispatched",
		})
	}

	h.respondWithFreshRequest(c, collection, requestID, viewer)
}

// DeleteStockRequest removes a request that is still pending. Only the
// requester may delete it.
func (h *StockRequestHandler) DeleteStockRequest(c *gin.Context) {
	viewer := viewerFromContext(c)
	requestID := c.Param("id")

	collection := h.DB.Collection("stock_requests")
	var request models.StockRequest
	if err := collection.FindOne(context.Background(), bson.M{"requestID": requestID}).Decode(&request); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stock request not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve stock request"})
		}
		return
	}

	if err := stock.AuthorizeDelete(request.View(), viewer); err != nil {
		h.writeLifecycleError(c, err)
		return
	}

	if _, err := collection.DeleteOne(context.Background(), bson.M{"requestID": requestID, "status": stock.StatusPending}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete stock request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Stock request deleted"})
}

// --- helpers ---

// dispatchInput extracts the rejection reason and image presence from either
// a multipart form or a JSON body.
func (h *StockRequestHandler) dispatchInput(c *gin.Context) (reason string, hasImage bool) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		reason = c.PostForm("rejection_reason")
		if file, err := c.FormFile("dispatch_image"); err == nil && file != nil {
			hasImage = true
		}
		return reason, hasImage
	}

	var body struct {
		RejectionReason string `json:"rejection_reason"`
	}
	// An empty body is a valid approve-without-image dispatch.
	_ = c.ShouldBindJSON(&body)
	return body.RejectionReason, false
}

// uploadImage stores one multipart image on S3 and returns its URL.
func (h *StockRequestHandler) uploadImage(c *gin.Context, field, keyPrefix string) (string, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return "", err
	}
	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	objectKey := fmt.Sprintf("%s-%s%s", keyPrefix, uuid.New().String()[:8], filepath.Ext(fileHeader.Filename))
	contentType := fileHeader.Header.Get("Content-Type")
	return h.S3Uploader.UploadFile(c.Request.Context(), file, objectKey, contentType)
}

// writeLifecycleError maps domain authorization errors onto HTTP statuses.
func (h *StockRequestHandler) writeLifecycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, stock.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, stock.ErrReasonRequired), errors.Is(err, stock.ErrImageRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	}
}

// respondWithFreshRequest refetches the stored document after a mutation so
// the response reflects the authoritative state, not a local patch.
func (h *StockRequestHandler) respondWithFreshRequest(c *gin.Context, collection *mongo.Collection, requestID string, viewer stock.Viewer) {
	var request models.StockRequest
	if err := collection.FindOne(context.Background(), bson.M{"requestID": requestID}).Decode(&request); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve stock request"})
		return
	}
	c.JSON(http.StatusOK, decorate(request, viewer))
}

// notifyFulfillers pushes an event to every user who could act on the
// request next.
func (h *StockRequestHandler) notifyFulfillers(r models.StockRequest, event socket.Event) {
	target := stock.ParseTarget(r.RequestedFrom)
	switch target.Kind {
	case stock.TargetUser:
		_ = h.Hub.Notify(target.UserID, event)
	case stock.TargetSuperAdmin:
		_ = h.Hub.Notify(stock.RoleSuperAdmin, event)
	case stock.TargetAnyAdmin:
		cursor, err := h.DB.Collection("users").Find(context.Background(), bson.M{"role": stock.RoleAdmin})
		if err != nil {
			return
		}
		defer cursor.Close(context.Background())
		var admins []models.User
		if err := cursor.All(context.Background(), &admins); err != nil {
			return
		}
		ids := make([]string, 0, len(admins))
		for _, a := range admins {
			ids = append(ids, a.UserID)
		}
		h.Hub.NotifyAll(ids, event)
	}
}
