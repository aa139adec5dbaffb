package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos_sales/internal/auth"
	"pos_sales/internal/sales"
)

// salesHandler holds the sales service and implements HTTP handlers for sales operations.
type salesHandler struct {
	salesService *sales.Service
	logger       *zap.Logger
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(salesService *sales.Service, logger *zap.Logger) *salesHandler {
	return &salesHandler{
		salesService: salesService,
		logger:       logger,
	}
}

// Items stay raw here; the normalizer owns their validation. Any
// total_amount in the body is not decoded at all.
type createSaleRequest struct {
	Items         json.RawMessage `json:"items"`
	PaymentMethod string          `json:"payment_method" binding:"required"`
	Status        string          `json:"status"`
	SaleDate      *time.Time      `json:"sale_date"`
	UserID        string          `json:"user_id"`
}

type updateSaleRequest struct {
	Items         json.RawMessage `json:"items"`
	PaymentMethod *string         `json:"payment_method"`
	Status        *string         `json:"status"`
	SaleDate      *time.Time      `json:"sale_date"`
	UserID        *string         `json:"user_id"`
}

// handleCreateSale handles the POST /sales endpoint.
func (h *salesHandler) handleCreateSale(ctx *gin.Context) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}

	var req createSaleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	items, err := decodeItems(req.Items)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	sale, err := h.salesService.CreateSale(ctx.Request.Context(), actor, sales.CreateInput{
		Items:         items,
		PaymentMethod: req.PaymentMethod,
		Status:        req.Status,
		SaleDate:      req.SaleDate,
		OwnerID:       req.UserID,
	})
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, sale)
}

// handleListSales handles GET /sales?status=&user=.
func (h *salesHandler) handleListSales(ctx *gin.Context) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}

	results, metadata, err := h.salesService.ListSales(ctx.Request.Context(), actor, ctx.Query("user"), ctx.Query("status"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"count": len(results), "sales": results, "metadata": metadata})
}

func (h *salesHandler) handleGetSale(ctx *gin.Context) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}

	sale, err := h.salesService.GetSale(ctx.Request.Context(), actor, ctx.Param("id"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, sale)
}

func (h *salesHandler) handleUpdateSale(ctx *gin.Context) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}

	id := ctx.Param("id")
	var req updateSaleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		h.invalidUpdatePayload(ctx, actor, id)
		return
	}
	in := sales.UpdateInput{
		PaymentMethod: req.PaymentMethod,
		Status:        req.Status,
		SaleDate:      req.SaleDate,
		OwnerID:       req.UserID,
	}
	if req.Items != nil {
		items, err := decodeItems(req.Items)
		if err != nil {
			h.invalidUpdatePayload(ctx, actor, id)
			return
		}
		in.Items = items
		in.ReplaceItems = true
	}

	sale, err := h.salesService.UpdateSale(ctx.Request.Context(), actor, id, in)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, sale)
}

// invalidUpdatePayload reports a malformed update body only once the caller
// is known to be allowed to update the sale.
func (h *salesHandler) invalidUpdatePayload(ctx *gin.Context, actor auth.Principal, id string) {
	if err := h.salesService.CheckUpdate(ctx.Request.Context(), actor, id); err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
}

func (h *salesHandler) actor(ctx *gin.Context) (auth.Principal, bool) {
	p, ok := principalFrom(ctx)
	if !ok {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
	}
	return p, ok
}

// writeError maps the sales error taxonomy onto HTTP statuses. Internal
// causes are logged and never returned to the caller.
func (h *salesHandler) writeError(ctx *gin.Context, err error) {
	var (
		validationErr *sales.ValidationError
		authErr       *sales.AuthorizationError
		notFoundErr   *sales.NotFoundError
	)
	switch {
	case errors.As(err, &validationErr):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &authErr):
		ctx.JSON(http.StatusForbidden, gin.H{"error": authErr.Error()})
	case errors.As(err, &notFoundErr):
		ctx.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	default:
		h.logger.Error("sales request failed", zap.String("path", ctx.FullPath()), zap.Error(err))
		_ = ctx.Error(err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// decodeItems keeps numbers as json.Number so prices are read from their
// exact decimal text.
func decodeItems(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
