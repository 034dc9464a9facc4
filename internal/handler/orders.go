package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/caisseresto/api/internal/model"
	"github.com/caisseresto/api/internal/service"
	"github.com/caisseresto/api/internal/store"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	Create(ctx context.Context, lines []model.OrderLine) (model.Order, error)
	Replace(ctx context.Context, id int64, lines []model.OrderLine) (model.Order, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
}

// OrderReader defines the read side of the history store.
// Satisfied by *store.FileStore and *store.PostgresStore.
type OrderReader interface {
	ListOrders(ctx context.Context) ([]model.Order, error)
	GetOrder(ctx context.Context, id int64) (model.Order, error)
}

// OrderHandler handles order history endpoints.
type OrderHandler struct {
	svc    OrderServicer
	store  OrderReader
	logger zerolog.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderReader, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		svc:    svc,
		store:  store,
		logger: logger.With().Str("handler", "orders").Logger(),
	}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Replace)
	r.Delete("/", h.DeleteAll)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type orderLineRequest struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Qty      int32  `json:"qty"`
	Category string `json:"category"`
}

type orderRequest struct {
	Items []orderLineRequest `json:"items"`
}

type orderLineResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Qty      int32  `json:"qty"`
	Category string `json:"category,omitempty"`
}

type orderResponse struct {
	ID    int64               `json:"id"`
	Date  string              `json:"date"`
	Items []orderLineResponse `json:"items"`
	Total string              `json:"total"`
}

// orderSummary is the list shape: line details collapse into one
// human-readable string, e.g. "Pizza x2, Coca Cola x1".
type orderSummary struct {
	ID    int64  `json:"id"`
	Date  string `json:"date"`
	Items string `json:"items"`
	Total string `json:"total"`
}

func toOrderResponse(o model.Order) orderResponse {
	items := make([]orderLineResponse, len(o.Items))
	for i, l := range o.Items {
		items[i] = orderLineResponse{
			ID:       l.ID,
			Name:     l.Name,
			Price:    l.Price.StringFixed(2),
			Qty:      l.Qty,
			Category: l.Category,
		}
	}
	return orderResponse{
		ID:    o.ID,
		Date:  o.Date,
		Items: items,
		Total: o.Total.StringFixed(2),
	}
}

func toOrderSummary(o model.Order) orderSummary {
	parts := make([]string, len(o.Items))
	for i, l := range o.Items {
		parts[i] = fmt.Sprintf("%s x%d", l.Name, l.Qty)
	}
	return orderSummary{
		ID:    o.ID,
		Date:  o.Date,
		Items: strings.Join(parts, ", "),
		Total: o.Total.StringFixed(2),
	}
}

// parseOrderRequest converts the wire payload into domain lines. Price
// strings that fail to parse reject the whole request; deeper validation
// (quantities, negative prices, empty carts) belongs to the service.
func parseOrderRequest(req orderRequest) ([]model.OrderLine, error) {
	lines := make([]model.OrderLine, len(req.Items))
	for i, item := range req.Items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: invalid price", i)
		}
		lines[i] = model.OrderLine{
			ID:       item.ID,
			Name:     item.Name,
			Price:    price,
			Qty:      item.Qty,
			Category: item.Category,
		}
	}
	return lines, nil
}

func serviceErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrNegativePrice):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, store.ErrOrderNotFound):
		return http.StatusNotFound, "order not found"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// --- Handlers ---

// List returns the history newest-first, one summary row per order.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ListOrders(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list orders")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]orderSummary, len(orders))
	for i, o := range orders {
		resp[i] = toOrderSummary(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single order with its full line detail.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error().Err(err).Int64("order_id", id).Msg("get order")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// Create commits a new order built from the posted lines.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines, err := parseOrderRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.svc.Create(r.Context(), lines)
	if err != nil {
		status, msg := serviceErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error().Err(err).Msg("create order")
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "orderId": order.ID})
}

// Replace overwrites an existing order wholesale.
func (h *OrderHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines, err := parseOrderRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.svc.Replace(r.Context(), id, lines); err != nil {
		status, msg := serviceErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error().Err(err).Int64("order_id", id).Msg("replace order")
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Delete removes an order from the history. Absent ids still succeed.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.logger.Error().Err(err).Int64("order_id", id).Msg("delete order")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// DeleteAll clears the whole history.
func (h *OrderHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteAll(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("delete all orders")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
