package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/caisseresto/api/internal/model"
	"github.com/caisseresto/api/internal/store"
	"github.com/caisseresto/api/internal/ws"
)

// MenuStore defines the store methods needed by menu handlers.
// Satisfied by *store.FileStore and *store.PostgresStore; narrow interface
// for testability.
type MenuStore interface {
	ListMenus(ctx context.Context, category string) ([]model.MenuItem, error)
	GetMenu(ctx context.Context, id int64) (model.MenuItem, error)
	CreateMenu(ctx context.Context, item model.MenuItem) (int64, error)
	UpdateMenu(ctx context.Context, item model.MenuItem) error
	DeleteMenu(ctx context.Context, id int64) error
}

// MenuHandler handles menu catalog CRUD endpoints.
type MenuHandler struct {
	store    MenuStore
	notifier Notifier
	logger   zerolog.Logger
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore, notifier Notifier, logger zerolog.Logger) *MenuHandler {
	return &MenuHandler{
		store:    store,
		notifier: notifier,
		logger:   logger.With().Str("handler", "menus").Logger(),
	}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
// Expected to be mounted at /menus.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type menuRequest struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
	Image    string `json:"image"`
}

type menuResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
	Image    string `json:"image,omitempty"`
}

func toMenuResponse(m model.MenuItem) menuResponse {
	return menuResponse{
		ID:       m.ID,
		Name:     m.Name,
		Price:    m.Price.StringFixed(2),
		Category: m.Category,
		Image:    m.Image,
	}
}

// parseMenuRequest validates the shared create/update body and builds the
// domain item. Category defaults to "autre" when absent.
func parseMenuRequest(req menuRequest) (model.MenuItem, string) {
	if req.Name == "" {
		return model.MenuItem{}, "name is required"
	}
	if req.Price == "" {
		return model.MenuItem{}, "price is required"
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return model.MenuItem{}, "invalid price"
	}
	if price.IsNegative() {
		return model.MenuItem{}, "price must be >= 0"
	}
	category := req.Category
	if category == "" {
		category = "autre"
	}
	return model.MenuItem{
		Name:     req.Name,
		Price:    price,
		Category: category,
		Image:    req.Image,
	}, ""
}

// --- Handlers ---

// List returns the catalog, optionally filtered by ?category=.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	menus, err := h.store.ListMenus(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.logger.Error().Err(err).Msg("list menus")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]menuResponse, len(menus))
	for i, m := range menus {
		resp[i] = toMenuResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single menu item by id.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid menu ID")
		return
	}

	item, err := h.store.GetMenu(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrMenuNotFound) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		h.logger.Error().Err(err).Int64("menu_id", id).Msg("get menu")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toMenuResponse(item))
}

// Create adds a new catalog item.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, msg := parseMenuRequest(req)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	id, err := h.store.CreateMenu(r.Context(), item)
	if err != nil {
		h.logger.Error().Err(err).Str("name", item.Name).Msg("create menu")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.notifier.Broadcast(ws.Event{Type: ws.EventMenusChanged})
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "id": id})
}

// Update overwrites an existing catalog item.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid menu ID")
		return
	}

	var req menuRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, msg := parseMenuRequest(req)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	item.ID = id

	if err := h.store.UpdateMenu(r.Context(), item); err != nil {
		if errors.Is(err, store.ErrMenuNotFound) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		h.logger.Error().Err(err).Int64("menu_id", id).Msg("update menu")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.notifier.Broadcast(ws.Event{Type: ws.EventMenusChanged})
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Delete removes a catalog item. Deleting an absent id still succeeds.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid menu ID")
		return
	}

	if err := h.store.DeleteMenu(r.Context(), id); err != nil {
		h.logger.Error().Err(err).Int64("menu_id", id).Msg("delete menu")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.notifier.Broadcast(ws.Event{Type: ws.EventMenusChanged})
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
