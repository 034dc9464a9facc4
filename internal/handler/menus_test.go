package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caisseresto/api/internal/model"
	"github.com/caisseresto/api/internal/store"
	"github.com/caisseresto/api/internal/ws"
)

// --- Mocks ---

// mockMenuStore is a map-backed MenuStore for handler tests.
type mockMenuStore struct {
	menus  map[int64]model.MenuItem
	nextID int64
	err    error
}

func newMockMenuStore() *mockMenuStore {
	return &mockMenuStore{menus: make(map[int64]model.MenuItem), nextID: 1}
}

func (m *mockMenuStore) ListMenus(_ context.Context, category string) ([]model.MenuItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.MenuItem
	for _, item := range m.menus {
		if category != "" && !strings.EqualFold(item.Category, category) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockMenuStore) GetMenu(_ context.Context, id int64) (model.MenuItem, error) {
	if m.err != nil {
		return model.MenuItem{}, m.err
	}
	item, ok := m.menus[id]
	if !ok {
		return model.MenuItem{}, store.ErrMenuNotFound
	}
	return item, nil
}

func (m *mockMenuStore) CreateMenu(_ context.Context, item model.MenuItem) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	item.ID = m.nextID
	m.nextID++
	m.menus[item.ID] = item
	return item.ID, nil
}

func (m *mockMenuStore) UpdateMenu(_ context.Context, item model.MenuItem) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.menus[item.ID]; !ok {
		return store.ErrMenuNotFound
	}
	m.menus[item.ID] = item
	return nil
}

func (m *mockMenuStore) DeleteMenu(_ context.Context, id int64) error {
	if m.err != nil {
		return m.err
	}
	delete(m.menus, id)
	return nil
}

// --- Helpers ---

func newMenuRouter(st *mockMenuStore, n *mockNotifier) http.Handler {
	h := NewMenuHandler(st, n, zerolog.Nop())
	r := chi.NewRouter()
	r.Route("/menus", h.RegisterRoutes)
	return r
}

func seedMenu(st *mockMenuStore, name, price, category string) int64 {
	id, _ := st.CreateMenu(context.Background(), model.MenuItem{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: category,
	})
	return id
}

func doRequest(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestListMenus(t *testing.T) {
	st := newMockMenuStore()
	seedMenu(st, "Pizza Margherita", "12.50", "pizza")
	seedMenu(st, "Coca Cola", "2.50", "boisson")
	router := newMenuRouter(st, &mockNotifier{})

	rec := doRequest(t, router, http.MethodGet, "/menus", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []menuResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "Pizza Margherita", resp[0].Name)
	assert.Equal(t, "12.50", resp[0].Price)
}

func TestListMenusFiltersByCategory(t *testing.T) {
	st := newMockMenuStore()
	seedMenu(st, "Pizza Margherita", "12.50", "pizza")
	seedMenu(st, "Coca Cola", "2.50", "boisson")
	router := newMenuRouter(st, &mockNotifier{})

	rec := doRequest(t, router, http.MethodGet, "/menus?category=Boisson", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []menuResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "Coca Cola", resp[0].Name)
}

func TestGetMenu(t *testing.T) {
	st := newMockMenuStore()
	id := seedMenu(st, "Tiramisu", "6.00", "dessert")
	router := newMenuRouter(st, &mockNotifier{})

	rec := doRequest(t, router, http.MethodGet, "/menus/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp menuResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.ID)
	assert.Equal(t, "6.00", resp.Price)
	assert.Equal(t, "dessert", resp.Category)
}

func TestGetMenuNotFound(t *testing.T) {
	router := newMenuRouter(newMockMenuStore(), &mockNotifier{})

	rec := doRequest(t, router, http.MethodGet, "/menus/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetMenuInvalidID(t *testing.T) {
	router := newMenuRouter(newMockMenuStore(), &mockNotifier{})

	rec := doRequest(t, router, http.MethodGet, "/menus/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateMenu(t *testing.T) {
	st := newMockMenuStore()
	n := &mockNotifier{}
	router := newMenuRouter(st, n)

	rec := doRequest(t, router, http.MethodPost, "/menus", menuRequest{
		Name: "Panini", Price: "6.50", Category: "sandwich",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(1), resp["id"])

	require.Len(t, n.events, 1)
	assert.Equal(t, ws.EventMenusChanged, n.events[0].Type)
}

func TestCreateMenuDefaultsCategory(t *testing.T) {
	st := newMockMenuStore()
	router := newMenuRouter(st, &mockNotifier{})

	rec := doRequest(t, router, http.MethodPost, "/menus", menuRequest{
		Name: "Mystere", Price: "4.00",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "autre", st.menus[1].Category)
}

func TestCreateMenuValidation(t *testing.T) {
	router := newMenuRouter(newMockMenuStore(), &mockNotifier{})

	cases := []struct {
		name string
		req  menuRequest
	}{
		{"missing name", menuRequest{Price: "5.00"}},
		{"missing price", menuRequest{Name: "Pizza"}},
		{"bad price", menuRequest{Name: "Pizza", Price: "abc"}},
		{"negative price", menuRequest{Name: "Pizza", Price: "-1.00"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/menus", tc.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdateMenu(t *testing.T) {
	st := newMockMenuStore()
	seedMenu(st, "Pizza Margherita", "12.50", "pizza")
	n := &mockNotifier{}
	router := newMenuRouter(st, n)

	rec := doRequest(t, router, http.MethodPut, "/menus/1", menuRequest{
		Name: "Pizza Regina", Price: "13.50", Category: "pizza",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "Pizza Regina", st.menus[1].Name)
	assert.True(t, st.menus[1].Price.Equal(decimal.RequireFromString("13.50")))
	require.Len(t, n.events, 1)
}

func TestUpdateMenuNotFound(t *testing.T) {
	n := &mockNotifier{}
	router := newMenuRouter(newMockMenuStore(), n)

	rec := doRequest(t, router, http.MethodPut, "/menus/42", menuRequest{
		Name: "Pizza", Price: "10.00",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, n.events, "no refresh event on failed update")
}

func TestDeleteMenu(t *testing.T) {
	st := newMockMenuStore()
	seedMenu(st, "Pizza Margherita", "12.50", "pizza")
	n := &mockNotifier{}
	router := newMenuRouter(st, n)

	rec := doRequest(t, router, http.MethodDelete, "/menus/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, st.menus)
	require.Len(t, n.events, 1)
}

func TestDeleteMenuAbsentIDSucceeds(t *testing.T) {
	router := newMenuRouter(newMockMenuStore(), &mockNotifier{})

	rec := doRequest(t, router, http.MethodDelete, "/menus/999", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
