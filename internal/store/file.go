package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/caisseresto/api/internal/model"
)

const (
	menusFile   = "menus.json"
	historyFile = "history.json"
)

// FileStore persists the catalog and the order history as two JSON-array
// files under a data directory. Every mutation is a read-modify-write of
// the whole collection, so a mutex serializes access; fine for the
// single-terminal volumes this backend targets.
type FileStore struct {
	mu     sync.Mutex
	dir    string
	logger zerolog.Logger
}

// NewFileStore creates the data directory if needed and returns a store
// rooted there.
func NewFileStore(dir string, logger zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{
		dir:    dir,
		logger: logger.With().Str("store", "file").Logger(),
	}, nil
}

// readJSON loads a JSON array file into dst. A missing file is not an
// error; missing reports it so callers can seed or default.
func (s *FileStore) readJSON(name string, dst any) (missing bool, err error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return false, nil
}

// writeJSON persists v as a JSON array file via a temp file and an atomic
// rename, so a crash mid-write never leaves a truncated collection behind.
func (s *FileStore) writeJSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	tmp := filepath.Join(s.dir, name+".tmp."+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// loadMenus returns the catalog, seeding the default menus on first use.
// Caller must hold s.mu.
func (s *FileStore) loadMenus() ([]model.MenuItem, error) {
	var menus []model.MenuItem
	missing, err := s.readJSON(menusFile, &menus)
	if err != nil {
		return nil, err
	}
	if missing {
		menus = DefaultMenus()
		if err := s.writeJSON(menusFile, menus); err != nil {
			return nil, err
		}
		s.logger.Info().Int("count", len(menus)).Msg("seeded default menu catalog")
	}
	return menus, nil
}

// loadOrders returns the history; an uninitialized store is empty, never an
// error. Caller must hold s.mu.
func (s *FileStore) loadOrders() ([]model.Order, error) {
	var orders []model.Order
	if _, err := s.readJSON(historyFile, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// --- MenuStore ---

func (s *FileStore) ListMenus(_ context.Context, category string) ([]model.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	menus, err := s.loadMenus()
	if err != nil {
		s.logger.Error().Err(err).Msg("load menus")
		return nil, err
	}
	if category == "" {
		return menus, nil
	}
	filtered := make([]model.MenuItem, 0, len(menus))
	for _, m := range menus {
		if strings.EqualFold(m.Category, category) {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

func (s *FileStore) GetMenu(_ context.Context, id int64) (model.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	menus, err := s.loadMenus()
	if err != nil {
		s.logger.Error().Err(err).Msg("load menus")
		return model.MenuItem{}, err
	}
	for _, m := range menus {
		if m.ID == id {
			return m, nil
		}
	}
	return model.MenuItem{}, ErrMenuNotFound
}

func (s *FileStore) CreateMenu(_ context.Context, item model.MenuItem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	menus, err := s.loadMenus()
	if err != nil {
		s.logger.Error().Err(err).Msg("load menus")
		return 0, err
	}
	var maxID int64
	for _, m := range menus {
		if m.ID > maxID {
			maxID = m.ID
		}
	}
	item.ID = maxID + 1
	menus = append(menus, item)
	if err := s.writeJSON(menusFile, menus); err != nil {
		s.logger.Error().Err(err).Msg("persist menus")
		return 0, err
	}
	return item.ID, nil
}

func (s *FileStore) UpdateMenu(_ context.Context, item model.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	menus, err := s.loadMenus()
	if err != nil {
		s.logger.Error().Err(err).Msg("load menus")
		return err
	}
	for i := range menus {
		if menus[i].ID == item.ID {
			menus[i] = item
			if err := s.writeJSON(menusFile, menus); err != nil {
				s.logger.Error().Err(err).Msg("persist menus")
				return err
			}
			return nil
		}
	}
	return ErrMenuNotFound
}

func (s *FileStore) DeleteMenu(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	menus, err := s.loadMenus()
	if err != nil {
		s.logger.Error().Err(err).Msg("load menus")
		return err
	}
	kept := menus[:0]
	for _, m := range menus {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	if err := s.writeJSON(menusFile, kept); err != nil {
		s.logger.Error().Err(err).Msg("persist menus")
		return err
	}
	return nil
}

// --- OrderStore ---

func (s *FileStore) ListOrders(_ context.Context) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.loadOrders()
	if err != nil {
		s.logger.Error().Err(err).Msg("load history")
		return nil, err
	}
	out := make([]model.Order, len(orders))
	copy(out, orders)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *FileStore) GetOrder(_ context.Context, id int64) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.loadOrders()
	if err != nil {
		s.logger.Error().Err(err).Msg("load history")
		return model.Order{}, err
	}
	for _, o := range orders {
		if o.ID == id {
			return o, nil
		}
	}
	return model.Order{}, ErrOrderNotFound
}

func (s *FileStore) AppendOrder(_ context.Context, order model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.loadOrders()
	if err != nil {
		s.logger.Error().Err(err).Msg("load history")
		return err
	}
	orders = append(orders, order)
	if err := s.writeJSON(historyFile, orders); err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("persist history")
		return err
	}
	s.logger.Debug().Int64("order_id", order.ID).Msg("order appended")
	return nil
}

func (s *FileStore) ReplaceOrder(_ context.Context, order model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.loadOrders()
	if err != nil {
		s.logger.Error().Err(err).Msg("load history")
		return err
	}
	for i := range orders {
		if orders[i].ID == order.ID {
			orders[i] = order
			if err := s.writeJSON(historyFile, orders); err != nil {
				s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("persist history")
				return err
			}
			return nil
		}
	}
	return ErrOrderNotFound
}

func (s *FileStore) DeleteOrder(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.loadOrders()
	if err != nil {
		s.logger.Error().Err(err).Msg("load history")
		return err
	}
	kept := orders[:0]
	for _, o := range orders {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	if err := s.writeJSON(historyFile, kept); err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("persist history")
		return err
	}
	return nil
}

func (s *FileStore) DeleteAllOrders(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeJSON(historyFile, []model.Order{}); err != nil {
		s.logger.Error().Err(err).Msg("reset history")
		return err
	}
	return nil
}
