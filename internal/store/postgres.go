package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/caisseresto/api/internal/model"
)

// PostgresStore persists the catalog and the order history in PostgreSQL:
// one row per menu item, one row per order plus one row per order line.
// Order header and line writes share a transaction so a failure never
// leaves a partially written order behind.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore wraps the given pool.
func NewPostgresStore(pool *pgxpool.Pool, logger zerolog.Logger) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		logger: logger.With().Str("store", "postgres").Logger(),
	}
}

// --- MenuStore ---

func (s *PostgresStore) ListMenus(ctx context.Context, category string) ([]model.MenuItem, error) {
	query := `
		SELECT id, name, price, category, image
		FROM menus
		ORDER BY category, name
	`
	args := []any{}
	if category != "" {
		query = `
			SELECT id, name, price, category, image
			FROM menus
			WHERE lower(category) = lower($1)
			ORDER BY category, name
		`
		args = append(args, category)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error().Err(err).Msg("query menus")
		return nil, fmt.Errorf("query menus: %w", err)
	}
	defer rows.Close()

	var menus []model.MenuItem
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			s.logger.Error().Err(err).Msg("scan menu row")
			return nil, fmt.Errorf("scan menu: %w", err)
		}
		menus = append(menus, m)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error().Err(err).Msg("iterate menu rows")
		return nil, fmt.Errorf("iterate menus: %w", err)
	}
	return menus, nil
}

func (s *PostgresStore) GetMenu(ctx context.Context, id int64) (model.MenuItem, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, price, category, image
		FROM menus
		WHERE id = $1
	`, id)
	m, err := scanMenu(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MenuItem{}, ErrMenuNotFound
		}
		s.logger.Error().Err(err).Int64("menu_id", id).Msg("query menu")
		return model.MenuItem{}, fmt.Errorf("query menu: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) CreateMenu(ctx context.Context, item model.MenuItem) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO menus (name, price, category, image)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, item.Name, decimalToNumeric(item.Price), item.Category, textOrNull(item.Image)).Scan(&id)
	if err != nil {
		s.logger.Error().Err(err).Str("name", item.Name).Msg("insert menu")
		return 0, fmt.Errorf("insert menu: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) UpdateMenu(ctx context.Context, item model.MenuItem) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE menus
		SET name = $1, price = $2, category = $3, image = $4
		WHERE id = $5
	`, item.Name, decimalToNumeric(item.Price), item.Category, textOrNull(item.Image), item.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("menu_id", item.ID).Msg("update menu")
		return fmt.Errorf("update menu: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMenuNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteMenu(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM menus WHERE id = $1`, id); err != nil {
		s.logger.Error().Err(err).Int64("menu_id", id).Msg("delete menu")
		return fmt.Errorf("delete menu: %w", err)
	}
	return nil
}

// --- OrderStore ---

func (s *PostgresStore) ListOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, date, total
		FROM orders
		ORDER BY id DESC
	`)
	if err != nil {
		s.logger.Error().Err(err).Msg("query orders")
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	index := make(map[int64]int)
	for rows.Next() {
		var o model.Order
		var total pgtype.Numeric
		if err := rows.Scan(&o.ID, &o.Date, &total); err != nil {
			s.logger.Error().Err(err).Msg("scan order row")
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Total = numericToDecimal(total)
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error().Err(err).Msg("iterate order rows")
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	itemRows, err := s.pool.Query(ctx, `
		SELECT order_id, menu_item_id, name, price, quantity, category
		FROM order_items
		ORDER BY id
	`)
	if err != nil {
		s.logger.Error().Err(err).Msg("query order items")
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var orderID int64
		line, err := scanLine(itemRows, &orderID)
		if err != nil {
			s.logger.Error().Err(err).Msg("scan order item row")
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, line)
		}
	}
	if err := itemRows.Err(); err != nil {
		s.logger.Error().Err(err).Msg("iterate order item rows")
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return orders, nil
}

func (s *PostgresStore) GetOrder(ctx context.Context, id int64) (model.Order, error) {
	var o model.Order
	var total pgtype.Numeric
	err := s.pool.QueryRow(ctx, `
		SELECT id, date, total
		FROM orders
		WHERE id = $1
	`, id).Scan(&o.ID, &o.Date, &total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, ErrOrderNotFound
		}
		s.logger.Error().Err(err).Int64("order_id", id).Msg("query order")
		return model.Order{}, fmt.Errorf("query order: %w", err)
	}
	o.Total = numericToDecimal(total)

	rows, err := s.pool.Query(ctx, `
		SELECT order_id, menu_item_id, name, price, quantity, category
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("query order items")
		return model.Order{}, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID int64
		line, err := scanLine(rows, &orderID)
		if err != nil {
			s.logger.Error().Err(err).Msg("scan order item row")
			return model.Order{}, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, line)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error().Err(err).Msg("iterate order item rows")
		return model.Order{}, fmt.Errorf("iterate order items: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) AppendOrder(ctx context.Context, order model.Order) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, date, total)
		VALUES ($1, $2, $3)
	`, order.ID, order.Date, decimalToNumeric(order.Total))
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("insert order")
		return fmt.Errorf("insert order: %w", err)
	}

	if err := insertLines(ctx, tx, order.ID, order.Items); err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("insert order items")
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	s.logger.Debug().Int64("order_id", order.ID).Msg("order appended")
	return nil
}

func (s *PostgresStore) ReplaceOrder(ctx context.Context, order model.Order) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET date = $1, total = $2
		WHERE id = $3
	`, order.Date, decimalToNumeric(order.Total), order.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("update order")
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	// Line items have no identity across edits: drop and reinsert.
	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("delete order items")
		return fmt.Errorf("delete order items: %w", err)
	}
	if err := insertLines(ctx, tx, order.ID, order.Items); err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("insert order items")
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteOrder(ctx context.Context, id int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Child rows before the parent.
	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("delete order items")
		return fmt.Errorf("delete order items: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("delete order")
		return fmt.Errorf("delete order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteAllOrders(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM order_items`); err != nil {
		s.logger.Error().Err(err).Msg("delete all order items")
		return fmt.Errorf("delete all order items: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM orders`); err != nil {
		s.logger.Error().Err(err).Msg("delete all orders")
		return fmt.Errorf("delete all orders: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// --- Helpers ---

func insertLines(ctx context.Context, tx pgx.Tx, orderID int64, lines []model.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	query := `
		INSERT INTO order_items (order_id, menu_item_id, name, price, quantity, category)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(query, orderID, l.ID, l.Name, decimalToNumeric(l.Price), l.Qty, l.Category)
	}
	results := tx.SendBatch(ctx, batch)
	defer results.Close()
	for range lines {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func scanMenu(row pgx.Row) (model.MenuItem, error) {
	var m model.MenuItem
	var price pgtype.Numeric
	var image pgtype.Text
	if err := row.Scan(&m.ID, &m.Name, &price, &m.Category, &image); err != nil {
		return model.MenuItem{}, err
	}
	m.Price = numericToDecimal(price)
	if image.Valid {
		m.Image = image.String
	}
	return m, nil
}

func scanLine(row pgx.Row, orderID *int64) (model.OrderLine, error) {
	var l model.OrderLine
	var price pgtype.Numeric
	var category pgtype.Text
	if err := row.Scan(orderID, &l.ID, &l.Name, &price, &l.Qty, &category); err != nil {
		return model.OrderLine{}, err
	}
	l.Price = numericToDecimal(price)
	if category.Valid {
		l.Category = category.String
	}
	return l, nil
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
