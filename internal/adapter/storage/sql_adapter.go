package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/rl1809/voice-pos/internal/core/domain"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS catalog_items (
		sku VARCHAR(64) NOT NULL PRIMARY KEY,
		position INT NOT NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		price DOUBLE NOT NULL,
		stock INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS checkpoints (
		session_id VARCHAR(64) NOT NULL PRIMARY KEY,
		revision VARCHAR(64) NOT NULL,
		saved_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cart_lines (
		session_id VARCHAR(64) NOT NULL,
		sku VARCHAR(64) NOT NULL,
		quantity INT NOT NULL,
		PRIMARY KEY (session_id, sku)
	)`,
	`CREATE TABLE IF NOT EXISTS stock_levels (
		session_id VARCHAR(64) NOT NULL,
		sku VARCHAR(64) NOT NULL,
		stock INT NOT NULL,
		PRIMARY KEY (session_id, sku)
	)`,
}

// OpenDatabase opens and pings a mysql or sqlite database.
func OpenDatabase(ctx context.Context, driver, dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// SQLAdapter stores the catalog and checkpoints in mysql or sqlite. Only
// portable SQL is used so both drivers share the same statements.
type SQLAdapter struct {
	db *sql.DB
}

func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db}
}

func (s *SQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLAdapter) LoadCatalog(ctx context.Context) ([]domain.CatalogItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sku, name, description, price, stock
		FROM catalog_items ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var items []domain.CatalogItem
	for rows.Next() {
		var it domain.CatalogItem
		if err := rows.Scan(&it.Key, &it.Name, &it.Description, &it.Price, &it.Stock); err != nil {
			return nil, fmt.Errorf("scan catalog item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ImportCatalog replaces the stored catalog with items, keeping their order.
func (s *SQLAdapter) ImportCatalog(ctx context.Context, items []domain.CatalogItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_items`); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}
	for i, it := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO catalog_items (sku, position, name, description, price, stock)
			VALUES (?, ?, ?, ?, ?, ?)`,
			it.Key, i, it.Name, it.Description, it.Price, it.Stock,
		)
		if err != nil {
			return fmt.Errorf("insert %s: %w", it.Key, err)
		}
	}

	return tx.Commit()
}

// SaveCheckpoint rewrites the session's header, cart lines and stock levels
// in one transaction.
func (s *SQLAdapter) SaveCheckpoint(ctx context.Context, cp domain.Checkpoint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"checkpoints", "cart_lines", "stock_levels"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE session_id = ?`, cp.SessionID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO checkpoints (session_id, revision, saved_at) VALUES (?, ?, ?)`,
		cp.SessionID, cp.Revision, cp.SavedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}

	for sku, qty := range cp.Cart {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cart_lines (session_id, sku, quantity) VALUES (?, ?, ?)`,
			cp.SessionID, sku, qty,
		)
		if err != nil {
			return fmt.Errorf("insert cart line %s: %w", sku, err)
		}
	}
	for sku, stock := range cp.Stock {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO stock_levels (session_id, sku, stock) VALUES (?, ?, ?)`,
			cp.SessionID, sku, stock,
		)
		if err != nil {
			return fmt.Errorf("insert stock level %s: %w", sku, err)
		}
	}

	return tx.Commit()
}

func (s *SQLAdapter) LoadCheckpoint(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	cp := domain.Checkpoint{SessionID: sessionID}

	var savedAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT revision, saved_at FROM checkpoints WHERE session_id = ?`, sessionID,
	).Scan(&cp.Revision, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query checkpoint: %w", err)
	}
	cp.SavedAt = time.Unix(0, savedAt).UTC()

	if cp.Cart, err = s.counts(ctx, `SELECT sku, quantity FROM cart_lines WHERE session_id = ?`, sessionID); err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	if cp.Stock, err = s.counts(ctx, `SELECT sku, stock FROM stock_levels WHERE session_id = ?`, sessionID); err != nil {
		return nil, fmt.Errorf("query stock levels: %w", err)
	}
	return &cp, nil
}

func (s *SQLAdapter) counts(ctx context.Context, query, sessionID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			sku string
			n   int
		)
		if err := rows.Scan(&sku, &n); err != nil {
			return nil, err
		}
		out[sku] = n
	}
	return out, rows.Err()
}
