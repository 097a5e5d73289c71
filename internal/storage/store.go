// Package storage persists the router's shared state: the purchase queue,
// visit bookkeeping, authentication, and product slots. Page contexts never
// touch this directly; everything goes through router providers, which is
// what keeps concurrent tabs from racing each other on shared keys.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	_ "modernc.org/sqlite"

	"github.com/spendguard/spendguard/internal/shared/types"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// visitCap bounds the visit ring buffer; oldest entries are evicted first.
const visitCap = 100

// recentProductCap bounds the recent-product history.
const recentProductCap = 10

const schema = `
CREATE TABLE IF NOT EXISTS purchases (
	id         TEXT PRIMARY KEY,
	item_name  TEXT NOT NULL,
	price      REAL NOT NULL,
	currency   TEXT NOT NULL,
	website    TEXT NOT NULL,
	url        TEXT NOT NULL DEFAULT '',
	ts         INTEGER NOT NULL,
	status     TEXT NOT NULL,
	remote_id  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_purchases_status ON purchases(status);

CREATE TABLE IF NOT EXISTS visits (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	url       TEXT NOT NULL,
	hostname  TEXT NOT NULL,
	title     TEXT NOT NULL,
	ts        INTEGER NOT NULL,
	tab_id    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS kv (
	key    TEXT PRIMARY KEY,
	value  BLOB NOT NULL
);
`

// Store wraps a SQLite database holding all extension-scoped state.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database in dataDir and applies the schema.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "spendguard.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Single connection avoids "database is locked" under the router's
	// request interleaving.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertPurchase appends a purchase event. Durability before any network
// attempt: callers insert first, submit after.
func (s *Store) InsertPurchase(ev types.PurchaseEvent) error {
	_, err := s.db.Exec(
		`INSERT INTO purchases (id, item_name, price, currency, website, url, ts, status, remote_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.ItemName, ev.Price, ev.Currency, ev.Website, ev.URL,
		ev.Timestamp.UnixMilli(), string(ev.Status), ev.RemoteID,
	)
	if err != nil {
		return fmt.Errorf("inserting purchase: %w", err)
	}
	return nil
}

// MarkPurchaseSynced transitions a record pending→synced and attaches the
// ledger's id. A record already synced is left untouched.
func (s *Store) MarkPurchaseSynced(id, remoteID string) error {
	res, err := s.db.Exec(
		`UPDATE purchases SET status = ?, remote_id = ? WHERE id = ? AND status = ?`,
		string(types.StatusSynced), remoteID, id, string(types.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("marking purchase synced: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPurchases returns events in insertion order. An empty status lists
// everything.
func (s *Store) ListPurchases(status types.PurchaseStatus) ([]types.PurchaseEvent, error) {
	query := `SELECT id, item_name, price, currency, website, url, ts, status, remote_id
		FROM purchases ORDER BY id`
	args := []any{}
	if status != "" {
		query = `SELECT id, item_name, price, currency, website, url, ts, status, remote_id
			FROM purchases WHERE status = ? ORDER BY id`
		args = append(args, string(status))
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing purchases: %w", err)
	}
	defer rows.Close()

	var out []types.PurchaseEvent
	for rows.Next() {
		var ev types.PurchaseEvent
		var ts int64
		var st string
		if err := rows.Scan(&ev.ID, &ev.ItemName, &ev.Price, &ev.Currency,
			&ev.Website, &ev.URL, &ts, &st, &ev.RemoteID); err != nil {
			return nil, fmt.Errorf("scanning purchase: %w", err)
		}
		ev.Timestamp = time.UnixMilli(ts)
		ev.Status = types.PurchaseStatus(st)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// ClearPurchases removes every purchase record. This is the only deletion
// path; sync never prunes.
func (s *Store) ClearPurchases() error {
	_, err := s.db.Exec(`DELETE FROM purchases`)
	if err != nil {
		return fmt.Errorf("clearing purchases: %w", err)
	}
	return nil
}

// AddVisit appends to the visit ring buffer, evicting the oldest entries
// beyond the cap.
func (s *Store) AddVisit(v types.WebsiteVisit) error {
	_, err := s.db.Exec(
		`INSERT INTO visits (url, hostname, title, ts, tab_id) VALUES (?, ?, ?, ?, ?)`,
		v.URL, v.Hostname, v.Title, v.Timestamp.UnixMilli(), v.TabID,
	)
	if err != nil {
		return fmt.Errorf("inserting visit: %w", err)
	}

	_, err = s.db.Exec(
		`DELETE FROM visits WHERE seq <= (
			SELECT seq FROM visits ORDER BY seq DESC LIMIT 1 OFFSET ?
		)`, visitCap,
	)
	if err != nil {
		return fmt.Errorf("trimming visits: %w", err)
	}
	return nil
}

// Visits returns the ring buffer oldest-first.
func (s *Store) Visits() ([]types.WebsiteVisit, error) {
	rows, err := s.db.Query(`SELECT url, hostname, title, ts, tab_id FROM visits ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("listing visits: %w", err)
	}
	defer rows.Close()

	var out []types.WebsiteVisit
	for rows.Next() {
		var v types.WebsiteVisit
		var ts int64
		if err := rows.Scan(&v.URL, &v.Hostname, &v.Title, &ts, &v.TabID); err != nil {
			return nil, fmt.Errorf("scanning visit: %w", err)
		}
		v.Timestamp = time.UnixMilli(ts)
		out = append(out, v)
	}
	return out, rows.Err()
}

// SetValue stores an arbitrary value under a key, JSON-encoded.
func (s *Store) SetValue(key string, value any) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, data,
	)
	if err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

// GetValue loads a key into out. Returns ErrNotFound for absent keys.
func (s *Store) GetValue(key string, out any) error {
	var data []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("loading %s: %w", key, err)
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

// DeleteValue removes a key. Absent keys are not an error.
func (s *Store) DeleteValue(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// PushRecentProduct prepends to the bounded recent-product history and
// overwrites the last-viewed slot.
func (s *Store) PushRecentProduct(p types.ProductDescriptor) error {
	if err := s.SetValue(KeyLastProduct, p); err != nil {
		return err
	}

	var recent []types.ProductDescriptor
	if err := s.GetValue(KeyRecentProducts, &recent); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	recent = append([]types.ProductDescriptor{p}, recent...)
	if len(recent) > recentProductCap {
		recent = recent[:recentProductCap]
	}
	return s.SetValue(KeyRecentProducts, recent)
}

// Well-known kv keys.
const (
	KeyCurrentSite    = "current_site"
	KeyTabsSnapshot   = "tabs_snapshot"
	KeyAuthenticated  = "is_authenticated"
	KeyAuthSyncedAt   = "auth_synced_at"
	KeyUserProfile    = "user_profile"
	KeyLastProduct    = "last_product"
	KeyRecentProducts = "recent_products"
	KeyWebsiteTypes   = "website_types"
)
