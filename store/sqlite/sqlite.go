/*
Package sqlite provides a SQLite-backed implementation of the document
store the ledger engine persists into.

PURPOSE:
  The engine sees persistence as an opaque key-value document store:
  whole JSON documents at hierarchical paths. This package implements
  that contract over a single SQLite table. In production the same
  patterns apply to any realtime document database - the engine never
  notices the difference.

KEY LAYOUT:
  clients/{clientID}                    Client record document
  clients/{clientID}/invoices/{id}      One invoice document

  Client records are loaded and replaced whole; invoices are listed by
  path prefix under the client's invoice sub-path.

FIELD-PATH REMOVAL:
  Bulk-clear actions (e.g. clearing every reminder date) remove dotted
  field paths from the stored document without a full save cycle. SQLite
  has no sub-document update for JSON TEXT, so this is implemented as
  load-modify-store under the write lock.

CONCURRENCY:
  sync.RWMutex for thread-safety, WAL mode for better read concurrency.
  No cross-process locking: last writer wins, which matches the
  engine's accepted single-operator model.

USAGE:
  store, err := sqlite.New("./data/care.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - ledger/store.go: RecordStore contract
  - invoice/invoice.go: Store contract
  - ledger/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/care-ledger/invoice"
	"github.com/warp/care-ledger/ledger"
)

// Store implements ledger.RecordStore and invoice.Store over SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Opaque document store: whole JSON bodies at hierarchical paths
	CREATE TABLE IF NOT EXISTS documents (
		path       TEXT PRIMARY KEY,
		body       TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD STORE - Client record documents
// =============================================================================

func recordPath(id string) string { return "clients/" + id }

func (s *Store) LoadRecord(ctx context.Context, id string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadDoc(ctx, recordPath(id))
}

func (s *Store) SaveRecord(ctx context.Context, id string, doc map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putDoc(ctx, recordPath(id), doc)
}

func (s *Store) RemoveFieldPaths(ctx context.Context, id string, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadDoc(ctx, recordPath(id))
	if err != nil {
		return err
	}
	ledger.RemoveDocPaths(doc, paths)
	return s.putDoc(ctx, recordPath(id), doc)
}

// =============================================================================
// INVOICE STORE - Documents under the client's invoice sub-path
// =============================================================================

func invoicePath(clientID, id string) string {
	return "clients/" + clientID + "/invoices/" + id
}

func (s *Store) ListInvoices(ctx context.Context, clientID string) ([]invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM documents WHERE path LIKE ? ORDER BY path`,
		invoicePath(clientID, "%"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []invoice.Invoice
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var inv invoice.Invoice
		if err := json.Unmarshal([]byte(body), &inv); err != nil {
			return nil, fmt.Errorf("corrupt invoice document: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *Store) PutInvoice(ctx context.Context, inv invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := json.Marshal(inv)
	if err != nil {
		return err
	}
	return s.putBody(ctx, invoicePath(inv.ClientID, inv.ID), body)
}

// =============================================================================
// DOCUMENT PRIMITIVES
// =============================================================================

func (s *Store) loadDoc(ctx context.Context, path string) (map[string]any, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE path = ?`, path).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("corrupt document at %s: %w", path, err)
	}
	return doc, nil
}

func (s *Store) putDoc(ctx context.Context, path string, doc map[string]any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.putBody(ctx, path, body)
}

func (s *Store) putBody(ctx context.Context, path string, body []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (path, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		path, string(body), time.Now().UTC().Format(time.RFC3339))
	return err
}
