/*
store.go - Persistence boundary for client records

PURPOSE:
  The engine treats persistence as an opaque document store: records go
  in and out as plain key-value documents, and the store's internals
  (SQLite here, anything realtime in production) never leak into the
  ledger logic.

CONTRACT:
  - SaveRecord replaces the whole document at its key. The ledger's save
    cycle owns merge semantics; the store does not.
  - RemoveFieldPaths serves bulk-clear actions ("clear every reminder
    date") as targeted field-path removal, without a full save.
  - Calls are fire-and-forget from the ledger's perspective: in-memory
    state updates only after a successful return.

IMPLEMENTATIONS:
  - ledger/store: In-memory, for tests and development
  - store/sqlite: Document table over SQLite

SEE ALSO:
  - session.go: The only caller of this interface in the engine
*/
package ledger

import (
	"context"
	"strconv"
	"strings"
)

// =============================================================================
// RECORD STORE - Opaque document persistence
// =============================================================================

type RecordStore interface {
	// LoadRecord returns the raw document at the client's key.
	// Returns ErrRecordNotFound when the key is absent.
	LoadRecord(ctx context.Context, id string) (map[string]any, error)

	// SaveRecord replaces the document at the client's key.
	SaveRecord(ctx context.Context, id string, doc map[string]any) error

	// RemoveFieldPaths deletes the given dotted field paths from the
	// stored document (e.g. "payments.2.reminderDate"). Missing paths
	// are ignored.
	RemoveFieldPaths(ctx context.Context, id string, paths []string) error
}

// =============================================================================
// FIELD-PATH REMOVAL - Shared by store implementations
// =============================================================================

// RemoveDocPaths deletes dotted field paths from a raw document in
// place. Numeric segments index arrays; map-shaped legacy collections
// are addressed by the same segment as a string key. Missing paths are
// ignored, matching the RecordStore contract.
func RemoveDocPaths(doc map[string]any, paths []string) {
	for _, path := range paths {
		removeDocPath(doc, strings.Split(path, "."))
	}
}

func removeDocPath(node any, segments []string) {
	if len(segments) == 0 {
		return
	}
	head, rest := segments[0], segments[1:]

	switch n := node.(type) {
	case map[string]any:
		if len(rest) == 0 {
			delete(n, head)
			return
		}
		removeDocPath(n[head], rest)
	case []any:
		i, err := strconv.Atoi(head)
		if err != nil || i < 0 || i >= len(n) {
			return
		}
		removeDocPath(n[i], rest)
	}
}

// =============================================================================
// NAME CACHE - Read-only display-name lookup
// =============================================================================

// NameCache resolves operator/client ids to display names. It is loaded
// once and never mutated, so it is safe to share across sessions.
type NameCache struct {
	names map[string]string
}

func NewNameCache(names map[string]string) *NameCache {
	copied := make(map[string]string, len(names))
	for k, v := range names {
		copied[k] = v
	}
	return &NameCache{names: copied}
}

// Name returns the display name for an id, or the id itself when unknown.
func (c *NameCache) Name(id string) string {
	if c == nil {
		return id
	}
	if n, ok := c.names[id]; ok && n != "" {
		return n
	}
	return id
}
