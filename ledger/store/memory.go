// Package store provides in-memory implementations of the persistence
// interfaces, for tests and development.
package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/warp/care-ledger/invoice"
	"github.com/warp/care-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - Document store backed by maps
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	records  map[string]map[string]any
	invoices map[string][]invoice.Invoice

	// FailNext forces the next write to fail, for exercising the
	// save-retry path in tests.
	FailNext error
}

func NewMemory() *Memory {
	return &Memory{
		records:  make(map[string]map[string]any),
		invoices: make(map[string][]invoice.Invoice),
	}
}

func (m *Memory) LoadRecord(_ context.Context, id string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.records[id]
	if !ok {
		return nil, ledger.ErrRecordNotFound
	}
	return deepCopy(doc), nil
}

func (m *Memory) SaveRecord(_ context.Context, id string, doc map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(); err != nil {
		return err
	}
	m.records[id] = deepCopy(doc)
	return nil
}

func (m *Memory) RemoveFieldPaths(_ context.Context, id string, paths []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(); err != nil {
		return err
	}
	doc, ok := m.records[id]
	if !ok {
		return ledger.ErrRecordNotFound
	}
	ledger.RemoveDocPaths(doc, paths)
	return nil
}

// =============================================================================
// INVOICE PERSISTENCE
// =============================================================================

func (m *Memory) ListInvoices(_ context.Context, clientID string) ([]invoice.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]invoice.Invoice, len(m.invoices[clientID]))
	copy(out, m.invoices[clientID])
	return out, nil
}

func (m *Memory) PutInvoice(_ context.Context, inv invoice.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(); err != nil {
		return err
	}
	list := m.invoices[inv.ClientID]
	for i := range list {
		if list[i].ID == inv.ID {
			list[i] = inv
			return nil
		}
	}
	m.invoices[inv.ClientID] = append(list, inv)
	return nil
}

func (m *Memory) takeFailure() error {
	if m.FailNext != nil {
		err := m.FailNext
		m.FailNext = nil
		return err
	}
	return nil
}

// deepCopy round-trips through JSON so callers never alias stored state.
// Also keeps the memory store honest about what survives serialization.
func deepCopy(doc map[string]any) map[string]any {
	b, err := json.Marshal(doc)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return map[string]any{}
	}
	return out
}
