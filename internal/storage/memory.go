// Package storage provides history persistence implementations.
package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hammamikhairi/cookassist/internal/domain"
	"github.com/hammamikhairi/cookassist/internal/logger"
)

// Compile-time interface check.
var _ domain.HistoryStore = (*MemoryHistory)(nil)

// MemoryHistory is an in-memory, bounded submission history. Safe for
// concurrent access.
type MemoryHistory struct {
	mu      sync.RWMutex
	entries []*domain.HistoryEntry // oldest first
	byID    map[string]*domain.HistoryEntry
	limit   int
	log     *logger.Logger
	now     func() time.Time
}

// NewMemoryHistory creates an empty history keeping at most limit
// entries. limit <= 0 means unbounded.
func NewMemoryHistory(limit int, log *logger.Logger) *MemoryHistory {
	return &MemoryHistory{
		byID:  make(map[string]*domain.HistoryEntry),
		limit: limit,
		log:   log,
		now:   time.Now,
	}
}

// Append stores an entry, filling in ID and CreatedAt when unset.
func (h *MemoryHistory) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = h.now()
	}
	if _, dup := h.byID[entry.ID]; dup {
		return fmt.Errorf("history entry %s already exists", entry.ID)
	}

	h.entries = append(h.entries, entry)
	h.byID[entry.ID] = entry
	for h.limit > 0 && len(h.entries) > h.limit {
		delete(h.byID, h.entries[0].ID)
		h.entries = h.entries[1:]
	}
	h.log.Debug("history append %s (failed=%v, %d entries)", entry.ID, entry.Failed, len(h.entries))
	return nil
}

// Get retrieves an entry by ID.
func (h *MemoryHistory) Get(ctx context.Context, id string) (*domain.HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	e, ok := h.byID[id]
	if !ok {
		h.log.Debug("history entry not found: %s", id)
		return nil, domain.ErrNotFound
	}
	return e, nil
}

// Recent returns up to n entries, newest first.
func (h *MemoryHistory) Recent(ctx context.Context, n int) ([]*domain.HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]*domain.HistoryEntry, 0, n)
	for i := len(h.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.entries[i])
	}
	return out, nil
}
