package admin

import (
	"context"
	"sync"

	"github.com/asaidimu/go-filterable/core/filter"
	"github.com/asaidimu/go-filterable/core/query"
	"github.com/asaidimu/go-filterable/core/schema"
	"github.com/asaidimu/go-filterable/memory"
	"github.com/asaidimu/go-filterable/sqlite"
)

// Listing is a filterable collection that can also be executed.
type Listing interface {
	filter.Collection
	Fetch(ctx context.Context, sort []query.SortConfiguration, page *query.PaginationOptions) ([]schema.Document, error)
	Count(ctx context.Context) (int, error)
}

// Backend opens the unfiltered collection behind a dashboard.
type Backend interface {
	Collection(d *Dashboard) (Listing, error)
}

// SQLiteBackend lists tables through a SQLite interactor.
type SQLiteBackend struct {
	interactor *sqlite.SQLiteInteractor
}

// NewSQLiteBackend returns a backend over interactor.
func NewSQLiteBackend(interactor *sqlite.SQLiteInteractor) *SQLiteBackend {
	return &SQLiteBackend{interactor: interactor}
}

func (b *SQLiteBackend) Collection(d *Dashboard) (Listing, error) {
	return sqlite.NewCollection(b.interactor, d.Schema), nil
}

// MemoryBackend lists rows held in memory, keyed by resource.
type MemoryBackend struct {
	mu        sync.RWMutex
	rows      map[string][]schema.Document
	processor *query.DataProcessor
}

// NewMemoryBackend returns an empty in-memory backend. A nil processor gets a
// default one.
func NewMemoryBackend(processor *query.DataProcessor) *MemoryBackend {
	if processor == nil {
		processor = query.NewDataProcessor(nil)
	}
	return &MemoryBackend{rows: make(map[string][]schema.Document), processor: processor}
}

// Load replaces the rows of resource. Resources never loaded list as empty.
func (b *MemoryBackend) Load(resource string, rows []schema.Document) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows[resource] = rows
}

func (b *MemoryBackend) Collection(d *Dashboard) (Listing, error) {
	b.mu.RLock()
	rows := b.rows[d.Resource]
	b.mu.RUnlock()
	return memory.NewCollection(d.Schema, rows, b.processor), nil
}
