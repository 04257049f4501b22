package engine

import (
	"sort"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
)

// Session is the query-engine handle tables are constructed through and
// registered in. The loader only forwards it; it never inspects it.
type Session struct {
	mu     sync.RWMutex
	tables map[string]*MemTable
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{tables: make(map[string]*MemTable)}
}

// NewMemTable constructs a table from a schema and partition-major batches.
func (s *Session) NewMemTable(schema *arrow.Schema, partitions [][]arrow.Record) (*MemTable, error) {
	return NewMemTable(schema, partitions)
}

// RegisterTable registers t under name, releasing any table it replaces.
func (s *Session) RegisterTable(name string, t *MemTable) {
	s.mu.Lock()
	prev := s.tables[name]
	s.tables[name] = t
	s.mu.Unlock()

	if prev != nil && prev != t {
		prev.Release()
	}
}

// Table returns the table registered under name.
func (s *Session) Table(name string) (*MemTable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	return t, ok
}

// TableNames returns the registered table names, sorted.
func (s *Session) TableNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for n := range s.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DeregisterTable removes and releases the table registered under name.
func (s *Session) DeregisterTable(name string) bool {
	s.mu.Lock()
	t, ok := s.tables[name]
	delete(s.tables, name)
	s.mu.Unlock()

	if ok {
		t.Release()
	}
	return ok
}

// Close releases every registered table.
func (s *Session) Close() {
	s.mu.Lock()
	tables := s.tables
	s.tables = make(map[string]*MemTable)
	s.mu.Unlock()

	for _, t := range tables {
		t.Release()
	}
}
