// Package observability provides per-table load statistics.
package observability

import (
	"sort"
	"sync"
	"time"
)

// LoadStats tracks load outcomes per table.
type LoadStats struct {
	mu     sync.RWMutex
	tables map[string]*TableStats
}

// TableStats holds load statistics for one table.
type TableStats struct {
	Table     string
	Loads     int64
	Failures  int64
	LastRows  int64
	LastParts int
	LastTook  time.Duration
	LastSeen  time.Time
	Codes     map[string]int // error code → count
}

// NewLoadStats creates a new load statistics tracker.
func NewLoadStats() *LoadStats {
	return &LoadStats{tables: make(map[string]*TableStats)}
}

func (l *LoadStats) entry(table string) *TableStats {
	stats, exists := l.tables[table]
	if !exists {
		stats = &TableStats{Table: table, Codes: make(map[string]int)}
		l.tables[table] = stats
	}
	return stats
}

// RecordSuccess records a completed load of table.
func (l *LoadStats) RecordSuccess(table string, rows int64, partitions int, took time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := l.entry(table)
	stats.Loads++
	stats.LastRows = rows
	stats.LastParts = partitions
	stats.LastTook = took
	stats.LastSeen = time.Now()
}

// RecordFailure records a failed load of table with the error code it failed with.
func (l *LoadStats) RecordFailure(table, code string, took time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := l.entry(table)
	stats.Loads++
	stats.Failures++
	stats.LastTook = took
	stats.LastSeen = time.Now()
	stats.Codes[code]++
}

// Get returns a copy of table's statistics.
func (l *LoadStats) Get(table string) (TableStats, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s, ok := l.tables[table]
	if !ok {
		return TableStats{}, false
	}
	return copyStats(s), true
}

// Snapshot returns a copy of every table's statistics, sorted by table name.
func (l *LoadStats) Snapshot() []TableStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := make([]TableStats, 0, len(l.tables))
	for _, s := range l.tables {
		stats = append(stats, copyStats(s))
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Table < stats[j].Table
	})
	return stats
}

func copyStats(s *TableStats) TableStats {
	cp := *s
	cp.Codes = make(map[string]int, len(s.Codes))
	for code, n := range s.Codes {
		cp.Codes[code] = n
	}
	return cp
}
