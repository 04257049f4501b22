package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	lerrors "github.com/arkilian/partload/internal/errors"
	"github.com/arkilian/partload/internal/partition"
	"github.com/arkilian/partload/pkg/types"
)

// PartitionRecord is one registered partition of a table.
type PartitionRecord struct {
	Table        string
	Ordinal      int
	ObjectPath   string
	RegisteredAt time.Time
}

// SQLiteCatalog implements partition.Enumerator over manifest.db.
type SQLiteCatalog struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex // Serializes writers so ordinals stay dense
}

var _ partition.Enumerator = (*SQLiteCatalog)(nil)

// NewCatalog opens (creating if needed) the manifest database at dbPath.
func NewCatalog(dbPath string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	catalog := &SQLiteCatalog{db: db, dbPath: dbPath}
	if err := catalog.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("manifest: failed to initialize schema: %w", err)
	}
	return catalog, nil
}

func (c *SQLiteCatalog) initSchema() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, stmt := range AllSchemaSQL() {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// RegisterPartitions appends objectPaths to table's partition list, in order.
// Paths already registered for the table are skipped.
// Returns the number of partitions added.
func (c *SQLiteCatalog) RegisterPartitions(ctx context.Context, table string, objectPaths ...string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("manifest: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(ordinal) + 1, 0) FROM table_partitions WHERE table_name = ?", table,
	).Scan(&next); err != nil {
		return 0, fmt.Errorf("manifest: failed to read next ordinal: %w", err)
	}

	now := time.Now().Unix()
	added := 0
	for _, p := range objectPaths {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO table_partitions (table_name, ordinal, object_path, registered_at)
			 VALUES (?, ?, ?, ?)`,
			table, next, p, now)
		if err != nil {
			return 0, fmt.Errorf("manifest: failed to register %s: %w", p, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			next++
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("manifest: failed to commit: %w", err)
	}

	log.Printf("manifest: registered %d of %d partitions for table %q", added, len(objectPaths), table)
	return added, nil
}

// ListPartitions returns table's partitions ordered by ordinal.
func (c *SQLiteCatalog) ListPartitions(ctx context.Context, table string) ([]*PartitionRecord, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT ordinal, object_path, registered_at FROM table_partitions
		 WHERE table_name = ? ORDER BY ordinal ASC`, table)
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to list partitions: %w", err)
	}
	defer rows.Close()

	var records []*PartitionRecord
	for rows.Next() {
		rec := &PartitionRecord{Table: table}
		var registeredAt int64
		if err := rows.Scan(&rec.Ordinal, &rec.ObjectPath, &registeredAt); err != nil {
			return nil, fmt.Errorf("manifest: failed to scan partition: %w", err)
		}
		rec.RegisteredAt = time.Unix(registeredAt, 0)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("manifest: error iterating partitions: %w", err)
	}
	return records, nil
}

// Tables returns the names of tables with registered partitions.
func (c *SQLiteCatalog) Tables(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT DISTINCT table_name FROM table_partitions ORDER BY table_name")
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("manifest: failed to scan table name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// RemoveTable deletes every partition registered for table.
func (c *SQLiteCatalog) RemoveTable(ctx context.Context, table string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.ExecContext(ctx, "DELETE FROM table_partitions WHERE table_name = ?", table)
	if err != nil {
		return 0, fmt.Errorf("manifest: failed to remove table %q: %w", table, err)
	}
	return res.RowsAffected()
}

// Enumerate yields the registered partitions of src.Name in ordinal order.
// Ordinals in the result are renumbered densely from zero.
func (c *SQLiteCatalog) Enumerate(ctx context.Context, src types.TableSource) ([]partition.Source, error) {
	records, err := c.ListPartitions(ctx, src.Name)
	if err != nil {
		return nil, lerrors.NewStorageError(lerrors.CodeListFailed, "manifest lookup failed", err)
	}

	paths := make([]string, len(records))
	for i, r := range records {
		paths[i] = r.ObjectPath
	}
	return partition.Ordered(paths), nil
}

// Close closes the catalog database connection.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}
