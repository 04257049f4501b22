// Package manifest provides a SQLite catalog recording, per table, the
// ordered list of partition objects it is loaded from.
package manifest

// CreateTablePartitionsSQL creates the table_partitions table.
// Ordinals are assigned on registration and fix each table's partition order.
const CreateTablePartitionsSQL = `
CREATE TABLE IF NOT EXISTS table_partitions (
    table_name TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    object_path TEXT NOT NULL,
    registered_at INTEGER NOT NULL,
    PRIMARY KEY (table_name, ordinal),
    UNIQUE (table_name, object_path)
)`

// AllSchemaSQL returns every statement needed to initialise manifest.db.
func AllSchemaSQL() []string {
	return []string{CreateTablePartitionsSQL}
}
