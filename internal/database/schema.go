package database

import (
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the embedded schema. All statements use
// IF NOT EXISTS so running it against an existing store is safe.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema to %s: %w", db.name, err)
	}
	return nil
}
