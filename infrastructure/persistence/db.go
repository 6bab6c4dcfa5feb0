// Package persistence provides GORM storage for the entity tables.
package persistence

import (
	"fmt"
	"strings"

	"github.com/momah-portal/embedgen/domain/entity"
	"github.com/momah-portal/embedgen/internal/database"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates one table per entity kind.
func AutoMigrate(db database.Database) error {
	gdb := db.GORM()
	for _, name := range entity.Names() {
		table := name.Table()
		if err := gdb.Table(table).AutoMigrate(&RecordModel{}); err != nil {
			return fmt.Errorf("migrate %s: %w", table, err)
		}
	}
	return postMigrate(db)
}

// postMigrate adds a partial index per table so the "missing" selection
// and its count don't scan rows that already carry an embedding. Both
// SQLite and PostgreSQL support the syntax; it is idempotent.
func postMigrate(db database.Database) error {
	gdb := db.GORM()
	for _, name := range entity.Names() {
		table := name.Table()
		stmt := fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS idx_%s_embedding_missing ON %s (id) WHERE embedding IS NULL`,
			table, table,
		)
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create missing-embedding index on %s: %w", table, err)
		}
	}
	return nil
}

// ValidateSchema verifies every RecordModel column exists in each entity
// table. Returns an error listing any missing columns.
func ValidateSchema(db database.Database) error {
	gdb := db.GORM()

	stmt := &gorm.Statement{DB: gdb}
	if err := stmt.Parse(&RecordModel{}); err != nil {
		return fmt.Errorf("parse model schema: %w", err)
	}

	var missing []string
	for _, name := range entity.Names() {
		table := name.Table()
		columnTypes, err := gdb.Migrator().ColumnTypes(table)
		if err != nil {
			return fmt.Errorf("get column types for %s: %w", table, err)
		}

		actual := make(map[string]bool, len(columnTypes))
		for _, ct := range columnTypes {
			actual[ct.Name()] = true
		}

		for _, field := range stmt.Schema.Fields {
			if field.DBName == "" || field.DBName == "-" {
				continue
			}
			if !actual[field.DBName] {
				missing = append(missing, table+"."+field.DBName)
			}
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("schema validation failed, missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
