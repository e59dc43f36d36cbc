package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

type indexSpec struct {
	table   string
	name    string
	columns string
}

func performanceIndexes() []indexSpec {
	return []indexSpec{
		// Location tree lookups
		{"locations", "idx_locations_workspace_parent", "workspace_id, parent_id"},
		{"locations", "idx_locations_path", "workspace_id, path"},

		// Box filtering
		{"boxes", "idx_boxes_workspace_id", "workspace_id"},
		{"boxes", "idx_boxes_location_id", "location_id"},
		{"boxes", "idx_boxes_created_at", "created_at"},

		// QR code lifecycle scans
		{"qr_codes", "idx_qr_codes_workspace_status", "workspace_id, status"},

		// Workspace members
		{"workspace_members", "idx_workspace_members_workspace_id", "workspace_id"},
		{"workspace_members", "idx_workspace_members_user_id", "user_id"},
	}
}

// The storage-level guarantee behind the application-level sibling check: two
// concurrent creates of the same sanitized name under one parent cannot both
// commit. Scoped to live rows so soft-deleted locations free up the segment.
const siblingSegmentIndex = `CREATE UNIQUE INDEX %s ux_locations_sibling_segment
	ON locations (workspace_id, COALESCE(parent_id, 0), segment)
	WHERE deleted_at IS NULL`

// AddIndexes adds performance-critical indexes to the database. Index
// presence checks and partial-index support differ per dialect, so each
// supported driver gets its own pass.
func AddIndexes(db *gorm.DB) error {
	switch db.Dialector.Name() {
	case "postgres":
		return addPostgresIndexes(db)
	case "sqlite":
		return addSqliteIndexes(db)
	case "mysql":
		return addMysqlIndexes(db)
	default:
		return fmt.Errorf("unsupported dialect %q", db.Dialector.Name())
	}
}

func addPostgresIndexes(db *gorm.DB) error {
	for _, idx := range performanceIndexes() {
		exists, err := postgresIndexExists(db, idx.table, idx.name)
		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}
		if exists {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	exists, err := postgresIndexExists(db, "locations", "ux_locations_sibling_segment")
	if err != nil {
		return fmt.Errorf("failed to check index ux_locations_sibling_segment: %w", err)
	}
	if !exists {
		if err := db.Exec(fmt.Sprintf(siblingSegmentIndex, "")).Error; err != nil {
			return fmt.Errorf("failed to create index ux_locations_sibling_segment: %w", err)
		}
	}

	return nil
}

func addSqliteIndexes(db *gorm.DB) error {
	for _, idx := range performanceIndexes() {
		sql := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	if err := db.Exec(fmt.Sprintf(siblingSegmentIndex, "IF NOT EXISTS")).Error; err != nil {
		return fmt.Errorf("failed to create index ux_locations_sibling_segment: %w", err)
	}

	return nil
}

func addMysqlIndexes(db *gorm.DB) error {
	for _, idx := range performanceIndexes() {
		exists, err := mysqlIndexExists(db, idx.table, idx.name)
		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}
		if exists {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	// MySQL has no partial indexes, so the live-rows sibling-segment unique
	// index cannot be expressed; the application-level sibling check is the
	// only guard on this dialect.
	log.Println("mysql: skipping ux_locations_sibling_segment (partial indexes unsupported)")

	return nil
}

func postgresIndexExists(db *gorm.DB, table, name string) (bool, error) {
	var count int64
	err := db.Raw(`
		SELECT COUNT(*)
		FROM pg_indexes
		WHERE tablename = ? AND indexname = ?
	`, table, name).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func mysqlIndexExists(db *gorm.DB, table, name string) (bool, error) {
	var count int64
	err := db.Raw(`
		SELECT COUNT(*)
		FROM information_schema.statistics
		WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?
	`, table, name).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MigrateDatabase runs the post-AutoMigrate steps.
func MigrateDatabase(db *gorm.DB) error {
	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}
	return nil
}
