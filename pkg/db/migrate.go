package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/unowned-ai/readlater/pkg/logger"
)

const (
	// TargetSchemaVersion is the highest schema version this version of the code supports for the contentdb component.
	TargetSchemaVersion int64 = 1
	// ContentDBComponent is the name for the main content database component.
	ContentDBComponent = "contentdb"
)

// GetComponentSchemaVersion retrieves the schema version for a given component.
// Returns 0 if the component is not found, the versions table is uninitialized, or the table doesn't exist.
func GetComponentSchemaVersion(db *sql.DB, componentName string) (int64, error) {
	query := `SELECT version FROM readlater_versions WHERE component = ?;`
	row := db.QueryRow(query, componentName)

	var version int64
	err := row.Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		if strings.Contains(err.Error(), "no such table") && strings.Contains(err.Error(), "readlater_versions") {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan version for component '%s': %w", componentName, err)
	}
	return version, nil
}

// InitializeSchema creates the database schema (all tables for contentdb)
// and sets the specified schema version for the contentdb component.
func InitializeSchema(db *sql.DB, schemaVersionToSet int64) error {
	_, err := db.Exec(SchemaV1)
	if err != nil {
		return fmt.Errorf("failed to execute schema v1 SQL: %w", err)
	}

	insertVersionSQL := `
INSERT INTO readlater_versions (component, version) VALUES (?, ?)
ON CONFLICT(component) DO UPDATE SET version = excluded.version, created_at = unixepoch();`

	_, err = db.Exec(insertVersionSQL, ContentDBComponent, schemaVersionToSet)
	if err != nil {
		return fmt.Errorf("failed to insert/update version for component %s to %d: %w", ContentDBComponent, schemaVersionToSet, err)
	}

	return nil
}

// UpgradeDB applies necessary migrations to bring the database for the
// ContentDBComponent to the appTargetSchemaVersion.
// dbIdentifierForLog is used for logging purposes only.
func UpgradeDB(db *sql.DB, log logger.Logger, dbIdentifierForLog string, appTargetSchemaVersion int64) error {
	currentDBVersion, err := GetComponentSchemaVersion(db, ContentDBComponent)
	if err != nil {
		return err
	}

	log = log.With(
		logger.String("component", ContentDBComponent),
		logger.String("database", dbIdentifierForLog),
	)

	switch {
	case currentDBVersion == 0:
		log.Info("initializing database schema", logger.Int64("version", appTargetSchemaVersion))
		if err := InitializeSchema(db, appTargetSchemaVersion); err != nil {
			return fmt.Errorf("failed to initialize component %s in database '%s': %w", ContentDBComponent, dbIdentifierForLog, err)
		}
		return nil
	case currentDBVersion == appTargetSchemaVersion:
		log.Debug("database schema up to date", logger.Int64("version", currentDBVersion))
		return nil
	case currentDBVersion < appTargetSchemaVersion:
		return fmt.Errorf("component %s in database '%s' has schema version %d, which is older than application's target schema version %d. Automatic migration from this older version is not yet supported", ContentDBComponent, dbIdentifierForLog, currentDBVersion, appTargetSchemaVersion)
	default:
		return fmt.Errorf("component %s in database '%s' has schema version %d, which is newer than application's target schema version %d. Please upgrade the application", ContentDBComponent, dbIdentifierForLog, currentDBVersion, appTargetSchemaVersion)
	}
}
