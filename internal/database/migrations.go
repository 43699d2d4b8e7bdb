// file: internal/database/migrations.go
// version: 2.0.0
// guid: 9a8b7c6d-5e4f-3d2c-1b0a-9f8e7d6c5b4a

package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
)

// MigrationFunc represents a migration operation
type MigrationFunc func(store Store, logger hclog.Logger) error

// Migration represents a single database migration
type Migration struct {
	Version     int
	Description string
	Up          MigrationFunc
}

// MigrationRecord tracks applied migrations
type MigrationRecord struct {
	Version     int       `json:"version"`
	Description string    `json:"description"`
	AppliedAt   time.Time `json:"applied_at"`
}

// DatabaseVersion stores the current schema version
type DatabaseVersion struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

const versionKey = "db_version"

// migrations is the ordered list of all migrations
var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial album schema",
		Up:          migration001Up,
	},
	{
		Version:     2,
		Description: "Index albums by release group id",
		Up:          migration002Up,
	},
	{
		Version:     3,
		Description: "Backfill album added_at timestamps",
		Up:          migration003Up,
	},
}

// RunMigrations applies all pending migrations
func RunMigrations(store Store, logger hclog.Logger) error {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("migrations")

	currentVersion, err := getCurrentVersion(store)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	var pending []Migration
	for _, m := range migrations {
		if m.Version > currentVersion {
			pending = append(pending, m)
		}
	}

	if len(pending) == 0 {
		logger.Debug("database is up to date", "version", currentVersion)
		return nil
	}

	logger.Info("applying migrations", "from", currentVersion, "count", len(pending))
	for _, m := range pending {
		logger.Debug("applying migration", "version", m.Version, "description", m.Description)

		if err := m.Up(store, logger); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}
		if err := recordMigration(store, m); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := setVersion(store, m.Version); err != nil {
			return fmt.Errorf("failed to update version to %d: %w", m.Version, err)
		}
	}
	return nil
}

// CurrentVersion reports the schema version recorded in store.
func CurrentVersion(store Store) (int, error) {
	return getCurrentVersion(store)
}

func getCurrentVersion(store Store) (int, error) {
	value, ok, err := store.GetSetting(versionKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		// fresh database
		return 0, nil
	}

	var version DatabaseVersion
	if err := json.Unmarshal([]byte(value), &version); err != nil {
		return 0, fmt.Errorf("failed to parse version: %w", err)
	}
	return version.Version, nil
}

func setVersion(store Store, version int) error {
	data, err := json.Marshal(DatabaseVersion{Version: version, UpdatedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to marshal version: %w", err)
	}
	return store.SetSetting(versionKey, string(data))
}

func recordMigration(store Store, m Migration) error {
	data, err := json.Marshal(MigrationRecord{
		Version:     m.Version,
		Description: m.Description,
		AppliedAt:   time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal migration record: %w", err)
	}
	return store.SetSetting(fmt.Sprintf("migration_%d", m.Version), string(data))
}

// Migration implementations

// migration001Up: tables and key prefixes are created when the store opens.
func migration001Up(store Store, logger hclog.Logger) error {
	return nil
}

func migration002Up(store Store, logger hclog.Logger) error {
	sqliteStore, ok := store.(*SQLiteStore)
	if !ok {
		logger.Debug("non-SQLite store, skipping index migration")
		return nil
	}
	_, err := sqliteStore.db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_albums_mb_releasegroupid ON albums(mb_releasegroupid)")
	return err
}

func migration003Up(store Store, logger hclog.Logger) error {
	albums, err := store.GetAllAlbums()
	if err != nil {
		return err
	}
	fixed := 0
	for i := range albums {
		if !albums[i].AddedAt.IsZero() {
			continue
		}
		// UpdateAlbum stamps the current time on a zero AddedAt.
		if _, err := store.UpdateAlbum(albums[i].ID, &albums[i]); err != nil {
			return err
		}
		fixed++
	}
	if fixed > 0 {
		logger.Info("backfilled added_at", "albums", fixed)
	}
	return nil
}
