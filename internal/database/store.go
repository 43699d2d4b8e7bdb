// file: internal/database/store.go
// version: 3.0.0
// guid: 8a9b0c1d-2e3f-4a5b-6c7d-8e9f0a1b2c3d

package database

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jdfalk/mbseries/internal/models"
	ulid "github.com/oklog/ulid/v2"
)

// ErrAlbumNotFound is returned when updating an album that does not exist.
var ErrAlbumNotFound = errors.New("album not found")

// Store defines the interface for our database operations
// This abstraction allows us to support both PebbleDB (default) and SQLite3 (opt-in)
type Store interface {
	// Lifecycle
	Close() error

	// Albums
	GetAllAlbums() ([]models.Album, error)
	GetAlbumByID(id string) (*models.Album, error)          // nil when missing
	GetAlbumByItemPath(path string) (*models.Album, error)  // nil when missing
	CreateAlbum(album *models.Album) (*models.Album, error) // Generates ULIDs if empty
	UpdateAlbum(id string, album *models.Album) (*models.Album, error)
	DeleteAlbum(id string) error
	CountAlbums() (int, error)

	// Settings
	GetSetting(key string) (string, bool, error)
	SetSetting(key, value string) error
}

// Global store instance
var GlobalStore Store

// InitializeStore initializes the database store based on configuration
func InitializeStore(dbType, path string, enableSQLite bool, logger hclog.Logger) error {
	var err error

	switch dbType {
	case "sqlite", "sqlite3":
		if !enableSQLite {
			return fmt.Errorf("SQLite3 is not enabled. To use SQLite3, you must explicitly enable it with --enable-sqlite3-i-know-the-risks or set 'enable_sqlite3_i_know_the_risks: true' in your config file. PebbleDB is the recommended database for production use")
		}
		GlobalStore, err = NewSQLiteStore(path)
		if err != nil {
			return fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
	case "pebble", "":
		// PebbleDB is the default
		GlobalStore, err = NewPebbleStore(path)
		if err != nil {
			return fmt.Errorf("failed to initialize PebbleDB store: %w", err)
		}
	default:
		return fmt.Errorf("unsupported database type: %s (supported: pebble, sqlite)", dbType)
	}

	if err := RunMigrations(GlobalStore, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// CloseStore closes the global store
func CloseStore() error {
	if GlobalStore == nil {
		return nil
	}
	err := GlobalStore.Close()
	GlobalStore = nil
	return err
}

func newULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// assignIDs fills in missing album and item ULIDs and the added timestamp.
func assignIDs(album *models.Album) error {
	if album.ID == "" {
		id, err := newULID()
		if err != nil {
			return err
		}
		album.ID = id
	}
	for i := range album.Items {
		if album.Items[i].ID != "" {
			continue
		}
		id, err := newULID()
		if err != nil {
			return err
		}
		album.Items[i].ID = id
	}
	if album.AddedAt.IsZero() {
		album.AddedAt = time.Now().UTC()
	}
	return nil
}
