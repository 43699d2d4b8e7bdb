// file: internal/database/sqlite_store.go
// version: 2.0.0
// guid: 8b9c0d1e-2f3a-4b5c-6d7e-8f9a0b1c2d3e

package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jdfalk/mbseries/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

const albumSelectColumns = `
	id, album, albumartist, year, mb_albumid, mb_releasegroupid,
	attributes, added_at
`

// SQLiteStore implements the Store interface using SQLite3
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

// createTables creates all required tables
func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS albums (
		id TEXT PRIMARY KEY,
		album TEXT NOT NULL DEFAULT '',
		albumartist TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0,
		mb_albumid TEXT NOT NULL DEFAULT '',
		mb_releasegroupid TEXT NOT NULL DEFAULT '',
		attributes TEXT,
		added_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_albums_mb_albumid ON albums(mb_albumid);

	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		album_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		artist TEXT NOT NULL DEFAULT '',
		track INTEGER NOT NULL DEFAULT 0,
		disc INTEGER NOT NULL DEFAULT 0,
		path TEXT NOT NULL UNIQUE,
		format TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (album_id) REFERENCES albums(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_items_album ON items(album_id);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanAlbum(scanner rowScanner, album *models.Album) error {
	var attrs sql.NullString
	if err := scanner.Scan(
		&album.ID, &album.Album, &album.AlbumArtist, &album.Year,
		&album.MBAlbumID, &album.MBReleaseGroupID, &attrs, &album.AddedAt,
	); err != nil {
		return err
	}
	if attrs.Valid && attrs.String != "" {
		if err := json.Unmarshal([]byte(attrs.String), &album.Attributes); err != nil {
			return fmt.Errorf("failed to decode attributes of %s: %w", album.ID, err)
		}
	}
	return nil
}

func (s *SQLiteStore) loadItems(album *models.Album) error {
	rows, err := s.db.Query(`
		SELECT id, title, artist, track, disc, path, format
		FROM items WHERE album_id = ? ORDER BY position`, album.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	album.Items = nil
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.Title, &item.Artist, &item.Track,
			&item.Disc, &item.Path, &item.Format); err != nil {
			return err
		}
		album.Items = append(album.Items, item)
	}
	return rows.Err()
}

// Album operations

func (s *SQLiteStore) GetAllAlbums() ([]models.Album, error) {
	rows, err := s.db.Query("SELECT " + albumSelectColumns + " FROM albums ORDER BY id")
	if err != nil {
		return nil, err
	}

	var albums []models.Album
	for rows.Next() {
		var album models.Album
		if err := scanAlbum(rows, &album); err != nil {
			rows.Close()
			return nil, err
		}
		albums = append(albums, album)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range albums {
		if err := s.loadItems(&albums[i]); err != nil {
			return nil, err
		}
	}
	return albums, nil
}

func (s *SQLiteStore) GetAlbumByID(id string) (*models.Album, error) {
	var album models.Album
	row := s.db.QueryRow("SELECT "+albumSelectColumns+" FROM albums WHERE id = ?", id)
	if err := scanAlbum(row, &album); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := s.loadItems(&album); err != nil {
		return nil, err
	}
	return &album, nil
}

func (s *SQLiteStore) GetAlbumByItemPath(path string) (*models.Album, error) {
	var id string
	err := s.db.QueryRow("SELECT album_id FROM items WHERE path = ?", path).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.GetAlbumByID(id)
}

func encodeAttributes(attrs map[string]string) (sql.NullString, error) {
	if len(attrs) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func insertItems(tx *sql.Tx, album *models.Album) error {
	for pos, item := range album.Items {
		if _, err := tx.Exec(`
			INSERT INTO items (id, album_id, position, title, artist, track, disc, path, format)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, album.ID, pos, item.Title, item.Artist, item.Track,
			item.Disc, item.Path, item.Format,
		); err != nil {
			return fmt.Errorf("failed to insert item %s: %w", item.Path, err)
		}
	}
	return nil
}

func (s *SQLiteStore) CreateAlbum(album *models.Album) (*models.Album, error) {
	if err := assignIDs(album); err != nil {
		return nil, err
	}
	attrs, err := encodeAttributes(album.Attributes)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO albums (id, album, albumartist, year, mb_albumid, mb_releasegroupid, attributes, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		album.ID, album.Album, album.AlbumArtist, album.Year, album.MBAlbumID,
		album.MBReleaseGroupID, attrs, album.AddedAt,
	); err != nil {
		return nil, err
	}
	if err := insertItems(tx, album); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return album, nil
}

func (s *SQLiteStore) UpdateAlbum(id string, album *models.Album) (*models.Album, error) {
	album.ID = id
	if err := assignIDs(album); err != nil {
		return nil, err
	}
	attrs, err := encodeAttributes(album.Attributes)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE albums SET album = ?, albumartist = ?, year = ?, mb_albumid = ?,
			mb_releasegroupid = ?, attributes = ?, added_at = ?
		WHERE id = ?`,
		album.Album, album.AlbumArtist, album.Year, album.MBAlbumID,
		album.MBReleaseGroupID, attrs, album.AddedAt, id,
	)
	if err != nil {
		return nil, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAlbumNotFound, id)
	}

	if _, err := tx.Exec("DELETE FROM items WHERE album_id = ?", id); err != nil {
		return nil, err
	}
	if err := insertItems(tx, album); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return album, nil
}

func (s *SQLiteStore) DeleteAlbum(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM items WHERE album_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM albums WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) CountAlbums() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM albums").Scan(&count)
	return count, err
}

// Settings operations

func (s *SQLiteStore) GetSetting(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLiteStore) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
