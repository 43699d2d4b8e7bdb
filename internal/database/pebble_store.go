// file: internal/database/pebble_store.go
// version: 2.0.1
// guid: 0c1d2e3f-4a5b-6c7d-8e9f-0a1b2c3d4e5f

package database

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble/v2"
	"github.com/jdfalk/mbseries/internal/models"
)

// PebbleStore implements the Store interface using PebbleDB (LSM key-value store)
//
// Key Schema:
// - album:<id>                 -> Album JSON (items embedded)
// - idx:item:path:<path>       -> album_id (for import lookups)
// - setting:<key>              -> raw value
type PebbleStore struct {
	db *pebble.DB
}

const (
	albumPrefix    = "album:"
	itemPathPrefix = "idx:item:path:"
	settingPrefix  = "setting:"
)

// NewPebbleStore creates a new PebbleDB store
func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open PebbleDB: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

// Close closes the database
func (p *PebbleStore) Close() error {
	return p.db.Close()
}

func albumKey(id string) []byte {
	return []byte(albumPrefix + id)
}

func itemPathKey(path string) []byte {
	return []byte(itemPathPrefix + path)
}

// get returns a copy of the value at key, or nil when missing.
func (p *PebbleStore) get(key []byte) ([]byte, error) {
	value, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), value...), nil
}

// Album operations

func (p *PebbleStore) GetAllAlbums() ([]models.Album, error) {
	var albums []models.Album
	prefix := []byte(albumPrefix)
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: []byte("album;"),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		var album models.Album
		if err := json.Unmarshal(iter.Value(), &album); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", iter.Key(), err)
		}
		albums = append(albums, album)
	}
	return albums, iter.Error()
}

func (p *PebbleStore) GetAlbumByID(id string) (*models.Album, error) {
	value, err := p.get(albumKey(id))
	if err != nil || value == nil {
		return nil, err
	}

	var album models.Album
	if err := json.Unmarshal(value, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

func (p *PebbleStore) GetAlbumByItemPath(path string) (*models.Album, error) {
	id, err := p.get(itemPathKey(path))
	if err != nil || id == nil {
		return nil, err
	}
	return p.GetAlbumByID(string(id))
}

func (p *PebbleStore) CreateAlbum(album *models.Album) (*models.Album, error) {
	if err := assignIDs(album); err != nil {
		return nil, err
	}

	data, err := json.Marshal(album)
	if err != nil {
		return nil, err
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	// Main key
	if err := batch.Set(albumKey(album.ID), data, nil); err != nil {
		return nil, err
	}

	// Item path index
	for _, item := range album.Items {
		if err := batch.Set(itemPathKey(item.Path), []byte(album.ID), nil); err != nil {
			return nil, err
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return nil, err
	}
	return album, nil
}

func (p *PebbleStore) UpdateAlbum(id string, album *models.Album) (*models.Album, error) {
	// Get old album to clean up old indexes
	old, err := p.GetAlbumByID(id)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlbumNotFound, id)
	}

	album.ID = id
	if err := assignIDs(album); err != nil {
		return nil, err
	}
	data, err := json.Marshal(album)
	if err != nil {
		return nil, err
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	if err := batch.Set(albumKey(id), data, nil); err != nil {
		return nil, err
	}

	// Re-point item paths that moved
	for _, item := range old.Items {
		if err := batch.Delete(itemPathKey(item.Path), nil); err != nil {
			return nil, err
		}
	}
	for _, item := range album.Items {
		if err := batch.Set(itemPathKey(item.Path), []byte(id), nil); err != nil {
			return nil, err
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return nil, err
	}
	return album, nil
}

func (p *PebbleStore) DeleteAlbum(id string) error {
	album, err := p.GetAlbumByID(id)
	if err != nil {
		return err
	}
	if album == nil {
		return nil
	}

	batch := p.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete(albumKey(id), nil); err != nil {
		return err
	}
	for _, item := range album.Items {
		if err := batch.Delete(itemPathKey(item.Path), nil); err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

func (p *PebbleStore) CountAlbums() (int, error) {
	count := 0
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(albumPrefix),
		UpperBound: []byte("album;"),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		count++
	}
	return count, iter.Error()
}

// Settings operations

func (p *PebbleStore) GetSetting(key string) (string, bool, error) {
	value, err := p.get([]byte(settingPrefix + key))
	if err != nil || value == nil {
		return "", false, err
	}
	return string(value), true, nil
}

func (p *PebbleStore) SetSetting(key, value string) error {
	return p.db.Set([]byte(settingPrefix+key), []byte(value), pebble.Sync)
}
