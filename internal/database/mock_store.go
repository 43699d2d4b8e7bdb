// file: internal/database/mock_store.go
// version: 2.0.0
// guid: b2c3d4e5-f6a7-8b9c-0d1e-2f3a4b5c6d7e

package database

import "github.com/jdfalk/mbseries/internal/models"

// MockStore is a simple mock implementation for testing services. Methods
// without a configured func return zero values.
type MockStore struct {
	CloseFunc              func() error
	GetAllAlbumsFunc       func() ([]models.Album, error)
	GetAlbumByIDFunc       func(id string) (*models.Album, error)
	GetAlbumByItemPathFunc func(path string) (*models.Album, error)
	CreateAlbumFunc        func(album *models.Album) (*models.Album, error)
	UpdateAlbumFunc        func(id string, album *models.Album) (*models.Album, error)
	DeleteAlbumFunc        func(id string) error
	CountAlbumsFunc        func() (int, error)
	GetSettingFunc         func(key string) (string, bool, error)
	SetSettingFunc         func(key, value string) error
}

func (m *MockStore) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *MockStore) GetAllAlbums() ([]models.Album, error) {
	if m.GetAllAlbumsFunc != nil {
		return m.GetAllAlbumsFunc()
	}
	return nil, nil
}

func (m *MockStore) GetAlbumByID(id string) (*models.Album, error) {
	if m.GetAlbumByIDFunc != nil {
		return m.GetAlbumByIDFunc(id)
	}
	return nil, nil
}

func (m *MockStore) GetAlbumByItemPath(path string) (*models.Album, error) {
	if m.GetAlbumByItemPathFunc != nil {
		return m.GetAlbumByItemPathFunc(path)
	}
	return nil, nil
}

func (m *MockStore) CreateAlbum(album *models.Album) (*models.Album, error) {
	if m.CreateAlbumFunc != nil {
		return m.CreateAlbumFunc(album)
	}
	return album, nil
}

func (m *MockStore) UpdateAlbum(id string, album *models.Album) (*models.Album, error) {
	if m.UpdateAlbumFunc != nil {
		return m.UpdateAlbumFunc(id, album)
	}
	return album, nil
}

func (m *MockStore) DeleteAlbum(id string) error {
	if m.DeleteAlbumFunc != nil {
		return m.DeleteAlbumFunc(id)
	}
	return nil
}

func (m *MockStore) CountAlbums() (int, error) {
	if m.CountAlbumsFunc != nil {
		return m.CountAlbumsFunc()
	}
	return 0, nil
}

func (m *MockStore) GetSetting(key string) (string, bool, error) {
	if m.GetSettingFunc != nil {
		return m.GetSettingFunc(key)
	}
	return "", false, nil
}

func (m *MockStore) SetSetting(key, value string) error {
	if m.SetSettingFunc != nil {
		return m.SetSettingFunc(key, value)
	}
	return nil
}

var _ Store = (*MockStore)(nil)
