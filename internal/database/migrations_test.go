// file: internal/database/migrations_test.go
// version: 2.0.0
// guid: 6f7a8b9c-0d1e-2f3a-4b5c-6d7e8f9a0b1c

package database

import (
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jdfalk/mbseries/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nowForTest = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRunMigrations(t *testing.T) {
	for name, setup := range backends {
		t.Run(name, func(t *testing.T) {
			store := setup(t)

			version, err := CurrentVersion(store)
			require.NoError(t, err)
			assert.Equal(t, 0, version)

			require.NoError(t, RunMigrations(store, hclog.NewNullLogger()))
			version, err = CurrentVersion(store)
			require.NoError(t, err)
			assert.Equal(t, migrations[len(migrations)-1].Version, version)

			_, ok, err := store.GetSetting("migration_1")
			require.NoError(t, err)
			assert.True(t, ok)

			// second run is a no-op
			require.NoError(t, RunMigrations(store, nil))
		})
	}
}

func TestMigrationBackfillsAddedAt(t *testing.T) {
	var updated []string
	store := &MockStore{
		GetAllAlbumsFunc: func() ([]models.Album, error) {
			return []models.Album{{ID: "A"}, {ID: "B", AddedAt: nowForTest}}, nil
		},
		UpdateAlbumFunc: func(id string, album *models.Album) (*models.Album, error) {
			updated = append(updated, id)
			return album, nil
		},
	}

	require.NoError(t, migration003Up(store, hclog.NewNullLogger()))
	assert.Equal(t, []string{"A"}, updated)
}

func TestRunMigrationsPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	store := &MockStore{
		GetSettingFunc: func(key string) (string, bool, error) { return "", false, boom },
	}
	err := RunMigrations(store, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	store = &MockStore{
		GetSettingFunc: func(key string) (string, bool, error) { return "{not json", true, nil },
	}
	assert.Error(t, RunMigrations(store, nil))
}
