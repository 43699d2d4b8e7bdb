// file: cmd/diagnostics_test.go
// version: 2.0.0
// guid: 3b1d9e44-6a2f-4c07-8e5d-1f9a7b3c5d20

package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jdfalk/mbseries/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStale(t *testing.T, env *testEnv) (*models.Album, *models.Album) {
	t.Helper()
	present := filepath.Join(env.library, "Artist", "Album", "01 Song.mp3")
	writeAudio(t, env.library, filepath.Join("Artist", "Album", "01 Song.mp3"))

	albums := env.seed(t,
		&models.Album{Album: "Album", AlbumArtist: "Artist", Items: []models.Item{{Title: "Song", Path: present}}},
		&models.Album{Album: "Gone", AlbumArtist: "Artist", Items: []models.Item{{Title: "Lost", Path: filepath.Join(env.dir, "missing.mp3")}}},
	)
	return albums[0], albums[1]
}

func TestDiagnosticsInfo(t *testing.T) {
	env := newTestEnv(t, "")
	seedColtrane(t, env)

	stdout, _, err := env.run(t, "diagnostics", "info")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Database: "+env.db+" (pebble)")
	assert.Contains(t, stdout, "Schema version: 3")
	assert.Contains(t, stdout, "Albums: 2")
}

func TestCleanupMissingDryRun(t *testing.T) {
	env := newTestEnv(t, "")
	_, gone := seedStale(t, env)

	stdout, _, err := env.run(t, "diagnostics", "cleanup-missing", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Found 1 albums without files")
	assert.Contains(t, stdout, gone.ID)
	assert.Contains(t, stdout, "Dry run enabled")
	assert.Equal(t, 2, env.count(t))
}

func TestCleanupMissingConfirm(t *testing.T) {
	env := newTestEnv(t, "")
	seedStale(t, env)

	stdout, _, err := env.runWithInput(t, "no\n", "diagnostics", "cleanup-missing")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Aborted. No records deleted.")
	assert.Equal(t, 2, env.count(t))

	stdout, _, err = env.runWithInput(t, "yes\n", "diagnostics", "cleanup-missing")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Deleted 1 stale records")
	assert.Equal(t, 1, env.count(t))
}

func TestCleanupMissingForce(t *testing.T) {
	env := newTestEnv(t, "")
	kept, _ := seedStale(t, env)

	_, _, err := env.run(t, "diagnostics", "cleanup-missing", "--yes")
	require.NoError(t, err)
	assert.Equal(t, 1, env.count(t))
	assert.Equal(t, "Album", env.album(t, kept.ID).Album)

	stdout, _, err := env.run(t, "diagnostics", "cleanup-missing", "--yes")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No stale album records detected.")
}

func TestDiagnosticsQuery(t *testing.T) {
	env := newTestEnv(t, "")

	stdout, _, err := env.run(t, "diagnostics", "query")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No albums found.")

	blue := &models.Album{Album: "Blue Train", AlbumArtist: "John Coltrane", MBAlbumID: blueTrainID}
	blue.Set("volume", "2")
	env.seed(t, blue)

	stdout, _, err = env.run(t, "diagnostics", "query")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Album: John Coltrane - Blue Train")
	assert.Contains(t, stdout, "Release: "+blueTrainID)
	assert.Contains(t, stdout, "volume: 2")
}

func TestDiagnosticsQueryLimit(t *testing.T) {
	env := newTestEnv(t, "")
	_, _, err := env.run(t, "diagnostics", "query", "--limit", "0")
	assert.EqualError(t, err, "limit must be positive")
}

func TestDiagnosticsQueryRaw(t *testing.T) {
	env := newTestEnv(t, "")
	seedColtrane(t, env)

	stdout, _, err := env.run(t, "diagnostics", "query", "--raw", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Key: album:")
	assert.Equal(t, 1, strings.Count(stdout, "---"))

	stdout, _, err = env.run(t, "diagnostics", "query", "--raw", "--prefix", "nothing:")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No keys matched the requested prefix.")
}

func TestPromptYesNo(t *testing.T) {
	var out bytes.Buffer
	ok, err := promptYesNo(strings.NewReader(" YES \n"), &out, "Delete 2 records")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Delete 2 records? Type 'yes' to confirm: ", out.String())

	ok, err = promptYesNo(strings.NewReader(""), &out, "Delete")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", truncateString("abc", 5))
	assert.Equal(t, "ab...", truncateString("abcdef", 2))
}
