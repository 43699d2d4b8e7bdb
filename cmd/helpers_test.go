// file: cmd/helpers_test.go
// version: 1.1.0
// guid: 0e6f2b7a-41c3-4d8e-9a5b-7c1d3e5f7a9b

package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jdfalk/mbseries/internal/config"
	"github.com/jdfalk/mbseries/internal/database"
	"github.com/jdfalk/mbseries/internal/models"
	"github.com/jdfalk/mbseries/internal/tagger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const blueTrainID = "11111111-1111-1111-1111-111111111111"

const seriesS1 = `{
  "id": "S-1",
  "name": "Blue Note Classics",
  "type": "Release series",
  "relations": [
    {
      "type": "part of",
      "target-type": "release",
      "direction": "backward",
      "attributes": ["number"],
      "attribute-ids": {"number": "a59c5830-5ec7-38fe-9a21-c7ea54f6650a"},
      "attribute-values": {"number": "2"},
      "release": {"id": "11111111-1111-1111-1111-111111111111", "title": "Blue Train"}
    }
  ]
}`

type recordingWriter struct {
	written []string
}

func (w *recordingWriter) WriteAlbum(album *models.Album) error {
	w.written = append(w.written, album.ID)
	return nil
}

type testEnv struct {
	dir     string
	cfg     string
	db      string
	library string
	tags    *recordingWriter
}

// newTestEnv writes a config file pointing at a fake MusicBrainz server and
// a fresh pebble database. extra is appended to the YAML.
func newTestEnv(t *testing.T, extra string) *testEnv {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/series/S-1" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(seriesS1))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	env := &testEnv{
		dir:     dir,
		cfg:     filepath.Join(dir, "mbseries.yaml"),
		db:      filepath.Join(dir, "db", "library.pebble"),
		library: filepath.Join(dir, "Music"),
		tags:    &recordingWriter{},
	}
	require.NoError(t, os.MkdirAll(env.library, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(env.db), 0o755))

	yaml := fmt.Sprintf(`library: %s
database_path: %s
log_level: debug
musicbrainz:
  base_url: %s
  user_agent: mbseries-test/1.0
  rate_limit: 100
%s`, env.library, env.db, srv.URL, extra)
	require.NoError(t, os.WriteFile(env.cfg, []byte(yaml), 0o644))

	origWriter := newTagWriter
	origConfig := config.AppConfig
	newTagWriter = func() tagger.Writer { return env.tags }
	t.Cleanup(func() {
		newTagWriter = origWriter
		config.AppConfig = origConfig
	})
	return env
}

func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return e.runWithInput(t, "", args...)
}

func (e *testEnv) runWithInput(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()
	return e.runContext(t, context.Background(), input, args...)
}

func (e *testEnv) runContext(t *testing.T, ctx context.Context, input string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	setContext(rootCmd, ctx)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(append([]string{"--config", e.cfg}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

// seed stores albums directly, bypassing the commands.
func (e *testEnv) seed(t *testing.T, albums ...*models.Album) []*models.Album {
	t.Helper()
	store, err := database.NewPebbleStore(e.db)
	require.NoError(t, err)
	defer store.Close()

	var created []*models.Album
	for _, a := range albums {
		c, err := store.CreateAlbum(a)
		require.NoError(t, err)
		created = append(created, c)
	}
	return created
}

func (e *testEnv) album(t *testing.T, id string) *models.Album {
	t.Helper()
	store, err := database.NewPebbleStore(e.db)
	require.NoError(t, err)
	defer store.Close()

	a, err := store.GetAlbumByID(id)
	require.NoError(t, err)
	require.NotNil(t, a)
	return a
}

func (e *testEnv) count(t *testing.T) int {
	t.Helper()
	store, err := database.NewPebbleStore(e.db)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.CountAlbums()
	require.NoError(t, err)
	return n
}

// resetFlags restores every flag to its default so runs don't leak into
// each other through the package-level command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// setContext replaces the context cobra cached on every command during an
// earlier Execute.
func setContext(c *cobra.Command, ctx context.Context) {
	c.SetContext(ctx)
	for _, sub := range c.Commands() {
		setContext(sub, ctx)
	}
}

func writeAudio(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("not really audio"), 0o644))
	}
}

