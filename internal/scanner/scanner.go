// file: internal/scanner/scanner.go
// version: 2.0.0
// guid: 3c4d5e6f-7a8b-9c0d-1e2f-3a4b5c6d7e8f

package scanner

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/jdfalk/mbseries/internal/database"
	"github.com/jdfalk/mbseries/internal/metadata"
	"github.com/jdfalk/mbseries/internal/metrics"
	"github.com/jdfalk/mbseries/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Options configures an import.
type Options struct {
	Extensions []string
	Workers    int
	// Progress receives the progress bar; nil disables it
	Progress io.Writer
}

// Scanner imports audio files from a directory into the record store.
type Scanner struct {
	store  database.Store
	opts   Options
	logger hclog.Logger

	extract func(path string) (metadata.Metadata, error)
}

// New creates a scanner.
func New(store database.Store, opts Options, logger hclog.Logger) *Scanner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Scanner{
		store:   store,
		opts:    opts,
		logger:  logger.Named("scanner"),
		extract: metadata.ExtractMetadata,
	}
}

type scannedFile struct {
	path string
	meta metadata.Metadata
}

// FindFiles returns the supported audio files below root in path order.
func (s *Scanner) FindFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if s.supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	slices.Sort(files)
	return files, nil
}

func (s *Scanner) supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range s.opts.Extensions {
		if ext == strings.ToLower(supported) {
			return true
		}
	}
	return false
}

// Import reads every new supported file below root, groups the files into
// albums and stores them. Files already in the library are skipped.
func (s *Scanner) Import(ctx context.Context, root string) ([]*models.Album, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	files, err := s.FindFiles(root)
	if err != nil {
		return nil, err
	}

	var fresh []string
	for _, path := range files {
		existing, err := s.store.GetAlbumByItemPath(path)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.Debug("already in library", "path", path)
			continue
		}
		fresh = append(fresh, path)
	}
	s.logger.Info("scanning files", "dir", root, "found", len(files), "new", len(fresh))

	scanned, err := s.readAll(ctx, fresh)
	if err != nil {
		return nil, err
	}

	var created []*models.Album
	for _, album := range groupAlbums(scanned) {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		a, err := s.store.CreateAlbum(album)
		if err != nil {
			return created, fmt.Errorf("failed to save album %s: %w", album, err)
		}
		s.logger.Debug("imported album", "album", a.String(), "items", len(a.Items))
		created = append(created, a)
	}
	metrics.AddImported(len(created))
	return created, nil
}

// readAll extracts metadata with a bounded worker pool. Results keep the
// order of paths.
func (s *Scanner) readAll(ctx context.Context, paths []string) ([]scannedFile, error) {
	out := make([]scannedFile, len(paths))
	var bar *progressbar.ProgressBar
	if s.opts.Progress != nil && len(paths) > 0 {
		bar = progressbar.NewOptions64(int64(len(paths)),
			progressbar.OptionSetWriter(s.opts.Progress),
			progressbar.OptionSetDescription("reading tags"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, s.opts.Workers)

	for i, path := range paths {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		default:
		}

		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			meta, err := s.extract(path)
			if err != nil {
				s.logger.Warn("could not read metadata", "path", path, "error", err)
			}
			out[idx] = scannedFile{path: path, meta: meta}

			if bar != nil {
				_ = bar.Add(1)
			}
		}(i, path)
	}
	wg.Wait()

	if bar != nil {
		_ = bar.Finish()
	}
	return out, nil
}

// groupAlbums builds albums from scanned files. Files sharing a MusicBrainz
// release id form one album; untagged files are grouped by album artist and
// album title. Albums keep the order of their first file; items are sorted
// by disc and track.
func groupAlbums(files []scannedFile) []*models.Album {
	var albums []*models.Album
	index := make(map[string]*models.Album)

	for _, f := range files {
		m := f.meta
		key := "mbid:" + m.MBAlbumID
		if m.MBAlbumID == "" {
			key = "name:" + strings.ToLower(m.AlbumArtist) + "\x00" + strings.ToLower(m.Album)
		}

		album, ok := index[key]
		if !ok {
			album = &models.Album{
				Album:            m.Album,
				AlbumArtist:      m.AlbumArtist,
				Year:             m.Year,
				MBAlbumID:        m.MBAlbumID,
				MBReleaseGroupID: m.MBReleaseGroupID,
			}
			index[key] = album
			albums = append(albums, album)
		}
		if album.Year == 0 {
			album.Year = m.Year
		}
		if album.MBReleaseGroupID == "" {
			album.MBReleaseGroupID = m.MBReleaseGroupID
		}

		album.Items = append(album.Items, models.Item{
			Title:  m.Title,
			Artist: m.Artist,
			Track:  m.Track,
			Disc:   m.Disc,
			Path:   f.path,
			Format: m.Format,
		})
	}

	for _, album := range albums {
		slices.SortStableFunc(album.Items, func(a, b models.Item) int {
			if a.Disc != b.Disc {
				return a.Disc - b.Disc
			}
			return a.Track - b.Track
		})
	}
	return albums
}
