// file: internal/library/library.go
// version: 1.1.0
// guid: 4a8c2e6f-1b3d-4f5a-9c7e-0d2b4f6a8c1e

// Package library is the host side of the series plugin: it selects albums
// from the record store and commits changed ones to disk and storage.
package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/jdfalk/mbseries/internal/database"
	"github.com/jdfalk/mbseries/internal/metrics"
	"github.com/jdfalk/mbseries/internal/models"
	"github.com/jdfalk/mbseries/internal/organizer"
	"github.com/jdfalk/mbseries/internal/query"
	"github.com/jdfalk/mbseries/internal/tagger"
)

// Library binds the record store to the file organizer and tag writer.
type Library struct {
	store     database.Store
	organizer *organizer.Organizer
	tagger    tagger.Writer
	logger    hclog.Logger
}

// New creates a library.
func New(store database.Store, org *organizer.Organizer, tw tagger.Writer, logger hclog.Logger) *Library {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Library{
		store:     store,
		organizer: org,
		tagger:    tw,
		logger:    logger.Named("library"),
	}
}

// Albums returns the albums matching the query terms, sorted.
func (l *Library) Albums(ctx context.Context, terms []string) ([]*models.Album, error) {
	q, err := query.Parse(terms)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all, err := l.store.GetAllAlbums()
	if err != nil {
		return nil, fmt.Errorf("failed to load albums: %w", err)
	}
	return query.Select(all, q), nil
}

// Commit persists an album. In pretend mode nothing is touched. Otherwise
// items are moved when move is set and the album already lives in the
// library, tags are written when write is set, and the record is always
// stored. Moved item paths are stored as soon as the files move, even when
// a later item or the tag write fails. Earlier steps are not undone.
func (l *Library) Commit(ctx context.Context, album *models.Album, move, pretend, write bool) error {
	metrics.IncCommit(pretend)
	if pretend {
		l.logger.Debug("pretend, not committing", "album", album.String())
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if move && l.organizer.InLibrary(album) {
		moved, err := l.organizer.MoveItems(album)
		if moved > 0 {
			l.logger.Debug("moved items", "album", album.String(), "count", moved)
			// Files are at their new paths now, whatever happens next.
			if serr := l.save(album); serr != nil {
				return errors.Join(err, serr)
			}
		}
		if err != nil {
			return err
		}
	}

	if write {
		if err := l.tagger.WriteAlbum(album); err != nil {
			return err
		}
	}

	return l.save(album)
}

func (l *Library) save(album *models.Album) error {
	if _, err := l.store.UpdateAlbum(album.ID, album); err != nil {
		return fmt.Errorf("failed to store album %s: %w", album.ID, err)
	}
	return nil
}
