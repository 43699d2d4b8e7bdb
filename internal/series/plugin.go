// file: internal/series/plugin.go
// version: 1.0.0
// guid: 5e4d3c2b-1a09-4f8e-b7d6-c5b4a3928170

package series

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/jdfalk/mbseries/internal/metrics"
	"github.com/jdfalk/mbseries/internal/models"
)

// Library is the host side the plugin works against: selecting albums and
// committing changed ones.
type Library interface {
	Albums(ctx context.Context, query []string) ([]*models.Album, error)
	Commit(ctx context.Context, album *models.Album, move, pretend, write bool) error
}

// Options are the per-invocation settings of the series command.
type Options struct {
	SeriesID string
	Query    []string
	Move     bool
	Pretend  bool
	Write    bool
}

// Result counts what a run did.
type Result struct {
	Matched int
	Changed int
}

// Plugin maps MusicBrainz series membership onto library albums.
type Plugin struct {
	client CatalogClient
	fields FieldsConfig
	logger hclog.Logger
}

// NewPlugin creates a series plugin.
func NewPlugin(client CatalogClient, fields FieldsConfig, logger hclog.Logger) *Plugin {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Plugin{
		client: client,
		fields: fields,
		logger: logger.Named("series"),
	}
}

// Run fetches the series, selects albums with the query and applies the
// series fields to every member album. Preview lines for modified albums
// are written to out.
func (p *Plugin) Run(ctx context.Context, lib Library, opts Options, out io.Writer) (Result, error) {
	if opts.SeriesID == "" {
		p.logger.Info("no series id given, nothing to do")
		return Result{}, nil
	}

	s, err := p.Fetch(ctx, opts.SeriesID)
	if err != nil || s == nil {
		return Result{}, err
	}

	albums, err := lib.Albums(ctx, opts.Query)
	if err != nil {
		return Result{}, fmt.Errorf("failed to query albums: %w", err)
	}
	return p.Apply(ctx, lib, s, albums, opts, out)
}

// Fetch retrieves a series, returning nil when its type is not supported.
func (p *Plugin) Fetch(ctx context.Context, seriesID string) (*Series, error) {
	s, err := FetchSeries(ctx, p.client, seriesID)
	if err != nil {
		metrics.IncSeriesFetch("error")
		return nil, err
	}
	if s == nil {
		metrics.IncSeriesFetch("unsupported")
		p.logger.Info("series type not supported", "series", seriesID)
		return nil, nil
	}
	metrics.IncSeriesFetch("ok")
	p.logger.Debug("fetched series", "series", s.ID, "name", s.Name, "type", s.Category.Label, "members", len(s.Members))
	return s, nil
}

// Apply writes series fields to the albums of s, committing each one before
// moving to the next. The first commit error aborts the batch.
func (p *Plugin) Apply(ctx context.Context, lib Library, s *Series, albums []*models.Album, opts Options, out io.Writer) (Result, error) {
	var res Result
	for _, c := range p.SelectCandidates(s, albums) {
		res.Matched++

		before := c.Album.Clone()
		ApplyFields(c.Album, c.Entry, p.fields)
		if changes := models.Changes(before, c.Album); len(changes) > 0 {
			res.Changed++
			metrics.IncAlbums(metrics.OutcomeChanged)
			fmt.Fprintln(out, FormatChanges(c.Album, changes))
		}

		if err := lib.Commit(ctx, c.Album, opts.Move, opts.Pretend, opts.Write); err != nil {
			return res, fmt.Errorf("failed to commit %s: %w", c.Album, err)
		}
	}
	return res, nil
}

// FormatChanges renders the one-line preview for a modified album.
func FormatChanges(a *models.Album, changes []models.FieldChange) string {
	parts := make([]string, len(changes))
	for i, c := range changes {
		parts[i] = c.String()
	}
	return fmt.Sprintf("%s: %s", a, strings.Join(parts, ", "))
}
