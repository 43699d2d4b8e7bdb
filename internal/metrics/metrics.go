// file: internal/metrics/metrics.go
// version: 2.0.0
// guid: 9f8e7d6c-5b4a-3210-9fed-cba876543210

package metrics

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Album outcomes recorded by the series command.
const (
	OutcomeMatched        = "matched"
	OutcomeChanged        = "changed"
	OutcomeSkippedInvalid = "skipped_invalid"
	OutcomeUnmatched      = "unmatched"
)

var (
	registerOnce sync.Once

	// Registry holds the tool's metrics; it is separate from the default
	// registry so the textfile output contains only these series.
	Registry = prometheus.NewRegistry()

	seriesFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mbseries",
		Name:      "series_fetches_total",
		Help:      "Total number of MusicBrainz series lookups by result",
	}, []string{"result"})
	albums = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mbseries",
		Name:      "albums_total",
		Help:      "Albums seen by the series command by outcome",
	}, []string{"outcome"})
	commits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mbseries",
		Name:      "commits_total",
		Help:      "Album commits by pretend mode",
	}, []string{"pretend"})
	imported = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mbseries",
		Name:      "imported_albums_total",
		Help:      "Albums added to the library by import",
	})
	commandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mbseries",
		Name:      "command_duration_seconds",
		Help:      "Histogram of command durations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.05, 1.6, 10),
	}, []string{"command"})
)

// Register adds the metrics to Registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		Registry.MustRegister(seriesFetches, albums, commits, imported, commandDuration)
	})
}

func IncSeriesFetch(result string) { seriesFetches.WithLabelValues(result).Inc() }
func IncAlbums(outcome string)     { albums.WithLabelValues(outcome).Inc() }
func IncCommit(pretend bool)       { commits.WithLabelValues(strconv.FormatBool(pretend)).Inc() }
func AddImported(n int)            { imported.Add(float64(n)) }
func ObserveCommandDuration(command string, d time.Duration) {
	commandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// WriteTextfile writes the registry in the node exporter textfile format.
func WriteTextfile(path string) error {
	Register()
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
