// file: internal/metadata/musicbrainz.go
// version: 1.1.0
// guid: 5c0f1a6e-8d7b-4b7c-9a55-2f1c7d4e8b90

package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jdfalk/mbseries/internal/cache"
	"golang.org/x/time/rate"
)

const (
	defaultMusicBrainzURL = "https://musicbrainz.org/ws/2"
	defaultUserAgent      = "mbseries/1.0 ( https://github.com/jdfalk/mbseries )"
	seriesCacheTTL        = 10 * time.Minute
)

// Relation includes understood by the series endpoint.
const (
	IncReleaseRels      = "release-rels"
	IncReleaseGroupRels = "release-group-rels"
)

// ErrSeriesNotFound is returned when MusicBrainz answers 404 for a series.
var ErrSeriesNotFound = errors.New("series not found")

// MBEntity is the minimal shape of a related entity.
type MBEntity struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// MBRelation is one relationship of a series to another entity.
type MBRelation struct {
	Type            string            `json:"type"`
	TypeID          string            `json:"type-id"`
	TargetType      string            `json:"target-type"`
	Direction       string            `json:"direction"`
	OrderingKey     int               `json:"ordering-key"`
	Attributes      []string          `json:"attributes"`
	AttributeIDs    map[string]string `json:"attribute-ids"`
	AttributeValues map[string]string `json:"attribute-values"`
	Release         *MBEntity         `json:"release,omitempty"`
	ReleaseGroup    *MBEntity         `json:"release_group,omitempty"`
}

// Target returns the ID of the related entity.
func (r MBRelation) Target() string {
	switch {
	case r.Release != nil:
		return r.Release.ID
	case r.ReleaseGroup != nil:
		return r.ReleaseGroup.ID
	}
	return ""
}

// MBSeries is the MusicBrainz series lookup response.
type MBSeries struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Type      string       `json:"type"`
	TypeID    string       `json:"type-id"`
	Relations []MBRelation `json:"relations"`
}

// MusicBrainzClient fetches data from the MusicBrainz web service.
// Requests are rate limited; MusicBrainz allows one per second per client.
type MusicBrainzClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	series     *cache.Cache[string, *MBSeries]
}

// NewMusicBrainzClient creates a client for the public MusicBrainz server,
// honoring MUSICBRAINZ_BASE_URL when set.
func NewMusicBrainzClient() *MusicBrainzClient {
	baseURL := os.Getenv("MUSICBRAINZ_BASE_URL")
	if baseURL == "" {
		baseURL = defaultMusicBrainzURL
	}
	return NewMusicBrainzClientWithBaseURL(baseURL, defaultUserAgent, 1)
}

// NewMusicBrainzClientWithBaseURL creates a client with a custom base URL,
// user agent and request rate (per second).
func NewMusicBrainzClientWithBaseURL(baseURL, userAgent string, perSecond float64) *MusicBrainzClient {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if perSecond <= 0 {
		perSecond = 1
	}
	return &MusicBrainzClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		limiter:   rate.NewLimiter(rate.Limit(perSecond), 1),
		series:    cache.New[string, *MBSeries](seriesCacheTTL),
	}
}

// Name returns the display name for this metadata source.
func (c *MusicBrainzClient) Name() string {
	return "MusicBrainz"
}

// GetSeries looks up a series by MBID with the given relation includes.
// Successful lookups are reused for a few minutes without another request.
func (c *MusicBrainzClient) GetSeries(ctx context.Context, id string, includes ...string) (*MBSeries, error) {
	params := url.Values{}
	params.Set("fmt", "json")
	if len(includes) > 0 {
		params.Set("inc", strings.Join(includes, "+"))
	}
	// MusicBrainz separates includes with a literal '+'.
	query := strings.ReplaceAll(params.Encode(), "%2B", "+")
	apiURL := fmt.Sprintf("%s/series/%s?%s", c.baseURL, url.PathEscape(id), query)

	if cached, ok := c.series.Get(apiURL); ok {
		return cached, nil
	}

	var series MBSeries
	if err := c.get(ctx, apiURL, &series); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSeriesNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch series %s: %w", id, err)
	}
	c.series.Set(apiURL, &series)
	return &series, nil
}

var errNotFound = errors.New("not found")

func (c *MusicBrainzClient) get(ctx context.Context, apiURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("MusicBrainz API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
