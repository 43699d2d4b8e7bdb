// file: internal/series/series.go
// version: 1.0.0
// guid: 3f2d7a9c-1b4e-4e0a-8c6f-9d2b5a7e1c48

package series

import (
	"context"
	"errors"
	"fmt"

	"github.com/jdfalk/mbseries/internal/metadata"
)

// OrderAttributeID is the MusicBrainz attribute type of the "number"
// (ordering) attribute on series part-of relationships.
const OrderAttributeID = "a59c5830-5ec7-38fe-9a21-c7ea54f6650a"

// ErrNoSeriesID is returned when a fetch is attempted without an id.
var ErrNoSeriesID = errors.New("no series id given")

// MemberEntry is what an album receives when it belongs to a series.
type MemberEntry struct {
	Order      string // empty when the relation carries no number
	SeriesName string
	SeriesID   string
}

// Series is a normalized MusicBrainz series keyed by member identifier.
type Series struct {
	ID       string
	Name     string
	Category Category
	Members  map[string]MemberEntry
}

// Member looks up an identifier. Absent identifiers and zero entries are
// both reported as no match.
func (s *Series) Member(id string) (MemberEntry, bool) {
	entry, ok := s.Members[id]
	if !ok || entry == (MemberEntry{}) {
		return MemberEntry{}, false
	}
	return entry, true
}

// CatalogClient is the part of the MusicBrainz client the plugin needs.
type CatalogClient interface {
	GetSeries(ctx context.Context, id string, includes ...string) (*metadata.MBSeries, error)
}

// FetchSeries retrieves and normalizes a series. A series whose type is not
// a known category yields nil with no error.
func FetchSeries(ctx context.Context, client CatalogClient, id string) (*Series, error) {
	if id == "" {
		return nil, ErrNoSeriesID
	}
	raw, err := client.GetSeries(ctx, id, metadata.IncReleaseRels, metadata.IncReleaseGroupRels)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch series: %w", err)
	}
	return Normalize(raw), nil
}

// Normalize builds the member lookup for the relations matching the
// series' category. Later relations to the same target win.
func Normalize(raw *metadata.MBSeries) *Series {
	category, ok := LookupCategory(raw.Type)
	if !ok {
		return nil
	}

	s := &Series{
		ID:       raw.ID,
		Name:     raw.Name,
		Category: category,
		Members:  make(map[string]MemberEntry),
	}
	for _, rel := range raw.Relations {
		if rel.TargetType != category.TargetType {
			continue
		}
		target := rel.Target()
		if target == "" {
			continue
		}
		order, _ := orderAttribute(rel)
		s.Members[target] = MemberEntry{
			Order:      order,
			SeriesName: s.Name,
			SeriesID:   s.ID,
		}
	}
	return s
}

// orderAttribute returns the value of the first attribute typed as the
// series ordering number.
func orderAttribute(rel metadata.MBRelation) (string, bool) {
	for _, name := range rel.Attributes {
		if rel.AttributeIDs[name] == OrderAttributeID {
			return rel.AttributeValues[name], true
		}
	}
	return "", false
}
