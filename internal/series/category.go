// file: internal/series/category.go
// version: 1.0.0
// guid: 0e6a3f6b-7f1f-4c1e-9d0c-4a5e2b8c7d11

package series

import "github.com/jdfalk/mbseries/internal/models"

// Category is a MusicBrainz series type this plugin knows how to map. It
// names the relation target type read from the catalog and the album field
// that holds the matching identifier.
type Category struct {
	Label       string
	TargetType  string
	RecordField string
}

var (
	ReleaseSeries = Category{
		Label:       "Release series",
		TargetType:  "release",
		RecordField: models.FieldMBAlbumID,
	}
	ReleaseGroupSeries = Category{
		Label:       "Release group series",
		TargetType:  "release_group",
		RecordField: models.FieldMBReleaseGroupID,
	}
)

var categories = []Category{ReleaseSeries, ReleaseGroupSeries}

// LookupCategory finds the category for a MusicBrainz series type label.
func LookupCategory(label string) (Category, bool) {
	for _, c := range categories {
		if c.Label == label {
			return c, true
		}
	}
	return Category{}, false
}

// LookupID returns the identifier of rec used to find it in a series of
// this category.
func (c Category) LookupID(rec models.Record) string {
	return rec.Get(c.RecordField)
}
