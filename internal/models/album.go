// file: internal/models/album.go
// version: 2.0.0
// guid: 77f99b04-167c-4218-b935-7d9e535fc6c5

package models

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"
)

// Fixed album field names. Anything else is a flexible attribute.
const (
	FieldAlbum            = "album"
	FieldAlbumArtist      = "albumartist"
	FieldYear             = "year"
	FieldMBAlbumID        = "mb_albumid"
	FieldMBReleaseGroupID = "mb_releasegroupid"
)

var fixedFields = []string{
	FieldAlbum,
	FieldAlbumArtist,
	FieldYear,
	FieldMBAlbumID,
	FieldMBReleaseGroupID,
}

// Record is the view of a library record that metadata plugins are allowed
// to touch: read and assign fields by name.
type Record interface {
	Get(field string) string
	Set(field, value string)
}

// Album is a library record grouping the items of one release.
type Album struct {
	ID               string            `json:"id"` // ULID
	Album            string            `json:"album"`
	AlbumArtist      string            `json:"albumartist"`
	Year             int               `json:"year,omitempty"`
	MBAlbumID        string            `json:"mb_albumid,omitempty"`
	MBReleaseGroupID string            `json:"mb_releasegroupid,omitempty"`
	Attributes       map[string]string `json:"attributes,omitempty"`
	Items            []Item            `json:"items"`
	AddedAt          time.Time         `json:"added_at"`
}

// Item is a single audio file belonging to an album.
type Item struct {
	ID     string `json:"id"` // ULID
	Title  string `json:"title"`
	Artist string `json:"artist,omitempty"`
	Track  int    `json:"track,omitempty"`
	Disc   int    `json:"disc,omitempty"`
	Path   string `json:"path"`
	Format string `json:"format,omitempty"`
}

// Get returns the value of a fixed field or flexible attribute. Unknown
// fields read as empty.
func (a *Album) Get(field string) string {
	switch field {
	case FieldAlbum:
		return a.Album
	case FieldAlbumArtist:
		return a.AlbumArtist
	case FieldYear:
		if a.Year == 0 {
			return ""
		}
		return strconv.Itoa(a.Year)
	case FieldMBAlbumID:
		return a.MBAlbumID
	case FieldMBReleaseGroupID:
		return a.MBReleaseGroupID
	}
	return a.Attributes[field]
}

// Set assigns a field. A non-numeric year is stored as zero.
func (a *Album) Set(field, value string) {
	switch field {
	case FieldAlbum:
		a.Album = value
	case FieldAlbumArtist:
		a.AlbumArtist = value
	case FieldYear:
		a.Year, _ = strconv.Atoi(value)
	case FieldMBAlbumID:
		a.MBAlbumID = value
	case FieldMBReleaseGroupID:
		a.MBReleaseGroupID = value
	default:
		if a.Attributes == nil {
			a.Attributes = make(map[string]string)
		}
		a.Attributes[field] = value
	}
}

// Fields lists fixed fields followed by the album's flexible attributes in
// sorted order.
func (a *Album) Fields() []string {
	fields := slices.Clone(fixedFields)
	return append(fields, slices.Sorted(maps.Keys(a.Attributes))...)
}

// Clone returns a deep copy.
func (a *Album) Clone() *Album {
	c := *a
	c.Attributes = maps.Clone(a.Attributes)
	c.Items = slices.Clone(a.Items)
	return &c
}

func (a *Album) String() string {
	artist := a.AlbumArtist
	if artist == "" {
		artist = "Unknown Artist"
	}
	return fmt.Sprintf("%s - %s", artist, a.Album)
}

// Get returns an item-level field for path formatting.
func (i *Item) Get(field string) (string, bool) {
	switch field {
	case "title":
		return i.Title, true
	case "artist":
		return i.Artist, true
	case "track":
		return fmt.Sprintf("%02d", i.Track), true
	case "disc":
		if i.Disc == 0 {
			return "", true
		}
		return strconv.Itoa(i.Disc), true
	case "format":
		return i.Format, true
	}
	return "", false
}

// FieldChange is one field that differs between two versions of an album.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

func (c FieldChange) String() string {
	return fmt.Sprintf("%s: %q -> %q", c.Field, c.Old, c.New)
}

// Changes compares two versions of an album field by field.
func Changes(before, after *Album) []FieldChange {
	seen := make(map[string]bool)
	var changes []FieldChange
	for _, f := range append(before.Fields(), after.Fields()...) {
		if seen[f] {
			continue
		}
		seen[f] = true
		if old, cur := before.Get(f), after.Get(f); old != cur {
			changes = append(changes, FieldChange{Field: f, Old: old, New: cur})
		}
	}
	return changes
}
