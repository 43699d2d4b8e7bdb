// file: internal/tagger/tagger.go
// version: 2.0.0
// guid: 3b4c5d6e-7f8a-9b0c-1d2e-3f4a5b6c7d8e

package tagger

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jdfalk/mbseries/internal/models"
	taglib "go.senan.xyz/taglib"
)

// Writer stores album metadata in the audio files of an album.
type Writer interface {
	WriteAlbum(album *models.Album) error
}

// tagNames maps album fields to their conventional tag keys. Fields not
// listed here are written under their upper-cased name.
var tagNames = map[string]string{
	models.FieldAlbum:            taglib.Album,
	models.FieldAlbumArtist:      taglib.AlbumArtist,
	models.FieldYear:             "DATE",
	models.FieldMBAlbumID:        "MUSICBRAINZ_ALBUMID",
	models.FieldMBReleaseGroupID: "MUSICBRAINZ_RELEASEGROUPID",
	"mb_seriesid":                "MUSICBRAINZ_SERIESID",
}

// TagName returns the tag key an album field is written under.
func TagName(field string) string {
	if name, ok := tagNames[field]; ok {
		return name
	}
	return strings.ToUpper(field)
}

// ItemTags builds the tag map written to one item file. Empty values are
// omitted so existing tags are never cleared.
func ItemTags(album *models.Album, item *models.Item) map[string][]string {
	tags := make(map[string][]string)
	for _, field := range album.Fields() {
		if v := album.Get(field); v != "" {
			tags[TagName(field)] = []string{v}
		}
	}
	if item.Title != "" {
		tags["TITLE"] = []string{item.Title}
	}
	if item.Artist != "" {
		tags["ARTIST"] = []string{item.Artist}
	}
	if item.Track > 0 {
		tags["TRACKNUMBER"] = []string{strconv.Itoa(item.Track)}
	}
	if item.Disc > 0 {
		tags["DISCNUMBER"] = []string{strconv.Itoa(item.Disc)}
	}
	return tags
}

// TaglibWriter writes tags with TagLib (WASM build, no cgo).
type TaglibWriter struct {
	write func(path string, tags map[string][]string) error
}

// NewTaglibWriter creates a writer backed by go.senan.xyz/taglib.
func NewTaglibWriter() *TaglibWriter {
	return &TaglibWriter{
		write: func(path string, tags map[string][]string) error {
			return taglib.WriteTags(path, tags, 0)
		},
	}
}

// WriteAlbum writes the album's fields to every item. The first failing file
// aborts the write.
func (w *TaglibWriter) WriteAlbum(album *models.Album) error {
	for i := range album.Items {
		item := &album.Items[i]
		abs, err := filepath.Abs(item.Path)
		if err != nil {
			return err
		}
		if err := w.write(abs, ItemTags(album, item)); err != nil {
			return fmt.Errorf("taglib write failed for %s: %w", item.Path, err)
		}
	}
	return nil
}
