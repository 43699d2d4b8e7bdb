// file: internal/metadata/metadata.go
// version: 2.0.1
// guid: 9d0e1f2a-3b4c-5d6e-7f8a-9b0c1d2e3f4a

package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"github.com/dhowden/tag/mbz"
)

// Metadata holds audio file metadata
type Metadata struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Year        int
	Track       int
	Disc        int
	Format      string
	// MusicBrainz identifiers written by Picard-style taggers (may be empty)
	MBAlbumID        string
	MBReleaseGroupID string
}

var leadingTrack = regexp.MustCompile(`^(\d{1,3})[\s._-]+(.+)$`)

// ExtractMetadata reads metadata from audio files
func ExtractMetadata(filePath string) (Metadata, error) {
	var metadata Metadata

	f, err := os.Open(filePath)
	if err != nil {
		return metadata, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	metadata.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), ".")

	m, err := tag.ReadFrom(f)
	if err != nil {
		// If tag library fails, try to extract info from the path
		return extractFromPath(filePath, metadata), nil
	}

	metadata.Title = strings.TrimSpace(m.Title())
	metadata.Artist = strings.TrimSpace(m.Artist())
	metadata.Album = strings.TrimSpace(m.Album())
	metadata.AlbumArtist = strings.TrimSpace(m.AlbumArtist())
	metadata.Year = m.Year()
	metadata.Track, _ = m.Track()
	metadata.Disc, _ = m.Disc()

	ids := mbz.Extract(m)
	metadata.MBAlbumID = strings.TrimSpace(ids[mbz.Album])
	metadata.MBReleaseGroupID = strings.TrimSpace(ids[mbz.ReleaseGroup])

	if metadata.AlbumArtist == "" {
		metadata.AlbumArtist = metadata.Artist
	}
	if metadata.Title == "" || metadata.Album == "" {
		fallback := extractFromPath(filePath, Metadata{})
		if metadata.Title == "" {
			metadata.Title = fallback.Title
		}
		if metadata.Album == "" {
			metadata.Album = fallback.Album
		}
		if metadata.Track == 0 {
			metadata.Track = fallback.Track
		}
	}

	return metadata, nil
}

// extractFromPath derives title, track and album from an
// "Artist/Album/NN Title.ext" layout when tags are unavailable.
func extractFromPath(filePath string, metadata Metadata) Metadata {
	name := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	if m := leadingTrack.FindStringSubmatch(name); m != nil {
		metadata.Track, _ = strconv.Atoi(m[1])
		name = m[2]
	}
	metadata.Title = strings.TrimSpace(name)

	dir := filepath.Dir(filePath)
	if album := filepath.Base(dir); album != "." && album != string(filepath.Separator) {
		metadata.Album = album
		if artist := filepath.Base(filepath.Dir(dir)); artist != "." && artist != string(filepath.Separator) && metadata.AlbumArtist == "" {
			metadata.AlbumArtist = artist
		}
	}
	return metadata
}
