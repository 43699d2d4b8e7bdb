// file: internal/organizer/organizer.go
// version: 2.1.0
// guid: 5e6f7a8b-9c0d-1e2f-3a4b-5c6d7e8f9a0b

package organizer

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"
	"github.com/jdfalk/mbseries/internal/config"
	"github.com/jdfalk/mbseries/internal/fileops"
	"github.com/jdfalk/mbseries/internal/models"
)

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// fallbacks fill placeholders that must never produce an empty segment.
var fallbacks = map[string]string{
	models.FieldAlbumArtist: "Unknown Artist",
	models.FieldAlbum:       "Unknown Album",
}

// Organizer computes library paths for items and moves files there
type Organizer struct {
	libraryDir string
	pattern    string
	moveOpts   fileops.MoveOptions
}

// NewOrganizer creates a new organizer instance
func NewOrganizer(cfg *config.Config, logger hclog.Logger) *Organizer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	opts := fileops.DefaultMoveOptions()
	opts.PruneRoot = cfg.LibraryDir
	opts.Logger = logger.Named("organizer")
	return &Organizer{
		libraryDir: cfg.LibraryDir,
		pattern:    cfg.PathPattern,
		moveOpts:   opts,
	}
}

// LibraryDir returns the root all organized paths live under.
func (o *Organizer) LibraryDir() string {
	return o.libraryDir
}

// InLibrary reports whether every item of the album lives under the library
// directory.
func (o *Organizer) InLibrary(album *models.Album) bool {
	for _, item := range album.Items {
		if !fileops.IsWithin(item.Path, o.libraryDir) {
			return false
		}
	}
	return true
}

// Destination computes where an item belongs according to the path pattern.
func (o *Organizer) Destination(album *models.Album, item *models.Item) string {
	ext := filepath.Ext(item.Path)
	rel := sanitizePath(o.expandPattern(o.pattern, album, item))
	if rel == "" {
		rel = sanitizeFilename(strings.TrimSuffix(filepath.Base(item.Path), ext))
	}
	return filepath.Join(o.libraryDir, filepath.FromSlash(rel)+ext)
}

// MoveItems relocates every item of the album to its destination and
// updates the item paths. It stops at the first failure; items already moved
// keep their new paths.
func (o *Organizer) MoveItems(album *models.Album) (int, error) {
	moved := 0
	for i := range album.Items {
		item := &album.Items[i]
		dst := o.Destination(album, item)
		if dst == item.Path {
			continue
		}
		if err := fileops.Move(item.Path, dst, o.moveOpts); err != nil {
			return moved, fmt.Errorf("failed to move %s: %w", item.Path, err)
		}
		item.Path = dst
		moved++
	}
	return moved, nil
}

// lookup resolves a placeholder against the item first, then the album.
func lookup(field string, album *models.Album, item *models.Item) string {
	if v, ok := item.Get(field); ok {
		switch {
		case field == "track" && item.Track == 0:
			return ""
		case field == "title" && v == "":
			return strings.TrimSuffix(filepath.Base(item.Path), filepath.Ext(item.Path))
		}
		return v
	}
	if v := album.Get(field); v != "" {
		return v
	}
	return fallbacks[field]
}

// expandPattern expands a pattern with album and item fields
func (o *Organizer) expandPattern(pattern string, album *models.Album, item *models.Item) string {
	result := pattern
	for _, m := range placeholderRe.FindAllStringSubmatch(pattern, -1) {
		placeholder, field := m[0], m[1]
		value := strings.ReplaceAll(lookup(field, album, item), "/", "_")
		if value == "" {
			result = removeEmptySegment(result, placeholder)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return cleanupPattern(result)
}

// removeEmptySegment removes segments containing empty placeholders
func removeEmptySegment(pattern, placeholder string) string {
	patterns := []string{
		fmt.Sprintf(` - %s`, regexp.QuoteMeta(placeholder)),
		fmt.Sprintf(`%s - `, regexp.QuoteMeta(placeholder)),
		fmt.Sprintf(`\(%s[^)]*\)`, regexp.QuoteMeta(placeholder)),
		fmt.Sprintf(`\([^(]*%s\)`, regexp.QuoteMeta(placeholder)),
		fmt.Sprintf(`\[%s\]`, regexp.QuoteMeta(placeholder)),
	}

	result := pattern
	for _, p := range patterns {
		re := regexp.MustCompile(p)
		result = re.ReplaceAllString(result, "")
	}
	return result
}

// cleanupPattern cleans up extra spaces, dashes, and parentheses
func cleanupPattern(pattern string) string {
	re := regexp.MustCompile(`[ \t]+`)
	pattern = re.ReplaceAllString(pattern, " ")

	re = regexp.MustCompile(`\(\s*\)`)
	pattern = re.ReplaceAllString(pattern, "")

	re = regexp.MustCompile(`/+`)
	pattern = re.ReplaceAllString(pattern, "/")

	parts := strings.Split(pattern, "/")
	kept := parts[:0]
	for _, part := range parts {
		part = strings.Trim(part, " -")
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "/")
}

// sanitizePath sanitizes a path for filesystem use
func sanitizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		parts[i] = sanitizeFilename(part)
	}
	return strings.Join(parts, "/")
}

const maxNameBytes = 200

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// sanitizeFilename sanitizes a filename for filesystem use
func sanitizeFilename(name string) string {
	invalid := []string{"<", ">", ":", "\"", "|", "?", "*", "\\"}
	for _, char := range invalid {
		name = strings.ReplaceAll(name, char, "_")
	}

	re := regexp.MustCompile(`\s+`)
	name = re.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	name = strings.TrimLeft(name, ".")

	if len(name) > maxNameBytes {
		name = truncateUTF8(name, maxNameBytes)
	}

	return name
}
