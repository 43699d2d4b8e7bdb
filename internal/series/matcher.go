// file: internal/series/matcher.go
// version: 1.1.0
// guid: c7a1e9d4-5b2f-4c8a-a3e6-0f9d8b7c6a51

package series

import (
	"regexp"

	"github.com/jdfalk/mbseries/internal/metrics"
	"github.com/jdfalk/mbseries/internal/models"
)

// mbidPattern matches a value that is exactly the 8-4-4-4-12 MusicBrainz
// identifier shape.
var mbidPattern = regexp.MustCompile(`^(\d|\w){8}-(\d|\w){4}-(\d|\w){4}-(\d|\w){4}-(\d|\w){12}$`)

// IsMBID reports whether id has the shape of a MusicBrainz identifier.
func IsMBID(id string) bool {
	return mbidPattern.MatchString(id)
}

// Candidate pairs an album with the series entry it matched.
type Candidate struct {
	Album *models.Album
	Entry MemberEntry
}

func (p *Plugin) isMBRelease(a *models.Album) bool {
	if a.MBAlbumID == "" {
		p.logger.Info("skipping album with no mb_albumid", "album", a.String())
		return false
	}
	if !IsMBID(a.MBAlbumID) {
		p.logger.Info("skipping album with invalid mb_albumid", "album", a.String(), "mb_albumid", a.MBAlbumID)
		return false
	}
	return true
}

// SelectCandidates returns, in input order, the albums that belong to s.
// Albums without a usable release id are logged and skipped; albums not in
// the series are skipped silently.
func (p *Plugin) SelectCandidates(s *Series, albums []*models.Album) []Candidate {
	var out []Candidate
	for _, a := range albums {
		if !p.isMBRelease(a) {
			metrics.IncAlbums(metrics.OutcomeSkippedInvalid)
			continue
		}
		entry, ok := s.Member(s.Category.LookupID(a))
		if !ok {
			metrics.IncAlbums(metrics.OutcomeUnmatched)
			continue
		}
		metrics.IncAlbums(metrics.OutcomeMatched)
		out = append(out, Candidate{Album: a, Entry: entry})
	}
	return out
}
