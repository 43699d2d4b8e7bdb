// file: internal/query/query.go
// version: 1.0.0
// guid: 2f6e1d8c-3b7a-4e95-a0c4-d18b7f2e6a39

// Package query selects library albums with a small beets-like query
// language: "field:value" substring terms, "field::regex" terms,
// "field:~value" fuzzy terms, bare terms against album and album artist,
// and "^" negation. All terms must match.
package query

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/jdfalk/mbseries/internal/models"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Kind is how a term compares its value.
type Kind int

const (
	Substring Kind = iota
	Regexp
	Fuzzy
)

// Term is one parsed query term. An empty Field matches album or album
// artist.
type Term struct {
	Field  string
	Value  string
	Kind   Kind
	Negate bool

	re *regexp.Regexp
}

// Query is a conjunction of terms. The empty query matches everything.
type Query []Term

var fieldTermRe = regexp.MustCompile(`^([a-z_]+):(.*)$`)

var folder = cases.Fold()

// Parse splits the arguments on whitespace and parses every term.
func Parse(args []string) (Query, error) {
	var q Query
	for _, raw := range strings.Fields(strings.Join(args, " ")) {
		term, err := parseTerm(raw)
		if err != nil {
			return nil, err
		}
		q = append(q, term)
	}
	return q, nil
}

func parseTerm(raw string) (Term, error) {
	var t Term
	if strings.HasPrefix(raw, "^") {
		t.Negate = true
		raw = raw[1:]
	}

	m := fieldTermRe.FindStringSubmatch(raw)
	if m == nil {
		t.Value = raw
		return t, nil
	}

	t.Field, t.Value = m[1], m[2]
	switch {
	case strings.HasPrefix(t.Value, ":"):
		t.Kind = Regexp
		t.Value = t.Value[1:]
		re, err := regexp.Compile(t.Value)
		if err != nil {
			return Term{}, fmt.Errorf("invalid regular expression in %q: %w", raw, err)
		}
		t.re = re
	case strings.HasPrefix(t.Value, "~"):
		t.Kind = Fuzzy
		t.Value = t.Value[1:]
	}
	return t, nil
}

// fold lowercases s, removes diacritics and applies full case folding.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return folder.String(stripped)
}

func (t Term) matchValue(v string) bool {
	switch t.Kind {
	case Regexp:
		return t.re.MatchString(v)
	case Fuzzy:
		return fuzzy.MatchNormalizedFold(t.Value, v)
	default:
		return strings.Contains(fold(v), fold(t.Value))
	}
}

// Match reports whether the album satisfies the term.
func (t Term) Match(a *models.Album) bool {
	var ok bool
	if t.Field == "" {
		ok = t.matchValue(a.Album) || t.matchValue(a.AlbumArtist)
	} else {
		ok = t.matchValue(a.Get(t.Field))
	}
	return ok != t.Negate
}

// Match reports whether the album satisfies every term.
func (q Query) Match(a *models.Album) bool {
	for _, t := range q {
		if !t.Match(a) {
			return false
		}
	}
	return true
}

// Select returns the matching albums ordered by album artist, album and id.
func Select(albums []models.Album, q Query) []*models.Album {
	var out []*models.Album
	for i := range albums {
		if q.Match(&albums[i]) {
			out = append(out, &albums[i])
		}
	}
	slices.SortStableFunc(out, func(a, b *models.Album) int {
		if c := strings.Compare(fold(a.AlbumArtist), fold(b.AlbumArtist)); c != 0 {
			return c
		}
		if c := strings.Compare(fold(a.Album), fold(b.Album)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
