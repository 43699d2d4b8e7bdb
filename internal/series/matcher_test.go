// file: internal/series/matcher_test.go
// version: 1.1.0
// guid: 1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f

package series

import (
	"bytes"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/jdfalk/mbseries/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlugin(buf *bytes.Buffer) *Plugin {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "test",
		Level:  hclog.Trace,
		Output: buf,
	})
	return NewPlugin(&fakeCatalog{}, DefaultFields(), logger)
}

func TestIsMBID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"11111111-1111-1111-1111-111111111111", true},
		{"A1111111-1111-1111-1111-111111111111", true},
		{"a59c5830-5ec7-38fe-9a21-c7ea54f6650a", true},
		{"a59c5830-5ec7-38fe-9a21-c7ea54f6650a-trailing", false},
		{"a59c5830-5ec7-38fe-9a21-c7ea54f6650ab", false},
		{"not-a-uuid", false},
		{"11111111", false},
		{"", false},
		{"1111111-1111-1111-1111-111111111111", false},
		{" 11111111-1111-1111-1111-111111111111", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMBID(tt.id))
		})
	}
}

func releaseSeries(members map[string]MemberEntry) *Series {
	return &Series{ID: "S-1", Name: "N", Category: ReleaseSeries, Members: members}
}

func TestSelectCandidatesRelease(t *testing.T) {
	s := releaseSeries(map[string]MemberEntry{
		"A1111111-1111-1111-1111-111111111111": {Order: "3", SeriesName: "N", SeriesID: "S-1"},
	})
	match := &models.Album{
		Album:            "In",
		MBAlbumID:        "A1111111-1111-1111-1111-111111111111",
		MBReleaseGroupID: "garbage",
	}
	other := &models.Album{Album: "Out", MBAlbumID: "22222222-2222-2222-2222-222222222222"}

	var buf bytes.Buffer
	got := newTestPlugin(&buf).SelectCandidates(s, []*models.Album{other, match})
	require.Len(t, got, 1)
	assert.Same(t, match, got[0].Album)
	assert.Equal(t, "3", got[0].Entry.Order)
	assert.Empty(t, buf.String(), "non-members are skipped silently")
}

func TestSelectCandidatesReleaseGroup(t *testing.T) {
	s := &Series{ID: "S-2", Name: "N", Category: ReleaseGroupSeries, Members: map[string]MemberEntry{
		"rg-1": {Order: "1", SeriesName: "N", SeriesID: "S-2"},
	}}
	a := &models.Album{MBAlbumID: "11111111-1111-1111-1111-111111111111", MBReleaseGroupID: "rg-1"}
	b := &models.Album{MBAlbumID: "rg-1"}

	var buf bytes.Buffer
	got := newTestPlugin(&buf).SelectCandidates(s, []*models.Album{a, b})
	require.Len(t, got, 1)
	assert.Same(t, a, got[0].Album)
}

func TestSelectCandidatesInvalidIDs(t *testing.T) {
	s := releaseSeries(map[string]MemberEntry{
		"not-a-uuid": {Order: "1", SeriesName: "N", SeriesID: "S-1"},
		"11111111":   {Order: "1", SeriesName: "N", SeriesID: "S-1"},
	})
	albums := []*models.Album{
		{Album: "Bad", AlbumArtist: "X", MBAlbumID: "not-a-uuid"},
		{Album: "Short", AlbumArtist: "X", MBAlbumID: "11111111"},
		{Album: "None", AlbumArtist: "X"},
	}

	var buf bytes.Buffer
	got := newTestPlugin(&buf).SelectCandidates(s, albums)
	assert.Empty(t, got)

	out := buf.String()
	assert.Contains(t, out, "invalid mb_albumid")
	assert.Contains(t, out, "not-a-uuid")
	assert.Contains(t, out, "no mb_albumid")
	assert.Contains(t, out, "X - None")
}

func TestSelectCandidatesKeepsOrder(t *testing.T) {
	ids := []string{
		"33333333-3333-3333-3333-333333333333",
		"11111111-1111-1111-1111-111111111111",
		"22222222-2222-2222-2222-222222222222",
	}
	members := map[string]MemberEntry{}
	var albums []*models.Album
	for _, id := range ids {
		members[id] = MemberEntry{SeriesName: "N", SeriesID: "S-1"}
		albums = append(albums, &models.Album{MBAlbumID: id})
	}

	var buf bytes.Buffer
	got := newTestPlugin(&buf).SelectCandidates(releaseSeries(members), albums)
	require.Len(t, got, 3)
	for i, c := range got {
		assert.Equal(t, ids[i], c.Album.MBAlbumID)
	}
}
