// file: internal/metadata/musicbrainz_test.go
// version: 1.1.0
// guid: 1b7e8a43-0d0e-4a57-8a8e-5c3e9f14d2aa

package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seriesFixture = `{
  "id": "d977f7fd-96c9-4e3e-83db-d2c1a7c8b4fd",
  "name": "Blue Note Classics",
  "type": "Release series",
  "type-id": "52b90f1a-a46c-3fa4-8f2c-2a2c2d9b3a88",
  "relations": [
    {
      "type": "part of",
      "target-type": "release",
      "direction": "backward",
      "ordering-key": 1,
      "attributes": ["number"],
      "attribute-ids": {"number": "a59c5830-5ec7-38fe-9a21-c7ea54f6650a"},
      "attribute-values": {"number": "1"},
      "release": {"id": "11111111-1111-1111-1111-111111111111", "title": "Blue Train"}
    },
    {
      "type": "part of",
      "target-type": "release_group",
      "direction": "backward",
      "attributes": [],
      "release_group": {"id": "22222222-2222-2222-2222-222222222222", "title": "Somethin' Else"}
    }
  ]
}`

func TestNewMusicBrainzClient(t *testing.T) {
	t.Setenv("MUSICBRAINZ_BASE_URL", "")
	client := NewMusicBrainzClient()
	require.NotNil(t, client)
	assert.Equal(t, "https://musicbrainz.org/ws/2", client.baseURL)
	assert.Equal(t, defaultUserAgent, client.userAgent)
	assert.Equal(t, "MusicBrainz", client.Name())
}

func TestNewMusicBrainzClientUsesEnvBaseURL(t *testing.T) {
	t.Setenv("MUSICBRAINZ_BASE_URL", "http://mb.local/ws/2/")
	client := NewMusicBrainzClient()
	assert.Equal(t, "http://mb.local/ws/2", client.baseURL)
}

func TestGetSeries(t *testing.T) {
	var gotPath, gotQuery, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(seriesFixture))
	}))
	defer server.Close()

	client := NewMusicBrainzClientWithBaseURL(server.URL, "mbseries-test/0.1", 100)
	series, err := client.GetSeries(context.Background(), "d977f7fd-96c9-4e3e-83db-d2c1a7c8b4fd", IncReleaseRels, IncReleaseGroupRels)
	require.NoError(t, err)

	assert.Equal(t, "/series/d977f7fd-96c9-4e3e-83db-d2c1a7c8b4fd", gotPath)
	assert.Contains(t, gotQuery, "inc=release-rels+release-group-rels")
	assert.Contains(t, gotQuery, "fmt=json")
	assert.Equal(t, "mbseries-test/0.1", gotUA)

	assert.Equal(t, "Blue Note Classics", series.Name)
	assert.Equal(t, "Release series", series.Type)
	require.Len(t, series.Relations, 2)

	rel := series.Relations[0]
	assert.Equal(t, "release", rel.TargetType)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", rel.Target())
	assert.Equal(t, "a59c5830-5ec7-38fe-9a21-c7ea54f6650a", rel.AttributeIDs["number"])
	assert.Equal(t, "1", rel.AttributeValues["number"])

	assert.Equal(t, "release_group", series.Relations[1].TargetType)
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", series.Relations[1].Target())
}

func TestGetSeriesReusesResponse(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(seriesFixture))
	}))
	defer server.Close()

	client := NewMusicBrainzClientWithBaseURL(server.URL, "", 100)
	first, err := client.GetSeries(context.Background(), "S-1", IncReleaseRels)
	require.NoError(t, err)
	second, err := client.GetSeries(context.Background(), "S-1", IncReleaseRels)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.EqualValues(t, 1, requests.Load())

	_, err = client.GetSeries(context.Background(), "S-1", IncReleaseGroupRels)
	require.NoError(t, err)
	assert.EqualValues(t, 2, requests.Load(), "different includes are a different lookup")
}

func TestGetSeriesErrorsAreNotReused(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(seriesFixture))
	}))
	defer server.Close()

	client := NewMusicBrainzClientWithBaseURL(server.URL, "", 100)
	_, err := client.GetSeries(context.Background(), "S-1")
	require.Error(t, err)
	series, err := client.GetSeries(context.Background(), "S-1")
	require.NoError(t, err)
	assert.Equal(t, "Blue Note Classics", series.Name)
}

func TestGetSeriesNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewMusicBrainzClientWithBaseURL(server.URL, "", 100)
	_, err := client.GetSeries(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSeriesNotFound))
}

func TestGetSeriesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewMusicBrainzClientWithBaseURL(server.URL, "", 100)
	_, err := client.GetSeries(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.False(t, errors.Is(err, ErrSeriesNotFound))
}

func TestGetSeriesBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":`))
	}))
	defer server.Close()

	client := NewMusicBrainzClientWithBaseURL(server.URL, "", 100)
	_, err := client.GetSeries(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "decode"))
}

func TestGetSeriesCanceledContext(t *testing.T) {
	client := NewMusicBrainzClientWithBaseURL("http://127.0.0.1:1", "", 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.GetSeries(ctx, "x")
	assert.Error(t, err)
}

func TestRelationTargetEmpty(t *testing.T) {
	assert.Equal(t, "", MBRelation{}.Target())
}
