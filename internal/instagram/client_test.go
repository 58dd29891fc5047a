package instagram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/postmystyle/ugc-monitor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveHashtag(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected string
	}{
		{
			name:     "Upper-case code lowered",
			code:     "X7K9M2",
			expected: "postmystylex7k9m2",
		},
		{
			name:     "Salon-prefixed code",
			code:     "salonX7K9M2",
			expected: "postmystylesalonx7k9m2",
		},
		{
			name:     "Whitespace trimmed",
			code:     "  AB12CD ",
			expected: "postmystyleab12cd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveHashtag(tt.code))
		})
	}
}

func TestSearchHashtag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ig_hashtag_search", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Query().Get("q") {
		case "postmystylex7k9m2":
			w.Write([]byte(`{"data":[{"id":"17841562"}]}`))
		default:
			w.Write([]byte(`{"data":[]}`))
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "biz123", "token", 25)

	id, found, err := client.SearchHashtag(context.Background(), "postmystylex7k9m2")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "17841562", id)

	id, found, err = client.SearchHashtag(context.Background(), "postmystyleunknown")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, id)
}

func TestSearchHashtag_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "biz123", "bad-token", 25)

	_, _, err := client.SearchHashtag(context.Background(), "postmystyle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestFetchHashtagPosts_MergesAndDedups(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasSuffix(r.URL.Path, "/recent_media"):
			w.Write([]byte(`{"data":[
				{"id":"p1","media_type":"IMAGE","caption":"one","timestamp":"2025-08-01T10:00:00+0000","permalink":"https://www.instagram.com/p/AAA/","username":"usera","like_count":3},
				{"id":"p2","media_type":"IMAGE","caption":"two","timestamp":"2025-08-02T10:00:00+0000","permalink":"https://www.instagram.com/p/BBB/","username":"userb"}
			]}`))
		case strings.HasSuffix(r.URL.Path, "/top_media"):
			w.Write([]byte(`{"data":[
				{"id":"p2","media_type":"IMAGE","caption":"two","timestamp":"2025-08-02T10:00:00+0000","permalink":"https://www.instagram.com/p/BBB/","username":"userb"},
				{"id":"p3","media_type":"VIDEO","caption":"three","timestamp":"2025-08-03T10:00:00+0000","permalink":"https://www.instagram.com/p/CCC/","username":"userc"}
			]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "biz123", "token", 25)

	posts, err := client.FetchHashtagPosts(context.Background(), "17841562")
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "p1", posts[0].ID)
	assert.Equal(t, "p2", posts[1].ID)
	assert.Equal(t, "p3", posts[2].ID)
}

func TestFetchHashtagPosts_ReducedFieldFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if !strings.HasSuffix(r.URL.Path, "/recent_media") {
			// Keep the scenario to a single endpoint.
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		if strings.Contains(r.URL.Query().Get("fields"), "like_count") {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"(#100) Unsupported field"}}`))
			return
		}

		w.Write([]byte(`{"data":[{"id":"p9","media_type":"IMAGE","caption":"degraded","timestamp":"2025-08-04T10:00:00+0000"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "biz123", "token", 25)

	posts, err := client.FetchHashtagPosts(context.Background(), "17841562")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "p9", posts[0].ID)
	assert.Zero(t, posts[0].LikeCount)
	// Permalink is constructed when the platform withholds it.
	assert.Equal(t, "https://www.instagram.com/p/p9/", posts[0].Permalink)
}

func TestFetchHashtagPosts_BothEndpointsFailing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "biz123", "token", 25)

	posts, err := client.FetchHashtagPosts(context.Background(), "17841562")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestDedupPosts(t *testing.T) {
	posts := []models.Post{
		{ID: "1", Caption: "first"},
		{ID: "2", Caption: "second"},
		{ID: "1", Caption: "duplicate"},
		{ID: "3", Caption: "third"},
	}

	unique := dedupPosts(posts)

	assert.Len(t, unique, 3)
	assert.Equal(t, "1", unique[0].ID)
	assert.Equal(t, "2", unique[1].ID)
	assert.Equal(t, "3", unique[2].ID)
}
