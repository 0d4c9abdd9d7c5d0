package posts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testMediaResp = `{
  "data": [
    {
      "id": "post-older",
      "caption": "great day out #open",
      "media_url": "https://cdn.example.com/older.jpg",
      "permalink": "https://social.example.com/p/older",
      "timestamp": "2026-08-01T09:00:00+0000"
    },
    {
      "id": "post-newer",
      "caption": "<b>storm</b> rolled through #closed",
      "media_url": "https://cdn.example.com/newer.jpg",
      "permalink": "https://social.example.com/p/newer",
      "timestamp": "2026-08-02T09:00:00+0000"
    }
  ]
}`

func staticToken() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "token-123"})
}

func TestRecentMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/media", r.URL.Path)
		assert.Equal(t, "token-123", r.URL.Query().Get("access_token"))
		w.Write([]byte(testMediaResp))
	}))
	defer srv.Close()

	posts, err := NewClient(srv.URL).RecentMedia(context.Background(), staticToken())
	require.NoError(t, err)
	require.Len(t, posts, 2)

	// Most recent first, regardless of response order
	assert.Equal(t, "post-newer", posts[0].ID)
	assert.Equal(t, "post-older", posts[1].ID)

	// Html is stripped out of captions
	assert.Equal(t, "storm rolled through #closed", posts[0].Caption)
}

func TestRecentMedia_ProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).RecentMedia(context.Background(), staticToken())
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestRecentMedia_InvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "<html>nope</html>"},
		{name: "bad timestamp", body: `{"data":[{"id":"p1","timestamp":"yesterday"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).RecentMedia(context.Background(), staticToken())
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}
