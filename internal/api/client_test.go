package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/static/bolls/app/views/languages.json":
			w.Write([]byte(`[
				{"language": "English", "translations": [{"short_name": "KJV", "full_name": "King James Version", "updated": 1}]},
				{"language": "Deutsch", "translations": [{"short_name": "LUT", "full_name": "Luther"}]}
			]`))
		case "/get-books/KJV/":
			w.Write([]byte(`[{"bookid": 1, "chronorder": 1, "name": "Genesis", "chapters": 50}]`))
		default:
			http.Error(w, "no such page", http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return NewClient().WithBaseURL(srv.URL + "/")
}

func TestGetTranslations(t *testing.T) {
	c := newTestClient(t)

	ts, err := c.GetTranslations(context.Background(), "english")
	require.NoError(t, err)
	assert.Equal(t, []Translation{{ShortName: "KJV", FullName: "King James Version", Updated: 1}}, ts)

	ts, err = c.GetTranslations(context.Background(), "Klingon")
	require.NoError(t, err)
	assert.Empty(t, ts)
}

func TestGetBooks(t *testing.T) {
	c := newTestClient(t)

	books, err := c.GetBooks(context.Background(), "KJV")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Genesis", books[0].Name)
	assert.Equal(t, 50, books[0].Chapters)

	_, err = c.GetBooks(context.Background(), "NOPE")
	assert.ErrorContains(t, err, "status 404")
}
