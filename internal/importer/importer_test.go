package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verse-rotator/internal/api"
	"verse-rotator/internal/cache"
	"verse-rotator/internal/store"
)

func zipped(t *testing.T, name string, verses []api.Verse) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	require.NoError(t, json.NewEncoder(w).Encode(verses))
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newCatalogue(t *testing.T, downloads *atomic.Int32) *httptest.Server {
	archive := zipped(t, "YLT.json", []api.Verse{
		{Book: 1, Chapter: 1, Verse: 1, Text: "In the beginning of God's preparing the heavens and the earth"},
		{Book: 43, Chapter: 3, Verse: 16, Text: "for God did so love the world"},
		{Book: 99, Chapter: 1, Verse: 1, Text: "apocrypha"},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/static/bolls/app/views/languages.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]api.LanguageGroup{{
			Language:     "English",
			Translations: []api.Translation{{ShortName: "YLT", FullName: "Young's Literal Translation"}},
		}})
	})
	mux.HandleFunc("/get-books/YLT/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]api.Book{{BookID: 1, Name: "Genesis"}, {BookID: 43, Name: "John"}})
	})
	mux.HandleFunc("/static/translations/YLT.zip", func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
		w.Write(archive)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newImporter(t *testing.T, srv *httptest.Server) (*Importer, *store.Store) {
	t.Helper()
	archive, err := cache.NewArchive(t.TempDir())
	require.NoError(t, err)
	archive.WithBaseURL(srv.URL + "/static/translations")

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return New(api.NewClient().WithBaseURL(srv.URL), archive, st, nil), st
}

func TestImport(t *testing.T) {
	var downloads atomic.Int32
	im, st := newImporter(t, newCatalogue(t, &downloads))
	ctx := context.Background()

	n, err := im.Import(ctx, "YLT")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ts, err := st.Translations(ctx)
	require.NoError(t, err)
	require.Len(t, ts, 1)
	assert.Equal(t, "Young's Literal Translation", ts[0].Name)

	verses, err := st.VersesByTranslation(ctx, "YLT")
	require.NoError(t, err)
	require.Len(t, verses, 2)
	assert.Equal(t, "genesis", verses[0].Book)
	assert.Equal(t, "john", verses[1].Book)

	_, err = im.Import(ctx, "YLT")
	require.NoError(t, err)
	assert.Equal(t, int32(1), downloads.Load(), "the cached archive is reused")
}

func TestImportMissingTranslation(t *testing.T) {
	var downloads atomic.Int32
	im, _ := newImporter(t, newCatalogue(t, &downloads))

	_, err := im.Import(context.Background(), "NOPE")
	assert.Error(t, err)
}

func TestAvailable(t *testing.T) {
	var downloads atomic.Int32
	im, _ := newImporter(t, newCatalogue(t, &downloads))

	ts, err := im.Available(context.Background())
	require.NoError(t, err)
	require.Len(t, ts, 1)
	assert.Equal(t, "YLT", ts[0].ShortName)
}
