package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verse-rotator/internal/bible"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveTranslationKeepsImportOrder(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	verses := []bible.VerseRecord{
		{Book: "genesis", Chapter: 1, Verse: 1, Text: "In the beginning"},
		{Book: "genesis", Chapter: 1, Verse: 2, Text: "And the earth"},
		{Book: "exodus", Chapter: 1, Verse: 1, Text: "Now these are the names"},
		{Book: "genesis", Chapter: 2, Verse: 1, Text: "Thus the heavens"},
	}
	require.NoError(t, s.SaveTranslation(ctx, bible.Translation{ID: "KJV", Name: "King James"}, verses))

	got, err := s.VersesByTranslation(ctx, "KJV")
	require.NoError(t, err)
	if diff := cmp.Diff(verses, got); diff != "" {
		t.Errorf("verses mismatch (-want +got):\n%s", diff)
	}

	got, err = s.VersesByTranslation(ctx, "NOPE")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveTranslationReplaces(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	require.NoError(t, s.SaveTranslation(ctx, bible.Translation{ID: "WEB"}, []bible.VerseRecord{
		{Book: "john", Chapter: 1, Verse: 1, Text: "old"},
		{Book: "john", Chapter: 1, Verse: 2, Text: "old"},
	}))
	require.NoError(t, s.SaveTranslation(ctx, bible.Translation{ID: "WEB", Name: "World English"}, []bible.VerseRecord{
		{Book: "john", Chapter: 1, Verse: 1, Text: "new"},
	}))

	ts, err := s.Translations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []bible.Translation{{ID: "WEB", Name: "World English"}}, ts)

	got, err := s.VersesByTranslation(ctx, "WEB")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Text)
}

func TestDeleteTranslationCascades(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	require.NoError(t, s.SaveTranslation(ctx, bible.Translation{ID: "KJV"}, []bible.VerseRecord{{Book: "john", Chapter: 3, Verse: 16, Text: "For God"}}))
	require.NoError(t, s.DeleteTranslation(ctx, "KJV"))

	ts, err := s.Translations(ctx)
	require.NoError(t, err)
	assert.Empty(t, ts)
	got, err := s.VersesByTranslation(ctx, "KJV")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCollections(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	require.NoError(t, s.SaveCollection(ctx, bible.Collection{Name: "Psalms", Entries: []bible.EntryRef{
		{Book: "psalms", Chapter: 23, Verse: 1},
		{Book: "", Chapter: 1, StartVerse: 1},
	}}))
	require.NoError(t, s.SaveCollection(ctx, bible.Collection{Name: "Comfort", Entries: []bible.EntryRef{
		{Book: "john", Chapter: 14, StartVerse: 1, EndVerse: 3},
	}}))
	assert.Error(t, s.SaveCollection(ctx, bible.Collection{}))

	cs, err := s.Collections(ctx)
	require.NoError(t, err)
	want := []bible.Collection{
		{Name: "Comfort", Entries: []bible.EntryRef{{Book: "john", Chapter: 14, StartVerse: 1, EndVerse: 3, Reference: "John 14:1-3"}}},
		{Name: "Psalms", Entries: []bible.EntryRef{{Book: "psalms", Chapter: 23, StartVerse: 1, EndVerse: 1, Reference: "Psalms 23:1"}}},
	}
	if diff := cmp.Diff(want, cs); diff != "" {
		t.Errorf("collections mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, s.DeleteCollection(ctx, "Comfort"))
	assert.ErrorIs(t, s.DeleteCollection(ctx, "Comfort"), ErrNotFound)
}

func TestNotes(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	when := time.UnixMilli(1_700_000_000_000)
	require.NoError(t, s.SaveNote(ctx, bible.Note{Name: `Sermons\Advent`, Content: "# Hope", LastModified: when}))
	require.NoError(t, s.SaveNote(ctx, bible.Note{Name: "Loose", Content: "x"}))
	assert.Error(t, s.SaveNote(ctx, bible.Note{Content: "nameless"}))

	n, err := s.Note(ctx, `Sermons\Advent`)
	require.NoError(t, err)
	assert.Equal(t, "# Hope", n.Content)
	assert.True(t, n.LastModified.Equal(when))

	loose, err := s.Note(ctx, "Loose")
	require.NoError(t, err)
	assert.False(t, loose.LastModified.IsZero())

	all, err := s.Notes(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.DeleteNote(ctx, "Loose"))
	_, err = s.Note(ctx, "Loose")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteNote(ctx, "Loose"), ErrNotFound)
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bible.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveNote(context.Background(), bible.Note{Name: "a"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Note(context.Background(), "a")
	assert.NoError(t, err)
}
