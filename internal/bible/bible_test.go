package bible

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupBook(t *testing.T) {
	tests := []struct {
		token string
		want  string
		ok    bool
	}{
		{"Genesis", "Genesis", true},
		{"gen", "Genesis", true},
		{"Ps", "Psalms", true},
		{"psalm", "Psalms", true},
		{"1 Cor.", "1 Corinthians", true},
		{"1cor", "1 Corinthians", true},
		{"jn", "John", true},
		{"1 jn", "1 John", true},
		{"jo", "Joshua", true},
		{"Song of Songs", "Song of Solomon", true},
		{"j", "", false},
		{"", "", false},
		{"hezekiah", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			b, ok := LookupBook(tt.token)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, b.Name)
		})
	}
}

func TestBookKeys(t *testing.T) {
	require.Len(t, Books, 66)
	for i, b := range Books {
		assert.Equal(t, i+1, b.Number, b.Name)
		got, ok := BookByKey(b.Key())
		require.True(t, ok, b.Name)
		assert.Equal(t, b.Name, got.Name)
	}

	b, ok := BookByNumber(43)
	require.True(t, ok)
	assert.Equal(t, "john", b.Key())
	_, ok = BookByNumber(67)
	assert.False(t, ok)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "1 Corinthians", DisplayName("1 corinthians"))
	assert.Equal(t, "Song of Solomon", DisplayName("song  of solomon"))
	assert.Equal(t, "Bel And Dragon", DisplayName("bel and dragon"))
}

func TestEntryNormalize(t *testing.T) {
	e := EntryRef{Book: "john", Chapter: 3, Verse: 16}.Normalize()
	assert.Equal(t, EntryRef{Book: "john", Chapter: 3, StartVerse: 16, EndVerse: 16, Reference: "John 3:16"}, e)

	e = EntryRef{Book: "john", Chapter: 3, StartVerse: 18, EndVerse: 16}.Normalize()
	assert.Equal(t, 16, e.StartVerse)
	assert.Equal(t, 18, e.EndVerse)
	assert.Equal(t, "John 3:16-18", e.Reference)

	e = EntryRef{Book: "john", Chapter: 3, StartVerse: 1, Reference: "custom"}.Normalize()
	assert.Equal(t, "custom", e.Reference)

	assert.True(t, e.Contains(VerseRecord{Book: "john", Chapter: 3, Verse: 1}))
	assert.False(t, e.Contains(VerseRecord{Book: "john", Chapter: 3, Verse: 2}))
	assert.True(t, e.SameChapter(VerseRecord{Book: "john", Chapter: 3, Verse: 2}))
}

func TestCollectionNormalizedDropsInvalid(t *testing.T) {
	c := Collection{Name: "Mixed", Entries: []EntryRef{
		{Book: "john", Chapter: 3, StartVerse: 16},
		{Book: "", Chapter: 1, StartVerse: 1},
		{Book: "genesis", Chapter: 0, StartVerse: 1},
		{Book: "psalms", Chapter: 23, Verse: 1},
	}}
	got := c.Normalized()
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "John 3:16", got.Entries[0].Reference)
	assert.Equal(t, "Psalms 23:1", got.Entries[1].Reference)
	assert.Len(t, c.Entries, 4)
}

func TestTranslationLabel(t *testing.T) {
	assert.Equal(t, "King James", Translation{ID: "KJV", Name: "King James"}.Label())
	assert.Equal(t, "KJV", Translation{ID: "KJV.xml"}.Label())
	assert.Equal(t, "web", TrimExt("web.XML"))
}

func TestViewModes(t *testing.T) {
	assert.Equal(t, ModeEntryOnly, ModeFullChapter.Next())
	assert.Equal(t, ModeFullChapter, ModeFullCollection.Next())
	assert.Equal(t, ModeFullChapter, ViewMode("bogus").Next())

	m, ok := ParseViewMode("multiTranslation")
	assert.True(t, ok)
	assert.Equal(t, ModeMultiTranslation, m)
	_, ok = ParseViewMode("MultiTranslation")
	assert.False(t, ok)
	assert.Equal(t, "Chapter Context", ModeFullChapter.Label())
}

func TestVerseID(t *testing.T) {
	assert.Equal(t, "1 john-4-8", VerseRecord{Book: "1 john", Chapter: 4, Verse: 8}.ID())
}
