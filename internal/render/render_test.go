package render

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verse-rotator/internal/bible"
)

func john3(text string) []bible.VerseRecord {
	var out []bible.VerseRecord
	for v := 1; v <= 5; v++ {
		out = append(out, bible.VerseRecord{Book: "john", Chapter: 3, Verse: v, Text: text})
	}
	return out
}

func entry(start, end int) *bible.EntryRef {
	e := bible.EntryRef{Book: "john", Chapter: 3, StartVerse: start, EndVerse: end}.Normalize()
	return &e
}

func TestRenderChapterHighlightsEntry(t *testing.T) {
	verses := john3("text")
	// Out of order on purpose; the chapter is rendered by verse number.
	verses[0], verses[4] = verses[4], verses[0]

	f := Render(Input{Mode: bible.ModeFullChapter, Entry: entry(2, 3), Verses: verses, TranslationID: "KJV"})

	require.True(t, f.Successful)
	assert.Equal(t, "John 3:2-3", f.Title)
	assert.Equal(t, 2, f.Anchor)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, f.VerseNumbers())

	var highlighted []int
	for _, l := range f.Sections[0].Lines {
		if l.Highlight {
			highlighted = append(highlighted, l.Verse.Verse)
		}
	}
	assert.Equal(t, []int{2, 3}, highlighted)
}

func TestRenderChapterWithoutData(t *testing.T) {
	f := Render(Input{Mode: bible.ModeFullChapter, Entry: entry(1, 1), TranslationID: "KJV"})
	assert.False(t, f.Successful)
	assert.Equal(t, "John 3:1 (No Data)", f.Title)
	assert.Equal(t, []string{"Selected translation is empty or not loaded."}, f.Messages())

	f = Render(Input{Mode: bible.ModeFullChapter, EmptyMessage: "No translation loaded. Select a translation."})
	assert.Equal(t, []string{"No translation loaded. Select a translation."}, f.Messages())
}

func TestRenderChapterMissingChapter(t *testing.T) {
	e := bible.EntryRef{Book: "genesis", Chapter: 1, StartVerse: 1}.Normalize()
	f := Render(Input{Mode: bible.ModeFullChapter, Entry: &e, Verses: john3("x"), TranslationID: "KJV.xml"})
	assert.False(t, f.Successful)
	assert.Equal(t, []string{`No verses found for Genesis 1 in "KJV".`}, f.Messages())
}

func TestRenderEntryOnly(t *testing.T) {
	f := Render(Input{Mode: bible.ModeEntryOnly, Entry: entry(4, 9), Verses: john3("t"), TranslationID: "KJV"})
	assert.True(t, f.Successful)
	assert.True(t, f.Centered)
	assert.Equal(t, []int{4, 5}, f.VerseNumbers())

	f = Render(Input{Mode: bible.ModeEntryOnly, Entry: entry(20, 20), Verses: john3("t"), TranslationID: "KJV"})
	assert.False(t, f.Successful)
	assert.Equal(t, []string{`Entry "John 3:20" not found in "KJV".`}, f.Messages())
}

func TestRenderMulti(t *testing.T) {
	in := Input{
		Mode:  bible.ModeMultiTranslation,
		Entry: entry(1, 1),
		Translations: []TranslationText{
			{Translation: bible.Translation{ID: "WEB", Name: "World English"}, Verses: john3("web")},
			{Translation: bible.Translation{ID: "BAD", Name: "Broken"}, Err: errors.New("boom")},
			{Translation: bible.Translation{ID: "EMPTY", Name: "Empty"}},
		},
	}
	f := Render(in)
	require.True(t, f.Successful)

	var headings []string
	for _, s := range f.Sections {
		headings = append(headings, s.Heading)
		assert.Equal(t, SectionTranslation, s.Kind)
	}
	assert.Equal(t, []string{"Broken", "Empty", "World English"}, headings)
	assert.Equal(t, []string{
		"(Error processing verses)",
		`Entry "John 3:1" not found (translation is empty or entry not in translation).`,
	}, f.Messages())

	f = Render(Input{Mode: bible.ModeMultiTranslation, Entry: entry(1, 1)})
	assert.Equal(t, []string{"No translations imported for multi-translation view."}, f.Messages())
	assert.False(t, f.Successful)
}

func TestRenderMultiMissingEverywhereKeepsRotating(t *testing.T) {
	f := Render(Input{
		Mode:  bible.ModeMultiTranslation,
		Entry: entry(20, 20),
		Translations: []TranslationText{
			{Translation: bible.Translation{ID: "KJV"}, Verses: john3("kjv")},
			{Translation: bible.Translation{ID: "WEB"}, Verses: john3("web")},
		},
	})
	assert.True(t, f.Successful)
	assert.Empty(t, f.VerseNumbers())
	assert.Equal(t, []string{
		`Entry "John 3:20" not found in "KJV".`,
		`Entry "John 3:20" not found in "WEB".`,
	}, f.Messages())
}

func TestRenderCollection(t *testing.T) {
	col := &bible.Collection{Name: "Hope", Entries: []bible.EntryRef{*entry(1, 2), *entry(9, 9)}}
	f := Render(Input{Mode: bible.ModeFullCollection, Collection: col, Verses: john3("t"), TranslationID: "KJV"})

	want := Fragment{
		Class: ClassCollection,
		Title: "Hope",
		Sections: []Section{
			{Kind: SectionEntry, Heading: "John 3:1-2", Lines: []Line{
				{Verse: bible.VerseRecord{Book: "john", Chapter: 3, Verse: 1, Text: "t"}},
				{Verse: bible.VerseRecord{Book: "john", Chapter: 3, Verse: 2, Text: "t"}},
			}},
			{Kind: SectionEntry, Heading: "John 3:9", Messages: []Message{
				{Text: `Entry "John 3:9" not found in "KJV".`, Italic: true},
			}},
		},
		Successful: true,
	}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Errorf("collection fragment mismatch (-want +got):\n%s", diff)
	}

	f = Render(Input{Mode: bible.ModeFullCollection, Verses: john3("t"), TranslationID: "KJV"})
	assert.Equal(t, "Select Collection", f.Title)
	assert.False(t, f.Successful)

	f = Render(Input{Mode: bible.ModeFullCollection, Collection: &bible.Collection{Name: "Empty"}, Verses: john3("t"), TranslationID: "KJV"})
	assert.Equal(t, "Empty (Empty)", f.Title)
}

func TestHTMLSanitizesAndEscapes(t *testing.T) {
	f := Fragment{
		Class: ClassDefault,
		Sections: []Section{{
			Messages: []Message{{Text: "<b>note</b>", Italic: true}},
			Lines: []Line{
				{Verse: bible.VerseRecord{Book: "john", Chapter: 3, Verse: 16, Text: `For <i>God</i><script>x()</script> so loved`}, Highlight: true},
				{Verse: bible.VerseRecord{Book: "john", Chapter: 3, Verse: 17, Text: "  "}},
			},
		}},
	}
	html := f.Document()

	assert.Contains(t, html, `<div id="verse-text" class="verse-text-display">`)
	assert.Contains(t, html, `<p><i>&lt;b&gt;note&lt;/b&gt;</i></p>`)
	assert.Contains(t, html, `<p class="current-verse-highlight" data-verse-num="16" data-verse-id="john-3-16"><span class="verse-number">16</span>For <i>God</i> so loved</p>`)
	assert.Contains(t, html, `[Verse text not available]`)
	assert.NotContains(t, html, "script")
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "In the beginning God created", PlainText("In the <i>beginning</i><br/>God created"))
	assert.Equal(t, "a & b", PlainText("a &amp; b"))
	assert.Equal(t, "", PlainText("<br>"))
}
