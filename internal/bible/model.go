package bible

import (
	"fmt"
	"strings"
	"time"
)

// VerseRecord is a single verse of an imported translation.
type VerseRecord struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
	Text    string `json:"text"`
}

// ID returns the "book-chapter-verse" identifier used in rendered markup.
func (v VerseRecord) ID() string {
	return fmt.Sprintf("%s-%d-%d", v.Book, v.Chapter, v.Verse)
}

// EntryRef is a named verse range inside one chapter. It is the unit the
// rotator cycles through.
type EntryRef struct {
	Book       string `json:"book"`
	Chapter    int    `json:"chapter"`
	StartVerse int    `json:"startVerse"`
	EndVerse   int    `json:"endVerse"`
	Reference  string `json:"reference"`

	// Verse is only read when decoding older collections that stored a
	// single verse instead of a range.
	Verse int `json:"verse,omitempty"`
}

// Normalize fills a missing range from Verse and orders Start/End.
func (e EntryRef) Normalize() EntryRef {
	if e.StartVerse == 0 {
		e.StartVerse = e.Verse
	}
	if e.EndVerse == 0 {
		e.EndVerse = e.StartVerse
	}
	if e.EndVerse < e.StartVerse {
		e.StartVerse, e.EndVerse = e.EndVerse, e.StartVerse
	}
	e.Verse = 0
	if e.Reference == "" {
		e.Reference = FormatReference(e.Book, e.Chapter, e.StartVerse, e.EndVerse)
	}
	return e
}

// Valid reports whether the entry can be resolved against a translation.
func (e EntryRef) Valid() bool {
	return e.Book != "" && e.Chapter > 0 && e.StartVerse > 0
}

// Contains reports whether v falls within the entry's range.
func (e EntryRef) Contains(v VerseRecord) bool {
	return v.Book == e.Book && v.Chapter == e.Chapter &&
		v.Verse >= e.StartVerse && v.Verse <= e.EndVerse
}

// SameChapter reports whether v is in the entry's chapter.
func (e EntryRef) SameChapter(v VerseRecord) bool {
	return v.Book == e.Book && v.Chapter == e.Chapter
}

// EntryFromVerse builds the single-verse entry used when rotating through a
// whole translation.
func EntryFromVerse(v VerseRecord) EntryRef {
	return EntryRef{
		Book:       v.Book,
		Chapter:    v.Chapter,
		StartVerse: v.Verse,
		EndVerse:   v.Verse,
		Reference:  FormatReference(v.Book, v.Chapter, v.Verse, v.Verse),
	}
}

// FormatReference renders "John 3:16" or "John 3:16-18".
func FormatReference(book string, chapter, start, end int) string {
	name := DisplayName(book)
	if end > start {
		return fmt.Sprintf("%s %d:%d-%d", name, chapter, start, end)
	}
	return fmt.Sprintf("%s %d:%d", name, chapter, start)
}

// Collection is a user-curated, ordered list of entries.
type Collection struct {
	Name    string     `json:"name"`
	Entries []EntryRef `json:"verses"`
}

// Normalized returns a copy with every entry normalized and invalid entries
// dropped.
func (c Collection) Normalized() Collection {
	out := Collection{Name: c.Name, Entries: make([]EntryRef, 0, len(c.Entries))}
	for _, e := range c.Entries {
		e = e.Normalize()
		if e.Valid() {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}

// Translation identifies an imported Bible.
type Translation struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Label is the display name, falling back to the id.
func (t Translation) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return TrimExt(t.ID)
}

// TrimExt drops a trailing ".xml" that older imports kept in their ids.
func TrimExt(id string) string {
	if strings.HasSuffix(strings.ToLower(id), ".xml") {
		return id[:len(id)-4]
	}
	return id
}

// Note is a free-form markdown note. A name of the form `folder\note`
// files the note under a folder.
type Note struct {
	Name         string    `json:"name"`
	Content      string    `json:"content"`
	LastModified time.Time `json:"lastModified"`
}

// ViewMode selects the rendering strategy and whether the timer runs.
type ViewMode string

const (
	ModeFullChapter      ViewMode = "fullChapter"
	ModeEntryOnly        ViewMode = "entryOnly"
	ModeMultiTranslation ViewMode = "multiTranslation"
	ModeFullCollection   ViewMode = "fullCollection"
)

// ViewModes lists the modes in menu order.
var ViewModes = []ViewMode{ModeFullChapter, ModeEntryOnly, ModeMultiTranslation, ModeFullCollection}

// ParseViewMode accepts the persisted mode names.
func ParseViewMode(s string) (ViewMode, bool) {
	for _, m := range ViewModes {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// Label is the menu text of a mode.
func (m ViewMode) Label() string {
	switch m {
	case ModeFullChapter:
		return "Chapter Context"
	case ModeEntryOnly:
		return "Entry Only"
	case ModeMultiTranslation:
		return "Multi-Translation"
	case ModeFullCollection:
		return "Full Collection"
	}
	return string(m)
}

// Next cycles to the following mode.
func (m ViewMode) Next() ViewMode {
	for i, v := range ViewModes {
		if v == m {
			return ViewModes[(i+1)%len(ViewModes)]
		}
	}
	return ModeFullChapter
}
