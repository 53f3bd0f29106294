// Package render turns the rotator's current entry into a display fragment.
// Render is pure: every verse list it needs is passed in.
package render

import (
	"fmt"
	"sort"

	"verse-rotator/internal/bible"
)

// TranslationText is one translation's verses for the multi-translation view.
type TranslationText struct {
	Translation bible.Translation
	Verses      []bible.VerseRecord
	Err         error
}

// Input is everything a render needs.
type Input struct {
	Mode          bible.ViewMode
	Entry         *bible.EntryRef
	Verses        []bible.VerseRecord
	TranslationID string

	// Translations is only read in multi-translation mode.
	Translations []TranslationText

	// Collection is only read in full-collection mode; nil means the whole
	// translation is active.
	Collection *bible.Collection

	// EmptyMessage replaces the default text shown when there is no entry
	// or no translation data.
	EmptyMessage string
}

// Render builds the fragment for in.Mode.
func Render(in Input) Fragment {
	switch in.Mode {
	case bible.ModeEntryOnly:
		return renderEntryOnly(in)
	case bible.ModeMultiTranslation:
		return renderMulti(in)
	case bible.ModeFullCollection:
		return renderCollection(in)
	default:
		return renderChapter(in)
	}
}

func emptyFragment(class, msg string) Fragment {
	return Fragment{Class: class, Sections: []Section{{Messages: []Message{{Text: msg}}}}}
}

func translationMissing(in Input) bool {
	return in.TranslationID == "" || len(in.Verses) == 0
}

func noVersesMessage(in Input) string {
	if in.EmptyMessage != "" {
		return in.EmptyMessage
	}
	return "Selected translation is empty or not loaded."
}

func noEntryMessage(in Input, def string) string {
	if in.EmptyMessage != "" {
		return in.EmptyMessage
	}
	return def
}

func renderChapter(in Input) Fragment {
	if in.Entry == nil {
		return emptyFragment(ClassDefault, noEntryMessage(in, "No active entry to display."))
	}
	if translationMissing(in) {
		f := emptyFragment(ClassDefault, noVersesMessage(in))
		f.Title = in.Entry.Reference + " (No Data)"
		return f
	}
	e := *in.Entry

	var lines []Line
	for _, v := range in.Verses {
		if e.SameChapter(v) {
			lines = append(lines, Line{Verse: v, Highlight: e.Contains(v)})
		}
	}
	if len(lines) == 0 {
		msg := fmt.Sprintf("No verses found for %s %d in %q.",
			bible.DisplayName(e.Book), e.Chapter, bible.TrimExt(in.TranslationID))
		f := emptyFragment(ClassDefault, msg)
		f.Title = e.Reference
		return f
	}
	sortLines(lines)
	return Fragment{
		Class:      ClassDefault,
		Title:      e.Reference,
		Sections:   []Section{{Lines: lines}},
		Anchor:     e.StartVerse,
		Successful: true,
	}
}

func renderEntryOnly(in Input) Fragment {
	if in.Entry == nil {
		return emptyFragment(ClassDefault, noEntryMessage(in, "No active entry to display."))
	}
	if translationMissing(in) {
		f := emptyFragment(ClassDefault, noVersesMessage(in))
		f.Title = in.Entry.Reference + " (No Data)"
		return f
	}
	sec, found := entrySection(*in.Entry, in.Verses, in.TranslationID)
	f := Fragment{
		Class:      ClassDefault,
		Title:      in.Entry.Reference,
		Sections:   []Section{sec},
		Centered:   true,
		Successful: found,
	}
	return f
}

// entrySection lists the verses of e found in verses, or a "not found"
// placeholder.
func entrySection(e bible.EntryRef, verses []bible.VerseRecord, translation string) (Section, bool) {
	var lines []Line
	for _, v := range verses {
		if e.Contains(v) {
			lines = append(lines, Line{Verse: v})
		}
	}
	if len(lines) == 0 {
		where := "in loaded content"
		if translation != "" {
			where = fmt.Sprintf("in %q", bible.TrimExt(translation))
		}
		return Section{Messages: []Message{{
			Text:   fmt.Sprintf("Entry %q not found %s.", e.Reference, where),
			Italic: true,
		}}}, false
	}
	sortLines(lines)
	return Section{Lines: lines}, true
}

func renderMulti(in Input) Fragment {
	if in.Entry == nil {
		return emptyFragment(ClassMulti, noEntryMessage(in, "No reference to display for Multi-Translation. Select a collection with entries."))
	}
	if len(in.Translations) == 0 {
		return emptyFragment(ClassMulti, "No translations imported for multi-translation view.")
	}

	texts := append([]TranslationText(nil), in.Translations...)
	sort.SliceStable(texts, func(i, j int) bool {
		return texts[i].Translation.Label() < texts[j].Translation.Label()
	})

	// The countdown keeps running even when no translation has the entry.
	f := Fragment{Class: ClassMulti, Title: in.Entry.Reference, Centered: true, Successful: true}
	for _, t := range texts {
		sec := Section{Kind: SectionTranslation, Heading: t.Translation.Label()}
		switch {
		case t.Err != nil:
			sec.Messages = []Message{{Text: "(Error processing verses)", Italic: true}}
		case len(t.Verses) == 0:
			sec.Messages = []Message{{
				Text:   fmt.Sprintf("Entry %q not found (translation is empty or entry not in translation).", in.Entry.Reference),
				Italic: true,
			}}
		default:
			body, _ := entrySection(*in.Entry, t.Verses, t.Translation.Label())
			sec.Lines, sec.Messages = body.Lines, body.Messages
		}
		f.Sections = append(f.Sections, sec)
	}
	return f
}

func renderCollection(in Input) Fragment {
	if in.Collection == nil {
		f := emptyFragment(ClassCollection, `Please select a specific collection to use "Full Collection View".`)
		f.Title = "Select Collection"
		return f
	}
	name := in.Collection.Name
	if translationMissing(in) {
		id := in.TranslationID
		if id == "" {
			id = "Selected Translation"
		}
		f := emptyFragment(ClassCollection,
			fmt.Sprintf("The translation %q is empty or not loaded. Cannot display collection entries.", bible.TrimExt(id)))
		f.Title = name + " (No Translation Data)"
		return f
	}
	if len(in.Collection.Entries) == 0 {
		f := emptyFragment(ClassCollection, fmt.Sprintf("The collection %q is empty.", name))
		f.Title = name + " (Empty)"
		return f
	}

	f := Fragment{Class: ClassCollection, Title: name, Successful: true}
	for _, e := range in.Collection.Entries {
		body, _ := entrySection(e, in.Verses, in.TranslationID)
		body.Kind = SectionEntry
		body.Heading = e.Reference
		f.Sections = append(f.Sections, body)
	}
	return f
}

func sortLines(lines []Line) {
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Verse.Verse < lines[j].Verse.Verse })
}
