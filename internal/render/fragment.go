package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"verse-rotator/internal/bible"
)

// Container classes, matching the stylesheet of the browser front end.
const (
	ClassDefault    = "verse-text-display"
	ClassMulti      = "verse-text-display multi-translation-view"
	ClassCollection = "verse-text-display full-collection-view"
)

// SectionKind controls how a section is wrapped.
type SectionKind int

const (
	SectionPlain SectionKind = iota
	SectionTranslation
	SectionEntry
)

// Line is one rendered verse.
type Line struct {
	Verse     bible.VerseRecord
	Highlight bool
}

// Message is a placeholder or notice paragraph.
type Message struct {
	Text   string
	Italic bool
}

// Section is a run of verse lines or messages, optionally under a heading.
type Section struct {
	Kind     SectionKind
	Heading  string
	Lines    []Line
	Messages []Message
}

// Fragment is the output of Render.
type Fragment struct {
	Class    string
	Title    string
	Sections []Section

	// Anchor is the verse number to scroll to in chapter view.
	Anchor int

	// Centered content is vertically centred by hosts that can.
	Centered bool

	// Successful is true when real verse content was found, and always for a
	// multi-translation entry. The controller only runs the timer for
	// successful fragments.
	Successful bool
}

// Messages returns every message text in the fragment, in order.
func (f Fragment) Messages() []string {
	var out []string
	for _, s := range f.Sections {
		for _, m := range s.Messages {
			out = append(out, m.Text)
		}
	}
	return out
}

// VerseNumbers returns the verse numbers rendered, in order.
func (f Fragment) VerseNumbers() []int {
	var out []int
	for _, s := range f.Sections {
		for _, l := range s.Lines {
			out = append(out, l.Verse.Verse)
		}
	}
	return out
}

var (
	verseHTML = func() *bluemonday.Policy {
		p := bluemonday.NewPolicy()
		p.AllowElements("i", "em", "b", "strong", "br", "sup", "sub", "small")
		return p
	}()
	stripAll = bluemonday.StrictPolicy()
)

// SanitizeVerse keeps inline formatting tags in imported verse text and
// drops every other tag, keeping its text.
func SanitizeVerse(text string) string {
	return verseHTML.Sanitize(text)
}

// PlainText strips all markup from verse text.
func PlainText(text string) string {
	text = strings.NewReplacer("<br>", " ", "<br/>", " ", "<br />", " ").Replace(text)
	return strings.Join(strings.Fields(html.UnescapeString(stripAll.Sanitize(text))), " ")
}

// HTML renders the fragment's inner markup.
func (f Fragment) HTML() string {
	var sb strings.Builder
	for i, s := range f.Sections {
		switch s.Kind {
		case SectionTranslation:
			sb.WriteString(`<div class="multi-trans-item"><h4 class="multi-trans-name">`)
			sb.WriteString(html.EscapeString(s.Heading))
			sb.WriteString(`</h4>`)
			writeBody(&sb, s)
			sb.WriteString(`</div>`)
		case SectionEntry:
			if i > 0 {
				sb.WriteString(`<hr class="full-collection-entry-separator">`)
			}
			sb.WriteString(`<div class="full-collection-entry-item"><h4 class="full-collection-entry-reference">`)
			sb.WriteString(html.EscapeString(s.Heading))
			sb.WriteString(`</h4>`)
			writeBody(&sb, s)
			sb.WriteString(`</div>`)
		default:
			writeBody(&sb, s)
		}
	}
	return sb.String()
}

func writeBody(sb *strings.Builder, s Section) {
	for _, m := range s.Messages {
		if m.Italic {
			fmt.Fprintf(sb, "<p><i>%s</i></p>", html.EscapeString(m.Text))
		} else {
			fmt.Fprintf(sb, "<p>%s</p>", html.EscapeString(m.Text))
		}
	}
	for _, l := range s.Lines {
		v := l.Verse
		text := SanitizeVerse(v.Text)
		if strings.TrimSpace(text) == "" {
			text = "[Verse text not available]"
		}
		class := ""
		if l.Highlight {
			class = ` class="current-verse-highlight"`
		}
		fmt.Fprintf(sb, `<p%s data-verse-num="%d" data-verse-id="%s"><span class="verse-number">%d</span>%s</p>`,
			class, v.Verse, html.EscapeString(v.ID()), v.Verse, text)
	}
}

// Document wraps HTML in the container element.
func (f Fragment) Document() string {
	return fmt.Sprintf(`<div id="verse-text" class="%s">%s</div>`, f.Class, f.HTML())
}
