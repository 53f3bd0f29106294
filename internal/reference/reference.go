// Package reference parses free-text Bible references such as "Gen 1",
// "John 3:16-18" or "1 Cor 13.4 love is patient".
package reference

import (
	"regexp"
	"strconv"
	"strings"

	"verse-rotator/internal/bible"
)

// Upper bounds of a reference. Psalms has 150 chapters and Psalm 119 has 176
// verses; anything larger is not a reference.
const (
	MaxChapter = 150
	MaxVerse   = 176
)

// Ref is a parsed reference. A bare "Book Chapter" parses as verse 1-1; see
// IsChapterOnly for the expansion callers may apply.
type Ref struct {
	Book       string
	Chapter    int
	StartVerse int
	EndVerse   int
	Reference  string
	Note       string
}

// Entry converts the reference into a rotator entry.
func (r Ref) Entry() bible.EntryRef {
	return bible.EntryRef{
		Book:       r.Book,
		Chapter:    r.Chapter,
		StartVerse: r.StartVerse,
		EndVerse:   r.EndVerse,
		Reference:  r.Reference,
	}
}

var refPattern = regexp.MustCompile(
	`^\s*((?:[1-3]\s*)?[A-Za-z][A-Za-z.\s]*?)\s*(\d+)` + // book, chapter
		`(?:\s*[:.]\s*(\d+)(?:\s*[-\x{2013}\x{2014}]\s*(\d+))?)?` + // verse range
		`(?:\s+(.*?))?\s*$`) // trailing note

// Parse reads a single reference with an optional trailing note. It reports
// false when the text is not a reference or names an unknown book.
func Parse(text string) (Ref, bool) {
	m := refPattern.FindStringSubmatch(text)
	if m == nil {
		return Ref{}, false
	}
	book, ok := bible.LookupBook(m[1])
	if !ok {
		return Ref{}, false
	}
	chapter, err := strconv.Atoi(m[2])
	if err != nil || chapter < 1 || chapter > MaxChapter {
		return Ref{}, false
	}

	start, end := 1, 1
	if m[3] != "" {
		var ok bool
		if start, end, ok = verseRange(m[3], m[4]); !ok {
			return Ref{}, false
		}
	}

	note := strings.TrimSpace(strings.TrimLeft(m[5], "-–—: "))
	return Ref{
		Book:       book.Key(),
		Chapter:    chapter,
		StartVerse: start,
		EndVerse:   end,
		Reference:  bible.FormatReference(book.Key(), chapter, start, end),
		Note:       note,
	}, true
}

var chapterOnlyPattern = regexp.MustCompile(`^(?:[1-3]\s*)?[a-z\s]+?\s+\d+$`)

// IsChapterOnly reports whether source looks like a bare "Book Chapter"
// prompt, e.g. "Genesis 1" or "1 John 2". It knows nothing about the parsed
// result, so "John 3" and an accidental "John 3" meant as 3:1 look alike.
func IsChapterOnly(source string) bool {
	s := strings.ToLower(strings.TrimSpace(source))
	if strings.ContainsAny(s, ":.-") {
		return false
	}
	return chapterOnlyPattern.MatchString(s)
}

// Extracted is one reference found in a larger prompt, with the text
// segment it came from.
type Extracted struct {
	Ref    Ref
	Source string
}

var continuation = regexp.MustCompile(`^\s*(\d+)(?:\s*[-\x{2013}]\s*(\d+))?\s*$`)

// Extract finds every reference in a prompt. References are separated by
// ";" or ","; a bare verse or verse range after a comma ("John 3:16, 18-20")
// continues the previous reference's chapter.
func Extract(prompt string) []Extracted {
	var out []Extracted
	for _, group := range strings.Split(prompt, ";") {
		var last *Ref
		for _, part := range strings.Split(group, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if last != nil {
				if m := continuation.FindStringSubmatch(part); m != nil {
					start, end, ok := verseRange(m[1], m[2])
					if !ok {
						continue
					}
					r := Ref{
						Book:       last.Book,
						Chapter:    last.Chapter,
						StartVerse: start,
						EndVerse:   end,
						Reference:  bible.FormatReference(last.Book, last.Chapter, start, end),
					}
					out = append(out, Extracted{Ref: r, Source: part})
					continue
				}
			}
			r, ok := Parse(part)
			if !ok {
				continue
			}
			out = append(out, Extracted{Ref: r, Source: part})
			last = &r
		}
	}
	return out
}

// verseRange parses a start verse and optional end verse. The start must be
// in [1, MaxVerse]; the end is raised to the start and capped at MaxVerse.
// An end too large to parse counts as MaxVerse.
func verseRange(from, to string) (start, end int, ok bool) {
	start, err := strconv.Atoi(from)
	if err != nil || start < 1 || start > MaxVerse {
		return 0, 0, false
	}
	end = start
	if to != "" {
		if end, err = strconv.Atoi(to); err != nil {
			end = MaxVerse
		}
	}
	return start, min(max(end, start), MaxVerse), true
}
