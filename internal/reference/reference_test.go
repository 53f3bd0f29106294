package reference

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Ref
		ok   bool
	}{
		{"John 3:16", Ref{Book: "john", Chapter: 3, StartVerse: 16, EndVerse: 16, Reference: "John 3:16"}, true},
		{"jn 3:16-18", Ref{Book: "john", Chapter: 3, StartVerse: 16, EndVerse: 18, Reference: "John 3:16-18"}, true},
		{"1 Cor 13.4 love is patient", Ref{Book: "1 corinthians", Chapter: 13, StartVerse: 4, EndVerse: 4, Reference: "1 Corinthians 13:4", Note: "love is patient"}, true},
		{"Gen 1", Ref{Book: "genesis", Chapter: 1, StartVerse: 1, EndVerse: 1, Reference: "Genesis 1:1"}, true},
		{"Ps 23:4–6", Ref{Book: "psalms", Chapter: 23, StartVerse: 4, EndVerse: 6, Reference: "Psalms 23:4-6"}, true},
		{"John 3:18-16", Ref{Book: "john", Chapter: 3, StartVerse: 18, EndVerse: 18, Reference: "John 3:18"}, true},
		{"John 3:16-9223372036854775807", Ref{Book: "john", Chapter: 3, StartVerse: 16, EndVerse: MaxVerse, Reference: "John 3:16-176"}, true},
		{"John 3:16-99999999999999999999", Ref{Book: "john", Chapter: 3, StartVerse: 16, EndVerse: MaxVerse, Reference: "John 3:16-176"}, true},
		{"Ps 119:170-200", Ref{Book: "psalms", Chapter: 119, StartVerse: 170, EndVerse: 176, Reference: "Psalms 119:170-176"}, true},
		{"John 3:177", Ref{}, false},
		{"John 3:99999999999999999999", Ref{}, false},
		{"Psalms 151:1", Ref{}, false},
		{"John 9223372036854775807:1", Ref{}, false},
		{"Hezekiah 1:1", Ref{}, false},
		{"John 0:1", Ref{}, false},
		{"John 3:0", Ref{}, false},
		{"not a verse", Ref{}, false},
		{"", Ref{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := Parse(tc.in)
			assert.Equal(t, tc.ok, ok)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestIsChapterOnly(t *testing.T) {
	assert.True(t, IsChapterOnly("Genesis 1"))
	assert.True(t, IsChapterOnly("1 John 2"))
	assert.True(t, IsChapterOnly("  psalm 23 "))
	assert.False(t, IsChapterOnly("John 3:16"))
	assert.False(t, IsChapterOnly("John 3.16"))
	assert.False(t, IsChapterOnly("John"))
}

func TestExtract(t *testing.T) {
	got := Extract("John 3:16, 18-20; Gen 1:1, nonsense, 3")
	var refs []string
	for _, ex := range got {
		refs = append(refs, ex.Ref.Reference)
	}
	assert.Equal(t, []string{"John 3:16", "John 3:18-20", "Genesis 1:1", "Genesis 1:3"}, refs)
	assert.Equal(t, "18-20", got[1].Source)
}

func TestExtractBoundsContinuation(t *testing.T) {
	got := Extract("John 3:16, 18-9223372036854775807, 0, 200")
	var refs []string
	for _, ex := range got {
		refs = append(refs, ex.Ref.Reference)
	}
	assert.Equal(t, []string{"John 3:16", "John 3:18-176"}, refs)
}

func TestExtractContinuationNeedsAReference(t *testing.T) {
	assert.Empty(t, Extract("16, 18"))
	assert.Empty(t, Extract(" ; , "))
}

func TestEntry(t *testing.T) {
	r, ok := Parse("Rom 8:28")
	assert.True(t, ok)
	e := r.Entry()
	assert.Equal(t, "romans", e.Book)
	assert.Equal(t, 28, e.StartVerse)
	assert.Equal(t, 28, e.EndVerse)
	assert.Equal(t, "Romans 8:28", e.Reference)
}
