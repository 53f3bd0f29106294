package theme

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a named colour scheme shared by the terminal UI and the browser
// stylesheet.
type Theme struct {
	Key  string
	Name string

	Text       lipgloss.Color
	Muted      lipgloss.Color
	Accent     lipgloss.Color
	VerseNum   lipgloss.Color
	Highlight  lipgloss.Color
	Background lipgloss.Color
	Border     lipgloss.Color
	Error      lipgloss.Color
	Success    lipgloss.Color

	// ProgressFrom and ProgressTo are the countdown bar gradient.
	ProgressFrom lipgloss.Color
	ProgressTo   lipgloss.Color
}

var (
	Dark = Theme{
		Key:          "dark",
		Name:         "Dark",
		Text:         lipgloss.Color("#e4e4e7"),
		Muted:        lipgloss.Color("#71717a"),
		Accent:       lipgloss.Color("#60a5fa"),
		VerseNum:     lipgloss.Color("#fbbf24"),
		Highlight:    lipgloss.Color("#1e3a5f"),
		Background:   lipgloss.Color("#18181b"),
		Border:       lipgloss.Color("#3f3f46"),
		Error:        lipgloss.Color("#f87171"),
		Success:      lipgloss.Color("#4ade80"),
		ProgressFrom: lipgloss.Color("#3b82f6"),
		ProgressTo:   lipgloss.Color("#a855f7"),
	}

	Light = Theme{
		Key:          "light",
		Name:         "Light",
		Text:         lipgloss.Color("#1f2937"),
		Muted:        lipgloss.Color("#9ca3af"),
		Accent:       lipgloss.Color("#2563eb"),
		VerseNum:     lipgloss.Color("#b45309"),
		Highlight:    lipgloss.Color("#dbeafe"),
		Background:   lipgloss.Color("#f9fafb"),
		Border:       lipgloss.Color("#d1d5db"),
		Error:        lipgloss.Color("#dc2626"),
		Success:      lipgloss.Color("#16a34a"),
		ProgressFrom: lipgloss.Color("#60a5fa"),
		ProgressTo:   lipgloss.Color("#2563eb"),
	}

	Sepia = Theme{
		Key:          "sepia",
		Name:         "Sepia",
		Text:         lipgloss.Color("#433422"),
		Muted:        lipgloss.Color("#8b7355"),
		Accent:       lipgloss.Color("#9c4221"),
		VerseNum:     lipgloss.Color("#a0522d"),
		Highlight:    lipgloss.Color("#ead8b8"),
		Background:   lipgloss.Color("#f4ecd8"),
		Border:       lipgloss.Color("#c8b592"),
		Error:        lipgloss.Color("#b91c1c"),
		Success:      lipgloss.Color("#4d7c0f"),
		ProgressFrom: lipgloss.Color("#d4a373"),
		ProgressTo:   lipgloss.Color("#9c4221"),
	}

	Midnight = Theme{
		Key:          "midnight",
		Name:         "Midnight",
		Text:         lipgloss.Color("#cdd6f4"),
		Muted:        lipgloss.Color("#6c7086"),
		Accent:       lipgloss.Color("#f5c2e7"),
		VerseNum:     lipgloss.Color("#f9e2af"),
		Highlight:    lipgloss.Color("#45475a"),
		Background:   lipgloss.Color("#1e1e2e"),
		Border:       lipgloss.Color("#45475a"),
		Error:        lipgloss.Color("#f38ba8"),
		Success:      lipgloss.Color("#a6e3a1"),
		ProgressFrom: lipgloss.Color("#89b4fa"),
		ProgressTo:   lipgloss.Color("#cba6f7"),
	}

	Forest = Theme{
		Key:          "forest",
		Name:         "Forest",
		Text:         lipgloss.Color("#e8f0e3"),
		Muted:        lipgloss.Color("#7d8f74"),
		Accent:       lipgloss.Color("#a3d977"),
		VerseNum:     lipgloss.Color("#e9c46a"),
		Highlight:    lipgloss.Color("#2d4a2b"),
		Background:   lipgloss.Color("#1b2a1a"),
		Border:       lipgloss.Color("#3c5a3a"),
		Error:        lipgloss.Color("#e76f51"),
		Success:      lipgloss.Color("#95d5b2"),
		ProgressFrom: lipgloss.Color("#52b788"),
		ProgressTo:   lipgloss.Color("#d8f3dc"),
	}
)

// All returns every theme in menu order.
func All() []Theme {
	return []Theme{Dark, Light, Sepia, Midnight, Forest}
}

// Keys lists the theme keys, sorted.
func Keys() []string {
	var keys []string
	for _, t := range All() {
		keys = append(keys, t.Key)
	}
	sort.Strings(keys)
	return keys
}

// Lookup finds a theme by key or display name, ignoring case.
func Lookup(name string) (Theme, bool) {
	name = strings.TrimSpace(name)
	for _, t := range All() {
		if strings.EqualFold(t.Key, name) || strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Theme{}, false
}

// Get returns a theme by name, or Dark.
func Get(name string) Theme {
	if t, ok := Lookup(name); ok {
		return t
	}
	return Dark
}

// Next cycles to the following theme.
func (t Theme) Next() Theme {
	all := All()
	for i, o := range all {
		if o.Key == t.Key {
			return all[(i+1)%len(all)]
		}
	}
	return Dark
}

// CSSVariables renders the theme as a :root block of custom properties.
func (t Theme) CSSVariables() string {
	vars := []struct {
		name  string
		color lipgloss.Color
	}{
		{"text", t.Text},
		{"muted", t.Muted},
		{"accent", t.Accent},
		{"verse-number", t.VerseNum},
		{"highlight", t.Highlight},
		{"background", t.Background},
		{"border", t.Border},
		{"error", t.Error},
		{"success", t.Success},
		{"progress-from", t.ProgressFrom},
		{"progress-to", t.ProgressTo},
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "/* %s */\n:root {\n", t.Name)
	for _, v := range vars {
		fmt.Fprintf(&sb, "  --%s: %s;\n", v.name, string(v.color))
	}
	sb.WriteString("}\n")
	return sb.String()
}
