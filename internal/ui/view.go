package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"verse-rotator/internal/av"
	"verse-rotator/internal/bible"
	"verse-rotator/internal/render"
	"verse-rotator/internal/settings"
	"verse-rotator/internal/theme"
)

type styles struct {
	header    lipgloss.Style
	title     lipgloss.Style
	heading   lipgloss.Style
	verseNum  lipgloss.Style
	text      lipgloss.Style
	highlight lipgloss.Style
	message   lipgloss.Style
	help      lipgloss.Style
	err       lipgloss.Style
	ok        lipgloss.Style
	selected  lipgloss.Style
	box       lipgloss.Style
	pulse     lipgloss.Style
}

func newStyles(t theme.Theme) styles {
	return styles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Accent).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Border),
		title:     lipgloss.NewStyle().Bold(true).Foreground(t.Text),
		heading:   lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		verseNum:  lipgloss.NewStyle().Foreground(t.VerseNum).Bold(true),
		text:      lipgloss.NewStyle().Foreground(t.Text),
		highlight: lipgloss.NewStyle().Foreground(t.Text).Background(t.Highlight).Bold(true),
		message:   lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		help:      lipgloss.NewStyle().Foreground(t.Muted),
		err:       lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		ok:        lipgloss.NewStyle().Foreground(t.Success),
		selected:  lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		box: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		pulse: lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
	}
}

// formatFragment renders a fragment for the terminal. It also returns the
// line of the first highlighted verse, or -1.
func formatFragment(f render.Fragment, st styles, width int) (string, int) {
	textWidth := max(width-6, 20)
	var sb strings.Builder
	anchor := -1

	for i, s := range f.Sections {
		if s.Heading != "" {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(st.heading.Render(s.Heading))
			sb.WriteString("\n\n")
		}
		for _, msg := range s.Messages {
			style := st.text
			if msg.Italic {
				style = st.message
			}
			sb.WriteString(style.Width(textWidth).Render(msg.Text))
			sb.WriteString("\n\n")
		}
		for _, l := range s.Lines {
			text := render.PlainText(l.Verse.Text)
			if text == "" {
				text = "[Verse text not available]"
			}
			style := st.text
			if l.Highlight {
				style = st.highlight
				if anchor < 0 {
					anchor = strings.Count(sb.String(), "\n")
				}
			}
			num := st.verseNum.Render(fmt.Sprintf("%3d", l.Verse.Verse))
			sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, num, "  ", style.Width(textWidth).Render(text)))
			sb.WriteString("\n")
		}
	}
	return sb.String(), anchor
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	var body string
	switch m.overlay {
	case overlayNone:
		body = m.viewport.View()
	case overlayHelp:
		body = m.helpView()
	case overlayTranslations:
		body = m.translationsView()
	case overlayCollections:
		body = m.collectionsView()
	case overlayGoTo:
		body = m.st().box.Render("Go to reference\n\n" + m.input.View())
	case overlayNotes:
		body = m.notesView()
	case overlayEditor:
		body = m.editorView()
	case overlayCompiler:
		body = m.compilerView()
	case overlaySettings:
		body = m.settingsView()
	}

	parts := []string{m.headerView(), body}
	if bar := m.progressView(); bar != "" {
		parts = append(parts, bar)
	}
	parts = append(parts, m.statusView(), m.footerView())
	return strings.Join(parts, "\n")
}

func (m Model) st() styles { return m.styles }

func (m Model) headerView() string {
	snap := m.ctrl.Snapshot()

	translation := "No translation"
	for _, t := range m.ctrl.Translations() {
		if t.ID == snap.TranslationID {
			translation = t.Label()
		}
	}
	scope := "Whole translation"
	if snap.Collection != "" {
		scope = snap.Collection
	}

	fields := []string{translation, scope, snap.Mode.Label()}
	if snap.CountLabel != "" {
		fields = append(fields, snap.CountLabel)
	}
	title := m.st().title.Render("Verse Rotator")
	if ref := m.ctrl.Fragment().Title; ref != "" {
		title += "  " + m.st().heading.Render(ref)
	}
	return m.st().header.Width(max(m.width, 20)).Render(title + "\n" + m.st().help.Render(strings.Join(fields, " · ")))
}

func (m Model) progressView() string {
	if m.prefs != nil && !m.prefs.Bool(settings.KeyShowProgress, true) {
		return ""
	}
	ts := m.ctrl.Timer()
	if !ts.Running && !ts.Paused {
		return ""
	}
	clock := ts.Clock()
	switch {
	case ts.Paused:
		clock = m.st().help.Render(clock + " paused")
	case ts.Pulsing:
		clock = m.st().pulse.Render(clock)
	default:
		clock = m.st().help.Render(clock)
	}
	return m.bar.ViewAs(ts.Percent) + " " + clock
}

func (m Model) statusView() string {
	if m.ctrl.Loading() || m.compiling {
		return m.spinner.View() + m.st().help.Render(" Loading...")
	}
	if m.flash != "" {
		if m.flashErr {
			return m.st().err.Render(m.flash)
		}
		return m.st().ok.Render(m.flash)
	}
	status := m.ctrl.Snapshot().Status
	if status.Error {
		return m.st().err.Render(status.Text)
	}
	return m.st().help.Render(status.Text)
}

func (m Model) footerView() string {
	var help string
	switch m.overlay {
	case overlayNone:
		help = "←/→: prev/next | space: pause | r: random | v: view | t: translation | c: collection | g: go to | n: notes | b: compile | s: settings | ?: help | q: quit"
	case overlayNotes:
		help = "type to search | ↑/↓: select | enter: open/create | ctrl+d: delete | esc: close"
	case overlayEditor:
		help = "ctrl+s: save | ctrl+p: preview | esc: back"
	case overlayCompiler:
		help = "ctrl+t: translation | ctrl+r: compile | ctrl+y: copy | pgup/pgdown: scroll output | esc: close"
	case overlaySettings:
		help = "↑/↓: select | ←/→: change | esc: close"
	case overlayGoTo:
		help = "enter: go | esc: cancel"
	default:
		help = "↑/↓: select | enter: choose | esc: close"
	}
	return m.st().help.Render(help)
}

func (m Model) pickerView(title string, items []string) string {
	var sb strings.Builder
	sb.WriteString(m.st().heading.Render(title))
	sb.WriteString("\n\n")
	if len(items) == 0 {
		sb.WriteString(m.st().message.Render("Nothing to choose from."))
	}
	for i, it := range items {
		if i == m.cursor {
			sb.WriteString(m.st().selected.Render("> " + it))
		} else {
			sb.WriteString("  " + it)
		}
		sb.WriteString("\n")
	}
	return m.st().box.Render(sb.String())
}

func (m Model) translationsView() string {
	var items []string
	for _, t := range m.ctrl.Translations() {
		label := t.Label()
		if t.ID == m.ctrl.TranslationID() {
			label += " (current)"
		}
		items = append(items, label)
	}
	return m.pickerView("Select Translation", items)
}

func (m Model) collectionsView() string {
	var items []string
	for _, name := range m.collectionChoices() {
		if name == "" {
			name = "Whole translation"
		}
		items = append(items, name)
	}
	return m.pickerView("Select Collection", items)
}

func (m Model) notesView() string {
	var sb strings.Builder
	sb.WriteString(m.st().heading.Render("Notes"))
	sb.WriteString("\n\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n\n")

	items := m.noteItems()
	if len(items) == 0 {
		if strings.TrimSpace(m.input.Value()) == "" {
			sb.WriteString(m.st().message.Render("No notes yet. Type a name to create one."))
		} else {
			sb.WriteString(m.st().message.Render("No matching notes."))
		}
	}
	folder := ""
	for i, it := range items {
		if it.folder != folder {
			folder = it.folder
			if folder != "" {
				sb.WriteString(m.st().verseNum.Render(folder) + "\n")
			}
		}
		indent := "  "
		if it.folder != "" {
			indent = "    "
		}
		if i == m.cursor {
			sb.WriteString(m.st().selected.Render("> " + indent[2:] + it.label))
		} else {
			sb.WriteString(indent + it.label)
		}
		sb.WriteString("\n")
	}
	return m.st().box.Render(sb.String())
}

func (m Model) editorView() string {
	title := m.note.Name
	if m.noteDirty {
		title += " *"
	}
	if m.preview {
		return m.st().heading.Render(title+" (preview)") + "\n" + m.output.View()
	}
	return m.st().heading.Render(title) + "\n" + m.editor.View()
}

func (m Model) compilerView() string {
	translation := bible.TrimExt(m.compileTranslation)
	if translation == "" {
		translation = "none"
	}
	var sb strings.Builder
	sb.WriteString(m.st().heading.Render("Bulk Compiler"))
	sb.WriteString(m.st().help.Render("  translation: " + translation))
	sb.WriteString("\n\n")
	sb.WriteString(m.prompts.View())
	sb.WriteString("\n")
	if m.compileOutput != "" {
		sb.WriteString(m.st().box.Render(m.output.View()))
	}
	return sb.String()
}

func assetName(path string, catalog []av.Asset) string {
	switch path {
	case av.None:
		return "None"
	case av.Random:
		return "Random"
	}
	for _, a := range catalog {
		if a.Path == path {
			return a.Name
		}
	}
	return path
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (m Model) settingsView() string {
	var items []string
	for _, row := range m.settingRows() {
		var label string
		switch row {
		case rowTheme:
			label = "Theme: " + m.theme.Name
		case rowInterval:
			label = fmt.Sprintf("Interval: %d min", int(m.prefs.Interval().Minutes()))
		case rowProgress:
			label = "Progress bar: " + onOff(m.prefs.Bool(settings.KeyShowProgress, true))
		case rowAVEnabled:
			label = "Audiovisual: " + onOff(m.av.Settings().Enabled)
		case rowImage:
			label = "Background: " + assetName(m.av.Settings().Image, av.Images)
		case rowSound:
			label = "Verse sound: " + assetName(m.av.Settings().Sound, av.Sounds)
		case rowMusic:
			label = "Music: " + assetName(m.av.Settings().Music, av.Music)
		case rowVolume:
			label = fmt.Sprintf("Volume: %d%%", int(m.av.Settings().Volume*100+0.5))
		}
		items = append(items, label)
	}
	return m.pickerView("Settings", items)
}

func (m Model) helpView() string {
	lines := []string{
		"←/→ or h/l   previous / next entry",
		"space or p   pause / resume the countdown",
		"r            random entry",
		"v            cycle view mode",
		"t            choose translation",
		"c            choose collection",
		"g            go to a reference (whole translation only)",
		"n            notes",
		"b            bulk compiler",
		"s            settings",
		"q            quit",
	}
	return m.st().box.Render(m.st().heading.Render("Keys") + "\n\n" + strings.Join(lines, "\n"))
}
