package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"verse-rotator/internal/av"
	"verse-rotator/internal/bible"
	"verse-rotator/internal/compiler"
	"verse-rotator/internal/notes"
	"verse-rotator/internal/rotator"
	"verse-rotator/internal/settings"
	"verse-rotator/internal/theme"
)

type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlayTranslations
	overlayCollections
	overlayGoTo
	overlayNotes
	overlayEditor
	overlayCompiler
	overlaySettings
)

// Dispatcher hands timer ticks from the scheduler goroutine to the event
// loop. Pass Dispatch to rotator.NewTickerScheduler.
type Dispatcher struct {
	ch chan func()
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{ch: make(chan func(), 64)}
}

// Dispatch queues fn. A full queue drops the tick.
func (d *Dispatcher) Dispatch(fn func()) {
	select {
	case d.ch <- fn:
	default:
	}
}

func (d *Dispatcher) wait() tea.Cmd {
	return func() tea.Msg { return dispatchMsg(<-d.ch) }
}

type Deps struct {
	Context    context.Context
	Controller *rotator.Controller
	Dispatcher *Dispatcher
	Notes      *notes.Manager
	Compiler   *compiler.Compiler
	AV         *av.System
	Prefs      *settings.Store
	Logger     *zap.Logger
}

type Model struct {
	ctx      context.Context
	ctrl     *rotator.Controller
	disp     *Dispatcher
	notes    *notes.Manager
	compiler *compiler.Compiler
	av       *av.System
	prefs    *settings.Store
	log      *zap.Logger

	viewport viewport.Model
	input    textinput.Model
	editor   textarea.Model
	prompts  textarea.Model
	output   viewport.Model
	bar      progress.Model
	spinner  spinner.Model
	theme    theme.Theme
	styles   styles

	overlay overlay
	cursor  int
	width   int
	height  int
	ready   bool
	shown   string

	listing   notes.Listing
	note      bible.Note
	noteDirty bool
	preview   bool

	compileTranslation string
	compileOutput      string
	compiling          bool

	flash    string
	flashErr bool
}

type dispatchMsg func()

type translationLoadedMsg struct {
	id     string
	verses []bible.VerseRecord
	err    error
}

type compiledMsg struct {
	res compiler.Result
	err error
}

var clipboardWrite = clipboard.WriteAll

func New(d Deps) Model {
	if d.Context == nil {
		d.Context = context.Background()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Dispatcher == nil {
		d.Dispatcher = NewDispatcher()
	}

	ti := textinput.New()
	ti.CharLimit = 80
	ti.Width = 50

	editor := textarea.New()
	editor.ShowLineNumbers = false

	prompts := textarea.New()
	prompts.Placeholder = "One reference per line, e.g. John 3:16-18"
	prompts.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:      d.Context,
		ctrl:     d.Controller,
		disp:     d.Dispatcher,
		notes:    d.Notes,
		compiler: d.Compiler,
		av:       d.AV,
		prefs:    d.Prefs,
		log:      d.Logger,
		input:    ti,
		editor:   editor,
		prompts:  prompts,
		spinner:  sp,
	}
	name := settings.DefaultTheme
	if m.prefs != nil {
		name = m.prefs.GetOr(settings.KeyTheme, name)
	}
	m.setTheme(theme.Get(name))
	return m
}

func (m *Model) setTheme(t theme.Theme) {
	m.theme = t
	m.styles = newStyles(t)
	m.bar = progress.New(
		progress.WithGradient(string(t.ProgressFrom), string(t.ProgressTo)),
		progress.WithoutPercentage(),
	)
	m.bar.Width = max(m.width-12, 10)
	m.shown = ""
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.disp.wait()}
	if m.av != nil {
		m.av.ApplyMusic(m.ctx)
	}
	return tea.Batch(cmds...)
}

func loadTranslation(ctx context.Context, ctrl *rotator.Controller, id string) tea.Cmd {
	return func() tea.Msg {
		verses, err := ctrl.FetchTranslation(ctx, id)
		return translationLoadedMsg{id: id, verses: verses, err: err}
	}
}

func runCompiler(ctx context.Context, c *compiler.Compiler, translation, text string) tea.Cmd {
	return func() tea.Msg {
		res, err := c.Run(ctx, translation, text)
		return compiledMsg{res: res, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case dispatchMsg:
		msg()
		m.refresh()
		return m, m.disp.wait()

	case translationLoadedMsg:
		if err := m.ctrl.FinishTranslation(msg.id, msg.verses, msg.err); err != nil {
			m.log.Warn("translation load failed", zap.String("translation", msg.id), zap.Error(err))
		}
		m.refresh()
		return m, nil

	case compiledMsg:
		m.compiling = false
		if msg.err != nil {
			m.setFlash(msg.err.Error(), true)
			return m, nil
		}
		m.compileOutput = msg.res.Output
		m.output.SetContent(msg.res.Output)
		m.output.GotoTop()
		m.setFlash(msg.res.Summary(), false)
		return m, nil

	case spinner.TickMsg:
		if !m.ctrl.Loading() && !m.compiling {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.FocusMsg:
		m.ctrl.Resume(rotator.SourceVisibility)
		return m, nil

	case tea.BlurMsg:
		m.ctrl.Pause(rotator.SourceVisibility)
		return m, nil

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if m.overlay != overlayNone {
			return m.updateOverlay(msg)
		}
		return m.updateReader(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) resize(w, h int) {
	m.width = w
	m.height = h
	bodyHeight := max(h-6, 3)

	if !m.ready {
		m.viewport = viewport.New(w, bodyHeight)
		m.viewport.YPosition = 2
		m.output = viewport.New(w, max(bodyHeight/2, 3))
		m.ready = true
	} else {
		m.viewport.Width = w
		m.viewport.Height = bodyHeight
		m.output.Width = w
		m.output.Height = max(bodyHeight/2, 3)
	}
	m.editor.SetWidth(max(w-4, 10))
	m.editor.SetHeight(max(bodyHeight-4, 3))
	m.prompts.SetWidth(max(w-4, 10))
	m.prompts.SetHeight(max(bodyHeight/2-4, 3))
	m.bar.Width = max(w-12, 10)
	m.shown = ""
	m.refresh()
}

// refresh re-renders the current fragment into the viewport. The view
// scrolls to the anchor verse only when the shown entry changes.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	f := m.ctrl.Fragment()
	content, anchor := formatFragment(f, m.styles, m.viewport.Width)
	m.viewport.SetContent(content)

	key := fmt.Sprintf("%s|%s|%s|%s", m.ctrl.Mode(), m.ctrl.TranslationID(), m.ctrl.ActiveCollection(), m.ctrl.CountLabel())
	if key != m.shown {
		m.shown = key
		if f.Centered || anchor < 0 {
			m.viewport.GotoTop()
		} else {
			m.viewport.SetYOffset(max(anchor-2, 0))
		}
	}
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash = text
	m.flashErr = isErr
	if isErr {
		m.log.Warn("ui", zap.String("message", text))
	}
}

// report surfaces a controller error the controller has not already put in
// its status line.
func (m *Model) report(err error) {
	switch {
	case err == nil:
		m.flash = ""
	case errors.Is(err, rotator.ErrBusy):
		m.setFlash("Still loading, please wait.", true)
	default:
		m.flash = ""
		m.log.Debug("command failed", zap.Error(err))
	}
}

func (m Model) quit() tea.Cmd {
	if m.overlay == overlayEditor && m.noteDirty {
		if err := m.notes.Save(m.ctx, m.note.Name, m.editor.Value()); err != nil {
			m.log.Warn("failed to save note on exit", zap.Error(err))
		}
	}
	if m.av != nil {
		m.av.StopMusic()
	}
	m.ctrl.Close()
	return tea.Quit
}

func (m Model) updateReader(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, m.quit()
	case "left", "h":
		m.report(m.ctrl.Navigate(rotator.Prev))
	case "right", "l":
		m.report(m.ctrl.Navigate(rotator.Next))
	case "r":
		m.report(m.ctrl.Random())
	case " ", "space", "p":
		m.ctrl.TogglePause()
	case "v":
		m.report(m.ctrl.SetMode(m.ctx, m.ctrl.Mode().Next()))
	case "t":
		m.open(overlayTranslations)
		return m, nil
	case "c":
		m.open(overlayCollections)
		return m, nil
	case "g":
		m.open(overlayGoTo)
		m.input.Placeholder = "Reference, e.g. John 3:16"
		m.input.SetValue("")
		cmd := m.input.Focus()
		return m, cmd
	case "n":
		if m.notes == nil {
			m.setFlash("Notes are unavailable.", true)
			return m, nil
		}
		cmd := m.openNotes()
		return m, cmd
	case "b":
		if m.compiler == nil {
			m.setFlash("The bulk compiler is unavailable.", true)
			return m, nil
		}
		m.open(overlayCompiler)
		if m.compileTranslation == "" {
			m.compileTranslation = m.compiler.LastTranslation()
		}
		if m.compileTranslation == "" {
			m.compileTranslation = m.ctrl.TranslationID()
		}
		cmd := m.prompts.Focus()
		return m, cmd
	case "s":
		m.open(overlaySettings)
		return m, nil
	case "?":
		m.open(overlayHelp)
		return m, nil
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	m.refresh()
	return m, nil
}

// open shows an overlay, pausing the countdown while any overlay is up.
func (m *Model) open(o overlay) {
	if m.overlay == overlayNone {
		m.ctrl.Pause(rotator.SourceModal)
	}
	m.overlay = o
	m.cursor = 0
	m.flash = ""
}

func (m *Model) close() {
	m.overlay = overlayNone
	m.input.Blur()
	m.editor.Blur()
	m.prompts.Blur()
	m.ctrl.Resume(rotator.SourceModal)
	m.refresh()
}

func (m Model) updateOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.overlay {
	case overlayHelp:
		m.close()
		return m, nil
	case overlayTranslations:
		return m.updateTranslations(msg)
	case overlayCollections:
		return m.updateCollections(msg)
	case overlayGoTo:
		return m.updateGoTo(msg)
	case overlayNotes:
		return m.updateNotes(msg)
	case overlayEditor:
		return m.updateEditor(msg)
	case overlayCompiler:
		return m.updateCompiler(msg)
	case overlaySettings:
		return m.updateSettings(msg)
	}
	return m, nil
}

func (m *Model) moveCursor(key string, n int) bool {
	if n == 0 {
		m.cursor = 0
		return key == "up" || key == "down" || key == "k" || key == "j"
	}
	switch key {
	case "up", "k":
		m.cursor = (m.cursor - 1 + n) % n
	case "down", "j":
		m.cursor = (m.cursor + 1) % n
	default:
		return false
	}
	return true
}

func (m Model) updateTranslations(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ts := m.ctrl.Translations()
	key := msg.String()
	if m.moveCursor(key, len(ts)) {
		return m, nil
	}
	switch key {
	case "esc", "q":
		m.close()
	case "enter":
		if len(ts) == 0 {
			m.close()
			return m, nil
		}
		id := ts[m.cursor].ID
		m.close()
		if id == m.ctrl.TranslationID() {
			return m, nil
		}
		if err := m.ctrl.BeginTranslation(id); err != nil {
			m.report(err)
			return m, nil
		}
		return m, tea.Batch(loadTranslation(m.ctx, m.ctrl, id), m.spinner.Tick)
	}
	return m, nil
}

// collectionChoices puts the whole translation first.
func (m Model) collectionChoices() []string {
	return append([]string{""}, m.ctrl.CollectionNames()...)
}

func (m Model) updateCollections(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	choices := m.collectionChoices()
	key := msg.String()
	if m.moveCursor(key, len(choices)) {
		return m, nil
	}
	switch key {
	case "esc", "q":
		m.close()
	case "enter":
		name := choices[m.cursor]
		m.close()
		m.report(m.ctrl.SelectCollection(name))
		m.refresh()
	}
	return m, nil
}

func (m Model) updateGoTo(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.close()
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		m.close()
		if text != "" {
			m.report(m.ctrl.GoTo(text))
			m.refresh()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) openNotes() tea.Cmd {
	m.open(overlayNotes)
	m.input.Placeholder = "Search or name a new note (folder\\note)"
	m.input.SetValue("")
	if err := m.notes.Refresh(m.ctx); err != nil {
		m.setFlash(err.Error(), true)
	}
	m.listing = m.notes.List("")
	return m.input.Focus()
}

// noteItem is one selectable row of the notes overlay. An empty name is
// the "create" row.
type noteItem struct {
	name   string
	label  string
	folder string
}

func (m Model) noteItems() []noteItem {
	var items []noteItem
	if m.listing.CanCreate {
		items = append(items, noteItem{label: fmt.Sprintf("+ Create %q", strings.TrimSpace(m.input.Value()))})
	}
	for _, f := range m.listing.Folders {
		for _, e := range f.Notes {
			items = append(items, noteItem{name: e.Name, label: e.Title, folder: f.Name})
		}
	}
	for _, e := range m.listing.Standalone {
		items = append(items, noteItem{name: e.Name, label: e.Title})
	}
	return items
}

func (m Model) updateNotes(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.noteItems()
	switch msg.String() {
	case "esc":
		m.close()
		return m, nil
	case "up", "down":
		m.moveCursor(msg.String(), len(items))
		return m, nil
	case "ctrl+d":
		if len(items) == 0 || items[m.cursor].name == "" {
			return m, nil
		}
		name := items[m.cursor].name
		if err := m.notes.Delete(m.ctx, name); err != nil {
			m.setFlash(err.Error(), true)
		} else {
			m.setFlash(fmt.Sprintf("Note %q deleted.", name), false)
		}
		m.listing = m.notes.List(m.input.Value())
		m.cursor = 0
		return m, nil
	case "enter":
		if len(items) == 0 {
			return m, nil
		}
		var (
			n   bible.Note
			err error
		)
		if it := items[m.cursor]; it.name == "" {
			n, err = m.notes.Create(m.ctx, m.input.Value())
		} else {
			n, err = m.notes.Open(m.ctx, it.name)
		}
		if err != nil {
			m.setFlash(err.Error(), true)
			return m, nil
		}
		cmd := m.openEditor(n)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.listing = m.notes.List(m.input.Value())
	m.cursor = 0
	return m, cmd
}

func (m *Model) openEditor(n bible.Note) tea.Cmd {
	m.overlay = overlayEditor
	m.note = n
	m.noteDirty = false
	m.preview = false
	m.input.Blur()
	m.editor.SetValue(n.Content)
	return m.editor.Focus()
}

func (m *Model) saveNote() {
	if err := m.notes.Save(m.ctx, m.note.Name, m.editor.Value()); err != nil {
		m.setFlash(err.Error(), true)
		return
	}
	m.note.Content = m.editor.Value()
	m.noteDirty = false
	m.setFlash(fmt.Sprintf("Note %q saved.", m.note.Name), false)
}

func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.noteDirty {
			m.saveNote()
		}
		m.editor.Blur()
		m.overlay = overlayNotes
		m.listing = m.notes.List(m.input.Value())
		cmd := m.input.Focus()
		return m, cmd
	case "ctrl+s":
		m.saveNote()
		return m, nil
	case "ctrl+p":
		m.preview = !m.preview
		if m.preview {
			out, err := notes.PreviewTerminal(m.editor.Value(), max(m.width-4, 20))
			if err != nil {
				m.setFlash(err.Error(), true)
				m.preview = false
				return m, nil
			}
			m.output.SetContent(out)
			m.output.GotoTop()
			m.editor.Blur()
			return m, nil
		}
		cmd := m.editor.Focus()
		return m, cmd
	}
	if m.preview {
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}

	before := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if m.editor.Value() != before {
		m.noteDirty = true
	}
	return m, cmd
}

func (m Model) updateCompiler(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.close()
		return m, nil
	case "ctrl+t":
		ts := m.ctrl.Translations()
		ids := make([]string, len(ts))
		for i, t := range ts {
			ids[i] = t.ID
		}
		m.compileTranslation = cycle(ids, m.compileTranslation, 1)
		return m, nil
	case "ctrl+r":
		if m.compiling {
			return m, nil
		}
		m.compiling = true
		m.flash = ""
		return m, tea.Batch(runCompiler(m.ctx, m.compiler, m.compileTranslation, m.prompts.Value()), m.spinner.Tick)
	case "ctrl+y":
		if m.compileOutput == "" {
			m.setFlash("Nothing to copy yet.", true)
			return m, nil
		}
		if err := clipboardWrite(m.compileOutput); err != nil {
			m.setFlash(fmt.Sprintf("Copy failed: %v", err), true)
			return m, nil
		}
		m.setFlash("Compiled text copied to clipboard.", false)
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.prompts, cmd = m.prompts.Update(msg)
	return m, cmd
}

// cycle returns the option delta steps after cur, wrapping. An unknown cur
// starts from the first option.
func cycle(options []string, cur string, delta int) string {
	if len(options) == 0 {
		return cur
	}
	i := -1
	for j, o := range options {
		if o == cur {
			i = j
			break
		}
	}
	if i < 0 {
		return options[0]
	}
	n := len(options)
	return options[((i+delta)%n+n)%n]
}

func assetPaths(extra []string, catalog []av.Asset) []string {
	out := append([]string(nil), extra...)
	for _, a := range catalog {
		out = append(out, a.Path)
	}
	return out
}

type settingRow int

const (
	rowTheme settingRow = iota
	rowInterval
	rowProgress
	rowAVEnabled
	rowImage
	rowSound
	rowMusic
	rowVolume
)

func (m Model) settingRows() []settingRow {
	rows := []settingRow{rowTheme, rowInterval, rowProgress}
	if m.av != nil {
		rows = append(rows, rowAVEnabled, rowImage, rowSound, rowMusic, rowVolume)
	}
	return rows
}

func (m Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.settingRows()
	key := msg.String()
	if m.moveCursor(key, len(rows)) {
		return m, nil
	}
	delta := 0
	switch key {
	case "esc", "q":
		m.close()
		return m, nil
	case "right", "l", "enter", " ", "space":
		delta = 1
	case "left", "h":
		delta = -1
	default:
		return m, nil
	}
	if err := m.adjust(rows[m.cursor], delta); err != nil {
		m.setFlash(err.Error(), true)
	}
	return m, nil
}

func (m *Model) adjust(row settingRow, delta int) error {
	switch row {
	case rowTheme:
		next := m.theme.Next()
		if delta < 0 {
			next = theme.Get(cycle(themeKeys(), m.theme.Key, delta))
		}
		if err := m.prefs.Set(settings.KeyTheme, next.Key); err != nil {
			return err
		}
		m.setTheme(next)
		m.refresh()
		return nil
	case rowInterval:
		minutes := min(max(int(m.prefs.Interval().Minutes())+delta, 1), settings.MaxIntervalMinutes)
		return m.ctrl.SetInterval(minutes)
	case rowProgress:
		return m.prefs.SetBool(settings.KeyShowProgress, !m.prefs.Bool(settings.KeyShowProgress, true))
	}

	s := m.av.Settings()
	switch row {
	case rowAVEnabled:
		s.Enabled = !s.Enabled
	case rowImage:
		s.Image = cycle(assetPaths([]string{av.None, av.Random}, av.Images), s.Image, delta)
	case rowSound:
		s.Sound = cycle(assetPaths([]string{av.None}, av.Sounds), s.Sound, delta)
	case rowMusic:
		s.Music = cycle(assetPaths([]string{av.None}, av.Music), s.Music, delta)
	case rowVolume:
		s.Volume += float64(delta) / 10
	}
	return m.av.Update(m.ctx, s)
}

func themeKeys() []string {
	var keys []string
	for _, t := range theme.All() {
		keys = append(keys, t.Key)
	}
	return keys
}
