// Package rotator owns the verse rotation state: the active entry list, the
// current index, the view mode and the countdown that advances it.
package rotator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"verse-rotator/internal/bible"
	"verse-rotator/internal/cache"
	"verse-rotator/internal/reference"
	"verse-rotator/internal/render"
	"verse-rotator/internal/settings"
)

// TranslationSource lists imported translations and loads their verses.
type TranslationSource interface {
	Translations(ctx context.Context) ([]bible.Translation, error)
	VersesByTranslation(ctx context.Context, id string) ([]bible.VerseRecord, error)
}

// CollectionSource lists user collections.
type CollectionSource interface {
	Collections(ctx context.Context) ([]bible.Collection, error)
}

// Direction is a relative navigation step.
type Direction int

const (
	Prev Direction = iota
	Next
)

// Status is the last user-facing message.
type Status struct {
	Text  string `json:"text"`
	Error bool   `json:"error"`
}

// Snapshot is the controller state as reported to hosts.
type Snapshot struct {
	Mode          bible.ViewMode  `json:"mode"`
	TranslationID string          `json:"translationId"`
	Collection    string          `json:"collection,omitempty"`
	Index         int             `json:"index"`
	Count         int             `json:"count"`
	CountLabel    string          `json:"countLabel"`
	Entry         *bible.EntryRef `json:"entry,omitempty"`
	Loading       bool            `json:"loading"`
	Status        Status          `json:"status"`
	Timer         TimerState      `json:"timer"`
}

// Options configures a Controller. Translations and Prefs are required;
// without Collections the collection features are disabled.
type Options struct {
	Translations TranslationSource
	Collections  CollectionSource
	Prefs        *settings.Store
	Scheduler    Scheduler
	Logger       *zap.Logger

	// Verses is the shared translation cache. One is created over
	// Translations when nil.
	Verses *cache.Verses

	// IntN picks a random index in [0, n). Defaults to math/rand/v2.
	IntN func(n int) int
}

// Controller is not safe for concurrent use. Hosts serialize every call,
// including the timer callbacks delivered through their Scheduler.
// FetchTranslation is the one method that may run elsewhere.
type Controller struct {
	log          *zap.Logger
	translations TranslationSource
	collections  CollectionSource
	prefs        *settings.Store
	verses       *cache.Verses
	timer        *Timer
	intn         func(int) int

	mode          bible.ViewMode
	translationID string
	fullVerses    []bible.VerseRecord
	available     []bible.Translation
	multi         []render.TranslationText

	collectionNames []string
	collectionMap   map[string]bible.Collection
	active          *bible.Collection

	list    []bible.EntryRef
	index   int
	loading bool

	status   Status
	fragment render.Fragment
	shown    string

	onStatus      func(Status)
	onVerseChange func(bible.EntryRef)
}

// New builds a controller. Call Init to restore the persisted state.
func New(opts Options) (*Controller, error) {
	if opts.Translations == nil {
		return nil, fmt.Errorf("%w: translation source", ErrDependencyMissing)
	}
	if opts.Prefs == nil {
		return nil, fmt.Errorf("%w: preferences", ErrDependencyMissing)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewTickerScheduler(nil)
	}
	if opts.IntN == nil {
		opts.IntN = rand.IntN
	}
	if opts.Verses == nil {
		opts.Verses = cache.NewVerses(opts.Translations)
	}

	c := &Controller{
		log:           opts.Logger,
		translations:  opts.Translations,
		collections:   opts.Collections,
		prefs:         opts.Prefs,
		verses:        opts.Verses,
		intn:          opts.IntN,
		mode:          bible.ModeFullChapter,
		collectionMap: map[string]bible.Collection{},
		index:         -1,
	}
	c.timer = NewTimer(opts.Scheduler, opts.Prefs.Interval(), c.expire)
	return c, nil
}

// OnStatus registers a listener for status messages.
func (c *Controller) OnStatus(fn func(Status)) { c.onStatus = fn }

// OnVerseChange registers a hook called whenever a different entry is shown.
func (c *Controller) OnVerseChange(fn func(bible.EntryRef)) { c.onVerseChange = fn }

func (c *Controller) setStatus(text string, isErr bool) {
	c.status = Status{Text: text, Error: isErr}
	if isErr {
		c.log.Warn("status", zap.String("message", text))
	} else {
		c.log.Debug("status", zap.String("message", text))
	}
	if c.onStatus != nil {
		c.onStatus(c.status)
	}
}

func (c *Controller) persist(key, value string) {
	var err error
	if value == "" {
		err = c.prefs.Delete(key)
	} else {
		err = c.prefs.Set(key, value)
	}
	if err != nil {
		c.log.Warn("failed to persist setting", zap.String("key", key), zap.Error(err))
	}
}

// Init restores the persisted mode, collection and translation and shows the
// first entry.
func (c *Controller) Init(ctx context.Context) error {
	if m, ok := bible.ParseViewMode(c.prefs.GetOr(settings.KeyViewMode, "")); ok {
		c.mode = m
	}

	if err := c.RefreshCollections(ctx); err != nil && !errors.Is(err, ErrDependencyMissing) {
		c.log.Warn("failed to load collections", zap.Error(err))
	}
	if name, ok := c.prefs.Get(settings.KeyCollection); ok {
		if col, found := c.collectionMap[name]; found {
			c.active = &col
		} else {
			c.persist(settings.KeyCollection, "")
		}
	}

	if err := c.RefreshTranslations(ctx); err != nil {
		c.rebuild()
		c.show()
		return err
	}
	if len(c.available) == 0 {
		c.rebuild()
		c.show()
		c.setStatus("No translations imported. Import one to begin.", true)
		return nil
	}

	id := c.prefs.GetOr(settings.KeyTranslation, "")
	if !c.hasTranslation(id) {
		id = c.available[0].ID
	}
	return c.SelectTranslation(ctx, id)
}

// RefreshTranslations reloads the list of imported translations, sorted by
// display name.
func (c *Controller) RefreshTranslations(ctx context.Context) error {
	ts, err := c.translations.Translations(ctx)
	if err != nil {
		c.setStatus("Failed to load the translation list.", true)
		return fmt.Errorf("%w: translations: %w", ErrDataLoad, err)
	}
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].Label() < ts[j].Label() })
	c.available = ts
	if c.mode == bible.ModeMultiTranslation {
		c.loadMulti(ctx)
	}
	return nil
}

func (c *Controller) hasTranslation(id string) bool {
	for _, t := range c.available {
		if t.ID == id {
			return true
		}
	}
	return false
}

// RefreshCollections reloads collections from the source. The active
// collection is replaced by its new contents, or dropped if it is gone.
func (c *Controller) RefreshCollections(ctx context.Context) error {
	if c.collections == nil {
		return fmt.Errorf("%w: collection source", ErrDependencyMissing)
	}
	cols, err := c.collections.Collections(ctx)
	if err != nil {
		c.setStatus("Failed to load collections.", true)
		return fmt.Errorf("%w: collections: %w", ErrDataLoad, err)
	}

	c.collectionMap = make(map[string]bible.Collection, len(cols))
	c.collectionNames = c.collectionNames[:0]
	for _, col := range cols {
		col = col.Normalized()
		c.collectionMap[col.Name] = col
		c.collectionNames = append(c.collectionNames, col.Name)
	}
	sort.Strings(c.collectionNames)

	if c.active != nil {
		if col, ok := c.collectionMap[c.active.Name]; ok {
			c.active = &col
		} else {
			c.active = nil
			c.persist(settings.KeyCollection, "")
		}
		if c.translationID != "" && !c.loading {
			c.rebuild()
			c.show()
		}
	}
	return nil
}

// BeginTranslation marks a translation load as in flight. Navigation is
// refused until FinishTranslation.
func (c *Controller) BeginTranslation(id string) error {
	if c.loading {
		return ErrBusy
	}
	c.loading = true
	c.timer.Stop()
	c.setStatus(fmt.Sprintf("Loading %s...", bible.TrimExt(id)), false)
	return nil
}

// FetchTranslation loads a translation's verses through the cache. It is
// safe to call off the host's event loop.
func (c *Controller) FetchTranslation(ctx context.Context, id string) ([]bible.VerseRecord, error) {
	return c.verses.Get(ctx, id)
}

// FinishTranslation installs the result of FetchTranslation. On error the
// translation is forgotten entirely; an empty result keeps the id.
func (c *Controller) FinishTranslation(id string, verses []bible.VerseRecord, err error) error {
	c.loading = false

	if err != nil {
		c.translationID = ""
		c.fullVerses = nil
		c.verses.Evict(id)
		c.persist(settings.KeyTranslation, "")
		c.rebuild()
		c.show()
		c.setStatus(fmt.Sprintf("Error loading translation %q.", bible.TrimExt(id)), true)
		return fmt.Errorf("%w: translation %q: %w", ErrDataLoad, id, err)
	}

	c.translationID = id
	c.fullVerses = verses
	c.persist(settings.KeyTranslation, id)
	c.rebuild()
	c.show()

	if len(verses) == 0 {
		c.setStatus(fmt.Sprintf("No verses found in translation %q.", bible.TrimExt(id)), true)
		return fmt.Errorf("%w: translation %q is empty", ErrDataLoad, id)
	}
	c.log.Info("translation loaded", zap.String("translation", id), zap.Int("verses", len(verses)))
	c.setStatus(fmt.Sprintf("Loaded %s.", bible.TrimExt(id)), false)
	return nil
}

// SelectTranslation runs all three load phases inline.
func (c *Controller) SelectTranslation(ctx context.Context, id string) error {
	if err := c.BeginTranslation(id); err != nil {
		return err
	}
	verses, err := c.FetchTranslation(ctx, id)
	return c.FinishTranslation(id, verses, err)
}

// SelectCollection switches to the named collection, or to the whole
// translation for "". Unknown names fall back to the whole translation.
func (c *Controller) SelectCollection(name string) error {
	if c.loading {
		return ErrBusy
	}
	if name != "" && c.collections == nil {
		c.setStatus("Collections are unavailable.", true)
		return fmt.Errorf("%w: collection source", ErrDependencyMissing)
	}

	c.active = nil
	if name != "" {
		if col, ok := c.collectionMap[name]; ok {
			c.active = &col
		} else {
			c.setStatus(fmt.Sprintf("Collection %q not found. Showing the whole translation.", name), true)
			name = ""
		}
	}
	c.persist(settings.KeyCollection, name)
	c.rebuild()
	if c.active != nil && len(c.active.Entries) == 0 {
		c.setStatus(fmt.Sprintf("Collection %q is empty.", c.active.Name), true)
	}
	c.show()
	return nil
}

// SetMode switches the view mode. Entering full-collection mode stops the
// timer; leaving it restores the saved index.
func (c *Controller) SetMode(ctx context.Context, m bible.ViewMode) error {
	if _, ok := bible.ParseViewMode(string(m)); !ok {
		return fmt.Errorf("%w: unknown view mode %q", ErrInvalidArgument, m)
	}
	if c.loading {
		return ErrBusy
	}
	prev := c.mode
	c.mode = m
	c.persist(settings.KeyViewMode, string(m))

	if m == bible.ModeMultiTranslation {
		c.loadMulti(ctx)
	}
	if m == bible.ModeFullCollection || prev == bible.ModeFullCollection {
		c.rebuild()
	}
	if m == bible.ModeFullCollection && c.active == nil {
		c.setStatus(`Please select a specific collection to use "Full Collection View".`, true)
	}
	c.show()
	return nil
}

// loadMulti fetches every imported translation for the multi-translation
// view. Per-translation failures are kept in the result.
func (c *Controller) loadMulti(ctx context.Context) {
	texts := make([]render.TranslationText, len(c.available))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, t := range c.available {
		g.Go(func() error {
			verses, err := c.verses.Get(gctx, t.ID)
			if err != nil {
				c.log.Warn("failed to load translation for multi view", zap.String("translation", t.ID), zap.Error(err))
			}
			texts[i] = render.TranslationText{Translation: t, Verses: verses, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	c.multi = texts
}

// Navigate moves one entry back or forward, wrapping at both ends.
func (c *Controller) Navigate(dir Direction) error {
	if c.loading {
		return ErrBusy
	}
	n := len(c.list)
	if c.mode == bible.ModeFullCollection || n == 0 {
		return nil
	}
	switch dir {
	case Prev:
		c.index = (c.index - 1 + n) % n
	default:
		c.index = (c.index + 1) % n
	}
	c.moved()
	return nil
}

// NavigateTo jumps straight to index i.
func (c *Controller) NavigateTo(i int) error {
	if c.loading {
		return ErrBusy
	}
	if c.mode == bible.ModeFullCollection || len(c.list) == 0 {
		return nil
	}
	if i < 0 || i >= len(c.list) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, len(c.list))
	}
	c.index = i
	c.moved()
	return nil
}

// Random jumps to a random entry other than the current one.
func (c *Controller) Random() error {
	if c.loading {
		return ErrBusy
	}
	n := len(c.list)
	if c.mode == bible.ModeFullCollection || n <= 1 {
		return nil
	}
	j := c.intn(n - 1)
	if j >= c.index {
		j++
	}
	c.index = j
	c.moved()
	return nil
}

// GoTo jumps to a typed reference. It only works while the whole
// translation is active and switches to chapter view.
func (c *Controller) GoTo(text string) error {
	if c.loading {
		return ErrBusy
	}
	if c.active != nil {
		c.setStatus("Go to reference is only available when no collection is selected.", true)
		return fmt.Errorf("%w: go to reference needs the whole translation", ErrUnavailable)
	}
	r, ok := reference.Parse(text)
	if !ok {
		c.setStatus(fmt.Sprintf("Could not understand reference %q.", text), true)
		return fmt.Errorf("%w: %q", ErrReferenceNotFound, text)
	}

	target := -1
	for i, e := range c.list {
		if e.Book == r.Book && e.Chapter == r.Chapter && e.StartVerse == r.StartVerse {
			target = i
			break
		}
	}
	if target < 0 {
		c.setStatus(fmt.Sprintf("Entry %q not found in %q.", r.Reference, bible.TrimExt(c.translationID)), true)
		return fmt.Errorf("%w: %s", ErrReferenceNotFound, r.Reference)
	}

	if c.mode != bible.ModeFullChapter {
		c.mode = bible.ModeFullChapter
		c.persist(settings.KeyViewMode, string(c.mode))
	}
	c.index = target
	c.moved()
	return nil
}

// SetInterval changes the countdown length and restarts an active timer.
func (c *Controller) SetInterval(minutes int) error {
	if minutes <= 0 || minutes > settings.MaxIntervalMinutes {
		return fmt.Errorf("%w: interval must be between 1 and %d minutes, got %d",
			ErrInvalidArgument, settings.MaxIntervalMinutes, minutes)
	}
	c.persist(settings.KeyIntervalMinutes, fmt.Sprint(minutes))
	c.timer.SetTotal(c.prefs.Interval())
	if c.timer.Active() {
		c.resetTimer()
	}
	return nil
}

// Pause pauses the countdown on behalf of src.
func (c *Controller) Pause(src PauseSource) bool {
	if c.mode == bible.ModeFullCollection || len(c.list) == 0 {
		return false
	}
	return c.timer.Pause(src)
}

// Resume resumes the countdown if src is allowed to.
func (c *Controller) Resume(src PauseSource) bool {
	if c.mode == bible.ModeFullCollection || len(c.list) == 0 {
		return false
	}
	return c.timer.Resume(src)
}

// TogglePause is the user's play/pause button.
func (c *Controller) TogglePause() bool {
	if paused, _ := c.timer.Paused(); paused {
		return c.Resume(SourceUser)
	}
	return c.Pause(SourceUser)
}

func (c *Controller) expire() {
	if err := c.Navigate(Next); err != nil {
		c.log.Debug("auto-advance skipped", zap.Error(err))
		c.timer.Stop()
	}
}

func (c *Controller) moved() {
	if c.active != nil {
		if err := c.prefs.SetCollectionIndex(c.active.Name, c.index); err != nil {
			c.log.Warn("failed to persist index", zap.Error(err))
		}
	}
	c.show()
}

// rebuild recomputes the entry list and the starting index.
func (c *Controller) rebuild() {
	if c.active != nil {
		c.list = append([]bible.EntryRef(nil), c.active.Entries...)
	} else {
		c.list = make([]bible.EntryRef, 0, len(c.fullVerses))
		for _, v := range c.fullVerses {
			c.list = append(c.list, bible.EntryFromVerse(v))
		}
	}

	c.index = -1
	if c.mode == bible.ModeFullCollection || len(c.list) == 0 {
		return
	}
	c.index = 0
	if c.active != nil {
		if i, ok := c.prefs.CollectionIndex(c.active.Name); ok && i >= 0 && i < len(c.list) {
			c.index = i
		}
	}
}

// show renders the current entry and then resets or stops the timer.
func (c *Controller) show() {
	in := render.Input{
		Mode:          c.mode,
		Verses:        c.fullVerses,
		TranslationID: c.translationID,
		Translations:  c.multi,
		Collection:    c.active,
	}
	entry := c.current()
	in.Entry = entry
	if entry == nil {
		in.EmptyMessage = c.emptyMessage()
	}
	c.fragment = render.Render(in)

	if entry != nil && entry.Reference != c.shown {
		c.shown = entry.Reference
		if c.onVerseChange != nil {
			c.onVerseChange(*entry)
		}
	}
	c.resetTimer()
}

func (c *Controller) emptyMessage() string {
	switch {
	case c.translationID == "":
		return "No translation loaded. Select a translation."
	case c.active != nil && len(c.active.Entries) == 0:
		return fmt.Sprintf("Collection %q is empty.", c.active.Name)
	case len(c.fullVerses) == 0:
		return fmt.Sprintf("No verses found in translation %q.", bible.TrimExt(c.translationID))
	}
	return ""
}

func (c *Controller) resetTimer() {
	if c.mode == bible.ModeFullCollection || len(c.list) == 0 || c.index < 0 || !c.fragment.Successful {
		c.timer.Stop()
		return
	}
	c.timer.Reset()
}

func (c *Controller) current() *bible.EntryRef {
	if c.index < 0 || c.index >= len(c.list) {
		return nil
	}
	e := c.list[c.index]
	return &e
}

// Fragment is the current render.
func (c *Controller) Fragment() render.Fragment { return c.fragment }

// Mode is the current view mode.
func (c *Controller) Mode() bible.ViewMode { return c.mode }

// Timer exposes the countdown state.
func (c *Controller) Timer() TimerState { return c.timer.State() }

// Loading reports whether a translation load is in flight.
func (c *Controller) Loading() bool { return c.loading }

// Translations lists the imported translations in display order.
func (c *Controller) Translations() []bible.Translation {
	return append([]bible.Translation(nil), c.available...)
}

// TranslationID is the loaded translation, or "".
func (c *Controller) TranslationID() string { return c.translationID }

// CollectionNames lists collections by name.
func (c *Controller) CollectionNames() []string {
	return append([]string(nil), c.collectionNames...)
}

// ActiveCollection is the selected collection name, or "".
func (c *Controller) ActiveCollection() string {
	if c.active == nil {
		return ""
	}
	return c.active.Name
}

// CountLabel is "Entry i / n", or "n Entries in Collection" in full
// collection view.
func (c *Controller) CountLabel() string {
	if c.mode == bible.ModeFullCollection {
		if c.active == nil {
			return ""
		}
		return fmt.Sprintf("%d Entries in Collection", len(c.active.Entries))
	}
	if c.index < 0 {
		return ""
	}
	return fmt.Sprintf("Entry %d / %d", c.index+1, len(c.list))
}

// Snapshot reports the controller state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Mode:          c.mode,
		TranslationID: c.translationID,
		Collection:    c.ActiveCollection(),
		Index:         c.index,
		Count:         len(c.list),
		CountLabel:    c.CountLabel(),
		Entry:         c.current(),
		Loading:       c.loading,
		Status:        c.status,
		Timer:         c.timer.State(),
	}
}

// Close stops the timer.
func (c *Controller) Close() {
	c.timer.Stop()
}
