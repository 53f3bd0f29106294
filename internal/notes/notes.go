// Package notes manages markdown notes kept in the local database.
package notes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"verse-rotator/internal/bible"
	"verse-rotator/internal/settings"
)

// FolderSep separates a folder from a note title in a note name.
const FolderSep = `\`

var (
	ErrNoStore = errors.New("notes: store is required")
	ErrExists  = errors.New("note already exists")
	ErrNoName  = errors.New("note name is required")
)

// Store is the note persistence the manager needs.
type Store interface {
	Notes(ctx context.Context) ([]bible.Note, error)
	Note(ctx context.Context, name string) (bible.Note, error)
	SaveNote(ctx context.Context, n bible.Note) error
	DeleteNote(ctx context.Context, name string) error
}

// Entry is one note in a listing.
type Entry struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Folder groups the notes named "folder\title".
type Folder struct {
	Name  string  `json:"name"`
	Notes []Entry `json:"notes"`
}

// Listing is the filtered note list: folders first, then standalone notes,
// each sorted by name.
type Listing struct {
	Folders    []Folder `json:"folders"`
	Standalone []Entry  `json:"standalone"`

	// CanCreate is set when the search term names no existing note.
	CanCreate bool `json:"canCreate"`
}

// Empty reports whether the listing has no notes at all.
func (l Listing) Empty() bool {
	return len(l.Folders) == 0 && len(l.Standalone) == 0
}

// Manager keeps a cached copy of the note list.
type Manager struct {
	store Store
	prefs *settings.Store
	log   *zap.Logger
	notes []bible.Note
}

func NewManager(store Store, prefs *settings.Store, log *zap.Logger) (*Manager, error) {
	if store == nil {
		return nil, ErrNoStore
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, prefs: prefs, log: log}, nil
}

// Refresh reloads the cached note list.
func (m *Manager) Refresh(ctx context.Context) error {
	notes, err := m.store.Notes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load notes: %w", err)
	}
	m.notes = notes
	return nil
}

func splitName(name string) (folder, title string, ok bool) {
	parts := strings.Split(name, FolderSep)
	if len(parts) == 2 && strings.TrimSpace(parts[0]) != "" && strings.TrimSpace(parts[1]) != "" {
		return parts[0], parts[1], true
	}
	return "", name, false
}

// List filters the cached notes by a case-insensitive substring of the name.
func (m *Manager) List(search string) Listing {
	term := strings.ToLower(strings.TrimSpace(search))

	folders := map[string][]Entry{}
	var out Listing
	exact := false
	for _, n := range m.notes {
		lower := strings.ToLower(n.Name)
		if lower == term {
			exact = true
		}
		if term != "" && !strings.Contains(lower, term) {
			continue
		}
		if folder, title, ok := splitName(n.Name); ok {
			folders[folder] = append(folders[folder], Entry{Name: n.Name, Title: title})
		} else {
			out.Standalone = append(out.Standalone, Entry{Name: n.Name, Title: n.Name})
		}
	}

	names := make([]string, 0, len(folders))
	for name := range folders {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		entries := folders[name]
		sortEntries(entries)
		out.Folders = append(out.Folders, Folder{Name: name, Notes: entries})
	}
	sortEntries(out.Standalone)

	out.CanCreate = term != "" && !exact
	return out
}

func sortEntries(es []Entry) {
	sort.Slice(es, func(i, j int) bool { return es[i].Name < es[j].Name })
}

// Create adds a note whose body starts with its name as a heading, and opens
// it.
func (m *Manager) Create(ctx context.Context, name string) (bible.Note, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return bible.Note{}, ErrNoName
	}
	for _, n := range m.notes {
		if n.Name == name {
			return bible.Note{}, fmt.Errorf("%w: %q", ErrExists, name)
		}
	}
	n := bible.Note{Name: name, Content: fmt.Sprintf("# %s\n\n", name), LastModified: time.Now()}
	if err := m.store.SaveNote(ctx, n); err != nil {
		return bible.Note{}, fmt.Errorf("could not create note: %w", err)
	}
	m.log.Info("note created", zap.String("note", name))
	if err := m.Refresh(ctx); err != nil {
		return n, err
	}
	m.remember(name)
	return n, nil
}

// Open loads a note and remembers it as the last opened one. A missing note
// clears that memory.
func (m *Manager) Open(ctx context.Context, name string) (bible.Note, error) {
	n, err := m.store.Note(ctx, name)
	if err != nil {
		if m.LastOpened() == name {
			m.remember("")
		}
		return bible.Note{}, err
	}
	m.remember(name)
	return n, nil
}

// Save replaces a note's content.
func (m *Manager) Save(ctx context.Context, name, content string) error {
	if name == "" {
		return errors.New("no note is currently loaded to save")
	}
	if err := m.store.SaveNote(ctx, bible.Note{Name: name, Content: content, LastModified: time.Now()}); err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}
	return m.Refresh(ctx)
}

// Delete removes a note, forgetting it if it was the last opened one.
func (m *Manager) Delete(ctx context.Context, name string) error {
	if err := m.store.DeleteNote(ctx, name); err != nil {
		return err
	}
	if m.LastOpened() == name {
		m.remember("")
	}
	m.log.Info("note deleted", zap.String("note", name))
	return m.Refresh(ctx)
}

// LastOpened is the name of the last opened note, or "".
func (m *Manager) LastOpened() string {
	if m.prefs == nil {
		return ""
	}
	return m.prefs.GetOr(settings.KeyLastNote, "")
}

// Restore opens the last opened note if it still exists.
func (m *Manager) Restore(ctx context.Context) (bible.Note, bool) {
	name := m.LastOpened()
	if name == "" {
		return bible.Note{}, false
	}
	n, err := m.Open(ctx, name)
	if err != nil {
		return bible.Note{}, false
	}
	return n, true
}

func (m *Manager) remember(name string) {
	if m.prefs == nil {
		return
	}
	var err error
	if name == "" {
		err = m.prefs.Delete(settings.KeyLastNote)
	} else {
		err = m.prefs.Set(settings.KeyLastNote, name)
	}
	if err != nil {
		m.log.Warn("failed to remember note", zap.Error(err))
	}
}
