package settings

import (
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/peterbourgon/diskv/v3"
)

// Keys of the persisted state. Every value is stored as a string.
const (
	KeyTranslation      = "selected-translation"
	KeyCollection       = "selected-collection"
	KeyViewMode         = "view-mode"
	KeyCollectionIndex  = "collection-indices"
	KeyIntervalMinutes  = "interval-minutes"
	KeyFontSize         = "font-size-percentage"
	KeyFontFamily       = "font-family"
	KeyTheme            = "theme"
	KeyShowProgress     = "show-progress-bar"
	KeyFullscreen       = "fullscreen"
	KeyAVEnabled        = "av-enabled"
	KeyAVImage          = "av-image"
	KeyAVSound          = "av-sound"
	KeyAVMusic          = "av-music"
	KeyAVVolume         = "av-volume"
	KeyAVOverlay        = "av-overlay-enabled"
	KeyAVOverlayOpacity = "av-overlay-opacity"
	KeyAVBlur           = "av-blur"
	KeyLastNote         = "last-opened-note"
	KeyCompilerSource   = "compiler-translation"
)

const (
	DefaultIntervalMinutes = 4
	MaxIntervalMinutes     = 24 * 60
	DefaultFontSize        = 100
	DefaultFontFamily      = "'Roboto Slab', serif"
	DefaultTheme           = "dark"
)

// Store is a flat string key-value store on disk, one file per key.
type Store struct {
	d *diskv.Diskv
}

// Open creates the directory if needed and returns a store rooted at dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{d: diskv.New(diskv.Options{
		BasePath:     dir,
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 64 * 1024,
	})}, nil
}

// Get returns the value for key and whether it was set.
func (s *Store) Get(key string) (string, bool) {
	if !s.d.Has(key) {
		return "", false
	}
	v, err := s.d.Read(key)
	if err != nil {
		return "", false
	}
	return string(v), true
}

// GetOr returns the value for key or def when unset.
func (s *Store) GetOr(key, def string) string {
	if v, ok := s.Get(key); ok {
		return v
	}
	return def
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	return s.d.Write(key, []byte(value))
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	if err := s.d.Erase(key); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Int parses an integer value, returning def when unset or malformed.
func (s *Store) Int(key string, def int) int {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Float parses a float value, returning def when unset or malformed.
func (s *Store) Float(key string, def float64) float64 {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// Bool reads "true"/"false"; anything else yields def.
func (s *Store) Bool(key string, def bool) bool {
	switch v, _ := s.Get(key); v {
	case "true":
		return true
	case "false":
		return false
	}
	return def
}

// SetBool stores "true" or "false".
func (s *Store) SetBool(key string, v bool) error {
	return s.Set(key, strconv.FormatBool(v))
}

// Interval is the verse-change interval; values outside
// [1, MaxIntervalMinutes] fall back to the default.
func (s *Store) Interval() time.Duration {
	m := s.Int(KeyIntervalMinutes, DefaultIntervalMinutes)
	if m <= 0 || m > MaxIntervalMinutes {
		m = DefaultIntervalMinutes
	}
	return time.Duration(m) * time.Minute
}

func (s *Store) collectionIndices() map[string]int {
	indices := map[string]int{}
	v, ok := s.Get(KeyCollectionIndex)
	if !ok {
		return indices
	}
	if err := json.Unmarshal([]byte(v), &indices); err != nil {
		return map[string]int{}
	}
	return indices
}

// CollectionIndex is the last displayed index of the named collection.
func (s *Store) CollectionIndex(name string) (int, bool) {
	idx, ok := s.collectionIndices()[name]
	return idx, ok
}

// SetCollectionIndex remembers the displayed index of the named collection.
func (s *Store) SetCollectionIndex(name string, index int) error {
	if name == "" {
		return nil
	}
	indices := s.collectionIndices()
	indices[name] = index
	data, err := json.Marshal(indices)
	if err != nil {
		return err
	}
	return s.Set(KeyCollectionIndex, string(data))
}
