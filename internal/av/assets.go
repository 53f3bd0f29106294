// Package av is the audiovisual layer: background image, verse-change sound
// and background music selections, and the player that makes the sounds.
package av

import "verse-rotator/internal/settings"

// Selection values shared by every asset kind.
const (
	None   = "none"
	Random = "random"
)

// Asset is a named file under the assets directory.
type Asset struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

var Images = []Asset{
	{Name: "Abstract Blue", Path: "images/bg/abstract_blue.jpg"},
	{Name: "Mountain Sunrise", Path: "images/bg/mountain_sunrise.jpg"},
	{Name: "Quiet Forest", Path: "images/bg/quiet_forest.jpg"},
	{Name: "Starry Sky", Path: "images/bg/starry_sky.jpg"},
	{Name: "Ocean Waves", Path: "images/bg/ocean_waves.jpg"},
}

var Sounds = []Asset{
	{Name: "Dwink", Path: "sounds/effects/dwink.m4a"},
	{Name: "Page Turn", Path: "sounds/effects/page_turn.wav"},
	{Name: "Gentle Bell", Path: "sounds/effects/gentle_bell.ogg"},
}

var Music = []Asset{
	{Name: "Peaceful Ambience", Path: "sounds/music/peaceful_ambience.mp3"},
	{Name: "Meditation Melody", Path: "sounds/music/meditation_melody.ogg"},
	{Name: "Nature's Calm", Path: "sounds/music/natures_calm.wav"},
}

func known(catalog []Asset, path string) bool {
	for _, a := range catalog {
		if a.Path == path {
			return true
		}
	}
	return false
}

// Settings are the persisted AV selections.
type Settings struct {
	Enabled        bool    `json:"enabled"`
	Image          string  `json:"image"`
	Sound          string  `json:"sound"`
	Music          string  `json:"music"`
	Volume         float64 `json:"volume"`
	Overlay        bool    `json:"overlay"`
	OverlayOpacity float64 `json:"overlayOpacity"`
	Blur           int     `json:"blur"`
}

// Defaults are used for anything not yet persisted.
var Defaults = Settings{
	Image:          None,
	Sound:          None,
	Music:          None,
	Volume:         0.3,
	OverlayOpacity: 0.5,
}

// MaxBlur is the largest background blur in pixels.
const MaxBlur = 20

// Load reads the selections. A stored path no longer in its catalogue falls
// back to None.
func Load(prefs *settings.Store) Settings {
	s := Settings{
		Enabled:        prefs.Bool(settings.KeyAVEnabled, Defaults.Enabled),
		Image:          prefs.GetOr(settings.KeyAVImage, Defaults.Image),
		Sound:          prefs.GetOr(settings.KeyAVSound, Defaults.Sound),
		Music:          prefs.GetOr(settings.KeyAVMusic, Defaults.Music),
		Volume:         prefs.Float(settings.KeyAVVolume, Defaults.Volume),
		Overlay:        prefs.Bool(settings.KeyAVOverlay, Defaults.Overlay),
		OverlayOpacity: prefs.Float(settings.KeyAVOverlayOpacity, Defaults.OverlayOpacity),
		Blur:           prefs.Int(settings.KeyAVBlur, Defaults.Blur),
	}
	if s.Image != Random && !known(Images, s.Image) {
		s.Image = None
	}
	if !known(Sounds, s.Sound) {
		s.Sound = None
	}
	if !known(Music, s.Music) {
		s.Music = None
	}
	return s.clamped()
}

func (s Settings) clamped() Settings {
	s.Volume = min(max(s.Volume, 0), 1)
	s.OverlayOpacity = min(max(s.OverlayOpacity, 0), 1)
	s.Blur = min(max(s.Blur, 0), MaxBlur)
	return s
}

// Save persists the selections.
func (s Settings) Save(prefs *settings.Store) error {
	s = s.clamped()
	for key, value := range map[string]string{
		settings.KeyAVImage:          s.Image,
		settings.KeyAVSound:          s.Sound,
		settings.KeyAVMusic:          s.Music,
		settings.KeyAVVolume:         formatFloat(s.Volume),
		settings.KeyAVOverlayOpacity: formatFloat(s.OverlayOpacity),
		settings.KeyAVBlur:           formatInt(s.Blur),
	} {
		if err := prefs.Set(key, value); err != nil {
			return err
		}
	}
	if err := prefs.SetBool(settings.KeyAVEnabled, s.Enabled); err != nil {
		return err
	}
	return prefs.SetBool(settings.KeyAVOverlay, s.Overlay)
}

// ResolveImage turns an image selection into a path, picking one at random
// for Random. None yields "".
func ResolveImage(selection string, intn func(int) int) string {
	switch selection {
	case None, "":
		return ""
	case Random:
		if len(Images) == 0 {
			return ""
		}
		return Images[intn(len(Images))].Path
	}
	return selection
}
