package av

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"verse-rotator/internal/settings"
)

// ErrPlaybackBlocked means the environment refused to play audio. It is
// expected and never shown to the user.
var ErrPlaybackBlocked = errors.New("playback blocked")

// Player plays an audio file. Play returns once playback has started; it
// stops when ctx is cancelled.
type Player interface {
	Play(ctx context.Context, path string, volume float64) error
}

// CommandPlayer plays files with an external program such as
// "ffplay -nodisp -autoexit -loglevel quiet -volume {volume100} {path}".
// Without a {path} placeholder the path is appended.
type CommandPlayer struct {
	Command string
}

func (p CommandPlayer) args(path string, volume float64) []string {
	fields := strings.Fields(p.Command)
	hasPath := false
	for i, f := range fields {
		if strings.Contains(f, "{path}") {
			hasPath = true
		}
		f = strings.ReplaceAll(f, "{path}", path)
		f = strings.ReplaceAll(f, "{volume100}", strconv.Itoa(int(volume*100)))
		f = strings.ReplaceAll(f, "{volume}", formatFloat(volume))
		fields[i] = f
	}
	if !hasPath {
		fields = append(fields, path)
	}
	return fields
}

func (p CommandPlayer) Play(ctx context.Context, path string, volume float64) error {
	if strings.TrimSpace(p.Command) == "" {
		return fmt.Errorf("%w: no player command configured", ErrPlaybackBlocked)
	}
	args := p.args(path, volume)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %w", ErrPlaybackBlocked, err)
		}
		return err
	}
	go cmd.Wait()
	return nil
}

// System applies the AV selections: it plays the verse-change sound and
// keeps the background music running.
type System struct {
	prefs     *settings.Store
	player    Player
	assetsDir string
	log       *zap.Logger
	intn      func(int) int

	settings    Settings
	stopMusic   context.CancelFunc
	musicPlayed string
}

func NewSystem(prefs *settings.Store, player Player, assetsDir string, log *zap.Logger) *System {
	if log == nil {
		log = zap.NewNop()
	}
	return &System{
		prefs:     prefs,
		player:    player,
		assetsDir: assetsDir,
		log:       log,
		intn:      rand.IntN,
		settings:  Load(prefs),
	}
}

// Settings returns the current selections.
func (s *System) Settings() Settings { return s.settings }

// Update validates, persists and applies new selections.
func (s *System) Update(ctx context.Context, next Settings) error {
	if next.Image != None && next.Image != Random && !known(Images, next.Image) {
		return fmt.Errorf("unknown background image %q", next.Image)
	}
	if next.Sound != None && !known(Sounds, next.Sound) {
		return fmt.Errorf("unknown verse sound %q", next.Sound)
	}
	if next.Music != None && !known(Music, next.Music) {
		return fmt.Errorf("unknown background music %q", next.Music)
	}
	next = next.clamped()
	if err := next.Save(s.prefs); err != nil {
		return fmt.Errorf("failed to save AV settings: %w", err)
	}
	s.settings = next
	s.ApplyMusic(ctx)
	return nil
}

// BackgroundImage resolves the image selection to a path relative to the
// assets directory, or "".
func (s *System) BackgroundImage() string {
	if !s.settings.Enabled {
		return ""
	}
	return ResolveImage(s.settings.Image, s.intn)
}

func (s *System) play(ctx context.Context, rel string) {
	if s.player == nil {
		return
	}
	err := s.player.Play(ctx, filepath.Join(s.assetsDir, rel), s.settings.Volume)
	switch {
	case err == nil:
	case errors.Is(err, ErrPlaybackBlocked):
		s.log.Debug("playback blocked", zap.String("asset", rel), zap.Error(err))
	default:
		s.log.Warn("playback failed", zap.String("asset", rel), zap.Error(err))
	}
}

// VerseChanged plays the verse-change sound, if one is selected.
func (s *System) VerseChanged(ctx context.Context) {
	if !s.settings.Enabled || s.settings.Sound == None {
		return
	}
	s.play(ctx, s.settings.Sound)
}

// ApplyMusic starts, switches or stops the background music to match the
// selection. The music stops when ctx is cancelled.
func (s *System) ApplyMusic(ctx context.Context) {
	want := s.settings.Music
	if !s.settings.Enabled {
		want = None
	}
	if want == s.musicPlayed {
		return
	}
	s.StopMusic()
	if want == None {
		return
	}
	mctx, cancel := context.WithCancel(ctx)
	s.stopMusic = cancel
	s.musicPlayed = want
	s.play(mctx, want)
}

// StopMusic stops the background music.
func (s *System) StopMusic() {
	if s.stopMusic != nil {
		s.stopMusic()
		s.stopMusic = nil
	}
	s.musicPlayed = None
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func formatInt(n int) string { return strconv.Itoa(n) }
