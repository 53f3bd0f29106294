package av

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verse-rotator/internal/settings"
)

type playCall struct {
	path   string
	volume float64
	ctx    context.Context
}

type fakePlayer struct {
	calls []playCall
	err   error
}

func (p *fakePlayer) Play(ctx context.Context, path string, volume float64) error {
	p.calls = append(p.calls, playCall{path: path, volume: volume, ctx: ctx})
	return p.err
}

func newPrefs(t *testing.T) *settings.Store {
	t.Helper()
	prefs, err := settings.Open(t.TempDir())
	require.NoError(t, err)
	return prefs
}

func TestLoadDefaults(t *testing.T) {
	if diff := cmp.Diff(Defaults, Load(newPrefs(t))); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDropsUnknownAssets(t *testing.T) {
	prefs := newPrefs(t)
	require.NoError(t, prefs.Set(settings.KeyAVSound, "sounds/effects/removed.mp3"))
	require.NoError(t, prefs.Set(settings.KeyAVImage, Random))
	require.NoError(t, prefs.Set(settings.KeyAVVolume, "7"))

	s := Load(prefs)
	assert.Equal(t, None, s.Sound)
	assert.Equal(t, Random, s.Image)
	assert.Equal(t, 1.0, s.Volume)
}

func TestResolveImage(t *testing.T) {
	pick := func(n int) int { return n - 1 }
	assert.Empty(t, ResolveImage(None, pick))
	assert.Equal(t, Images[len(Images)-1].Path, ResolveImage(Random, pick))
	assert.Equal(t, Images[0].Path, ResolveImage(Images[0].Path, pick))
}

func TestVerseChangedPlaysSelectedSound(t *testing.T) {
	prefs := newPrefs(t)
	player := &fakePlayer{}
	sys := NewSystem(prefs, player, "/assets", nil)
	ctx := context.Background()

	sys.VerseChanged(ctx)
	assert.Empty(t, player.calls, "disabled by default")

	next := sys.Settings()
	next.Enabled = true
	next.Sound = Sounds[1].Path
	require.NoError(t, sys.Update(ctx, next))

	sys.VerseChanged(ctx)
	require.Len(t, player.calls, 1)
	assert.Equal(t, filepath.Join("/assets", Sounds[1].Path), player.calls[0].path)
	assert.Equal(t, 0.3, player.calls[0].volume)

	assert.Equal(t, Sounds[1].Path, Load(prefs).Sound)
}

func TestPlaybackBlockedIsSilent(t *testing.T) {
	player := &fakePlayer{err: ErrPlaybackBlocked}
	sys := NewSystem(newPrefs(t), player, "", nil)
	next := sys.Settings()
	next.Enabled = true
	next.Sound = Sounds[0].Path
	require.NoError(t, sys.Update(context.Background(), next))

	assert.NotPanics(t, func() { sys.VerseChanged(context.Background()) })
	assert.Len(t, player.calls, 1)
}

func TestUpdateRejectsUnknownAssets(t *testing.T) {
	sys := NewSystem(newPrefs(t), nil, "", nil)
	next := sys.Settings()
	next.Music = "sounds/music/nope.mp3"
	assert.Error(t, sys.Update(context.Background(), next))
}

func TestApplyMusic(t *testing.T) {
	player := &fakePlayer{}
	sys := NewSystem(newPrefs(t), player, "", nil)
	ctx := context.Background()

	next := sys.Settings()
	next.Enabled = true
	next.Music = Music[0].Path
	require.NoError(t, sys.Update(ctx, next))
	require.Len(t, player.calls, 1)
	first := player.calls[0].ctx

	sys.ApplyMusic(ctx)
	assert.Len(t, player.calls, 1, "unchanged selection keeps playing")

	next.Music = Music[1].Path
	require.NoError(t, sys.Update(ctx, next))
	assert.Len(t, player.calls, 2)
	assert.Error(t, first.Err(), "previous track is stopped")

	sys.StopMusic()
	assert.Error(t, player.calls[1].ctx.Err())
}

func TestCommandPlayerArgs(t *testing.T) {
	p := CommandPlayer{Command: "ffplay -nodisp -volume {volume100} {path}"}
	assert.Equal(t, []string{"ffplay", "-nodisp", "-volume", "50", "/a/b.ogg"}, p.args("/a/b.ogg", 0.5))

	p = CommandPlayer{Command: "afplay -v {volume}"}
	assert.Equal(t, []string{"afplay", "-v", "0.25", "x.wav"}, p.args("x.wav", 0.25))
}

func TestCommandPlayerMissingProgram(t *testing.T) {
	p := CommandPlayer{Command: "definitely-not-a-real-player-binary"}
	assert.ErrorIs(t, p.Play(context.Background(), "x.wav", 1), ErrPlaybackBlocked)

	assert.ErrorIs(t, CommandPlayer{}.Play(context.Background(), "x.wav", 1), ErrPlaybackBlocked)
}
