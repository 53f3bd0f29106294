package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSet(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	_, ok := s.Get(KeyTheme)
	assert.False(t, ok)
	assert.Equal(t, DefaultTheme, s.GetOr(KeyTheme, DefaultTheme))

	require.NoError(t, s.Set(KeyTheme, "light"))
	v, ok := s.Get(KeyTheme)
	assert.True(t, ok)
	assert.Equal(t, "light", v)

	require.NoError(t, s.Delete(KeyTheme))
	require.NoError(t, s.Delete(KeyTheme))
	_, ok = s.Get(KeyTheme)
	assert.False(t, ok)
}

func TestPersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyTranslation, "KJV"))

	s, err = Open(dir)
	require.NoError(t, err)
	assert.Equal(t, "KJV", s.GetOr(KeyTranslation, ""))
}

func TestTypedValues(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultFontSize, s.Int(KeyFontSize, DefaultFontSize))
	require.NoError(t, s.Set(KeyFontSize, "120"))
	assert.Equal(t, 120, s.Int(KeyFontSize, DefaultFontSize))
	require.NoError(t, s.Set(KeyFontSize, "big"))
	assert.Equal(t, DefaultFontSize, s.Int(KeyFontSize, DefaultFontSize))

	assert.InDelta(t, 0.5, s.Float(KeyAVVolume, 0.5), 1e-9)
	require.NoError(t, s.Set(KeyAVVolume, "0.25"))
	assert.InDelta(t, 0.25, s.Float(KeyAVVolume, 0.5), 1e-9)

	assert.True(t, s.Bool(KeyShowProgress, true))
	require.NoError(t, s.SetBool(KeyShowProgress, false))
	assert.False(t, s.Bool(KeyShowProgress, true))
	require.NoError(t, s.Set(KeyShowProgress, "yes"))
	assert.True(t, s.Bool(KeyShowProgress, true))
}

func TestInterval(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 4*time.Minute, s.Interval())
	require.NoError(t, s.Set(KeyIntervalMinutes, "10"))
	assert.Equal(t, 10*time.Minute, s.Interval())
	require.NoError(t, s.Set(KeyIntervalMinutes, "0"))
	assert.Equal(t, 4*time.Minute, s.Interval())
	require.NoError(t, s.Set(KeyIntervalMinutes, "1440"))
	assert.Equal(t, 24*time.Hour, s.Interval())
	require.NoError(t, s.Set(KeyIntervalMinutes, "1441"))
	assert.Equal(t, 4*time.Minute, s.Interval())
	require.NoError(t, s.Set(KeyIntervalMinutes, "200000000"))
	assert.Equal(t, 4*time.Minute, s.Interval())
}

func TestCollectionIndex(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	_, ok := s.CollectionIndex("Hope")
	assert.False(t, ok)

	require.NoError(t, s.SetCollectionIndex("Hope", 3))
	require.NoError(t, s.SetCollectionIndex("Psalms", 0))
	require.NoError(t, s.SetCollectionIndex("", 9))

	idx, ok := s.CollectionIndex("Hope")
	assert.True(t, ok)
	assert.Equal(t, 3, idx)
	idx, ok = s.CollectionIndex("Psalms")
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
	_, ok = s.CollectionIndex("")
	assert.False(t, ok)

	require.NoError(t, s.Set(KeyCollectionIndex, "{not json"))
	_, ok = s.CollectionIndex("Hope")
	assert.False(t, ok)
}
