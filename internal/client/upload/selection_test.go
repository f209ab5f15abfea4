package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelection_RemoveResetsPicker(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.jpg", []byte("a"))
	b := writeTemp(t, dir, "b.jpg", []byte("b"))

	var s Selection
	changed, err := s.PickPhotos(a.Path, b.Path)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, s.Photos(), 2)

	changed, err = s.PickPhotos(a.Path, b.Path)
	require.NoError(t, err)
	assert.False(t, changed, "same pick without a reset is not a change")

	require.NoError(t, s.RemovePhoto(0))
	require.Len(t, s.Photos(), 1)
	assert.Equal(t, "b.jpg", s.Photos()[0].Name)

	changed, err = s.PickPhotos(a.Path, b.Path)
	require.NoError(t, err)
	assert.True(t, changed, "re-picking after removal registers")
	assert.Len(t, s.Photos(), 2)
	assert.Equal(t, "a.jpg", s.Photos()[0].Name)
}

func TestSelection_Video(t *testing.T) {
	dir := t.TempDir()
	v := writeTemp(t, dir, "clip.mp4", []byte("v"))

	var s Selection
	changed, err := s.PickVideo(v.Path)
	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, s.Video())
	assert.Equal(t, "clip.mp4", s.Video().Name)

	s.RemoveVideo()
	assert.Nil(t, s.Video())

	changed, err = s.PickVideo(v.Path)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestSelection_RejectsWrongKinds(t *testing.T) {
	dir := t.TempDir()
	doc := writeTemp(t, dir, "doc.pdf", []byte("%PDF"))

	var s Selection
	_, err := s.PickPhotos(doc.Path)
	assert.ErrorIs(t, err, ErrUnsupportedMedia)
	_, err = s.PickVideo(doc.Path)
	assert.ErrorIs(t, err, ErrUnsupportedMedia)
	assert.Error(t, s.RemovePhoto(0))
}

func TestSelection_Clear(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.jpg", []byte("a"))

	var s Selection
	_, err := s.PickPhotos(a.Path)
	require.NoError(t, err)
	s.Clear()
	assert.Empty(t, s.Photos())

	changed, err := s.PickPhotos(a.Path)
	require.NoError(t, err)
	assert.True(t, changed)
}
