package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func pngContent(payload string) []byte {
	return append(append([]byte{}, pngHeader...), []byte(payload)...)
}

func newTestStorage(t *testing.T) *ArtifactStorage {
	t.Helper()
	s, err := NewArtifactStorage(t.TempDir(), 1)
	require.NoError(t, err)
	return s
}

func TestArtifactStorage_Save_ContentAddressed(t *testing.T) {
	s := newTestStorage(t)
	content := pngContent("scope document")

	ref, size, err := s.Save(context.Background(), bytes.NewReader(content))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(ref, ".png"))
	assert.True(t, IsValidRef(ref))
	assert.Equal(t, int64(len(content)), size)

	_, err = os.Stat(filepath.Join(s.rootPath, ref))
	assert.NoError(t, err)
}

func TestArtifactStorage_Save_SameContentSameRef(t *testing.T) {
	s := newTestStorage(t)
	content := pngContent("same bytes")

	first, _, err := s.Save(context.Background(), bytes.NewReader(content))
	require.NoError(t, err)
	second, _, err := s.Save(context.Background(), bytes.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestArtifactStorage_Save_DifferentContentDifferentRef(t *testing.T) {
	s := newTestStorage(t)

	first, _, err := s.Save(context.Background(), bytes.NewReader(pngContent("one")))
	require.NoError(t, err)
	second, _, err := s.Save(context.Background(), bytes.NewReader(pngContent("two")))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestArtifactStorage_Save_UnknownTypeFallsBackToBin(t *testing.T) {
	s := newTestStorage(t)

	ref, _, err := s.Save(context.Background(), strings.NewReader("plain text artifact"))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(ref, ".bin"))
}

func TestArtifactStorage_Save_EmptyContent(t *testing.T) {
	s := newTestStorage(t)

	_, _, err := s.Save(context.Background(), strings.NewReader(""))
	assert.Error(t, err)
}

func TestArtifactStorage_Save_OverLimit(t *testing.T) {
	s := newTestStorage(t)
	oversized := append(pngContent(""), bytes.Repeat([]byte{0xAB}, 1024*1024+1)...)

	_, _, err := s.Save(context.Background(), bytes.NewReader(oversized))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "превышает лимит")

	entries, err := os.ReadDir(s.rootPath)
	require.NoError(t, err)
	assert.Empty(t, entries, "временные файлы должны быть удалены")
}

func TestArtifactStorage_Open_RoundTrip(t *testing.T) {
	s := newTestStorage(t)
	content := pngContent("work result")

	ref, _, err := s.Save(context.Background(), bytes.NewReader(content))
	require.NoError(t, err)

	f, contentType, err := s.Open(context.Background(), ref)
	require.NoError(t, err)
	defer f.Close()

	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Equal(t, "image/png", contentType)
}

func TestArtifactStorage_Open_RejectsMalformedRef(t *testing.T) {
	s := newTestStorage(t)

	for _, ref := range []string{
		"../../etc/passwd",
		"not-a-ref",
		"AAAA.png",
		strings.Repeat("a", 64),
	} {
		_, _, err := s.Open(context.Background(), ref)
		assert.Error(t, err, "ссылка %q должна быть отклонена", ref)
	}
}

func TestArtifactStorage_Open_NotFound(t *testing.T) {
	s := newTestStorage(t)

	_, _, err := s.Open(context.Background(), strings.Repeat("0", 64)+".png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
