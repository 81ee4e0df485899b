package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreSaveReturnsBareFilename(t *testing.T) {
	ls, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ref, err := ls.Save(context.Background(), newFileHeader(t, "Exam Scan.PDF", []byte("%PDF-1.4")))
	require.NoError(t, err)

	assert.NotContains(t, ref, string(filepath.Separator))
	assert.True(t, strings.HasSuffix(ref, ".pdf"), "extension should be kept, lowercased: %s", ref)

	content, err := os.ReadFile(ls.FullPath(ref))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), content)
}

func TestLocalStoreSaveGeneratesUniqueNames(t *testing.T) {
	ls, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	first, err := ls.Save(context.Background(), newFileHeader(t, "same.jpg", []byte("a")))
	require.NoError(t, err)
	second, err := ls.Save(context.Background(), newFileHeader(t, "same.jpg", []byte("b")))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestLocalStoreDeleteIsIdempotent(t *testing.T) {
	ls, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ref, err := ls.Save(context.Background(), newFileHeader(t, "page.png", []byte("png")))
	require.NoError(t, err)

	require.NoError(t, ls.Delete(context.Background(), ref))
	_, statErr := os.Stat(ls.FullPath(ref))
	assert.True(t, os.IsNotExist(statErr))

	// Absence is not an error.
	assert.NoError(t, ls.Delete(context.Background(), ref))
	assert.NoError(t, ls.Delete(context.Background(), ""))
}

func TestLocalStoreFullPathRejectsPathComponents(t *testing.T) {
	ls, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "", ls.FullPath("../escape.pdf"))
	assert.Equal(t, "", ls.FullPath("sub/dir.pdf"))
	assert.NotEqual(t, "", ls.FullPath("plain.pdf"))
}
