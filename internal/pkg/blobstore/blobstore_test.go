package blobstore

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFileHeader builds a real multipart.FileHeader the way gin would hand
// one to a handler.
func newFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("files", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["files"]
	require.Len(t, files, 1)
	return files[0]
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindRemote, KindOf("https://cdn.example.com/a.pdf"))
	assert.Equal(t, KindRemote, KindOf("http://cdn.example.com/a.pdf"))
	assert.Equal(t, KindLocal, KindOf("1700000000-abc.pdf"))
	// Extension never decides the backend.
	assert.Equal(t, KindLocal, KindOf("https.pdf"))
	assert.Equal(t, KindLocal, KindOf("httpserver-notes.pdf"))
}
