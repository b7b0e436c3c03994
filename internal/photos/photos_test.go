package photos_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/antonio-alexander/go-employee-admin/internal/data"
	"github.com/antonio-alexander/go-employee-admin/internal/photos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newPhotos(t *testing.T, maxBytes string) (photos.Photos, string) {
	root := filepath.Join(t.TempDir(), "media")
	p := photos.NewPhotos()
	err := p.Configure(map[string]string{
		"MEDIA_ROOT":      root,
		"PHOTO_MAX_BYTES": maxBytes,
	})
	require.Nil(t, err)
	require.Nil(t, p.Open(context.TODO()))
	return p, root
}

func TestPhotos(t *testing.T) {
	ctx := context.TODO()
	p, root := newPhotos(t, "64")

	// accepted
	name, err := p.Save(ctx, bytes.NewReader(pngHeader))
	require.Nil(t, err)
	assert.Equal(t, ".png", filepath.Ext(name))
	file, err := p.Read(name)
	require.Nil(t, err)
	content, err := io.ReadAll(file)
	assert.Nil(t, err)
	assert.Nil(t, file.Close())
	assert.Equal(t, pngHeader, content)

	// only the stored photo remains in the root
	entries, err := os.ReadDir(root)
	assert.Nil(t, err)
	assert.Len(t, entries, 1)

	// deleted
	err = p.Delete(ctx, name)
	assert.Nil(t, err)
	_, err = p.Read(name)
	assert.ErrorIs(t, err, photos.ErrPhotoNotFound)
	err = p.Delete(ctx, name)
	assert.Nil(t, err)

	// names outside of the store are never opened
	_, err = p.Read("../media/" + name)
	assert.ErrorIs(t, err, photos.ErrPhotoNotFound)
}

func TestPhotosRejected(t *testing.T) {
	ctx := context.TODO()
	p, _ := newPhotos(t, "64")

	for name, content := range map[string][]byte{
		"empty":   {},
		"text":    []byte("this is not an image"),
		"too_big": append(append([]byte{}, pngHeader...), make([]byte, 64)...),
		"html":    []byte("<html><body>hi</body></html>"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := p.Save(ctx, bytes.NewReader(content))
			var fieldErrors data.FieldErrors
			if assert.ErrorAs(t, err, &fieldErrors) {
				assert.Contains(t, fieldErrors, data.FieldPhoto)
			}
		})
	}
}
