package photos

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"

	"github.com/antonio-alexander/go-employee-admin/internal"
	"github.com/antonio-alexander/go-employee-admin/internal/data"
	"github.com/antonio-alexander/go-employee-admin/internal/utilities"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const DefaultMaxBytes int64 = 5 << 20

var ErrPhotoNotFound = errors.New("photo not found")

// stored photo names are always a uuid plus one of the extensions below
var regexName = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.(jpg|png|gif|webp)$`)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Photos interface {
	// Save screens and stores the photo, returning its name; a rejected
	// upload is reported as data.FieldErrors
	Save(ctx context.Context, r io.Reader) (string, error)

	// Read opens the stored photo with the given name
	Read(name string) (*os.File, error)

	// Delete removes the stored photo, a missing photo is not an error
	Delete(ctx context.Context, name string) error
}

type photos struct {
	sync.RWMutex
	utilities.Logger
	config struct {
		root     string
		maxBytes int64
	}
}

func NewPhotos(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Photos
} {
	p := &photos{Logger: utilities.NewNopLogger()}
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case utilities.Logger:
			p.Logger = v
		}
	}
	return p
}

func (p *photos) Configure(envs map[string]string) error {
	p.Lock()
	defer p.Unlock()

	p.config.root = "media"
	p.config.maxBytes = DefaultMaxBytes
	if root := envs["MEDIA_ROOT"]; root != "" {
		p.config.root = root
	}
	if _, ok := envs["PHOTO_MAX_BYTES"]; ok {
		i, err := strconv.ParseInt(envs["PHOTO_MAX_BYTES"], 10, 64)
		if err != nil || i <= 0 {
			return errors.Errorf("invalid photo max bytes: %q", envs["PHOTO_MAX_BYTES"])
		}
		p.config.maxBytes = i
	}
	return nil
}

func (p *photos) Open(ctx context.Context) error {
	p.Lock()
	defer p.Unlock()

	if err := os.MkdirAll(p.config.root, 0755); err != nil {
		return errors.Wrapf(err, "unable to create media root %s", p.config.root)
	}
	p.Info(ctx, "storing photos in %s", p.config.root)
	return nil
}

func (p *photos) Close(ctx context.Context) error {
	return nil
}

func (p *photos) Save(ctx context.Context, r io.Reader) (string, error) {
	p.RLock()
	defer p.RUnlock()

	buffer := &bytes.Buffer{}
	n, err := io.Copy(buffer, io.LimitReader(r, p.config.maxBytes+1))
	if err != nil {
		return "", errors.Wrap(err, "unable to read photo")
	}
	switch {
	case n == 0:
		return "", data.FieldErrors{data.FieldPhoto: "The submitted file is empty."}
	case n > p.config.maxBytes:
		return "", data.FieldErrors{data.FieldPhoto: fmt.Sprintf(
			"Ensure this file has at most %d bytes.", p.config.maxBytes)}
	}
	contentType := http.DetectContentType(buffer.Bytes())
	extension, ok := extensions[contentType]
	if !ok {
		p.Debug(ctx, "rejected photo with content type %s", contentType)
		return "", data.FieldErrors{data.FieldPhoto: "Upload a valid image. The file you uploaded was either not an image or a corrupted image."}
	}
	name := uuid.NewString() + extension
	file, err := os.CreateTemp(p.config.root, ".upload-*")
	if err != nil {
		return "", errors.Wrap(err, "unable to create photo")
	}
	if _, err := buffer.WriteTo(file); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return "", errors.Wrap(err, "unable to write photo")
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", errors.Wrap(err, "unable to write photo")
	}
	if err := os.Rename(file.Name(), filepath.Join(p.config.root, name)); err != nil {
		_ = os.Remove(file.Name())
		return "", errors.Wrap(err, "unable to store photo")
	}
	p.Trace(ctx, "stored photo %s (%d bytes)", name, n)
	return name, nil
}

func (p *photos) Read(name string) (*os.File, error) {
	p.RLock()
	defer p.RUnlock()

	if !regexName.MatchString(name) {
		return nil, ErrPhotoNotFound
	}
	file, err := os.Open(filepath.Join(p.config.root, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrPhotoNotFound
		}
		return nil, errors.Wrapf(err, "unable to open photo %s", name)
	}
	return file, nil
}

func (p *photos) Delete(ctx context.Context, name string) error {
	p.RLock()
	defer p.RUnlock()

	if !regexName.MatchString(name) {
		return nil
	}
	if err := os.Remove(filepath.Join(p.config.root, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "unable to delete photo %s", name)
	}
	p.Trace(ctx, "deleted photo %s", name)
	return nil
}
