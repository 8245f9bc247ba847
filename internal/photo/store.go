// Package photo stores profile photos as square JPEG thumbnails.
package photo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// ErrInvalidImage is returned when an upload cannot be decoded as an image
var ErrInvalidImage = errors.New("upload a valid image. the file you uploaded was either not an image or a corrupted image")

const (
	// Dir is the media sub-directory photos are written to
	Dir = "profile_photos"

	// Size is the edge length of stored thumbnails
	Size = 256

	// MaxPixels caps the declared dimensions of an upload before decoding
	MaxPixels = 40_000_000

	jpegQuality = 85
)

// Store writes processed photos under a media root
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given directory
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the media root directory
func (s *Store) Root() string {
	return s.root
}

// Save decodes, crops and resizes an image and writes it as a JPEG.
// Returns the media path relative to the root, using forward slashes.
func (s *Store) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, MaxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	thumb := imaging.Fill(img, Size, Size, imaging.Center, imaging.Lanczos)

	dir := filepath.Join(s.root, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create photo dir: %w", err)
	}

	name := uuid.New().String() + ".jpg"
	if err := writeJPEG(filepath.Join(dir, name), thumb); err != nil {
		return "", err
	}

	return path.Join(Dir, name), nil
}

// writeJPEG encodes img to file. A partial file is removed on failure.
func writeJPEG(file string, img image.Image) (err error) {
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("create photo file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(file)
		}
	}()

	if err := encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode photo: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close photo file: %w", err)
	}
	return nil
}

// encode is swapped in tests to simulate encoder failures
var encode = func(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality))
}

// Remove deletes a previously saved photo. Missing files are ignored.
func (s *Store) Remove(mediaPath string) error {
	if mediaPath == "" {
		return nil
	}
	clean := path.Clean("/" + mediaPath)
	if !strings.HasPrefix(clean, "/"+Dir+"/") {
		return fmt.Errorf("refusing to remove %q outside %s", mediaPath, Dir)
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
