package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"
	"time"

	"github.com/BitPonyLLC/framehue/pkg/sampler"

	_ "golang.org/x/image/webp"
)

// ImageSource is a still picture: every position shows the same frame.
type ImageSource struct {
	Path string

	mutex sync.Mutex
	img   image.Image
}

var _ sampler.Source = (*ImageSource)(nil) // ensures we conform to the Source interface

func (is *ImageSource) Kind() sampler.Kind { return sampler.DirectMedia }
func (is *ImageSource) String() string     { return is.Path }

func (is *ImageSource) Duration() (time.Duration, bool) {
	return 0, false
}

// Seek loads the picture the first time it is called.
func (is *ImageSource) Seek(ctx context.Context, _ time.Duration) error {
	is.mutex.Lock()
	defer is.mutex.Unlock()

	if is.img != nil {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := load(is.Path)
	if err != nil {
		return err
	}

	is.img = img
	return nil
}

func (is *ImageSource) Ready() bool {
	is.mutex.Lock()
	defer is.mutex.Unlock()
	return is.img != nil
}

func (is *ImageSource) Frame() (image.Image, error) {
	is.mutex.Lock()
	defer is.mutex.Unlock()

	if is.img == nil {
		return nil, errors.New("image not loaded")
	}
	return is.img, nil
}

func load(pathname string) (image.Image, error) {
	f, err := os.Open(pathname)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", pathname, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s: %w", pathname, err)
	}

	return img, nil
}
