package privid

import (
	"fmt"
	"math"

	"github.com/prividentity/cryptonets-go/pkg/privid/engine"
)

// ImageFormat is the channel layout of raw pixels.
type ImageFormat string

const (
	FormatRGB  ImageFormat = "rgb"
	FormatBGR  ImageFormat = "bgr"
	FormatRGBA ImageFormat = "rgba"
)

// Channels returns the bytes per pixel of f, zero for unknown formats.
func (f ImageFormat) Channels() int {
	switch f {
	case FormatRGB, FormatBGR, "":
		return 3
	case FormatRGBA:
		return 4
	}
	return 0
}

// Image is a caller-owned raw pixel buffer. The engine only borrows it for
// the duration of a call. An empty Format means rgb.
type Image struct {
	Pixels []byte
	Width  int
	Height int
	Format ImageFormat
}

func (img Image) format() ImageFormat {
	if img.Format == "" {
		return FormatRGB
	}
	return img.Format
}

func (img Image) validate() error {
	if img.Pixels == nil {
		return fmt.Errorf("%w: image pixels", ErrNullArgument)
	}
	ch := img.Format.Channels()
	if ch == 0 {
		return fmt.Errorf("%w: unknown format %q", ErrInvalidImage, img.Format)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidImage, img.Width, img.Height)
	}
	// The engine takes C ints; the byte count has to fit one too.
	if img.Width > math.MaxInt32 || img.Height > math.MaxInt32 || img.Width > math.MaxInt32/img.Height/ch {
		return fmt.Errorf("%w: %dx%d %s exceeds the engine limit", ErrInvalidImage, img.Width, img.Height, img.format())
	}
	if want := img.Width * img.Height * ch; len(img.Pixels) != want {
		return fmt.Errorf("%w: %d bytes for %dx%d %s, want %d", ErrInvalidImage, len(img.Pixels), img.Width, img.Height, img.format(), want)
	}
	return nil
}

func (img Image) raw() engine.Image {
	return engine.Image{Pixels: img.Pixels, Width: img.Width, Height: img.Height}
}
