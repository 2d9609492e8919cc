// Package imageio converts encoded images to the raw pixel buffers privid
// operations take, and raw engine crops back to images.
//
// Decoding goes through imaging with EXIF auto-orientation, so photos taken
// in portrait come out upright. JPEG, PNG, GIF, BMP, TIFF and WebP inputs are
// supported.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/prividentity/cryptonets-go/pkg/privid"
)

// ErrFormat reports an unsupported pixel or file format.
var ErrFormat = errors.New("imageio: unsupported format")

// Load reads and decodes the image at path into raw pixels in format.
func Load(path string, format privid.ImageFormat) (privid.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return privid.Image{}, fmt.Errorf("imageio: read %s: %w", path, err)
	}
	img, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return privid.Image{}, fmt.Errorf("imageio: %s: %w", path, err)
	}
	return img, nil
}

// Decode decodes r into raw pixels in format.
func Decode(r io.Reader, format privid.ImageFormat) (privid.Image, error) {
	if format.Channels() == 0 {
		return privid.Image{}, fmt.Errorf("%w: %q", ErrFormat, format)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return privid.Image{}, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		// Some animated or extended WebP files only decode through libwebp.
		if wimg, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
			img = wimg
		} else {
			return privid.Image{}, err
		}
	}
	return FromImage(img, format)
}

// FromImage packs img into raw pixels in format.
func FromImage(img image.Image, format privid.ImageFormat) (privid.Image, error) {
	if format == "" {
		format = privid.FormatRGB
	}
	ch := format.Channels()
	if ch == 0 {
		return privid.Image{}, fmt.Errorf("%w: %q", ErrFormat, format)
	}
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	out := make([]byte, 0, w*h*ch)
	for i := 0; i < len(src.Pix); i += 4 {
		r, g, b, a := src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3]
		switch format {
		case privid.FormatBGR:
			out = append(out, b, g, r)
		case privid.FormatRGBA:
			out = append(out, r, g, b, a)
		default:
			out = append(out, r, g, b)
		}
	}
	return privid.Image{Pixels: out, Width: w, Height: h, Format: format}, nil
}

// ToImage unpacks raw pixels, such as an engine crop, into an image.
func ToImage(px []byte, w, h int, format privid.ImageFormat) (*image.NRGBA, error) {
	if format == "" {
		format = privid.FormatRGB
	}
	ch := format.Channels()
	if ch == 0 {
		return nil, fmt.Errorf("%w: %q", ErrFormat, format)
	}
	if w <= 0 || h <= 0 || len(px) != w*h*ch {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d %s", privid.ErrInvalidImage, len(px), w, h, format)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, j := 0, 0; i < len(px); i, j = i+ch, j+4 {
		switch format {
		case privid.FormatBGR:
			dst.Pix[j], dst.Pix[j+1], dst.Pix[j+2], dst.Pix[j+3] = px[i+2], px[i+1], px[i], 0xff
		case privid.FormatRGBA:
			copy(dst.Pix[j:j+4], px[i:i+4])
		default:
			dst.Pix[j], dst.Pix[j+1], dst.Pix[j+2], dst.Pix[j+3] = px[i], px[i+1], px[i+2], 0xff
		}
	}
	return dst, nil
}

// SquareSide returns the side of a square crop holding n bytes of format,
// or zero when n is not a square.
func SquareSide(n int, format privid.ImageFormat) int {
	ch := format.Channels()
	if ch == 0 || n <= 0 || n%ch != 0 {
		return 0
	}
	px := n / ch
	side := 1
	for side*side < px {
		side++
	}
	if side*side != px {
		return 0
	}
	return side
}

// Save encodes img by the extension of path. .webp uses libwebp at quality;
// everything else goes through imaging.
func Save(path string, img image.Image, quality int) error {
	if strings.ToLower(filepath.Ext(path)) != ".webp" {
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWebP(f, img, quality, false); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EncodeWebP writes img as WebP.
func EncodeWebP(w io.Writer, img image.Image, quality int, lossless bool) error {
	return webp.Encode(w, img, &webp.Options{Lossless: lossless, Quality: float32(quality)})
}
