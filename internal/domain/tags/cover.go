package tags

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // GIF decoder
	"image/jpeg"
	_ "image/png" // PNG decoder

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder
)

// ThumbnailSize is the longest edge of a cover thumbnail in pixels.
type ThumbnailSize int

const (
	ThumbSmall  ThumbnailSize = 150
	ThumbMedium ThumbnailSize = 300
	ThumbLarge  ThumbnailSize = 500
)

// ErrNoCover is returned when the file has no embedded picture.
var ErrNoCover = errors.New("no embedded cover")

// Thumbnail decodes the embedded cover and returns a JPEG scaled to fit size,
// keeping the aspect ratio. Images already smaller than size are re-encoded
// at their own size.
func Thumbnail(p *Picture, size ThumbnailSize) ([]byte, error) {
	if p == nil || len(p.Data) == 0 {
		return nil, ErrNoCover
	}

	img, format, err := image.Decode(bytes.NewReader(p.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover: %w", err)
	}

	log.Debug().
		Str("format", format).
		Str("mime", p.MIMEType).
		Int("size", int(size)).
		Msg("Generating cover thumbnail")

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fit(img, int(size)), &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// fit scales src so its longest edge is at most maxSize.
func fit(src image.Image, maxSize int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSize && h <= maxSize {
		return src
	}

	var newW, newH int
	if w > h {
		newW = maxSize
		newH = max(1, h*maxSize/w)
	} else {
		newH = maxSize
		newW = max(1, w*maxSize/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
