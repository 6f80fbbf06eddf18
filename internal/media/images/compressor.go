package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Compression defaults.
const (
	DefaultMaxBytes     = 300 << 10
	DefaultMaxDimension = 600
	DefaultQuality      = 85

	minQuality  = 40
	qualityStep = 10
	shrinkRatio = 0.8
	minEdge     = 64
)

// ErrCannotCompress is returned when no encoding fits the byte budget.
var ErrCannotCompress = errors.New("cover cannot be compressed to the size limit")

// CompressOptions bound the compressed output.
type CompressOptions struct {
	MaxBytes     int64
	MaxDimension int
	Quality      int
}

// Compressed is an encoded cover ready for storage.
type Compressed struct {
	Data         []byte `json:"-"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	OriginalSize int64  `json:"original_size"`
	Size         int64  `json:"size"`
	BlurHash     string `json:"blurhash,omitempty"`
}

// SavedPercent is how much smaller the output is than the upload, 0-100.
func (c *Compressed) SavedPercent() int {
	if c.OriginalSize <= 0 || c.Size >= c.OriginalSize {
		return 0
	}
	return int(100 - c.Size*100/c.OriginalSize)
}

// Compressor re-encodes uploaded covers as bounded JPEGs.
type Compressor struct {
	opts CompressOptions
}

// NewCompressor fills zero options with defaults.
func NewCompressor(opts CompressOptions) *Compressor {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = DefaultMaxDimension
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}
	return &Compressor{opts: opts}
}

// Compress decodes data, fits it within the maximum dimension, and encodes
// JPEG at decreasing quality, then decreasing size, until it fits MaxBytes.
func (c *Compressor) Compress(ctx context.Context, data []byte) (*Compressed, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), c.opts.MaxDimension)

	var buf bytes.Buffer
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img := resize(src, w, h)
		for q := c.opts.Quality; q >= minQuality; q -= qualityStep {
			buf.Reset()
			if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
				return nil, fmt.Errorf("encode jpeg: %w", err)
			}
			if int64(buf.Len()) <= c.opts.MaxBytes {
				return c.result(img, buf.Bytes(), int64(len(data))), nil
			}
		}

		if w <= minEdge && h <= minEdge {
			return nil, ErrCannotCompress
		}
		w = max(1, int(float64(w)*shrinkRatio))
		h = max(1, int(float64(h)*shrinkRatio))
	}
}

func (c *Compressor) result(img image.Image, data []byte, originalSize int64) *Compressed {
	out := &Compressed{
		Data:         bytes.Clone(data),
		Width:        img.Bounds().Dx(),
		Height:       img.Bounds().Dy(),
		OriginalSize: originalSize,
		Size:         int64(len(data)),
	}
	// A missing placeholder is cosmetic.
	if hash, err := ComputeBlurHash(img); err == nil {
		out.BlurHash = hash
	}
	return out
}

// resize scales src to w x h with Catmull-Rom. JPEG has no alpha, so the
// canvas starts white rather than black.
func resize(src image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
