// Package imaging decodes carrier images into flat RGBA channel buffers and
// writes them back out losslessly.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	ChannelsPerPixel = 4
	BitsInByte       = 8

	// DefaultMaxPixelBytes caps the decoded RGBA buffer at 512 MiB.
	DefaultMaxPixelBytes uint64 = 512 << 20
)

// ErrImageTooLarge is returned when the declared dimensions exceed the
// decoder's pixel budget.
var ErrImageTooLarge = errors.New("image dimensions exceed the pixel limit")

type ImageDecoder struct {
	encoder       *png.Encoder
	maxPixelBytes uint64
}

// NewImageDecoder returns a decoder refusing images whose RGBA buffer would
// exceed maxPixelBytes. Zero selects DefaultMaxPixelBytes.
func NewImageDecoder(maxPixelBytes uint64) *ImageDecoder {
	if maxPixelBytes == 0 {
		maxPixelBytes = DefaultMaxPixelBytes
	}
	return &ImageDecoder{
		encoder:       &png.Encoder{CompressionLevel: png.DefaultCompression},
		maxPixelBytes: maxPixelBytes,
	}
}

func (d *ImageDecoder) MaxPixelBytes() uint64 {
	return d.maxPixelBytes
}

// Decode sniffs the raster format and returns the image as a packed NRGBA
// buffer anchored at (0,0), together with the detected format name. The
// header is checked against the pixel budget before any pixel is decoded.
func (d *ImageDecoder) Decode(data []byte) (*image.NRGBA, string, error) {
	cfg, _, err := d.DecodeConfig(data)
	if err != nil {
		return nil, "", err
	}
	if size := CapacityBits(cfg.Width, cfg.Height); size > d.maxPixelBytes {
		return nil, "", fmt.Errorf("%w: %dx%d needs %d bytes, limit is %d",
			ErrImageTooLarge, cfg.Width, cfg.Height, size, d.maxPixelBytes)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return ToNRGBA(img), format, nil
}

// DecodeConfig reads only the header of the image.
func (d *ImageDecoder) DecodeConfig(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", fmt.Errorf("failed to decode image header: %w", err)
	}
	return cfg, format, nil
}

// EncodePNG serializes img as PNG. PNG is the only output format: any lossy
// encoder would destroy the low bits.
func (d *ImageDecoder) EncodePNG(img *image.NRGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := d.encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// ToNRGBA copies src into a new NRGBA image whose Pix holds exactly
// width*height*4 bytes in row-major R,G,B,A order.
func ToNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	switch s := src.(type) {
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			i := s.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], s.Pix[i:i+w*ChannelsPerPixel])
		}
	case *image.NRGBA64:
		// keep the high byte of each 16-bit sample
		for y := 0; y < h; y++ {
			i := s.PixOffset(b.Min.X, b.Min.Y+y)
			row := dst.Pix[y*dst.Stride : (y+1)*dst.Stride]
			for x := 0; x < w*ChannelsPerPixel; x++ {
				row[x] = s.Pix[i+2*x]
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				dst.SetNRGBA(x, y, c)
			}
		}
	}
	return dst
}

// CapacityBits is the number of channel bytes, and so of hideable bits, in an
// image of the given size.
func CapacityBits(width, height int) uint64 {
	if width <= 0 || height <= 0 {
		return 0
	}
	return uint64(width) * uint64(height) * ChannelsPerPixel
}
