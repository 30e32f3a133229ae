package stego

import (
	"fmt"
	"image"

	"image-steganography-backend/imaging"
)

// ChannelStore exposes the pixel buffer of a packed NRGBA image as a flat
// sequence of channel bytes: pixel (x,y) lives at (y*width+x)*4, followed by
// its G, B and A bytes.
type ChannelStore struct {
	pix []byte
}

func NewChannelStore(img *image.NRGBA) (*ChannelStore, error) {
	b := img.Bounds()
	want := int(imaging.CapacityBits(b.Dx(), b.Dy()))
	if img.Stride != b.Dx()*imaging.ChannelsPerPixel || len(img.Pix) != want {
		return nil, fmt.Errorf("pixel buffer is not packed: stride %d, %d bytes for %dx%d",
			img.Stride, len(img.Pix), b.Dx(), b.Dy())
	}
	return &ChannelStore{pix: img.Pix}, nil
}

// Capacity is the number of channel bytes, one hideable bit each.
func (s *ChannelStore) Capacity() int {
	return len(s.pix)
}

func (s *ChannelStore) ReadChannelByte(i int) byte {
	return s.pix[i]
}

func (s *ChannelStore) WriteChannelByte(i int, value byte) {
	s.pix[i] = value
}

func (s *ChannelStore) setLSB(i int, bit byte) {
	s.WriteChannelByte(i, (s.ReadChannelByte(i)&0xFE)|(bit&1))
}

func (s *ChannelStore) lsb(i int) byte {
	return s.ReadChannelByte(i) & 1
}
