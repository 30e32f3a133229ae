// Package stego hides length-prefixed payloads in the least significant bit
// of every channel byte of an RGBA image.
package stego

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"image-steganography-backend/crypto"
	"image-steganography-backend/imaging"
)

// HeaderBits is the size of the big-endian payload length that precedes
// the payload in the carrier.
const HeaderBits = 32

type Codec struct {
	cipher  *crypto.Cipher
	decoder *imaging.ImageDecoder
}

// Option configures a Codec.
type Option func(*codecOptions)

type codecOptions struct {
	maxPixelBytes uint64
}

// WithMaxPixelBytes caps the decoded RGBA buffer of any carrier. Larger
// images fail with a format error before their pixels are decoded.
func WithMaxPixelBytes(n uint64) Option {
	return func(o *codecOptions) {
		o.maxPixelBytes = n
	}
}

// NewCodec returns a codec that encrypts with c when a password is given.
// A nil cipher uses crypto/rand for nonces.
func NewCodec(c *crypto.Cipher, opts ...Option) *Codec {
	if c == nil {
		c = crypto.NewCipher(nil)
	}
	var o codecOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Codec{
		cipher:  c,
		decoder: imaging.NewImageDecoder(o.maxPixelBytes),
	}
}

// CapacityInfo describes how much an image can carry.
type CapacityInfo struct {
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Format       string `json:"format"`
	CapacityBits uint64 `json:"capacity_bits"`
	// MaxSecretBytes accounts for the length header.
	MaxSecretBytes uint64 `json:"max_secret_bytes"`
	// MaxEncryptedSecretBytes additionally accounts for nonce and tag.
	MaxEncryptedSecretBytes uint64 `json:"max_encrypted_secret_bytes"`
}

// EncodeResult is the outcome of EncodeDetailed.
type EncodeResult struct {
	PNG          []byte
	Format       string
	PayloadBytes int
	CapacityBits uint64
	PSNR         float64
}

// Capacity reports the carrying capacity of imageBytes without decoding pixels.
func (c *Codec) Capacity(imageBytes []byte) (*CapacityInfo, error) {
	cfg, format, err := c.decoder.DecodeConfig(imageBytes)
	if err != nil {
		return nil, newError(KindFormat, "", err)
	}

	info := &CapacityInfo{
		Width:        cfg.Width,
		Height:       cfg.Height,
		Format:       format,
		CapacityBits: imaging.CapacityBits(cfg.Width, cfg.Height),
	}
	if info.CapacityBits >= HeaderBits {
		info.MaxSecretBytes = min((info.CapacityBits-HeaderBits)/imaging.BitsInByte, math.MaxUint32)
	}
	if info.MaxSecretBytes >= crypto.Overhead {
		info.MaxEncryptedSecretBytes = info.MaxSecretBytes - crypto.Overhead
	}
	return info, nil
}

// Encode hides secret in the image and returns it as PNG. A nil password
// stores the secret as is; otherwise it is sealed with AES-256-GCM first.
func (c *Codec) Encode(imageBytes, secret, password []byte) ([]byte, error) {
	res, err := c.EncodeDetailed(imageBytes, secret, password)
	if err != nil {
		return nil, err
	}
	return res.PNG, nil
}

func (c *Codec) EncodeDetailed(imageBytes, secret, password []byte) (*EncodeResult, error) {
	carrier, format, err := c.decoder.Decode(imageBytes)
	if err != nil {
		return nil, newError(KindFormat, "", err)
	}

	payload := secret
	if password != nil {
		payload, err = c.cipher.Encrypt(secret, password)
		if err != nil {
			return nil, newError(KindEncryption, "", err)
		}
	}

	stegoImg := imaging.ToNRGBA(carrier)
	if err := embed(stegoImg, payload); err != nil {
		return nil, err
	}

	out, err := c.decoder.EncodePNG(stegoImg)
	if err != nil {
		return nil, newError(KindEncode, "", err)
	}

	b := carrier.Bounds()
	return &EncodeResult{
		PNG:          out,
		Format:       format,
		PayloadBytes: len(payload),
		CapacityBits: imaging.CapacityBits(b.Dx(), b.Dy()),
		PSNR:         imaging.PSNR(carrier, stegoImg),
	}, nil
}

// Decode recovers the payload hidden by Encode. The password must be nil
// exactly when it was nil at encode time.
func (c *Codec) Decode(imageBytes, password []byte) ([]byte, error) {
	img, _, err := c.decoder.Decode(imageBytes)
	if err != nil {
		return nil, newError(KindFormat, "", err)
	}

	payload, err := extract(img)
	if err != nil {
		return nil, err
	}

	if password == nil {
		return payload, nil
	}
	secret, err := c.cipher.Decrypt(payload, password)
	if err != nil {
		return nil, newError(KindDecryption, "", err)
	}
	return secret, nil
}

// embed writes the framed payload into the low bits of img, in place.
func embed(img *image.NRGBA, payload []byte) error {
	store, err := NewChannelStore(img)
	if err != nil {
		return newError(KindFormat, "", err)
	}

	capacity := uint64(store.Capacity())
	if uint64(len(payload)) > capacity/imaging.BitsInByte {
		return newError(KindCapacity, fmt.Sprintf("secret data too large: %d bytes, image holds at most %d bytes",
			len(payload), capacity/imaging.BitsInByte), nil)
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return newError(KindCapacity, fmt.Sprintf("secret data too large: %d bytes exceeds the 32-bit length header", len(payload)), nil)
	}
	needed := HeaderBits + uint64(len(payload))*imaging.BitsInByte
	if needed > capacity {
		return newError(KindCapacity, fmt.Sprintf("secret data too large: %d bits needed including header, image holds %d bits",
			needed, capacity), nil)
	}

	for i, bit := range frame(payload) {
		store.setLSB(i, bit)
	}
	return nil
}

// extract reads the length header and then exactly that many payload bytes.
func extract(img *image.NRGBA) ([]byte, error) {
	store, err := NewChannelStore(img)
	if err != nil {
		return nil, newError(KindFormat, "", err)
	}

	capacity := uint64(store.Capacity())
	if capacity < HeaderBits {
		return nil, newError(KindInsufficientData, fmt.Sprintf("image too small: %d bits, need %d for the length header",
			capacity, HeaderBits), nil)
	}

	header := bitsToBytes(readBits(store, 0, HeaderBits))
	secretLen := binary.BigEndian.Uint32(header)

	totalBits := uint64(secretLen) * imaging.BitsInByte
	if HeaderBits+totalBits > capacity {
		return nil, newError(KindInsufficientData, fmt.Sprintf("image does not contain enough data: expected %d bits, got %d",
			totalBits, capacity-HeaderBits), nil)
	}

	return bitsToBytes(readBits(store, HeaderBits, int(totalBits))), nil
}

// frame prefixes payload with its big-endian length and expands it to bits.
func frame(payload []byte) []byte {
	buf := make([]byte, HeaderBits/imaging.BitsInByte, HeaderBits/imaging.BitsInByte+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	return bytesToBits(append(buf, payload...))
}

func readBits(store *ChannelStore, start, n int) []byte {
	bits := make([]byte, n)
	for i := range bits {
		bits[i] = store.lsb(start + i)
	}
	return bits
}
