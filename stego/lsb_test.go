package stego

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"image-steganography-backend/crypto"
	"image-steganography-backend/imaging"
)

func solidPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func noisyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = byte(i*131 + 7)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodePix(t *testing.T, data []byte) *image.NRGBA {
	t.Helper()
	img, _, err := imaging.NewImageDecoder(0).Decode(data)
	require.NoError(t, err)
	return img
}

var black = color.NRGBA{A: 255}

func TestCodec_ConcreteScenario(t *testing.T) {
	codec := NewCodec(nil)
	carrier := solidPNG(t, 4, 4, black)

	out, err := codec.Encode(carrier, []byte{0x41, 0x42}, nil)
	require.NoError(t, err)

	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	got, err := codec.Decode(out, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x41, 0x42}, got)
}

func TestCodec_BitPlacement(t *testing.T) {
	codec := NewCodec(nil)
	out, err := codec.Encode(solidPNG(t, 4, 4, black), []byte("AB"), nil)
	require.NoError(t, err)

	pix := decodePix(t, out).Pix
	want := frame([]byte("AB"))
	for i, bit := range want {
		orig := byte(0)
		if i%4 == 3 {
			orig = 255
		}
		assert.Equal(t, bit, pix[i]&1, "lsb of channel %d", i)
		assert.Equal(t, orig&0xFE, pix[i]&0xFE, "upper bits of channel %d", i)
	}
	// channels past the frame are untouched
	for i := len(want); i < len(pix); i++ {
		if i%4 == 3 {
			assert.Equal(t, byte(255), pix[i])
		} else {
			assert.Equal(t, byte(0), pix[i])
		}
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		secret   []byte
		password []byte
	}{
		{"empty", []byte{}, nil},
		{"text", []byte("the eagle lands at dawn"), nil},
		{"binary", []byte{0x00, 0xFF, 0x80, 0x01, 0x7F}, nil},
		{"text with password", []byte("the eagle lands at dawn"), []byte("correct horse")},
		{"empty with password", []byte{}, []byte("pw")},
		{"binary with password", bytes.Repeat([]byte{0xA5}, 200), []byte("\x00\x01binary pw")},
	}

	codec := NewCodec(nil)
	carrier := noisyPNG(t, 32, 32)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := codec.Encode(carrier, tt.secret, tt.password)
			require.NoError(t, err)

			got, err := codec.Decode(out, tt.password)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(tt.secret, got), "got %x", got)
		})
	}
}

func TestCodec_TranslucentCarrier(t *testing.T) {
	codec := NewCodec(nil)
	carrier := solidPNG(t, 8, 8, color.NRGBA{R: 10, G: 20, B: 30, A: 0})

	out, err := codec.Encode(carrier, []byte("hidden under alpha"), nil)
	require.NoError(t, err)

	got, err := codec.Decode(out, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("hidden under alpha"), got)
}

func TestCodec_BMPCarrier(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := range src.Pix {
		src.Pix[i] = byte(i)
	}
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 255
	}
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, src))

	codec := NewCodec(nil)
	res, err := codec.EncodeDetailed(buf.Bytes(), []byte("from bmp"), nil)
	require.NoError(t, err)
	assert.Equal(t, "bmp", res.Format)

	got, err := codec.Decode(res.PNG, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("from bmp"), got)
}

func TestCodec_EncodeDetailed(t *testing.T) {
	codec := NewCodec(nil)
	res, err := codec.EncodeDetailed(noisyPNG(t, 8, 8), []byte("abc"), []byte("pw"))
	require.NoError(t, err)

	assert.Equal(t, 3+crypto.Overhead, res.PayloadBytes)
	assert.Equal(t, uint64(256), res.CapacityBits)
	assert.Greater(t, res.PSNR, 40.0)
}

func TestCodec_CapacityBoundary(t *testing.T) {
	codec := NewCodec(nil)
	carrier := solidPNG(t, 4, 4, black)

	out, err := codec.Encode(carrier, []byte{1, 2, 3, 4}, nil)
	require.NoError(t, err)
	got, err := codec.Decode(out, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, got)

	_, err = codec.Encode(carrier, []byte{1, 2, 3, 4, 5}, nil)
	require.ErrorIs(t, err, ErrCapacity)
	assert.Equal(t, KindCapacity, KindOf(err))
}

func TestCodec_CapacityConservativeCheck(t *testing.T) {
	codec := NewCodec(nil)
	_, err := codec.Encode(solidPNG(t, 4, 4, black), make([]byte, 9), nil)
	require.ErrorIs(t, err, ErrCapacity)
}

func TestCodec_EncryptedPayloadMustFit(t *testing.T) {
	codec := NewCodec(nil)
	// 8x8 holds 28 payload bytes: exactly nonce and tag of an empty secret
	carrier := solidPNG(t, 8, 8, black)

	_, err := codec.Encode(carrier, []byte{}, []byte("pw"))
	require.NoError(t, err)

	_, err = codec.Encode(carrier, []byte{1}, []byte("pw"))
	require.ErrorIs(t, err, ErrCapacity)
}

func TestCodec_WrongPassword(t *testing.T) {
	codec := NewCodec(nil)
	out, err := codec.Encode(noisyPNG(t, 16, 16), []byte("secret"), []byte("pw1"))
	require.NoError(t, err)

	got, err := codec.Decode(out, []byte("pw2"))
	require.ErrorIs(t, err, ErrDecryption)
	assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
	assert.Nil(t, got)
}

func TestCodec_PasswordOnPlainPayload(t *testing.T) {
	codec := NewCodec(nil)
	out, err := codec.Encode(noisyPNG(t, 16, 16), []byte("short"), nil)
	require.NoError(t, err)

	_, err = codec.Decode(out, []byte("pw"))
	require.ErrorIs(t, err, ErrDecryption)
	assert.ErrorIs(t, err, crypto.ErrMalformedBlob)
}

func TestCodec_DeterministicWithInjectedRandom(t *testing.T) {
	nonce := bytes.Repeat([]byte{0x42}, crypto.NonceSize)
	carrier := noisyPNG(t, 16, 16)

	first, err := NewCodec(crypto.NewCipher(bytes.NewReader(nonce))).Encode(carrier, []byte("x"), []byte("pw"))
	require.NoError(t, err)
	second, err := NewCodec(crypto.NewCipher(bytes.NewReader(nonce))).Encode(carrier, []byte("x"), []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCodec_FreshNoncePerEncode(t *testing.T) {
	codec := NewCodec(nil)
	carrier := noisyPNG(t, 16, 16)

	first, err := codec.Encode(carrier, []byte("x"), []byte("pw"))
	require.NoError(t, err)
	second, err := codec.Encode(carrier, []byte("x"), []byte("pw"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestCodec_EncryptionFailure(t *testing.T) {
	codec := NewCodec(crypto.NewCipher(iotest.ErrReader(errors.New("no entropy"))))
	_, err := codec.Encode(noisyPNG(t, 16, 16), []byte("x"), []byte("pw"))
	require.ErrorIs(t, err, ErrEncryption)
	assert.ErrorIs(t, err, crypto.ErrEncryptionFailed)
}

func TestCodec_FormatError(t *testing.T) {
	codec := NewCodec(nil)

	_, err := codec.Encode([]byte("not an image"), []byte("x"), nil)
	require.ErrorIs(t, err, ErrFormat)

	_, err = codec.Decode([]byte("not an image"), nil)
	require.ErrorIs(t, err, ErrFormat)

	_, err = codec.Capacity(nil)
	require.ErrorIs(t, err, ErrFormat)
}

func TestCodec_ImageTooSmallForHeader(t *testing.T) {
	codec := NewCodec(nil)
	_, err := codec.Decode(solidPNG(t, 2, 2, black), nil)
	require.ErrorIs(t, err, ErrInsufficientData)
}

func TestCodec_HeaderClaimsTooMuch(t *testing.T) {
	// all-white channels decode to a length of 0xFFFFFFFF
	codec := NewCodec(nil)
	_, err := codec.Decode(solidPNG(t, 8, 8, color.NRGBA{R: 255, G: 255, B: 255, A: 255}), nil)
	require.ErrorIs(t, err, ErrInsufficientData)
}

func TestCodec_TruncatedCarrier(t *testing.T) {
	codec := NewCodec(nil)
	out, err := codec.Encode(noisyPNG(t, 8, 8), bytes.Repeat([]byte("z"), 20), nil)
	require.NoError(t, err)

	// keep the top half: the header survives, the payload does not
	img := decodePix(t, out)
	cropped := img.SubImage(image.Rect(0, 0, 8, 4))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, cropped))

	_, err = codec.Decode(buf.Bytes(), nil)
	require.ErrorIs(t, err, ErrInsufficientData)
	assert.Contains(t, err.Error(), "insufficient data")
}

func TestCodec_Capacity(t *testing.T) {
	codec := NewCodec(nil)

	info, err := codec.Capacity(solidPNG(t, 4, 4, black))
	require.NoError(t, err)
	assert.Equal(t, 4, info.Width)
	assert.Equal(t, 4, info.Height)
	assert.Equal(t, "png", info.Format)
	assert.Equal(t, uint64(64), info.CapacityBits)
	assert.Equal(t, uint64(4), info.MaxSecretBytes)
	assert.Equal(t, uint64(0), info.MaxEncryptedSecretBytes)

	info, err = codec.Capacity(solidPNG(t, 2, 2, black))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), info.MaxSecretBytes)

	info, err = codec.Capacity(solidPNG(t, 8, 8, black))
	require.NoError(t, err)
	assert.Equal(t, uint64(28), info.MaxSecretBytes)
	assert.Equal(t, uint64(0), info.MaxEncryptedSecretBytes)
}

func TestError_Message(t *testing.T) {
	err := newError(KindCapacity, "too big", nil)
	assert.Equal(t, "capacity error: too big", err.Error())
	assert.False(t, errors.Is(err, ErrFormat))
	assert.True(t, errors.Is(err, ErrCapacity))
	assert.Equal(t, ErrorKind(0), KindOf(errors.New("plain")))
}

func TestCodec_RejectsImagesOverPixelLimit(t *testing.T) {
	// 64x64 RGBA needs 16 KiB of pixels; allow only 4 KiB
	codec := NewCodec(nil, WithMaxPixelBytes(4<<10))
	carrier := solidPNG(t, 64, 64, black)

	_, err := codec.EncodeDetailed(carrier, []byte("x"), nil)
	require.ErrorIs(t, err, ErrFormat)
	assert.ErrorIs(t, err, imaging.ErrImageTooLarge)

	_, err = codec.Decode(carrier, nil)
	require.ErrorIs(t, err, ErrFormat)
	assert.ErrorIs(t, err, imaging.ErrImageTooLarge)

	// the header-only capacity report still works
	info, err := codec.Capacity(carrier)
	require.NoError(t, err)
	assert.Equal(t, uint64(64*64*4), info.CapacityBits)
}

func TestCodec_PixelLimitAdmitsSmallerImages(t *testing.T) {
	codec := NewCodec(nil, WithMaxPixelBytes(32*32*4))
	out, err := codec.Encode(noisyPNG(t, 32, 32), []byte("fits"), nil)
	require.NoError(t, err)

	got, err := codec.Decode(out, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("fits"), got)
}

func TestErrorKind_Label(t *testing.T) {
	assert.Equal(t, "capacity_error", KindCapacity.Label())
	assert.Equal(t, "insufficient_data", KindInsufficientData.Label())
	for k := KindFormat; k <= KindEncryption; k++ {
		assert.NotContains(t, k.Label(), " ")
	}
}
