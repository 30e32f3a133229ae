package imaging

import (
	"image"
	"math"
	"strconv"
)

// PSNR compares two images of equal size channel by channel and returns the
// peak signal-to-noise ratio in dB. Identical images give +Inf; mismatched
// sizes give 0.
func PSNR(original, stego *image.NRGBA) float64 {
	if original.Bounds() != stego.Bounds() || len(original.Pix) != len(stego.Pix) {
		return 0.0
	}
	if len(original.Pix) == 0 {
		return 0.0
	}

	var mse float64
	for i := range original.Pix {
		diff := float64(original.Pix[i]) - float64(stego.Pix[i])
		mse += diff * diff
	}
	mse /= float64(len(original.Pix))

	if mse == 0 {
		return math.Inf(1)
	}

	// 8-bit channels peak at 255
	return 20 * math.Log10(255.0/math.Sqrt(mse))
}

// FormatPSNR renders a PSNR value for an HTTP header.
func FormatPSNR(psnr float64) string {
	if math.IsInf(psnr, 1) {
		return "inf"
	}
	return strconv.FormatFloat(psnr, 'f', 2, 64)
}

func ValidatePSNR(psnr float64, threshold float64) bool {
	if math.IsInf(psnr, 1) {
		return true
	}
	return psnr >= threshold
}
