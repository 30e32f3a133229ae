// Package handlers is made to handle requests
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"image-steganography-backend/imaging"
	"image-steganography-backend/metrics"
	"image-steganography-backend/models"
	"image-steganography-backend/stego"

	"github.com/gin-gonic/gin"
)

// minPSNR is the quality below which an encode is logged as visibly lossy.
const minPSNR = 40.0

type StegoHandler struct {
	codec          *stego.Codec
	maxUploadBytes int64
}

func NewStegoHandler(codec *stego.Codec, maxUploadBytes int64) *StegoHandler {
	return &StegoHandler{
		codec:          codec,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *StegoHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Message: "Steganography API is running",
		Version: "1.0.0",
	})
}

// Encode embeds the "secret" field into the "image" field, encrypting it
// first when a non-blank "password" is sent, and returns the PNG.
func (h *StegoHandler) Encode(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	imageData, imageName, ok, err := formBytes(c, models.FieldImage)
	if !h.checkField(c, ok, err, "Missing image file") {
		return
	}
	secretData, _, ok, err := formBytes(c, models.FieldSecret)
	if !h.checkField(c, ok, err, "Missing secret data") {
		return
	}
	password, err := formPassword(c)
	if !h.checkField(c, true, err, "") {
		return
	}

	res, err := h.codec.EncodeDetailed(imageData, secretData, password)
	observe("encode", err)
	if err != nil {
		h.codecError(c, "Encoding error", err)
		return
	}

	metrics.PayloadBytes.WithLabelValues("encode").Observe(float64(res.PayloadBytes))
	if !math.IsInf(res.PSNR, 1) {
		metrics.PSNR.Observe(res.PSNR)
	}
	if !imaging.ValidatePSNR(res.PSNR, minPSNR) {
		log.Printf("Warning: stego image PSNR %.2f dB is below %.0f dB", res.PSNR, minPSNR)
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", attachment(stegoFilename(imageName)))
	c.Header("Content-Length", fmt.Sprintf("%d", len(res.PNG)))

	c.Header("X-Stego-Method", "Image LSB")
	c.Header("X-Stego-Encrypted", fmt.Sprintf("%t", password != nil))
	c.Header("X-Stego-Capacity", fmt.Sprintf("%d", res.CapacityBits))
	c.Header("X-Stego-Payload-Bytes", fmt.Sprintf("%d", res.PayloadBytes))
	c.Header("X-Stego-PSNR", imaging.FormatPSNR(res.PSNR))

	c.Data(http.StatusOK, "image/png", res.PNG)
}

// Decode extracts the payload hidden in the "image" field, decrypting it
// when a non-blank "password" is sent.
func (h *StegoHandler) Decode(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	imageData, _, ok, err := formBytes(c, models.FieldImage)
	if !h.checkField(c, ok, err, "Missing image file") {
		return
	}
	password, err := formPassword(c)
	if !h.checkField(c, true, err, "") {
		return
	}

	secret, err := h.codec.Decode(imageData, password)
	observe("decode", err)
	if err != nil {
		h.codecError(c, "Decoding error", err)
		return
	}
	metrics.PayloadBytes.WithLabelValues("decode").Observe(float64(len(secret)))

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", attachment("secret.bin"))
	c.Header("Content-Length", fmt.Sprintf("%d", len(secret)))

	c.Data(http.StatusOK, "application/octet-stream", secret)
}

// Capacity reports how many secret bytes the "image" field can carry.
func (h *StegoHandler) Capacity(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	imageData, _, ok, err := formBytes(c, models.FieldImage)
	if !h.checkField(c, ok, err, "Missing image file") {
		return
	}

	info, err := h.codec.Capacity(imageData)
	observe("capacity", err)
	if err != nil {
		h.codecError(c, "Capacity error", err)
		return
	}

	c.JSON(http.StatusOK, models.CapacityResponse{
		Success:                 true,
		Width:                   info.Width,
		Height:                  info.Height,
		Format:                  info.Format,
		CapacityBits:            info.CapacityBits,
		MaxSecretBytes:          info.MaxSecretBytes,
		MaxEncryptedSecretBytes: info.MaxEncryptedSecretBytes,
	})
}

func (h *StegoHandler) parseForm(c *gin.Context) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
		c.JSON(http.StatusBadRequest, models.StegoResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to parse form: %v", err),
		})
		return false
	}
	return true
}

func (h *StegoHandler) checkField(c *gin.Context, present bool, err error, missing string) bool {
	if err != nil {
		c.JSON(http.StatusBadRequest, models.StegoResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to read form field: %v", err),
		})
		return false
	}
	if !present {
		c.JSON(http.StatusBadRequest, models.StegoResponse{
			Success: false,
			Message: missing,
		})
		return false
	}
	return true
}

// codecError maps unreadable images to 400 and every other codec failure to 500.
func (h *StegoHandler) codecError(c *gin.Context, prefix string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, stego.ErrFormat) {
		status = http.StatusBadRequest
	} else {
		log.Printf("%s: %v", prefix, err)
	}
	c.JSON(status, models.StegoResponse{
		Success: false,
		Message: fmt.Sprintf("%s: %v", prefix, err),
	})
}

// formBytes returns a multipart field sent either as a file part or as a
// plain value, plus the uploaded filename if any.
func formBytes(c *gin.Context, name string) ([]byte, string, bool, error) {
	file, header, err := c.Request.FormFile(name)
	switch {
	case err == nil:
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", false, fmt.Errorf("failed to read %s: %v", name, err)
		}
		return data, header.Filename, true, nil
	case !errors.Is(err, http.ErrMissingFile):
		return nil, "", false, err
	}

	form := c.Request.MultipartForm
	if form == nil {
		return nil, "", false, nil
	}
	values, ok := form.Value[name]
	if !ok || len(values) == 0 {
		return nil, "", false, nil
	}
	return []byte(values[0]), "", true, nil
}

// formPassword returns nil when the password is absent or blank.
func formPassword(c *gin.Context) ([]byte, error) {
	data, _, ok, err := formBytes(c, models.FieldPassword)
	if err != nil || !ok {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return data, nil
}

func stegoFilename(uploaded string) string {
	base := strings.TrimSuffix(filepath.Base(uploaded), filepath.Ext(uploaded))
	if uploaded == "" || base == "" || base == "." {
		base = "image"
	}
	return fmt.Sprintf("%s_stego.png", base)
}

// attachment builds a Content-Disposition value, quoting or RFC 2231
// encoding the filename as needed.
func attachment(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment; filename=image_stego.png"
}

func observe(op string, err error) {
	kind := ""
	if k := stego.KindOf(err); k != 0 {
		kind = k.Label()
	}
	metrics.Operations.WithLabelValues(op, metrics.Outcome(err, kind)).Inc()
}
