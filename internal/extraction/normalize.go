package extraction

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// DefaultMaxEdge bounds the longer edge of a normalized image
	DefaultMaxEdge = 1024
	// DefaultQuality is the JPEG quality used for normalized images
	DefaultQuality = 85
)

// NormalizedImage is an opaque, size-bounded JPEG ready to send to a model
type NormalizedImage struct {
	Data   []byte
	Width  int
	Height int
}

// Base64 returns the JPEG bytes encoded for embedding in a request payload
func (n NormalizedImage) Base64() string {
	return base64.StdEncoding.EncodeToString(n.Data)
}

// DataURI returns the image as an inline data URI
func (n NormalizedImage) DataURI() string {
	return "data:image/jpeg;base64," + n.Base64()
}

// Normalizer converts arbitrary uploaded images into model-friendly JPEGs
type Normalizer struct {
	MaxEdge int
	Quality int
}

// NewNormalizer creates a Normalizer, applying defaults for zero values
func NewNormalizer(maxEdge, quality int) *Normalizer {
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}
	if quality <= 0 {
		quality = DefaultQuality
	}
	return &Normalizer{MaxEdge: maxEdge, Quality: quality}
}

// Normalize decodes an uploaded image or PDF, flattens any transparency onto
// a white background, bounds the longer edge (never upscaling) and re-encodes
// as JPEG. It is a pure transform; no network access, nothing persisted.
func (n *Normalizer) Normalize(data []byte, contentType string) (NormalizedImage, error) {
	img, err := decodeUpload(data, contentType)
	if err != nil {
		return NormalizedImage{}, &ImageError{Reason: "decode_failed", Err: err}
	}

	rgba := flatten(img)
	rgba = n.bound(rgba)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgba, &jpeg.Options{Quality: n.Quality}); err != nil {
		return NormalizedImage{}, &ImageError{Reason: "encode_failed", Err: err}
	}

	b := rgba.Bounds()
	return NormalizedImage{
		Data:   buf.Bytes(),
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// decodeUpload decodes the raw upload into an image, handling the formats
// the standard library does not: PDF (first page) and HEIC/HEIF
func decodeUpload(data []byte, contentType string) (image.Image, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))

	if mimeType == "application/pdf" {
		doc, err := fitz.NewFromMemory(data)
		if err != nil {
			return nil, fmt.Errorf("opening PDF: %w", err)
		}
		defer doc.Close()

		// Most receipts are single page; render the first
		img, err := doc.Image(0)
		if err != nil {
			return nil, fmt.Errorf("rendering PDF page: %w", err)
		}
		return img, nil
	}

	if isHEICData(data) || isHEICMimeType(mimeType) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// flatten coerces any decoded image to opaque RGB. Images with actual
// transparency (or palette encodings carrying it) are composited onto an
// opaque white background using the alpha channel as the blend mask; images
// that are already opaque are copied straight across.
func flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	if op, ok := img.(interface{ Opaque() bool }); ok && op.Opaque() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}

	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// bound downscales so the longer edge does not exceed MaxEdge, preserving
// aspect ratio. Images already within bound are returned unchanged.
func (n *Normalizer) bound(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	longest := w
	if h > w {
		longest = h
	}
	if longest <= n.MaxEdge {
		return img
	}

	nw := w * n.MaxEdge / longest
	nh := h * n.MaxEdge / longest
	if w >= h {
		nw = n.MaxEdge
	} else {
		nh = n.MaxEdge
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// isHEICData checks the ftyp box brands HEIC files start with
func isHEICData(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	brand := string(data[8:12])
	return brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1"
}

func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
