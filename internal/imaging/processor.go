// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging processes image attachments uploaded with
// contributions: EXIF auto-rotation, metadata stripping, and resized
// variants for gallery thumbnails and article pages.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/traceofthetides/tides-go/internal/model"
)

const originalsDir = "originals"

// ProcessResult contains the outcome of processing an uploaded image.
type ProcessResult struct {
	Width    int
	Height   int
	MimeType string
	Size     int64
	FilePath string
}

// VariantResult describes one resized variant written to disk.
type VariantResult struct {
	Type     string
	Width    int
	Height   int
	Size     int64
	FilePath string
}

// Processor handles image operations using pure Go libraries.
type Processor struct {
	uploadDir string
}

// NewProcessor creates a processor rooted at uploadDir.
func NewProcessor(uploadDir string) *Processor {
	return &Processor{uploadDir: uploadDir}
}

// ProcessImage decodes an uploaded image, applies EXIF orientation,
// re-encodes it, and saves the result under originals/<uuid>/.
// Re-encoding drops EXIF, so location and camera metadata never reach
// the published archive.
func (p *Processor) ProcessImage(reader io.Reader, uuid, filename string) (*ProcessResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	format := sniffFormat(data)
	if format == "" {
		return nil, fmt.Errorf("unsupported image format")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img = applyOrientation(img, exifOrientation(bytes.NewReader(data)))

	encoded, err := encode(img, format, 95)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	filePath, err := p.writeUnder(filepath.Join(originalsDir, uuid), filename, encoded)
	if err != nil {
		return nil, fmt.Errorf("saving original image: %w", err)
	}

	bounds := img.Bounds()
	return &ProcessResult{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		MimeType: formatMimeTypes[format],
		Size:     int64(len(encoded)),
		FilePath: filePath,
	}, nil
}

// CreateVariant creates one resized variant. Returns (nil, nil) when the
// source is already smaller than the target and no crop is requested.
func (p *Processor) CreateVariant(sourcePath, uuid, filename string, cfg model.ImageVariantConfig, variantType string) (*VariantResult, error) {
	src, err := imaging.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("opening source image: %w", err)
	}

	srcBounds := src.Bounds()
	if !cfg.Crop && srcBounds.Dx() <= cfg.Width && srcBounds.Dy() <= cfg.Height {
		return nil, nil
	}

	var out image.Image
	if cfg.Crop {
		out = imaging.Fill(src, cfg.Width, cfg.Height, imaging.Center, imaging.Lanczos)
	} else {
		out = imaging.Fit(src, cfg.Width, cfg.Height, imaging.Lanczos)
	}

	encoded, err := encode(out, formatForFilename(filename), cfg.Quality)
	if err != nil {
		return nil, fmt.Errorf("encoding %s variant: %w", variantType, err)
	}

	path, err := p.writeUnder(filepath.Join(variantType, uuid), filename, encoded)
	if err != nil {
		return nil, fmt.Errorf("saving %s variant: %w", variantType, err)
	}

	outBounds := out.Bounds()
	return &VariantResult{
		Type:     variantType,
		Width:    outBounds.Dx(),
		Height:   outBounds.Dy(),
		Size:     int64(len(encoded)),
		FilePath: path,
	}, nil
}

// CreateAllVariants creates every configured variant, continuing past
// individual failures.
func (p *Processor) CreateAllVariants(sourcePath, uuid, filename string) ([]*VariantResult, error) {
	var results []*VariantResult
	var failures []string

	for variantType, cfg := range model.ImageVariants {
		res, err := p.CreateVariant(sourcePath, uuid, filename, cfg, variantType)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", variantType, err))
			continue
		}
		if res != nil {
			results = append(results, res)
		}
	}

	if len(results) == 0 && len(failures) > 0 {
		return nil, fmt.Errorf("all variants failed: %s", strings.Join(failures, "; "))
	}
	return results, nil
}

// IsImage checks if a MIME type represents a processable image.
func (p *Processor) IsImage(mimeType string) bool {
	for _, mt := range formatMimeTypes {
		if mt == mimeType {
			return true
		}
	}
	return false
}

// DetectMimeType detects the MIME type of raw file data.
func (p *Processor) DetectMimeType(data []byte) string {
	ct := http.DetectContentType(data)
	if idx := strings.Index(ct, ";"); idx != -1 {
		ct = ct[:idx]
	}
	return ct
}

// DeleteFiles removes every file written for an attachment UUID.
func (p *Processor) DeleteFiles(uuid string) error {
	dirs := []string{originalsDir}
	for variantType := range model.ImageVariants {
		dirs = append(dirs, variantType)
	}
	for _, dir := range dirs {
		target := filepath.Join(p.uploadDir, dir, uuid)
		if err := os.RemoveAll(target); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("deleting %s: %w", dir, err)
		}
	}
	return nil
}

// exifOrientation returns the EXIF orientation tag, or 1 (normal) when
// it cannot be determined.
func exifOrientation(r io.Reader) int {
	meta, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := meta.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	val, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return val
}

// applyOrientation undoes the camera rotation recorded in EXIF tag 274.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// formatMimeTypes lists every format the processor can decode.
var formatMimeTypes = map[string]string{
	"jpeg": model.MimeTypeJPEG,
	"png":  model.MimeTypePNG,
	"gif":  model.MimeTypeGIF,
	"webp": model.MimeTypeWebP,
}

// encode serializes img. WebP has no pure-Go encoder, so webp sources
// are written back as JPEG.
func encode(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sniffFormat detects the image format from raw bytes. TIFF is refused
// outright (CVE-2023-36308 in disintegration/imaging).
func sniffFormat(data []byte) string {
	ct := http.DetectContentType(data)
	if strings.Contains(ct, "tiff") {
		return ""
	}
	for format := range formatMimeTypes {
		if strings.Contains(ct, format) {
			return format
		}
	}
	return ""
}

func formatForFilename(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "png"
	case ".gif":
		return "gif"
	case ".webp":
		return "webp"
	default:
		return "jpeg"
	}
}

// writeUnder writes data to uploadDir/subDir/filename, refusing any
// path that escapes the upload root.
func (p *Processor) writeUnder(subDir, filename string, data []byte) (string, error) {
	name := filepath.Base(filename)
	if name == "." || name == ".." || name == "" {
		return "", fmt.Errorf("invalid filename")
	}

	cleaned := filepath.Clean(subDir)
	if strings.Contains(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid subdirectory path")
	}

	absBase, err := filepath.Abs(p.uploadDir)
	if err != nil {
		return "", fmt.Errorf("resolving base directory: %w", err)
	}
	absDir := filepath.Join(absBase, cleaned)
	rel, err := filepath.Rel(absBase, absDir)
	if err != nil || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", fmt.Errorf("path traversal detected")
	}

	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}
	target := filepath.Join(absDir, name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return target, nil
}
