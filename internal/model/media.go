// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// MIME types accepted for contribution attachments.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
	MimeTypePDF  = "application/pdf"
	MimeTypeMP3  = "audio/mpeg"
	MimeTypeMP4  = "video/mp4"
	MimeTypeWebM = "video/webm"
	MimeTypeDOC  = "application/msword"
	MimeTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// AllowedMimeTypes lists every MIME type an attachment may carry.
var AllowedMimeTypes = map[string]bool{
	MimeTypeJPEG: true,
	MimeTypePNG:  true,
	MimeTypeGIF:  true,
	MimeTypeWebP: true,
	MimeTypePDF:  true,
	MimeTypeMP3:  true,
	MimeTypeMP4:  true,
	MimeTypeWebM: true,
	MimeTypeDOC:  true,
	MimeTypeDOCX: true,
}

// IsSupportedMimeType reports whether mimeType may be uploaded.
func IsSupportedMimeType(mimeType string) bool {
	return AllowedMimeTypes[mimeType]
}

// ImageVariantConfig describes how a resized variant is produced.
type ImageVariantConfig struct {
	Width   int
	Height  int
	Quality int
	Crop    bool
}

// ImageVariants defines the resized versions generated for image
// attachments. Thumbnails are center-cropped for gallery grids; web
// variants keep their aspect ratio.
var ImageVariants = map[string]ImageVariantConfig{
	"thumbnail": {Width: 320, Height: 320, Quality: 80, Crop: true},
	"web":       {Width: 1600, Height: 1600, Quality: 85, Crop: false},
}
