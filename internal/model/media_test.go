package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupportedMimeType(t *testing.T) {
	assert.True(t, IsSupportedMimeType(MimeTypeJPEG))
	assert.True(t, IsSupportedMimeType(MimeTypePDF))
	assert.True(t, IsSupportedMimeType(MimeTypeMP3))

	assert.False(t, IsSupportedMimeType("application/x-msdownload"))
	assert.False(t, IsSupportedMimeType("image/tiff"))
	assert.False(t, IsSupportedMimeType(""))
}

func TestAllowedMimeTypesCoverEveryConstant(t *testing.T) {
	for _, mt := range []string{
		MimeTypeJPEG, MimeTypePNG, MimeTypeGIF, MimeTypeWebP,
		MimeTypePDF, MimeTypeMP3, MimeTypeMP4, MimeTypeWebM,
		MimeTypeDOC, MimeTypeDOCX,
	} {
		assert.Truef(t, AllowedMimeTypes[mt], "missing %s", mt)
	}
	assert.Len(t, AllowedMimeTypes, 10)
}

func TestImageVariants(t *testing.T) {
	thumb, ok := ImageVariants["thumbnail"]
	require.True(t, ok)
	assert.True(t, thumb.Crop)
	assert.Equal(t, 320, thumb.Width)

	web, ok := ImageVariants["web"]
	require.True(t, ok)
	assert.False(t, web.Crop)
	assert.Equal(t, 1600, web.Width)

	for name, cfg := range ImageVariants {
		assert.Positivef(t, cfg.Quality, "variant %s has no quality", name)
		assert.LessOrEqualf(t, cfg.Quality, 100, "variant %s quality out of range", name)
	}
}
