package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestImage writes a small gradient image to dir and returns its path.
// A gradient (rather than a solid fill) keeps JPEG quality settings
// observable in the output size.
func writeTestImage(t *testing.T, dir, name, format string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for x := 0; x < 64; x++ {
		for y := 0; y < 64; y++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), 128, 255})
		}
	}

	buf := new(bytes.Buffer)
	var err error
	switch format {
	case "png":
		err = png.Encode(buf, img)
	case "jpeg":
		err = jpeg.Encode(buf, img, nil)
	default:
		t.Fatalf("unsupported format: %s", format)
	}
	require.NoError(t, err, "failed to encode test image")

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestEncoder_HighKeepsOriginalBytes(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "sample.png", "png")
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	enc := NewEncoder(QualityHigh)
	got, err := enc.Encode(path)
	require.NoError(t, err)

	assert.Equal(t, "image/png", got.MIME)
	assert.Equal(t, "high", got.Detail)
	assert.True(t, strings.HasPrefix(got.DataURL, "data:image/png;base64,"))

	payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(got.DataURL, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, original, payload, "high quality must embed the source bytes untouched")
}

func TestEncoder_HighDetectsJPEG(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "sample.jpg", "jpeg")

	got, err := NewEncoder(QualityHigh).Encode(path)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", got.MIME)
}

func TestEncoder_LowRecompressesToJPEG(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "sample.png", "png")

	enc := NewEncoder(QualityLow)
	got, err := enc.Encode(path)
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", got.MIME, "low quality always re-encodes as JPEG")
	assert.Equal(t, "low", got.Detail)

	payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(got.DataURL, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	_, format, err := image.Decode(bytes.NewReader(payload))
	require.NoError(t, err, "low quality payload must stay decodable")
	assert.Equal(t, "jpeg", format)
}

func TestEncoder_PoliciesProduceDistinctArtifacts(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "sample.png", "png")

	high, err := NewEncoder(QualityHigh).Encode(path)
	require.NoError(t, err)
	low, err := NewEncoder(QualityLow).Encode(path)
	require.NoError(t, err)

	assert.NotEqual(t, high.DataURL, low.DataURL, "the two policies must yield different artifacts")
	assert.NotEqual(t, high.Detail, low.Detail)
}

func TestEncoder_JPEGQualityOption(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "sample.png", "png")

	coarse, err := NewEncoder(QualityLow, WithJPEGQuality(5)).Encode(path)
	require.NoError(t, err)
	fine, err := NewEncoder(QualityLow, WithJPEGQuality(95)).Encode(path)
	require.NoError(t, err)

	assert.Less(t, len(coarse.DataURL), len(fine.DataURL),
		"lower JPEG quality should shrink the payload")
}

func TestEncoder_UnsupportedBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fake.png")
	require.NoError(t, os.WriteFile(path, []byte("this is not an image"), 0644))

	for _, quality := range []Quality{QualityLow, QualityHigh} {
		_, err := NewEncoder(quality).Encode(path)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedFormat), "quality %s: expected ErrUnsupportedFormat, got %v", quality, err)
		assert.Contains(t, err.Error(), "fake.png", "error should name the offending file")
	}
}

func TestEncoder_MissingFile(t *testing.T) {
	_, err := NewEncoder(QualityHigh).Encode(filepath.Join(t.TempDir(), "absent.png"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnsupportedFormat), "read failures are not format errors")
}

func TestParseQuality(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Quality
		ok   bool
	}{
		{"low", QualityLow, true},
		{"high", QualityHigh, true},
		{"medium", "", false},
		{"", "", false},
		{"HIGH", "", false},
	} {
		got, err := ParseQuality(tc.in)
		if tc.ok {
			require.NoError(t, err, "ParseQuality(%q)", tc.in)
			assert.Equal(t, tc.want, got)
		} else {
			assert.Error(t, err, "ParseQuality(%q) should fail", tc.in)
		}
	}
}
