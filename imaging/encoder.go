package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"os"
)

// lowDetailJPEGQuality is the recompression quality for the low policy.
// Keeps payloads small while staying recognizable.
const lowDetailJPEGQuality = 40

// EncodedImage is the product of encoding one image file under a policy
type EncodedImage struct {
	DataURL string
	MIME    string
	Detail  string
}

// policy renders raw image bytes into the payload that gets embedded.
// The two implementations produce observably different artifacts so load
// tests exercise distinct server-side code paths.
type policy interface {
	detail() string
	render(data []byte) (mime string, payload []byte, err error)
}

// highFidelity passes original bytes through untouched; only the
// container format is sniffed for the MIME type
type highFidelity struct{}

func (highFidelity) detail() string { return QualityHigh.Detail() }

func (highFidelity) render(data []byte) (string, []byte, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return "image/" + format, data, nil
}

// lowFidelity recompresses to JPEG at reduced quality
type lowFidelity struct {
	jpegQuality int
}

func (lowFidelity) detail() string { return QualityLow.Detail() }

func (p lowFidelity) render(data []byte) (string, []byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.jpegQuality}); err != nil {
		return "", nil, fmt.Errorf("jpeg encode failed: %w", err)
	}
	return "image/jpeg", buf.Bytes(), nil
}

// Encoder turns image files into base64 data URLs under a fixed quality
// policy. Encoding is stateless, so a single Encoder is safe for
// concurrent use.
type Encoder struct {
	quality     Quality
	jpegQuality int
	policy      policy
}

// Option customizes an Encoder
type Option func(*Encoder)

// WithJPEGQuality overrides the recompression quality used by the low
// policy
func WithJPEGQuality(quality int) Option {
	return func(e *Encoder) {
		e.jpegQuality = quality
	}
}

// NewEncoder creates an encoder for the given quality mode
func NewEncoder(quality Quality, opts ...Option) *Encoder {
	e := &Encoder{
		quality:     quality,
		jpegQuality: lowDetailJPEGQuality,
	}
	for _, opt := range opts {
		opt(e)
	}
	switch quality {
	case QualityLow:
		e.policy = lowFidelity{jpegQuality: e.jpegQuality}
	default:
		e.policy = highFidelity{}
	}
	return e
}

// Quality returns the encoder's quality mode
func (e *Encoder) Quality() Quality {
	return e.quality
}

// Detail returns the detail tag stamped on every image this encoder emits
func (e *Encoder) Detail() string {
	return e.policy.detail()
}

// Encode reads an image file and produces its embeddable form. Bytes that
// cannot be decoded fail with ErrUnsupportedFormat; the caller decides
// whether that aborts the run.
func (e *Encoder) Encode(path string) (EncodedImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EncodedImage{}, fmt.Errorf("read image %s: %w", path, err)
	}

	mime, payload, err := e.policy.render(data)
	if err != nil {
		return EncodedImage{}, fmt.Errorf("encode image %s: %w", path, err)
	}

	return EncodedImage{
		DataURL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(payload),
		MIME:    mime,
		Detail:  e.policy.detail(),
	}, nil
}
