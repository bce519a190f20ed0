package imaging

import (
	"errors"
	"fmt"
)

// Quality selects the image encoding policy for a run
type Quality string

const (
	// QualityLow recompresses images aggressively and tags them for
	// low-detail processing
	QualityLow Quality = "low"
	// QualityHigh embeds images untouched and tags them for full-detail
	// processing
	QualityHigh Quality = "high"
)

// ErrUnsupportedFormat indicates image bytes that none of the supported
// decoders could read
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ParseQuality validates a quality mode string
func ParseQuality(s string) (Quality, error) {
	switch Quality(s) {
	case QualityLow:
		return QualityLow, nil
	case QualityHigh:
		return QualityHigh, nil
	default:
		return "", fmt.Errorf("invalid quality mode %q (valid: low, high)", s)
	}
}

// Detail returns the detail tag stamped on image parts for this quality
func (q Quality) Detail() string {
	return string(q)
}
