// Package tokens estimates the token cost of generated requests so load
// plans can be sized before anything hits a server.
package tokens

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"strings"

	"github.com/amorin/promptforge/payload"
)

// Image token model from the published vision pricing rules: a flat base
// cost, plus a per-tile cost at high detail after the image is scaled
// into a 2048px square and its shortest side brought down to 768px.
const (
	baseImageTokens = 85
	tokensPerTile   = 170
	tileSize        = 512
	fitSquare       = 2048
	shortSideTarget = 768
)

// Chat-format wrapping overhead per message, plus the assistant reply
// primer.
const (
	tokensPerMessage = 3
	replyPrimer      = 3
)

// charsPerToken is the plain-text fallback ratio used when no tokenizer
// model is available
const charsPerToken = 4

// Text estimates the token count of a text fragment
func Text(s string) int {
	if s == "" {
		return 0
	}
	return (len(s) + charsPerToken - 1) / charsPerToken
}

// Image returns the token cost of one embedded image. Detail values
// other than "high" cost the flat low-detail rate.
func Image(width, height int, detail string) int {
	if detail != "high" {
		return baseImageTokens
	}
	return baseImageTokens + tiles(width, height)*tokensPerTile
}

// tiles counts the 512px squares the scaled image covers
func tiles(width, height int) int {
	if width < 1 || height < 1 {
		return 1
	}

	// Scale to fit within the 2048px square, keeping aspect ratio.
	scale := 1.0
	if maxSide := max(width, height); maxSide > fitSquare {
		scale = float64(fitSquare) / float64(maxSide)
	}
	w := int(float64(width) * scale)
	h := int(float64(height) * scale)

	// Then bring the shortest side down to 768px.
	scale = 1.0
	if minSide := min(w, h); minSide > shortSideTarget {
		scale = float64(shortSideTarget) / float64(minSide)
	}
	w = int(float64(w) * scale)
	h = int(float64(h) * scale)

	return ((w + tileSize - 1) / tileSize) * ((h + tileSize - 1) / tileSize)
}

// Overhead returns the wrapping cost of a message list in the chat format
func Overhead(messageCount int) int {
	return messageCount*tokensPerMessage + replyPrimer
}

// FromRequest estimates the text and image tokens of one request. Image
// dimensions are recovered by decoding the embedded data URL headers, so
// the estimate works on payload files without any generation context.
func FromRequest(req payload.Request) (textTokens, imageTokens int) {
	textTokens = Overhead(len(req.Messages))
	for _, msg := range req.Messages {
		textTokens += Text(msg.Text)
		for _, part := range msg.Parts {
			switch part.Type {
			case payload.PartTypeText:
				textTokens += Text(part.Text)
			case payload.PartTypeImageURL:
				if part.ImageURL == nil {
					continue
				}
				width, height, err := dataURLDimensions(part.ImageURL.URL)
				if err != nil {
					// An unreadable image still costs the base rate.
					imageTokens += baseImageTokens
					continue
				}
				imageTokens += Image(width, height, part.ImageURL.Detail)
			}
		}
	}
	return textTokens, imageTokens
}

// dataURLDimensions decodes just enough of a base64 data URL to read the
// image header
func dataURLDimensions(url string) (int, int, error) {
	encoded := url
	if idx := strings.LastIndex(url, ","); idx >= 0 {
		encoded = url[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
