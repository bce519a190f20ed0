package tokens

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"testing"

	"github.com/amorin/promptforge/payload"
)

func TestImage_LowDetailFlatRate(t *testing.T) {
	for _, dims := range [][2]int{{10, 10}, {512, 512}, {4096, 4096}} {
		if got := Image(dims[0], dims[1], "low"); got != 85 {
			t.Fatalf("%dx%d low: expected 85, got %d", dims[0], dims[1], got)
		}
	}
	// Unknown detail values cost the low rate.
	if got := Image(1024, 1024, ""); got != 85 {
		t.Fatalf("missing detail: expected 85, got %d", got)
	}
}

func TestImage_HighDetail(t *testing.T) {
	cases := []struct {
		name          string
		width, height int
		want          int
	}{
		// Published pricing examples for the tile model.
		{"single tile", 512, 512, 85 + 170},
		{"1024 square", 1024, 1024, 765},
		{"2048x4096 portrait", 2048, 4096, 1105},
		{"tiny image", 100, 100, 85 + 170},
		{"wide strip", 1600, 300, 85 + 4*170},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Image(tc.width, tc.height, "high"); got != tc.want {
				t.Fatalf("expected %d tokens, got %d", tc.want, got)
			}
		})
	}
}

func TestText(t *testing.T) {
	if got := Text(""); got != 0 {
		t.Fatalf("empty text: expected 0, got %d", got)
	}
	if got := Text("abcd"); got != 1 {
		t.Fatalf("4 chars: expected 1, got %d", got)
	}
	if got := Text("abcde"); got != 2 {
		t.Fatalf("5 chars: expected 2 (rounded up), got %d", got)
	}
}

func TestOverhead(t *testing.T) {
	if got := Overhead(2); got != 9 {
		t.Fatalf("2 messages: expected 9, got %d", got)
	}
}

// pngDataURL builds a real data URL around a width x height PNG
func pngDataURL(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestFromRequest(t *testing.T) {
	c := payload.NewComposer("system prompt here") // 18 chars -> 5 tokens

	t.Run("text only", func(t *testing.T) {
		req := c.Text("12345678") // 8 chars -> 2 tokens
		text, images := FromRequest(req)

		want := Overhead(2) + 5 + 2
		if text != want {
			t.Fatalf("expected %d text tokens, got %d", want, text)
		}
		if images != 0 {
			t.Fatalf("expected 0 image tokens, got %d", images)
		}
	})

	t.Run("multimodal recovers dimensions", func(t *testing.T) {
		req := c.Multimodal("12345678", []payload.ImageURL{
			{URL: pngDataURL(t, 1024, 1024), Detail: "high"},
			{URL: pngDataURL(t, 64, 64), Detail: "low"},
		})
		text, images := FromRequest(req)

		wantText := Overhead(2) + 5 + 2
		if text != wantText {
			t.Fatalf("expected %d text tokens, got %d", wantText, text)
		}
		wantImages := 765 + 85
		if images != wantImages {
			t.Fatalf("expected %d image tokens, got %d", wantImages, images)
		}
	})

	t.Run("unreadable image falls back to base rate", func(t *testing.T) {
		req := c.Multimodal("x", []payload.ImageURL{
			{URL: "data:image/png;base64,not-base64!!!", Detail: "high"},
		})
		_, images := FromRequest(req)
		if images != 85 {
			t.Fatalf("expected base rate 85, got %d", images)
		}
	})
}
