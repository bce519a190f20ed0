package payload

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMessageMarshal_PlainString(t *testing.T) {
	msg := Message{Role: RoleSystem, Text: "You are a helpful assistant."}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	want := `{"role":"system","content":"You are a helpful assistant."}`
	if string(data) != want {
		t.Fatalf("expected %s, got %s", want, string(data))
	}
}

func TestMessageMarshal_Parts(t *testing.T) {
	msg := Message{Role: RoleUser, Parts: []ContentPart{
		TextPart("describe this"),
		ImagePart("data:image/png;base64,AAAA", "high"),
	}}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	out := string(data)
	if !strings.Contains(out, `"content":[`) {
		t.Fatalf("expected array content, got %s", out)
	}
	if !strings.Contains(out, `"detail":"high"`) {
		t.Fatalf("expected detail tag, got %s", out)
	}
	if strings.Index(out, `"text"`) > strings.Index(out, `"image_url"`) {
		t.Fatalf("expected text part before image part, got %s", out)
	}
}

func TestMessageMarshal_TextPartOmitsImageURL(t *testing.T) {
	msg := Message{Role: RoleUser, Parts: []ContentPart{TextPart("just text")}}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(data), "image_url") {
		t.Fatalf("text-only message should carry no image_url key, got %s", string(data))
	}
}

func TestMessageUnmarshal_BothContentForms(t *testing.T) {
	t.Run("string content", func(t *testing.T) {
		var msg Message
		if err := json.Unmarshal([]byte(`{"role":"system","content":"hi"}`), &msg); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if msg.Text != "hi" || msg.Parts != nil {
			t.Fatalf("expected plain text content, got %+v", msg)
		}
	})

	t.Run("parts content", func(t *testing.T) {
		raw := `{"role":"user","content":[{"type":"text","text":"a"},{"type":"image_url","image_url":{"url":"data:image/jpeg;base64,BB","detail":"low"}}]}`
		var msg Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if len(msg.Parts) != 2 {
			t.Fatalf("expected 2 parts, got %d", len(msg.Parts))
		}
		images := msg.Images()
		if len(images) != 1 || images[0].Detail != "low" {
			t.Fatalf("expected one low-detail image, got %+v", images)
		}
	})

	t.Run("null content", func(t *testing.T) {
		var msg Message
		if err := json.Unmarshal([]byte(`{"role":"assistant","content":null}`), &msg); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if msg.Text != "" || msg.Parts != nil {
			t.Fatalf("expected empty content, got %+v", msg)
		}
	})
}

func TestMessageRoundtrip(t *testing.T) {
	orig := Message{Role: RoleUser, Parts: []ContentPart{
		TextPart("tell me a story"),
		ImagePart("data:image/png;base64,CCCC", "high"),
	}}

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var back Message
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.Role != orig.Role || len(back.Parts) != len(orig.Parts) {
		t.Fatalf("roundtrip mismatch: %+v vs %+v", back, orig)
	}
	if back.Parts[1].ImageURL.URL != orig.Parts[1].ImageURL.URL {
		t.Fatalf("image URL lost in roundtrip")
	}
}

func TestMessageTextLen(t *testing.T) {
	plain := Message{Role: RoleSystem, Text: "abcd"}
	if plain.TextLen() != 4 {
		t.Errorf("expected 4, got %d", plain.TextLen())
	}

	parts := Message{Role: RoleUser, Parts: []ContentPart{
		TextPart("ab"),
		ImagePart("data:image/png;base64,DD", "low"),
		TextPart("cd"),
	}}
	if parts.TextLen() != 4 {
		t.Errorf("expected 4, got %d", parts.TextLen())
	}
}
