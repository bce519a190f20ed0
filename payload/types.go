package payload

import (
	"bytes"
	"encoding/json"
)

// Role constants for chat messages
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content part types understood by chat completion endpoints
const (
	PartTypeText     = "text"
	PartTypeImageURL = "image_url"
)

// ImageURL references an embedded image and its requested detail level
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// ContentPart is one element of a structured user message: either a text
// fragment or an embedded image
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// TextPart builds a text content part
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartTypeText, Text: text}
}

// ImagePart builds an image content part from a data URL and detail tag
func ImagePart(url, detail string) ContentPart {
	return ContentPart{Type: PartTypeImageURL, ImageURL: &ImageURL{URL: url, Detail: detail}}
}

// Message is a single chat message. Content on the wire is polymorphic:
// a plain string (system messages) or an array of parts (user messages).
// Exactly one of Text and Parts is populated.
type Message struct {
	Role  string
	Text  string
	Parts []ContentPart
}

// wireMessage mirrors the JSON shape with the raw content field
type wireMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON renders Parts as an array when present, otherwise Text as a
// plain string
func (m Message) MarshalJSON() ([]byte, error) {
	var content any
	if m.Parts != nil {
		content = m.Parts
	} else {
		content = m.Text
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireMessage{Role: m.Role, Content: raw})
}

// UnmarshalJSON accepts both content forms
func (m *Message) UnmarshalJSON(data []byte) error {
	var wire wireMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	m.Role = wire.Role
	m.Text = ""
	m.Parts = nil

	content := bytes.TrimSpace(wire.Content)
	switch {
	case len(content) == 0 || bytes.Equal(content, []byte("null")):
		return nil
	case content[0] == '[':
		return json.Unmarshal(content, &m.Parts)
	default:
		return json.Unmarshal(content, &m.Text)
	}
}

// Images returns the message's image references in part order
func (m Message) Images() []ImageURL {
	var images []ImageURL
	for _, part := range m.Parts {
		if part.Type == PartTypeImageURL && part.ImageURL != nil {
			images = append(images, *part.ImageURL)
		}
	}
	return images
}

// TextLen returns the number of characters of text content, counting both
// plain string content and text parts
func (m Message) TextLen() int {
	n := len(m.Text)
	for _, part := range m.Parts {
		if part.Type == PartTypeText {
			n += len(part.Text)
		}
	}
	return n
}
