package payload

// DefaultSystemPrompt is sent with every request unless overridden
const DefaultSystemPrompt = "You are a helpful assistant."

// Composer assembles requests around a shared system prompt. Text-only
// composition touches nothing but the prompt line; image references are
// supplied fully encoded by the caller.
type Composer struct {
	systemPrompt string
}

// NewComposer creates a composer. An empty system prompt drops the system
// message entirely.
func NewComposer(systemPrompt string) *Composer {
	return &Composer{systemPrompt: systemPrompt}
}

// Text builds a text-only request from one prompt line
func (c *Composer) Text(line string) Request {
	return Request{Messages: c.messages([]ContentPart{TextPart(line)})}
}

// Multimodal builds a request carrying the prompt line followed by the
// given images, preserving their order
func (c *Composer) Multimodal(line string, images []ImageURL) Request {
	parts := make([]ContentPart, 0, len(images)+1)
	parts = append(parts, TextPart(line))
	for _, img := range images {
		parts = append(parts, ImagePart(img.URL, img.Detail))
	}
	return Request{Messages: c.messages(parts)}
}

func (c *Composer) messages(parts []ContentPart) []Message {
	messages := make([]Message, 0, 2)
	if c.systemPrompt != "" {
		messages = append(messages, Message{Role: RoleSystem, Text: c.systemPrompt})
	}
	messages = append(messages, Message{Role: RoleUser, Parts: parts})
	return messages
}
