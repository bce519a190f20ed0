package payload

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Request is one complete chat completion payload: an ordered message
// list, rendered on the wire as a JSON array. Replay drivers consume the
// array as-is.
type Request struct {
	Messages []Message
}

// MarshalJSON renders the request as its message array
func (r Request) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Messages)
}

// UnmarshalJSON reads a message array back into the request
func (r *Request) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &r.Messages)
}

// Multimodal reports whether any message carries an image part
func (r Request) Multimodal() bool {
	for _, msg := range r.Messages {
		if len(msg.Images()) > 0 {
			return true
		}
	}
	return false
}

// Images returns every image reference in the request in message order
func (r Request) Images() []ImageURL {
	var images []ImageURL
	for _, msg := range r.Messages {
		images = append(images, msg.Images()...)
	}
	return images
}

// TextLen sums the text content length across all messages
func (r Request) TextLen() int {
	n := 0
	for _, msg := range r.Messages {
		n += msg.TextLen()
	}
	return n
}

// Batch is the ordered sequence of requests produced by one generation
// run. It is the sole output artifact: nothing is written until the whole
// batch exists.
type Batch struct {
	Requests []Request
}

// MarshalJSON renders the batch as an array of message arrays
func (b Batch) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Requests)
}

// UnmarshalJSON reads an array of message arrays
func (b *Batch) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &b.Requests)
}

// MultimodalCount returns how many requests carry at least one image
func (b *Batch) MultimodalCount() int {
	count := 0
	for _, req := range b.Requests {
		if req.Multimodal() {
			count++
		}
	}
	return count
}

// Write renders the batch as indented JSON
func (b *Batch) Write(w io.Writer) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n"))
	return err
}

// WriteFile writes the batch to path, replacing any existing file
func (b *Batch) WriteFile(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write batch file: %w", err)
	}
	return nil
}

// ReadFile loads a previously written batch
func ReadFile(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to parse batch file %s: %w", path, err)
	}
	return &batch, nil
}
