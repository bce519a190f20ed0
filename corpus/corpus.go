// Package corpus supplies the text lines that seed generated requests.
package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// ErrEmptyCorpus indicates a corpus with no usable text lines
var ErrEmptyCorpus = errors.New("corpus has no text lines")

// Corpus is an ordered set of prompt lines that cycles indefinitely:
// request i receives line i modulo the corpus length, so any corpus can
// feed any number of requests.
type Corpus struct {
	mu     sync.Mutex
	lines  []string
	cursor int
}

// New builds a corpus from the given lines. Blank lines are dropped;
// a corpus with nothing left fails with ErrEmptyCorpus.
func New(lines []string) (*Corpus, error) {
	clean := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			clean = append(clean, trimmed)
		}
	}
	if len(clean) == 0 {
		return nil, ErrEmptyCorpus
	}
	return &Corpus{lines: clean}, nil
}

// LoadFile reads a corpus from a newline-delimited prompt file
func LoadFile(path string) (*Corpus, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB buffer for article-length prompts

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}

	c, err := New(lines)
	if err != nil {
		return nil, fmt.Errorf("load corpus %s: %w", path, err)
	}
	return c, nil
}

// Next returns the next line in cycle order
func (c *Corpus) Next() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	line := c.lines[c.cursor%len(c.lines)]
	c.cursor++
	return line
}

// Len returns the number of lines in one cycle
func (c *Corpus) Len() int {
	return len(c.lines)
}

// Lines returns the corpus content in order. Callers must not modify it.
func (c *Corpus) Lines() []string {
	return c.lines
}
