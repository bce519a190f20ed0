package corpus

import (
	_ "embed"
	"strings"
)

//go:embed prompts.txt
var defaultPrompts string

// Default returns the built-in prompt corpus, used when no corpus file is
// supplied
func Default() (*Corpus, error) {
	return New(strings.Split(defaultPrompts, "\n"))
}
