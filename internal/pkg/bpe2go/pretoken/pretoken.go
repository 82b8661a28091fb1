// Package pretoken splits raw text into the chunks that bound byte pair
// merging. Merges learned during training never cross a chunk boundary, so
// the split pattern decides which byte adjacencies a vocabulary can ever
// capture.
package pretoken

import (
	"fmt"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/unicode/norm"
)

// DefaultPattern is the GPT-2 style boundary pattern: contractions, letter
// runs, digit runs, punctuation runs, whitespace. The lookahead keeps the
// last space of a whitespace run attached to the word that follows it, which
// is why the stdlib regexp package cannot host this pattern.
const DefaultPattern = `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`

// Chunker splits text with a compiled boundary pattern.
type Chunker struct {
	re        *regexp2.Regexp
	normalize bool
}

// NewChunker builds a chunker for DefaultPattern. With normalize set the
// input is NFC-composed before splitting; it is off by default so training
// sees the input bytes exactly as given.
func NewChunker(normalize bool) *Chunker {
	return &Chunker{
		re:        regexp2.MustCompile(DefaultPattern, regexp2.None),
		normalize: normalize,
	}
}

// NewChunkerPattern builds a chunker for a custom pattern. The pattern must
// tile its input: every byte has to land in some match, or Chunk will drop
// the uncovered stretches.
func NewChunkerPattern(pattern string, normalize bool) (*Chunker, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chunk pattern: %w", err)
	}
	return &Chunker{re: re, normalize: normalize}, nil
}

// Chunk splits text into ordered chunks. Concatenating the result reproduces
// the (possibly normalized) input.
func (c *Chunker) Chunk(text string) []string {
	if c.normalize {
		text = norm.NFC.String(text)
	}

	var chunks []string
	for m, _ := c.re.FindStringMatch(text); m != nil; m, _ = c.re.FindNextMatch(m) {
		chunks = append(chunks, m.String())
	}
	return chunks
}
