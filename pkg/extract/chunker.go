package extract

import (
	"regexp"
	"strings"
)

// DefaultChunkSize is the default maximum number of characters per chunk.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default overlap setting in characters.
const DefaultChunkOverlap = 200

// Chunker splits plain text into bounded-size segments along paragraph and
// sentence boundaries.
type Chunker struct {
	size int
	// overlap is accepted for configuration symmetry; Split does not apply it.
	overlap int
}

// ChunkOption configures a Chunker.
type ChunkOption func(*Chunker)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) ChunkOption {
	return func(c *Chunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithChunkOverlap sets the overlap between chunks in characters.
func WithChunkOverlap(overlap int) ChunkOption {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// NewChunker creates a chunker with the given options.
func NewChunker(opts ...ChunkOption) *Chunker {
	c := &Chunker{
		size:    DefaultChunkSize,
		overlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.size {
		c.overlap = c.size / 4
	}
	return c
}

// Split разбивает текст на чанки: сначала жадно пакует абзацы, затем
// дорезает по предложениям те чанки, что всё ещё превышают лимит.
// Порядок чанков повторяет порядок текста; пустые чанки отбрасываются.
func (c *Chunker) Split(text string) []string {
	var chunks []string
	current := ""
	for _, para := range strings.Split(text, "\n\n") {
		if len(current)+len(para) <= c.size {
			current += para + "\n\n"
			continue
		}
		if s := strings.TrimSpace(current); s != "" {
			chunks = append(chunks, s)
		}
		current = para + "\n\n"
	}
	if s := strings.TrimSpace(current); s != "" {
		chunks = append(chunks, s)
	}

	final := []string{}
	for _, chunk := range chunks {
		if len(chunk) <= c.size {
			final = append(final, chunk)
			continue
		}
		final = append(final, c.splitSentences(chunk)...)
	}
	return final
}

// sentenceSegments keeps terminal punctuation attached so that rejoined
// chunks reconstruct the text up to whitespace.
var sentenceSegments = regexp.MustCompile(`[^.!?]+[.!?]*|[.!?]+`)

func (c *Chunker) splitSentences(text string) []string {
	var out []string
	current := ""
	for _, seg := range sentenceSegments.FindAllString(text, -1) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		switch {
		case current == "":
			current = seg
		case len(current)+1+len(seg) <= c.size:
			current += " " + seg
		default:
			out = append(out, current)
			current = seg
		}
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}
