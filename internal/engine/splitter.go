package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/roach88/hostbridge/internal/config"
	"github.com/roach88/hostbridge/internal/value"
)

// Splitter defaults.
const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 40
)

// splitterParams are the validated text splitter settings.
type splitterParams struct {
	size    int
	overlap int
}

// parseSplitterParams applies defaults and validates chunk_size > 0 and
// 0 <= chunk_overlap < chunk_size.
func parseSplitterParams(params *config.Config) (splitterParams, string, error) {
	size, err := params.Int("chunk_size", DefaultChunkSize)
	if err != nil {
		return splitterParams{}, "chunk_size", err
	}
	if size <= 0 {
		return splitterParams{}, "chunk_size", fmt.Errorf("chunk_size must be positive, got %d", size)
	}
	overlap, err := params.Int("chunk_overlap", DefaultChunkOverlap)
	if err != nil {
		return splitterParams{}, "chunk_overlap", err
	}
	if overlap < 0 || overlap >= size {
		return splitterParams{}, "chunk_overlap", fmt.Errorf("chunk_overlap must be in [0, %d), got %d", size, overlap)
	}
	return splitterParams{size: int(size), overlap: int(overlap)}, "", nil
}

// object returns the normalized parameters stored with the registration.
func (p splitterParams) object() *value.Object {
	return value.NewObject(
		value.O("chunk_size", value.Int(p.size)),
		value.O("chunk_overlap", value.Int(p.overlap)),
	)
}

// splitText breaks text into chunks of at most size runes. Words are packed
// greedily and joined by single spaces; each chunk after the first starts
// with trailing words of its predecessor totalling at most overlap runes.
// Words longer than size are cut into size-rune pieces.
func splitText(text string, p splitterParams) []string {
	var words []string
	for _, w := range strings.Fields(text) {
		words = append(words, cutWord(w, p.size)...)
	}
	if len(words) == 0 {
		return nil
	}

	var (
		chunks []string
		window []string
		total  int
	)
	for _, w := range words {
		n := utf8.RuneCountInString(w)
		if len(window) > 0 && total+1+n > p.size {
			chunks = append(chunks, strings.Join(window, " "))
			for len(window) > 0 && (total > p.overlap || total+1+n > p.size) {
				total -= utf8.RuneCountInString(window[0])
				if len(window) > 1 {
					total--
				}
				window = window[1:]
			}
		}
		if len(window) > 0 {
			total++
		}
		window = append(window, w)
		total += n
	}
	return append(chunks, strings.Join(window, " "))
}

func cutWord(w string, size int) []string {
	if utf8.RuneCountInString(w) <= size {
		return []string{w}
	}
	var pieces []string
	runes := []rune(w)
	for len(runes) > size {
		pieces = append(pieces, string(runes[:size]))
		runes = runes[size:]
	}
	if len(runes) > 0 {
		pieces = append(pieces, string(runes))
	}
	return pieces
}
