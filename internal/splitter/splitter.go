package splitter

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidChunkSize = errors.New("chunk size must be positive")
	ErrOverlapTooLarge  = errors.New("chunk overlap must be between 0 and chunk size")
)

// defaultSeparators are tried in order; the empty separator splits into single runes.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Recursive splits text on the coarsest separator that appears in it, recursing
// into pieces that are still longer than the chunk size, then greedily merges
// neighbouring pieces into overlapping chunks. Separators stay attached to the
// piece after them. Lengths are measured in runes.
type Recursive struct {
	size       int
	overlap    int
	separators []string
}

func New(size, overlap int) (*Recursive, error) {
	if size <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if overlap < 0 || overlap > size {
		return nil, ErrOverlapTooLarge
	}
	return &Recursive{size: size, overlap: overlap, separators: defaultSeparators}, nil
}

// Split returns the ordered chunks of text. The result is deterministic for a
// given text, size and overlap.
func (r *Recursive) Split(text string) []string {
	return r.split(text, r.separators)
}

func (r *Recursive) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var rest []string
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	var chunks, good []string
	for _, p := range splitKeep(text, sep) {
		if runeLen(p) < r.size {
			good = append(good, p)
			continue
		}
		if len(good) > 0 {
			chunks = append(chunks, r.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, p)
		} else {
			chunks = append(chunks, r.split(p, rest)...)
		}
	}
	if len(good) > 0 {
		chunks = append(chunks, r.merge(good)...)
	}
	return chunks
}

// splitKeep splits text on sep, keeping each separator at the front of the
// piece that follows it, so separators count toward chunk length. Empty
// pieces are dropped.
func splitKeep(text, sep string) []string {
	parts := strings.Split(text, sep)
	pieces := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return pieces
}

// merge packs pieces into chunks of at most size runes, carrying up to overlap
// runes of trailing pieces into the next chunk.
func (r *Recursive) merge(pieces []string) []string {
	var chunks, current []string
	total := 0

	for _, p := range pieces {
		n := runeLen(p)
		if total+n > r.size && len(current) > 0 {
			if c := strings.TrimSpace(strings.Join(current, "")); c != "" {
				chunks = append(chunks, c)
			}
			for total > r.overlap || (total > 0 && total+n > r.size) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		total += n
		current = append(current, p)
	}
	if c := strings.TrimSpace(strings.Join(current, "")); c != "" {
		chunks = append(chunks, c)
	}
	return chunks
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
