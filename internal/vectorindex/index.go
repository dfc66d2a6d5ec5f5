package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/MikeSquared-Agency/pdfchat/internal/embedding"
)

// ErrDimensionMismatch means the query and document vectors came from
// different embedding models.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Match is a chunk returned by a similarity search, best first.
type Match struct {
	Text     string
	Score    float32
	Position int // chunk position in the source document
}

// Index is an immutable in-memory vector index over a document's chunks.
// Chunk i corresponds to vector i.
type Index struct {
	chunks   []string
	vectors  [][]float32
	embedder embedding.Embedder
}

// Build embeds every chunk and returns the index. Any embedding error aborts
// the build.
func Build(ctx context.Context, e embedding.Embedder, chunks []string) (*Index, error) {
	if len(chunks) == 0 {
		return nil, errors.New("no chunks to index")
	}
	vecs, err := e.EmbedDocuments(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vecs) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(chunks))
	}
	idx := &Index{
		chunks:   make([]string, len(chunks)),
		vectors:  vecs,
		embedder: e,
	}
	copy(idx.chunks, chunks)
	return idx, nil
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int { return len(idx.chunks) }

// Search embeds the query and returns up to k matches ordered by cosine
// similarity, highest first. Equal scores keep document order.
func (idx *Index) Search(ctx context.Context, query string, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}
	q, err := idx.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches := make([]Match, 0, len(idx.chunks))
	for i, v := range idx.vectors {
		if len(v) != len(q) {
			return nil, fmt.Errorf("%w: query has %d dimensions, chunk %d has %d", ErrDimensionMismatch, len(q), i, len(v))
		}
		matches = append(matches, Match{
			Text:     idx.chunks[i],
			Score:    cosine(q, v),
			Position: i,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float32
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(na))) * float32(math.Sqrt(float64(nb))))
}
