package indexer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/pdfchat/internal/session"
	"github.com/MikeSquared-Agency/pdfchat/internal/splitter"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type lengthEmbedder struct {
	calls int
	err   error
}

func (e *lengthEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (e *lengthEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

func TestBuildIndex_DefaultChunking(t *testing.T) {
	store := session.NewStore(session.ReplaceAll, session.Retention{})
	emb := &lengthEmbedder{}
	ix := New(emb, store, 0, -1, discardLogger())

	res, err := ix.BuildIndex(context.Background(), strings.Repeat("A", 1000), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Chunks) != 2 {
		t.Fatalf("expected 2 chunks with 700/200, got %d", len(res.Chunks))
	}
	if res.Index.Len() != 2 {
		t.Errorf("expected index of 2 chunks, got %d", res.Index.Len())
	}
	if emb.calls != 1 {
		t.Errorf("expected one embedding call, got %d", emb.calls)
	}
	if got, ok := store.GetIndex("s1"); !ok || got != res.Index {
		t.Error("expected index committed for s1")
	}
}

func TestBuildIndex_UploadClearsOtherSessions(t *testing.T) {
	store := session.NewStore(session.ReplaceAll, session.Retention{})
	ix := New(&lengthEmbedder{}, store, 700, 200, discardLogger())

	if _, err := ix.BuildIndex(context.Background(), "document A", "A"); err != nil {
		t.Fatalf("index A: %v", err)
	}
	res, err := ix.BuildIndex(context.Background(), "document B", "B")
	if err != nil {
		t.Fatalf("index B: %v", err)
	}

	if len(res.Dropped) != 1 || res.Dropped[0] != "A" {
		t.Errorf("expected A reported dropped, got %v", res.Dropped)
	}
	if _, ok := store.GetIndex("A"); ok {
		t.Error("expected A's index gone after upload for B")
	}
	if _, ok := store.GetIndex("B"); !ok {
		t.Error("expected B's index present")
	}
}

func TestBuildIndex_EmbedFailureCommitsNothing(t *testing.T) {
	store := session.NewStore(session.ReplaceAll, session.Retention{})
	good := New(&lengthEmbedder{}, store, 700, 200, discardLogger())
	if _, err := good.BuildIndex(context.Background(), "document A", "A"); err != nil {
		t.Fatalf("index A: %v", err)
	}

	boom := errors.New("embedding service unavailable")
	bad := New(&lengthEmbedder{err: boom}, store, 700, 200, discardLogger())
	_, err := bad.BuildIndex(context.Background(), "document B", "B")
	if !errors.Is(err, boom) {
		t.Fatalf("expected embedding error to propagate, got %v", err)
	}

	if _, ok := store.GetIndex("B"); ok {
		t.Error("failed upload must not commit an index")
	}
	if _, ok := store.GetIndex("A"); !ok {
		t.Error("failed upload must not clear other sessions")
	}
}

func TestBuildIndex_EmptyText(t *testing.T) {
	ix := New(&lengthEmbedder{}, session.NewStore(session.ReplaceAll, session.Retention{}), 700, 200, discardLogger())
	for _, text := range []string{"", "   \n\n\t"} {
		if _, err := ix.BuildIndex(context.Background(), text, "s1"); !errors.Is(err, ErrEmptyText) {
			t.Errorf("text %q: expected ErrEmptyText, got %v", text, err)
		}
	}
}

func TestNew_DefaultOverlapFitsSmallChunks(t *testing.T) {
	ix := New(&lengthEmbedder{}, session.NewStore(session.ReplaceAll, session.Retention{}), 100, -1, discardLogger())
	if ix.chunkOverlap != 50 {
		t.Errorf("expected overlap 50 for chunk size 100, got %d", ix.chunkOverlap)
	}

	res, err := ix.BuildIndex(context.Background(), strings.Repeat("A", 150), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Chunks) != 2 || res.Chunks[1] != strings.Repeat("A", 100) {
		t.Errorf("expected two 100-rune chunks overlapping by 50, got %q", res.Chunks)
	}
}

func TestBuildIndexWith_OverlapLargerThanSize(t *testing.T) {
	ix := New(&lengthEmbedder{}, session.NewStore(session.ReplaceAll, session.Retention{}), 700, 200, discardLogger())
	_, err := ix.BuildIndexWith(context.Background(), "some text", "s1", 10, 20)
	if !errors.Is(err, splitter.ErrOverlapTooLarge) {
		t.Fatalf("expected ErrOverlapTooLarge, got %v", err)
	}
}

func TestBuildIndexWith_Deterministic(t *testing.T) {
	text := strings.Repeat("Returns are accepted within thirty days of purchase.\n", 40)
	ix := New(&lengthEmbedder{}, session.NewStore(session.PerSession, session.Retention{}), 700, 200, discardLogger())

	a, err := ix.BuildIndexWith(context.Background(), text, "s1", 300, 50)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	b, err := ix.BuildIndexWith(context.Background(), text, "s2", 300, 50)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if len(a.Chunks) != len(b.Chunks) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a.Chunks), len(b.Chunks))
	}
	for i := range a.Chunks {
		if a.Chunks[i] != b.Chunks[i] {
			t.Fatalf("chunk %d differs", i)
		}
	}
}
