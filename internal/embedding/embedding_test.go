package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// newEmbeddingServer answers each input with a vector [len(input), 0].
func newEmbeddingServer(t *testing.T, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		*calls++

		data := make([]map[string]any, len(req.Input))
		// Reverse order to check results are placed by index.
		for i := range req.Input {
			j := len(req.Input) - 1 - i
			data[i] = map[string]any{
				"object":    "embedding",
				"index":     j,
				"embedding": []float32{float32(len(req.Input[j])), 0},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
		})
	}))
}

func TestEmbedDocuments_BatchesAndOrders(t *testing.T) {
	calls := 0
	server := newEmbeddingServer(t, &calls)
	defer server.Close()

	e := NewOpenAI("test-key", server.URL, "text-embedding-3-small")
	e.batchSize = 2

	vecs, err := e.EmbedDocuments(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 batched calls, got %d", calls)
	}
	if len(vecs) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vecs))
	}
	for i, v := range vecs {
		if len(v) != 2 || v[0] != 1 || v[1] != 0 {
			t.Errorf("vector %d not normalized: %v", i, v)
		}
	}
}

func TestEmbedQuery_Success(t *testing.T) {
	calls := 0
	server := newEmbeddingServer(t, &calls)
	defer server.Close()

	e := NewOpenAI("test-key", server.URL, "text-embedding-3-small")
	v, err := e.EmbedQuery(context.Background(), "refund")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v) != 2 {
		t.Fatalf("expected 2 dims, got %d", len(v))
	}
}

func TestEmbedQuery_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid api key", "type": "invalid_request_error"},
		})
	}))
	defer server.Close()

	e := NewOpenAI("bad-key", server.URL, "text-embedding-3-small")
	if _, err := e.EmbedQuery(context.Background(), "refund"); err == nil {
		t.Fatal("expected error for API error response")
	}
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("unexpected normalized vector %v", v)
	}

	zero := []float32{0, 0}
	Normalize(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}
