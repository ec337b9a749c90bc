package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nova-advisor-be/internal/pkg/logger"
	"nova-advisor-be/pkg/llm"
)

type fakeProvider struct {
	embedding []float32
	embedErr  error
}

func (f *fakeProvider) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeProvider) Generate(_ context.Context, _ string, _ ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.embedding, f.embedErr
}

func newTestServer(t *testing.T, docs []map[string]interface{}, sawVector *bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if sawVector != nil {
			*sawVector = len(req.VectorQueries) > 0
		}
		json.NewEncoder(w).Encode(searchResponse{Value: docs})
	}))
}

func TestSearchFiltersByScore(t *testing.T) {
	docs := []map[string]interface{}{
		{"@search.score": 2.1, "content": "relevant clause"},
		{"@search.score": 0.2, "content": "noise"},
		{"@search.score": 1.4, "content": "another relevant clause"},
	}
	srv := newTestServer(t, docs, nil)
	defer srv.Close()

	c := NewClient(srv.URL, "key", "legal-index", "content_vector", 0.5, &fakeProvider{embedding: []float32{0.1, 0.2}}, logger.NewNopLogger())

	hits, err := c.Search(context.Background(), "cláusula de rescisión", WithTop(5))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	for _, h := range hits {
		if h.Score < 0.5 {
			t.Errorf("hit below threshold leaked through: %.2f", h.Score)
		}
	}
}

func TestSearchThresholdAboveMaxYieldsEmpty(t *testing.T) {
	docs := []map[string]interface{}{
		{"@search.score": 2.1, "content": "a"},
		{"@search.score": 1.9, "content": "b"},
	}
	srv := newTestServer(t, docs, nil)
	defer srv.Close()

	c := NewClient(srv.URL, "key", "legal-index", "content_vector", 0.5, &fakeProvider{embedding: []float32{0.1}}, logger.NewNopLogger())

	hits, err := c.Search(context.Background(), "q", WithMinScore(10))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("hits = %d, want 0", len(hits))
	}
}

func TestSearchSurvivesEmbeddingFailure(t *testing.T) {
	docs := []map[string]interface{}{
		{"@search.score": 1.0, "content": "lexical match"},
	}
	var sawVector bool
	srv := newTestServer(t, docs, &sawVector)
	defer srv.Close()

	c := NewClient(srv.URL, "key", "financial-index", "content_vector", 0.5, &fakeProvider{embedErr: errors.New("embedding service down")}, logger.NewNopLogger())

	hits, err := c.Search(context.Background(), "hipoteca")
	if err != nil {
		t.Fatalf("Search must not fail on embedding error, got: %v", err)
	}
	if sawVector {
		t.Errorf("vector leg must be omitted when embedding fails")
	}
	if len(hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(hits))
	}
}

func TestHitScorePrefersRerankerScore(t *testing.T) {
	doc := map[string]interface{}{"@search.score": 0.03, "@search.rerankerScore": 2.7}
	if got := hitScore(doc); got != 2.7 {
		t.Errorf("score = %v, want reranker score 2.7", got)
	}

	doc = map[string]interface{}{"@search.score": 0.03}
	if got := hitScore(doc); got != 0.03 {
		t.Errorf("score = %v, want 0.03", got)
	}
}

func TestExtractText(t *testing.T) {
	long := strings.Repeat("contenido del documento ", 4)

	tests := []struct {
		name   string
		fields map[string]interface{}
		want   string
	}{
		{
			name:   "known field",
			fields: map[string]interface{}{"content": "texto principal", "id": "1"},
			want:   "texto principal",
		},
		{
			name:   "candidate priority",
			fields: map[string]interface{}{"content_text": "primario", "content": "secundario"},
			want:   "primario",
		},
		{
			name:   "unknown schema falls back to longest string",
			fields: map[string]interface{}{"id": "doc-1", "chunk_payload": long, "lang": "es"},
			want:   long,
		},
		{
			name:   "search metadata ignored in scan",
			fields: map[string]interface{}{"@search.captions": strings.Repeat("c", 80), "chunk": long},
			want:   long,
		},
		{
			name:   "empty fields",
			fields: map[string]interface{}{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractText(Hit{Fields: tt.fields})
			if got != tt.want {
				t.Errorf("ExtractText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractTextLastResortRendering(t *testing.T) {
	hit := Hit{Fields: map[string]interface{}{"n": 42}}
	if got := ExtractText(hit); got == "" {
		t.Errorf("short schema without strings should still render something")
	}
}

func TestFilterByScoreCapsAtTop(t *testing.T) {
	hits := []Hit{{Score: 3}, {Score: 2}, {Score: 1}}
	got := FilterByScore(hits, 0.5, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Score != 3 || got[1].Score != 2 {
		t.Errorf("rank order must be preserved")
	}
}
