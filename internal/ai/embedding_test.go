package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestOpenAIEmbedderBatchesAndRetries(t *testing.T) {
	var calls, failures int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		atomic.AddInt32(&calls, 1)
		if atomic.AddInt32(&failures, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"busy"}`))
			return
		}
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		type item struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		resp := struct {
			Data []item `json:"data"`
		}{}
		for i := range req.Input {
			resp.Data = append(resp.Data, item{Index: i, Embedding: []float32{float32(len(req.Input[i])), 1}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient(srv.URL+"/v1/", "secret", 5*time.Second)
	e := NewOpenAIEmbedder(client, EmbeddingConfig{Model: "m", BatchSize: 2, Delay: time.Millisecond, MaxDelay: time.Millisecond})

	vecs, err := e.EmbedDocuments(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("embed documents: %v", err)
	}
	if len(vecs) != 3 || vecs[0][0] != 1 || vecs[1][0] != 2 || vecs[2][0] != 3 {
		t.Fatalf("unexpected vectors %v", vecs)
	}
	// one failed attempt plus two batches
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 requests, got %d", got)
	}
}

func TestOpenAIEmbedderDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(NewOpenAICompatibleClient(srv.URL, "bad", time.Second), EmbeddingConfig{Delay: time.Millisecond})
	if _, err := e.EmbedQuery(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single request, got %d", got)
	}
}
