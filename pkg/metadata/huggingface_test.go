package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestFetchModelMetadataChatTemplate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/meta-llama/Meta-Llama-3-8B-Instruct/raw/main/tokenizer_config.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"chat_template": "{{ messages }}", "model_max_length": 8192}`))
	}))
	defer srv.Close()

	f := NewHuggingFaceFetcherWithBaseURL(zerolog.Nop(), srv.URL)
	meta, err := f.FetchModelMetadata(context.Background(), "meta-llama/Meta-Llama-3-8B-Instruct")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.ChatTemplate == nil || *meta.ChatTemplate != "{{ messages }}" {
		t.Errorf("chat template = %v", meta.ChatTemplate)
	}
}

func TestFetchModelMetadataNoTemplate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model_max_length": 8192}`))
	}))
	defer srv.Close()

	f := NewHuggingFaceFetcherWithBaseURL(zerolog.Nop(), srv.URL)
	meta, err := f.FetchModelMetadata(context.Background(), "org/model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.ChatTemplate != nil {
		t.Errorf("expected nil template, got %v", meta.ChatTemplate)
	}
}

func TestFetchModelMetadataNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHuggingFaceFetcherWithBaseURL(zerolog.Nop(), srv.URL)
	meta, err := f.FetchModelMetadata(context.Background(), "org/model")
	if err != nil {
		t.Fatalf("a missing tokenizer config is not an error: %v", err)
	}
	if meta.ChatTemplate != nil {
		t.Errorf("expected empty metadata, got %v", meta.ChatTemplate)
	}
}

func TestFetchModelMetadataServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewHuggingFaceFetcherWithBaseURL(zerolog.Nop(), srv.URL)
	if _, err := f.FetchModelMetadata(context.Background(), "org/model"); err == nil {
		t.Fatal("expected error for server failure")
	}
}
