// Package metadata fetches model metadata from external services. Callers
// treat everything here as best-effort: a fetch failure means "unknown", and
// the configuration run carries on with registry data alone.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/engine"
)

const (
	defaultBaseURL = "https://huggingface.co"
	defaultTimeout = 10 * time.Second
)

// HuggingFaceFetcher fetches chat templates from the Hugging Face Hub by
// reading a model's tokenizer_config.json.
type HuggingFaceFetcher struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHuggingFaceFetcher creates a fetcher against the public Hub.
func NewHuggingFaceFetcher(logger zerolog.Logger) *HuggingFaceFetcher {
	return &HuggingFaceFetcher{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  logger.With().Str("component", "hf-metadata").Logger(),
	}
}

// NewHuggingFaceFetcherWithBaseURL creates a fetcher against a custom
// endpoint, for mirrors and tests.
func NewHuggingFaceFetcherWithBaseURL(logger zerolog.Logger, baseURL string) *HuggingFaceFetcher {
	f := NewHuggingFaceFetcher(logger)
	f.baseURL = baseURL
	return f
}

// tokenizerConfig is the subset of tokenizer_config.json we care about.
type tokenizerConfig struct {
	ChatTemplate *string `json:"chat_template"`
}

// FetchModelMetadata fetches the model's tokenizer config and extracts the
// chat template. A missing file or a model without a template yields metadata
// with a nil template, not an error.
func (f *HuggingFaceFetcher) FetchModelMetadata(ctx context.Context, modelID string) (*engine.ModelMetadata, error) {
	endpoint := fmt.Sprintf("%s/%s/raw/main/tokenizer_config.json", f.baseURL, escapeModelID(modelID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		f.logger.Debug().Str("model_id", modelID).Msg("No tokenizer config published")
		return &engine.ModelMetadata{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata request returned %s", resp.Status)
	}

	var cfg tokenizerConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tokenizer config: %w", err)
	}

	f.logger.Debug().
		Str("model_id", modelID).
		Bool("has_template", cfg.ChatTemplate != nil).
		Msg("Fetched model metadata")

	return &engine.ModelMetadata{ChatTemplate: cfg.ChatTemplate}, nil
}

// escapeModelID escapes each path segment of an org/name model id, keeping
// the separating slash intact.
func escapeModelID(modelID string) string {
	segments := strings.Split(modelID, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
