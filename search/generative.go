package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	DefaultModel   = "gemini-2.5-flash"
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	suggestionPrompt = `Gere 8 nomes de domínio alternativos e criativos para "%s". Os domínios devem ser curtos, memoráveis e adequados para negócios digitais. Inclua uma variedade de extensões como .com, .com.br, .net, .org, e .io. Considere adicionar palavras-chave relevantes como 'digital', 'online', 'tech', 'hub', 'solution'.`
)

// ErrNoCandidates is returned when the API replies without any candidate
var ErrNoCandidates = errors.New("generation returned no candidates")

// GenerativeSuggester asks a generateContent-style API for alternative
// domain names, constraining the reply to {"domains": [...]} JSON.
// Calls go through a circuit breaker so an unhealthy API fails fast.
type GenerativeSuggester struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	breaker    *gobreaker.CircuitBreaker[[]string]
}

// GenerativeOptions configures NewGenerativeSuggester
type GenerativeOptions struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewGenerativeSuggester builds a suggester, filling defaults for unset options
func NewGenerativeSuggester(opts GenerativeOptions) *GenerativeSuggester {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}

	return &GenerativeSuggester{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		model:   opts.Model,
		breaker: gobreaker.NewCircuitBreaker[[]string](gobreaker.Settings{
			Name:        "suggestions",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
		}),
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type domainList struct {
	Domains []string `json:"domains"`
}

var domainListSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"domains": map[string]any{
			"type":  "ARRAY",
			"items": map[string]any{"type": "STRING"},
		},
	},
}

// Suggest returns the raw generated names; Service.Lookup normalizes them.
func (g *GenerativeSuggester) Suggest(ctx context.Context, domain string) ([]string, error) {
	return g.breaker.Execute(func() ([]string, error) {
		return g.generate(ctx, domain)
	})
}

func (g *GenerativeSuggester) generate(ctx context.Context, domain string) ([]string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: fmt.Sprintf(suggestionPrompt, domain)}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   domainListSchema,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generation request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call suggestion service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("suggestion service returned status %d: %s", resp.StatusCode, string(msg))
	}

	var generated generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&generated); err != nil {
		return nil, fmt.Errorf("failed to decode generation response: %w", err)
	}
	if len(generated.Candidates) == 0 || len(generated.Candidates[0].Content.Parts) == 0 {
		return nil, ErrNoCandidates
	}

	var list domainList
	text := strings.TrimSpace(generated.Candidates[0].Content.Parts[0].Text)
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		return nil, fmt.Errorf("failed to decode generated domains: %w", err)
	}
	return list.Domains, nil
}
