// Package search answers domain availability and, for taken names,
// asks a generative suggestion service for alternatives.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"domain-storefront/models"
)

// Availability is the registry answer for one domain
type Availability struct {
	Available bool
	Price     string
}

// Checker looks up domain availability
type Checker interface {
	Check(ctx context.Context, domain string) (Availability, error)
}

// Suggester proposes alternatives for a taken domain
type Suggester interface {
	Suggest(ctx context.Context, domain string) ([]string, error)
}

// ErrEmptyDomain is returned by Lookup for a blank search term
var ErrEmptyDomain = errors.New("empty domain")

const (
	DefaultPrice   = "49,99"
	DefaultLatency = 500 * time.Millisecond
	unavailableTag = "indisponivel"
)

// SimulatedRegistry stands in for a registrar: every name is available at
// a flat price unless it contains "indisponivel".
type SimulatedRegistry struct {
	latency time.Duration
	price   string
}

// NewSimulatedRegistry answers after latency, quoting price for available names
func NewSimulatedRegistry(latency time.Duration, price string) *SimulatedRegistry {
	if price == "" {
		price = DefaultPrice
	}
	return &SimulatedRegistry{latency: latency, price: price}
}

// Check reports availability after the simulated latency
func (r *SimulatedRegistry) Check(ctx context.Context, domain string) (Availability, error) {
	select {
	case <-time.After(r.latency):
	case <-ctx.Done():
		return Availability{}, ctx.Err()
	}

	if strings.Contains(strings.ToLower(domain), unavailableTag) {
		return Availability{Available: false}, nil
	}
	return Availability{Available: true, Price: r.price}, nil
}

// Service combines availability with suggestions
type Service struct {
	checker   Checker
	suggester Suggester
}

// NewService combines checker and suggester
func NewService(checker Checker, suggester Suggester) *Service {
	return &Service{checker: checker, suggester: suggester}
}

// SuggestionError wraps a failed suggestion call. Lookup returns it
// alongside a complete result with SuggestionsFailed set.
type SuggestionError struct {
	Err error
}

// Error implements error
func (e *SuggestionError) Error() string { return "suggestions unavailable: " + e.Err.Error() }

// Unwrap returns the suggester failure
func (e *SuggestionError) Unwrap() error { return e.Err }

// Lookup checks domain and, when it is taken, fetches suggestions. When
// only the suggestion call fails the result is still valid and the error
// is a *SuggestionError.
func (s *Service) Lookup(ctx context.Context, domain string) (models.LookupResult, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return models.LookupResult{}, ErrEmptyDomain
	}

	availability, err := s.checker.Check(ctx, domain)
	if err != nil {
		return models.LookupResult{}, fmt.Errorf("availability check failed: %w", err)
	}

	result := models.LookupResult{
		Domain:    domain,
		Available: availability.Available,
		Price:     availability.Price,
	}
	if availability.Available {
		return result, nil
	}

	suggestions, err := s.suggester.Suggest(ctx, domain)
	if err != nil {
		result.SuggestionsFailed = true
		return result, &SuggestionError{Err: err}
	}
	result.Suggestions = Normalize(suggestions, domain)
	return result, nil
}

// Normalize trims, lower-cases and de-duplicates suggestions, drops the
// searched name itself and caps the list at models.MaxSuggestions.
func Normalize(suggestions []string, searched string) []string {
	seen := map[string]bool{strings.ToLower(searched): true}
	out := make([]string, 0, models.MaxSuggestions)

	for _, s := range suggestions {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == models.MaxSuggestions {
			break
		}
	}
	return out
}
