// Package activities holds the side effects of a storefront session:
// durable storage, domain search, code delivery, quote requests and the
// simulated payment gateway.
package activities

import (
	"context"
	"errors"
	"fmt"

	"domain-storefront/models"
	"domain-storefront/search"
	"domain-storefront/storage"

	"go.temporal.io/sdk/activity"
)

// Activities contains the session activities
type Activities struct {
	bridge *storage.Bridge
	search *search.Service
}

// NewActivities creates a new Activities instance
func NewActivities(bridge *storage.Bridge, searchService *search.Service) *Activities {
	return &Activities{
		bridge: bridge,
		search: searchService,
	}
}

// LoadSession reads what a client left in durable storage. A corrupt cart
// record is dropped and reported as no cart.
func (a *Activities) LoadSession(ctx context.Context, clientID string) (models.SavedSession, error) {
	logger := activity.GetLogger(ctx)

	cart, err := a.bridge.LoadCart(ctx, clientID)
	if errors.Is(err, storage.ErrCorruptCart) {
		logger.Warn("Discarded corrupt cart record", "client_id", clientID, "error", err)
		cart, err = nil, nil
	}
	if err != nil {
		return models.SavedSession{}, err
	}

	email, err := a.bridge.LoadContactEmail(ctx, clientID)
	if err != nil {
		return models.SavedSession{}, err
	}

	logger.Info("Session loaded", "client_id", clientID, "has_cart", cart != nil)
	return models.SavedSession{Cart: cart, ContactEmail: email}, nil
}

// PersistCart saves the client's cart
func (a *Activities) PersistCart(ctx context.Context, clientID string, cart models.CartItem) error {
	activity.GetLogger(ctx).Debug("Persisting cart", "client_id", clientID, "domain", cart.Domain)
	return a.bridge.SaveCart(ctx, clientID, cart)
}

// ClearCart removes the client's saved cart
func (a *Activities) ClearCart(ctx context.Context, clientID string) error {
	activity.GetLogger(ctx).Debug("Clearing cart", "client_id", clientID)
	return a.bridge.ClearCart(ctx, clientID)
}

// SaveContactEmail saves the email typed into the quote form
func (a *Activities) SaveContactEmail(ctx context.Context, clientID, email string) error {
	return a.bridge.SaveContactEmail(ctx, clientID, email)
}

// SearchDomain checks availability and, for taken names, fetches
// suggestions. A suggestion failure is carried in the result.
func (a *Activities) SearchDomain(ctx context.Context, domain string) (models.LookupResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Searching domain", "domain", domain)

	result, err := a.search.Lookup(ctx, domain)
	var suggestionErr *search.SuggestionError
	if errors.As(err, &suggestionErr) {
		logger.Warn("Suggestions unavailable", "domain", domain, "error", suggestionErr.Err)
		return result, nil
	}
	if err != nil {
		return models.LookupResult{}, fmt.Errorf("domain search failed: %w", err)
	}

	logger.Info("Domain search completed", "domain", result.Domain, "available", result.Available, "suggestions", len(result.Suggestions))
	return result, nil
}

// SendVerificationCode stands in for an e-mail: the code goes to the
// worker log where a developer can read it.
func (a *Activities) SendVerificationCode(ctx context.Context, notice models.CodeNotice) error {
	activity.GetLogger(ctx).Info("Verification code issued",
		"session_id", notice.SessionID, "email", notice.Email, "code", notice.Code)
	return nil
}

// SubmitQuoteRequest records a custom quote request
func (a *Activities) SubmitQuoteRequest(ctx context.Context, clientID, email string) error {
	activity.GetLogger(ctx).Info("Quote request received", "client_id", clientID, "email", email)
	return nil
}
