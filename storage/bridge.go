package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"domain-storefront/models"
	"domain-storefront/validation"
)

// Keys under which a client's data is kept
const (
	KeyCart         = "domainCart"
	KeyContactEmail = "userContactEmail"
)

// ErrCorruptCart reports a cart record that could not be decoded. The
// record has already been removed; callers treat it as "no cart".
var ErrCorruptCart = errors.New("corrupt cart record")

// Bridge maps checkout data onto a Store, scoped per client
type Bridge struct {
	store Store
}

// NewBridge stores storefront records in store
func NewBridge(store Store) *Bridge {
	return &Bridge{store: store}
}

// LoadCart returns the saved cart, or nil when none is stored
func (b *Bridge) LoadCart(ctx context.Context, clientID string) (*models.CartItem, error) {
	key := clientKey(clientID, KeyCart)

	raw, err := b.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart failed: %w", err)
	}

	var cart models.CartItem
	if err := json.Unmarshal([]byte(raw), &cart); err != nil || !validCart(cart) {
		if rmErr := b.store.Remove(ctx, key); rmErr != nil {
			return nil, errors.Join(ErrCorruptCart, rmErr)
		}
		return nil, ErrCorruptCart
	}
	return &cart, nil
}

// SaveCart writes the client's cart as JSON
func (b *Bridge) SaveCart(ctx context.Context, clientID string, cart models.CartItem) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := b.store.Set(ctx, clientKey(clientID, KeyCart), string(data)); err != nil {
		return fmt.Errorf("save cart failed: %w", err)
	}
	return nil
}

// ClearCart removes the client's cart
func (b *Bridge) ClearCart(ctx context.Context, clientID string) error {
	if err := b.store.Remove(ctx, clientKey(clientID, KeyCart)); err != nil {
		return fmt.Errorf("clear cart failed: %w", err)
	}
	return nil
}

// LoadContactEmail returns the saved e-mail, empty when none is stored
func (b *Bridge) LoadContactEmail(ctx context.Context, clientID string) (string, error) {
	email, err := b.store.Get(ctx, clientKey(clientID, KeyContactEmail))
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load contact email failed: %w", err)
	}
	return email, nil
}

// SaveContactEmail writes the email typed into the quote form
func (b *Bridge) SaveContactEmail(ctx context.Context, clientID, email string) error {
	if err := b.store.Set(ctx, clientKey(clientID, KeyContactEmail), email); err != nil {
		return fmt.Errorf("save contact email failed: %w", err)
	}
	return nil
}

func validCart(cart models.CartItem) bool {
	return validation.ValidDomain(cart.Domain) && validation.ValidPrice(cart.Price)
}

func clientKey(clientID, name string) string {
	return fmt.Sprintf("storefront:%s:%s", clientID, name)
}
