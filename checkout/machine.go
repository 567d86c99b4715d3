// Package checkout implements the storefront's checkout wizard: a single
// state machine that owns the step, the cart and the collected customer
// and payment data, tracks the domain search result, and drives the
// verification service and the cart persistence bridge.
//
// The machine is not safe for concurrent use. Its host delivers every
// event from one logical thread; asynchronous work (search, purchase) is
// split into Begin/Complete pairs so the host can run it off-thread and
// resume the machine on completion.
package checkout

import (
	"errors"
	"fmt"
	"strings"

	"domain-storefront/formatting"
	"domain-storefront/models"
	"domain-storefront/validation"
	"domain-storefront/verification"

	"go.temporal.io/sdk/log"
)

var (
	ErrNotActive         = errors.New("no checkout in progress")
	ErrCheckoutActive    = errors.New("checkout already in progress")
	ErrBusy              = errors.New("an operation is already in progress")
	ErrNotBusy           = errors.New("no operation in progress")
	ErrInvalidTransition = errors.New("invalid transition for current step")
	ErrFieldNotEditable  = errors.New("field is not editable on current step")
	ErrUnknownField      = errors.New("unknown field")
	ErrDomainUnavailable = errors.New("domain is not available")
	ErrInvalidCartItem   = errors.New("invalid cart item")
	ErrEmptySearch       = errors.New("empty search term")
)

// User-facing status messages
const (
	MsgSearchFailed      = "Ocorreu um erro ao buscar o domínio. Tente novamente."
	MsgSuggestionsFailed = "Ocorreu um erro ao buscar sugestões. Tente novamente."
	MsgNoSuggestions     = "Não foi possível gerar sugestões no momento."
	MsgPurchaseFailed    = "Não foi possível concluir o pagamento. Tente novamente."
)

const maxVerificationInput = 6

// CartStore mirrors the cart into durable storage
type CartStore interface {
	SaveCart(item models.CartItem) error
	ClearCart() error
}

// Machine is the checkout state machine
type Machine struct {
	store    CartStore
	verifier *verification.Service
	logger   log.Logger

	step              models.Step
	confirming        bool
	cart              *models.CartItem
	customer          models.CustomerDetails
	payment           models.PaymentDetails
	verificationInput string
	formErrors        models.FormErrors
	receipt           *models.Receipt

	search models.SearchState
}

// NewMachine creates an inactive machine
func NewMachine(store CartStore, verifier *verification.Service, logger log.Logger) *Machine {
	return &Machine{
		store:      store,
		verifier:   verifier,
		logger:     logger,
		formErrors: models.FormErrors{},
		search:     models.SearchState{Status: models.SearchIdle},
	}
}

// Resume re-enters checkout at the contact step when durable storage
// still holds a cart. The step itself is never restored.
func (m *Machine) Resume(cart *models.CartItem) {
	if cart == nil || m.step != models.StepInactive {
		return
	}
	item := *cart
	m.cart = &item
	m.step = models.StepContact
	m.logger.Info("Checkout resumed from saved cart", "domain", item.Domain)
}

// Step returns the current wizard step
func (m *Machine) Step() models.Step { return m.step }

// Busy reports whether a purchase confirmation is in flight
func (m *Machine) Busy() bool { return m.confirming }

// Searching reports whether a search is in flight
func (m *Machine) Searching() bool { return m.search.Status == models.SearchLoading }

// Cart returns a copy of the cart, nil when none
func (m *Machine) Cart() *models.CartItem {
	if m.cart == nil {
		return nil
	}
	item := *m.cart
	return &item
}

// BeginSearch starts a search and returns its generation. A search
// started while another is loading supersedes it.
func (m *Machine) BeginSearch(term string) (uint64, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return 0, ErrEmptySearch
	}
	if m.step != models.StepInactive {
		return 0, ErrCheckoutActive
	}

	m.search = models.SearchState{
		Status:     models.SearchLoading,
		Domain:     term,
		Generation: m.search.Generation + 1,
	}
	return m.search.Generation, nil
}

// CompleteSearch applies a search outcome. Results from a superseded
// generation are discarded and false is returned.
func (m *Machine) CompleteSearch(generation uint64, result models.LookupResult, err error) bool {
	if generation != m.search.Generation || m.search.Status != models.SearchLoading {
		m.logger.Debug("Discarding stale search result", "generation", generation, "current", m.search.Generation)
		return false
	}

	next := models.SearchState{Domain: m.search.Domain, Generation: generation}
	switch {
	case err != nil:
		next.Status = models.SearchFailed
		next.Message = MsgSearchFailed
	case result.Available:
		next.Status = models.SearchAvailable
		next.Price = result.Price
	case result.SuggestionsFailed:
		next.Status = models.SearchFailed
		next.Taken = true
		next.Message = MsgSuggestionsFailed
	case len(result.Suggestions) == 0:
		next.Status = models.SearchFailed
		next.Taken = true
		next.Message = MsgNoSuggestions
	default:
		next.Status = models.SearchTakenWithSuggestions
		next.Taken = true
		next.Suggestions = append([]string(nil), result.Suggestions...)
	}

	m.search = next
	return true
}

// SearchState returns the current search result
func (m *Machine) SearchState() models.SearchState {
	s := m.search
	s.Suggestions = append([]string(nil), m.search.Suggestions...)
	return s
}

// RegisterDomain creates and persists the cart and opens the contact step.
// Only the domain of the latest available search result can be
// registered, at the price that search quoted.
func (m *Machine) RegisterDomain(domain, price string) error {
	if m.step != models.StepInactive {
		return ErrCheckoutActive
	}
	if m.Searching() {
		return ErrBusy
	}
	domain = strings.TrimSpace(domain)
	price = strings.TrimSpace(price)
	if !validation.ValidDomain(domain) || !validation.ValidPrice(price) {
		return fmt.Errorf("%w: %q at %q", ErrInvalidCartItem, domain, price)
	}
	if m.search.Status != models.SearchAvailable || !strings.EqualFold(m.search.Domain, domain) {
		return fmt.Errorf("%w: %s has no available search result", ErrDomainUnavailable, domain)
	}
	if price != m.search.Price {
		return fmt.Errorf("%w: price %q does not match quoted %q", ErrInvalidCartItem, price, m.search.Price)
	}

	item := models.CartItem{Domain: domain, Price: price}
	if err := m.store.SaveCart(item); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}

	m.cart = &item
	m.step = models.StepContact
	m.formErrors = models.FormErrors{}
	m.logger.Info("Domain added to cart", "domain", domain, "price", price)
	return nil
}

// SetCustomerField updates one contact field; zip is formatted as typed
func (m *Machine) SetCustomerField(field, value string) error {
	if err := m.editable(models.StepContact); err != nil {
		return err
	}

	switch field {
	case models.FieldName:
		m.customer.Name = value
	case models.FieldEmail:
		m.customer.Email = value
	case models.FieldAddress:
		m.customer.Address = value
	case models.FieldCity:
		m.customer.City = value
	case models.FieldZip:
		m.customer.Zip = formatting.FormatZip(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

// SetPaymentField updates one payment field through its formatter
func (m *Machine) SetPaymentField(field, value string) error {
	if err := m.editable(models.StepPayment); err != nil {
		return err
	}

	switch field {
	case models.FieldCardName:
		m.payment.CardName = value
	case models.FieldCardNumber:
		m.payment.CardNumber = formatting.FormatCardNumber(value)
	case models.FieldExpiry:
		m.payment.Expiry = formatting.FormatExpiry(value)
	case models.FieldCVC:
		m.payment.CVC = formatting.FormatCVC(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

// SetVerificationInput records the typed code, capped at six characters
func (m *Machine) SetVerificationInput(value string) error {
	if err := m.editable(models.StepVerifyEmail); err != nil {
		return err
	}
	if r := []rune(value); len(r) > maxVerificationInput {
		value = string(r[:maxVerificationInput])
	}
	m.verificationInput = value
	return nil
}

// Next validates the current step and advances when it passes. It
// returns false, with FormErrors populated, when validation fails.
func (m *Machine) Next() (bool, error) {
	if m.confirming {
		return false, ErrBusy
	}
	if m.step < models.StepContact || m.step > models.StepPayment {
		return false, fmt.Errorf("%w: next from %s", ErrInvalidTransition, m.step)
	}

	m.formErrors = validation.ValidateStep(m.step, m.customer, m.payment, m.verificationInput, m.verifier.Code())
	if !m.formErrors.Empty() {
		return false, nil
	}

	if m.step == models.StepContact {
		m.verifier.Issue(m.customer.Email)
	}
	m.step++
	return true, nil
}

// Prev goes back one step, clearing FormErrors
func (m *Machine) Prev() error {
	if m.confirming {
		return ErrBusy
	}
	if m.step < models.StepVerifyEmail || m.step > models.StepReview {
		return fmt.Errorf("%w: prev from %s", ErrInvalidTransition, m.step)
	}
	m.formErrors = models.FormErrors{}
	m.step--
	return nil
}

// Resend issues a new code once the cooldown has elapsed
func (m *Machine) Resend() (bool, error) {
	if m.step != models.StepVerifyEmail {
		return false, fmt.Errorf("%w: resend from %s", ErrInvalidTransition, m.step)
	}
	_, resent := m.verifier.Resend(m.customer.Email)
	return resent, nil
}

// ResendCooldown returns the seconds left before Resend is allowed
func (m *Machine) ResendCooldown() int { return m.verifier.Cooldown() }

// BeginConfirm marks the machine busy and returns the order to purchase.
// The caller must follow up with CompleteConfirm.
func (m *Machine) BeginConfirm() (models.Order, error) {
	if m.confirming {
		return models.Order{}, ErrBusy
	}
	if m.step != models.StepReview {
		return models.Order{}, fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, m.step)
	}

	m.confirming = true
	m.formErrors = models.FormErrors{}
	return models.Order{
		Domain:   m.cart.Domain,
		Price:    m.cart.Price,
		Customer: m.customer,
		Payment:  m.payment,
	}, nil
}

// CompleteConfirm finishes a purchase. On success the machine moves to
// the success step and the persisted cart is cleared; on failure it stays
// on review with a purchase error.
func (m *Machine) CompleteConfirm(receipt models.Receipt, purchaseErr error) error {
	if !m.confirming {
		return ErrNotBusy
	}
	m.confirming = false

	if purchaseErr != nil {
		m.logger.Warn("Purchase failed", "domain", m.cart.Domain, "error", purchaseErr)
		m.formErrors = models.FormErrors{models.FieldPurchase: MsgPurchaseFailed}
		return nil
	}

	m.receipt = &receipt
	m.step = models.StepSuccess
	m.verifier.Reset()
	if err := m.store.ClearCart(); err != nil {
		m.logger.Warn("Failed to clear persisted cart", "error", err)
	}
	m.logger.Info("Purchase completed", "domain", m.cart.Domain, "order_id", receipt.OrderID)
	return nil
}

// Cancel leaves checkout from any active step, discarding the cart and
// every transient field
func (m *Machine) Cancel() error {
	if m.confirming {
		return ErrBusy
	}
	if !m.step.Active() {
		return ErrNotActive
	}

	if err := m.store.ClearCart(); err != nil {
		m.logger.Warn("Failed to clear persisted cart", "error", err)
	}
	m.verifier.Reset()

	m.step = models.StepInactive
	m.cart = nil
	m.customer = models.CustomerDetails{}
	m.payment = models.PaymentDetails{}
	m.verificationInput = ""
	m.formErrors = models.FormErrors{}
	m.receipt = nil
	return nil
}

// Shutdown stops the cooldown task when the owning session ends
func (m *Machine) Shutdown() {
	m.verifier.Reset()
}

// Verification returns the verification state, including the issued code
func (m *Machine) Verification() models.VerificationState {
	return models.VerificationState{
		IssuedCode:            m.verifier.Code(),
		ResendCooldownSeconds: m.verifier.Cooldown(),
	}
}

// Snapshot returns the render view of the wizard
func (m *Machine) Snapshot() models.CheckoutView {
	errs := make(models.FormErrors, len(m.formErrors))
	for k, v := range m.formErrors {
		errs[k] = v
	}

	view := models.CheckoutView{
		Step:              m.step,
		StepName:          m.step.String(),
		Title:             m.step.Title(),
		Busy:              m.confirming,
		Cart:              m.Cart(),
		Customer:          m.customer,
		Payment:           m.payment,
		VerificationInput: m.verificationInput,
		ResendCooldown:    m.verifier.Cooldown(),
		FormErrors:        errs,
	}
	if m.receipt != nil {
		r := *m.receipt
		view.Receipt = &r
	}
	return view
}

func (m *Machine) editable(step models.Step) error {
	if m.confirming {
		return ErrBusy
	}
	if !m.step.Active() {
		return ErrNotActive
	}
	if m.step != step {
		return fmt.Errorf("%w: %s", ErrFieldNotEditable, m.step)
	}
	return nil
}
