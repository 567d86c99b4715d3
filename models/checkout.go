package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CartItem represents the single domain being purchased
type CartItem struct {
	Domain string `json:"domain"`
	Price  string `json:"price"`
}

// CustomerDetails holds the contact step fields
type CustomerDetails struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
}

// PaymentDetails holds the payment step fields. Memory only, never persisted.
type PaymentDetails struct {
	CardName   string `json:"cardName"`
	CardNumber string `json:"cardNumber"`
	Expiry     string `json:"expiry"`
	CVC        string `json:"cvc"`
}

// Field names used as FormErrors keys and in field update events
const (
	FieldName             = "name"
	FieldEmail            = "email"
	FieldAddress          = "address"
	FieldCity             = "city"
	FieldZip              = "zip"
	FieldVerificationCode = "verificationCode"
	FieldCardName         = "cardName"
	FieldCardNumber       = "cardNumber"
	FieldExpiry           = "expiry"
	FieldCVC              = "cvc"
	FieldPurchase         = "purchase"
)

// FormErrors maps a field name to a user-facing message
type FormErrors map[string]string

// Empty reports whether no field failed validation
func (e FormErrors) Empty() bool {
	return len(e) == 0
}

// Has reports whether the given field failed validation
func (e FormErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Step is the checkout wizard position
type Step int

const (
	StepInactive Step = iota
	StepContact
	StepVerifyEmail
	StepPayment
	StepReview
	StepSuccess
)

var stepNames = [...]string{"INACTIVE", "CONTACT", "VERIFY_EMAIL", "PAYMENT", "REVIEW", "SUCCESS"}

var stepTitles = [...]string{
	"",
	"1. Detalhes de Contato",
	"2. Verificação de E-mail",
	"3. Informações de Pagamento",
	"4. Revisão do Pedido",
	"",
}

// String representation (for logging)
func (s Step) String() string {
	if s < StepInactive || s > StepSuccess {
		return fmt.Sprintf("STEP(%d)", int(s))
	}
	return stepNames[s]
}

// Title is the heading shown above the step
func (s Step) Title() string {
	if s < StepInactive || s > StepSuccess {
		return ""
	}
	return stepTitles[s]
}

// Active reports whether a checkout is in progress (or just completed)
func (s Step) Active() bool {
	return s >= StepContact && s <= StepSuccess
}

// VerificationState is the email verification view of the session.
// IssuedCode is empty until a code has been sent.
type VerificationState struct {
	IssuedCode            string `json:"-"`
	ResendCooldownSeconds int    `json:"resendCooldownSeconds"`
}

// CheckoutView is what the wizard renders for the current step
type CheckoutView struct {
	Step              Step            `json:"step"`
	StepName          string          `json:"stepName"`
	Title             string          `json:"title"`
	Busy              bool            `json:"busy"`
	Cart              *CartItem       `json:"cart,omitempty"`
	Customer          CustomerDetails `json:"customer"`
	Payment           PaymentDetails  `json:"payment"`
	VerificationInput string          `json:"verificationInput"`
	ResendCooldown    int             `json:"resendCooldown"`
	FormErrors        FormErrors      `json:"formErrors"`
	Receipt           *Receipt        `json:"receipt,omitempty"`
}

// Order represents a confirmed checkout handed to purchase processing
type Order struct {
	ID       string          `json:"id"`
	Domain   string          `json:"domain"`
	Price    string          `json:"price"`
	Customer CustomerDetails `json:"customer"`
	Payment  PaymentDetails  `json:"payment"`
	PlacedAt time.Time       `json:"placed_at"`
}

// Receipt is the outcome of a successful purchase
type Receipt struct {
	OrderID         string `json:"order_id"`
	Domain          string `json:"domain"`
	Price           string `json:"price"`
	AuthorizationID string `json:"authorization_id"`
	TransactionID   string `json:"transaction_id"`
}

// ParsePrice converts a decimal price ("49,99" or "49.99") to cents
func ParsePrice(price string) (int64, error) {
	normalized := strings.Replace(strings.TrimSpace(price), ",", ".", 1)
	whole, frac, found := strings.Cut(normalized, ".")
	if whole == "" {
		return 0, fmt.Errorf("invalid price %q", price)
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units < 0 {
		return 0, fmt.Errorf("invalid price %q", price)
	}
	var cents int64
	if found {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, fmt.Errorf("invalid price %q", price)
		}
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil || cents < 0 {
			return 0, fmt.Errorf("invalid price %q", price)
		}
	}
	return units*100 + cents, nil
}
