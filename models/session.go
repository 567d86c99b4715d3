package models

import "time"

// EventType identifies a user interaction delivered to a storefront session
type EventType string

const (
	EventSearch            EventType = "search"
	EventRegister          EventType = "register"
	EventCustomerField     EventType = "customer_field"
	EventPaymentField      EventType = "payment_field"
	EventVerificationInput EventType = "verification_input"
	EventNext              EventType = "next"
	EventPrev              EventType = "prev"
	EventResend            EventType = "resend"
	EventConfirm           EventType = "confirm"
	EventCancel            EventType = "cancel"
	EventContactEmail      EventType = "contact_email"
	EventRequestQuote      EventType = "request_quote"
	EventClose             EventType = "close"
)

// Event represents a single user interaction. Which fields are read
// depends on Type.
type Event struct {
	Type   EventType `json:"type"`
	Field  string    `json:"field,omitempty"`
	Value  string    `json:"value,omitempty"`
	Domain string    `json:"domain,omitempty"`
	Price  string    `json:"price,omitempty"`
}

// ContactState is the quote request form below the search results
type ContactState struct {
	Email   string `json:"email"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// SessionParams starts a storefront session workflow
type SessionParams struct {
	SessionID   string        `json:"session_id"`
	ClientID    string        `json:"client_id"`
	IdleTimeout time.Duration `json:"idle_timeout"`
}

// SavedSession is what durable storage holds for a client
type SavedSession struct {
	Cart         *CartItem `json:"cart,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
}

// CodeNotice carries a verification code to the delivery side channel
type CodeNotice struct {
	SessionID string `json:"session_id"`
	Email     string `json:"email"`
	Code      string `json:"code"`
}

// SessionState represents the current state of a storefront session
type SessionState struct {
	SessionID   string       `json:"session_id"`
	ClientID    string       `json:"client_id"`
	Ready       bool         `json:"ready"`
	Checkout    CheckoutView `json:"checkout"`
	Search      SearchState  `json:"search"`
	Contact     ContactState `json:"contact"`
	Closed      bool         `json:"closed"`
	LastUpdated time.Time    `json:"last_updated"`
}
