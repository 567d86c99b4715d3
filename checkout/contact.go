package checkout

import (
	"domain-storefront/models"
	"domain-storefront/validation"

	"go.temporal.io/sdk/log"
)

// MsgQuoteReceived confirms a quote request
const MsgQuoteReceived = "Obrigado pelo seu interesse! Entraremos em contato em breve."

// ContactStore persists the contact email as it is typed
type ContactStore interface {
	SaveContactEmail(email string) error
}

// ContactForm is the quote request form. It has no steps: the email is
// saved on every change and validated only on submit.
type ContactForm struct {
	store  ContactStore
	logger log.Logger

	email   string
	errMsg  string
	message string
}

// NewContactForm returns an empty form persisting through store
func NewContactForm(store ContactStore, logger log.Logger) *ContactForm {
	return &ContactForm{store: store, logger: logger}
}

// Restore pre-fills the email loaded from storage
func (f *ContactForm) Restore(email string) {
	f.email = email
}

// SetEmail updates and persists the email, clearing any prior feedback
func (f *ContactForm) SetEmail(email string) error {
	if err := f.store.SaveContactEmail(email); err != nil {
		return err
	}
	f.email = email
	f.errMsg = ""
	f.message = ""
	return nil
}

// Submit validates the email. On success it shows the confirmation and
// clears the field; the stored copy is left for the next visit.
func (f *ContactForm) Submit() bool {
	f.message = ""
	if !validation.ValidEmail(f.email) {
		f.errMsg = validation.MsgContactEmail
		return false
	}

	f.logger.Info("Quote request submitted", "email", f.email)
	f.errMsg = ""
	f.message = MsgQuoteReceived
	f.email = ""
	return true
}

// Email returns the current field value
func (f *ContactForm) Email() string { return f.email }

// State returns the form as rendered
func (f *ContactForm) State() models.ContactState {
	return models.ContactState{
		Email:   f.email,
		Error:   f.errMsg,
		Message: f.message,
	}
}
