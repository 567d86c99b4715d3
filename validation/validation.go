// Package validation checks checkout input against the per-step field
// rules and produces the error map rendered next to each field.
package validation

import (
	"regexp"
	"strings"

	"domain-storefront/models"
)

// space matches what a browser's \s matches, Unicode spaces included
const space = `\s\p{Z}\x{FEFF}`

var (
	emailPattern   = regexp.MustCompile(`^(([^<>()\[\]\\.,;:` + space + `@"]+(\.[^<>()\[\]\\.,;:` + space + `@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`)
	zipPattern     = regexp.MustCompile(`^\d{5}-\d{3}$`)
	cardPattern    = regexp.MustCompile(`^\d{16}$`)
	expiryPattern  = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvcPattern     = regexp.MustCompile(`^\d{3,4}$`)
	domainPattern  = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}$`)
	pricePattern   = regexp.MustCompile(`^\d+([.,]\d{1,2})?$`)
	whitespaceRune = regexp.MustCompile(`[` + space + `]`)
)

// Messages shown to the user, one per failing field.
const (
	MsgNameRequired     = "Nome é obrigatório."
	MsgEmailInvalid     = "E-mail inválido."
	MsgAddressRequired  = "Endereço é obrigatório."
	MsgCityRequired     = "Cidade é obrigatória."
	MsgZipInvalid       = "CEP inválido. O formato deve ser 00000-000."
	MsgCodeInvalid      = "Código de verificação inválido."
	MsgCardNameRequired = "Nome no cartão é obrigatório."
	MsgCardNumber       = "O número do cartão deve conter exatamente 16 dígitos."
	MsgExpiryInvalid    = "Validade inválida (MM/AA)."
	MsgCVCInvalid       = "CVC inválido (3 ou 4 dígitos)."
	MsgContactEmail     = "Por favor, insira um e-mail válido."
)

// ValidEmail matches the storefront's e-mail pattern against the
// lower-cased input. It is deliberately not full RFC 5322.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.ToLower(s))
}

// ValidDomain reports whether s is a syntactically valid domain name.
func ValidDomain(s string) bool {
	return len(s) <= 253 && domainPattern.MatchString(strings.ToLower(s))
}

// ValidPrice reports whether s is a decimal currency amount such as
// "49,99" or "49.99".
func ValidPrice(s string) bool {
	return pricePattern.MatchString(s)
}

// ValidateStep returns every failing field for the given step. The
// inputs are never modified; steps without fields yield an empty map.
func ValidateStep(step models.Step, customer models.CustomerDetails, payment models.PaymentDetails, verificationInput, issuedCode string) models.FormErrors {
	errs := models.FormErrors{}

	switch step {
	case models.StepContact:
		if strings.TrimSpace(customer.Name) == "" {
			errs[models.FieldName] = MsgNameRequired
		}
		if !ValidEmail(customer.Email) {
			errs[models.FieldEmail] = MsgEmailInvalid
		}
		if strings.TrimSpace(customer.Address) == "" {
			errs[models.FieldAddress] = MsgAddressRequired
		}
		if strings.TrimSpace(customer.City) == "" {
			errs[models.FieldCity] = MsgCityRequired
		}
		if !zipPattern.MatchString(customer.Zip) {
			errs[models.FieldZip] = MsgZipInvalid
		}

	case models.StepVerifyEmail:
		if issuedCode == "" || verificationInput != issuedCode {
			errs[models.FieldVerificationCode] = MsgCodeInvalid
		}

	case models.StepPayment:
		if strings.TrimSpace(payment.CardName) == "" {
			errs[models.FieldCardName] = MsgCardNameRequired
		}
		if !cardPattern.MatchString(whitespaceRune.ReplaceAllString(payment.CardNumber, "")) {
			errs[models.FieldCardNumber] = MsgCardNumber
		}
		if !expiryPattern.MatchString(payment.Expiry) {
			errs[models.FieldExpiry] = MsgExpiryInvalid
		}
		if !cvcPattern.MatchString(payment.CVC) {
			errs[models.FieldCVC] = MsgCVCInvalid
		}
	}

	return errs
}
