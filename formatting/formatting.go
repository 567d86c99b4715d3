// Package formatting normalizes free-text checkout input into the
// canonical display formats as the user types. Every formatter is
// idempotent.
package formatting

import "strings"

const (
	zipDigits    = 8
	cardDigits   = 16
	expiryDigits = 4
	cvcDigits    = 4
)

// FormatZip keeps up to 8 digits and inserts a hyphen after the fifth
// once a sixth digit is present: "01000000" -> "01000-000".
func FormatZip(raw string) string {
	d := digits(raw, zipDigits)
	if len(d) > 5 {
		return d[:5] + "-" + d[5:]
	}
	return d
}

// FormatCardNumber keeps up to 16 digits grouped in fours.
func FormatCardNumber(raw string) string {
	d := digits(raw, cardDigits)
	var b strings.Builder
	b.Grow(len(d) + len(d)/4)
	for i := 0; i < len(d); i += 4 {
		if i > 0 {
			b.WriteByte(' ')
		}
		end := min(i+4, len(d))
		b.WriteString(d[i:end])
	}
	return b.String()
}

// FormatExpiry keeps up to 4 digits as MM/YY, adding the slash once the
// third digit is typed.
func FormatExpiry(raw string) string {
	d := digits(raw, expiryDigits)
	if len(d) > 2 {
		return d[:2] + "/" + d[2:]
	}
	return d
}

// FormatCVC keeps up to 4 digits.
func FormatCVC(raw string) string {
	return digits(raw, cvcDigits)
}

// digits strips everything but ASCII digits and truncates to limit.
func digits(raw string, limit int) string {
	out := make([]byte, 0, limit)
	for i := 0; i < len(raw) && len(out) < limit; i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			out = append(out, c)
		}
	}
	return string(out)
}
