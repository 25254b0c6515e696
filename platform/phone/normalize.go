// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultRegion     = "MX"
	mexicoCountryCode = 52
	// whatsAppMXPrefix is the 52 country code plus the mobile "1" WhatsApp keeps in wa_id values.
	whatsAppMXPrefix = "521"
)

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// CleanWhatsAppMX reduces a phone number to the 521XXXXXXXXXX form used to
// identify Mexican WhatsApp users. Non-Mexican numbers are returned as bare digits.
func CleanWhatsAppMX(input string) string {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "+") {
		if number, err := phonenumbers.Parse(trimmed, defaultRegion); err == nil && phonenumbers.IsValidNumber(number) {
			if number.GetCountryCode() == mexicoCountryCode {
				national := phonenumbers.GetNationalSignificantNumber(number)
				national = strings.TrimPrefix(national, "1")
				if len(national) == 10 {
					return whatsAppMXPrefix + national
				}
			}
		}
	}

	digits := onlyDigits(trimmed)
	switch {
	case len(digits) == 13 && strings.HasPrefix(digits, whatsAppMXPrefix):
		return digits
	case len(digits) == 12 && strings.HasPrefix(digits, "52"):
		return whatsAppMXPrefix + digits[2:]
	case len(digits) == 10:
		return whatsAppMXPrefix + digits
	default:
		return digits
	}
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
