// Package phone normalizes user-entered phone numbers to E.164.
package phone

import (
	"errors"
	"strings"
)

// DefaultCountryCode is used when no country code is configured.
const DefaultCountryCode = "91"

// ErrEmpty is returned for input that holds no digits.
var ErrEmpty = errors.New("phone number is empty")

var separators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// Normalize returns raw in E.164 form. Formatting characters are dropped.
// A leading "+" is kept as is; a number already starting with countryCode
// gets a "+"; anything else is prefixed with "+" and countryCode.
func Normalize(raw, countryCode string) (string, error) {
	n := separators.Replace(strings.TrimSpace(raw))
	if strings.Trim(n, "+") == "" {
		return "", ErrEmpty
	}
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	countryCode = strings.TrimPrefix(countryCode, "+")

	switch {
	case strings.HasPrefix(n, "+"):
		return n, nil
	case strings.HasPrefix(n, countryCode):
		return "+" + n, nil
	default:
		return "+" + countryCode + n, nil
	}
}

// Mask hides all but the last four digits of an E.164 number, keeping the
// leading "+" and its length: "+919876543210" becomes "+********3210".
func Mask(number string) string {
	const visible = 4
	prefix := ""
	if strings.HasPrefix(number, "+") {
		prefix, number = "+", number[1:]
	}
	if len(number) <= visible {
		return prefix + number
	}
	return prefix + strings.Repeat("*", len(number)-visible) + number[len(number)-visible:]
}
