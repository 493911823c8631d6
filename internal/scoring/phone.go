package scoring

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/ttacon/libphonenumber"
)

// Normalize keeps digits and a single leading '+'. Normalize(Normalize(x))
// always equals Normalize(x).
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParsedPhone is the country split of a normalized key.
type ParsedPhone struct {
	CountryCode    string
	NationalNumber string
	International  bool
}

// ParsePhone splits a normalized key into country code and national
// significant number. Keys without '+' are read in defaultRegion.
func ParsePhone(key, defaultRegion, homeCode string) ParsedPhone {
	out := ParsedPhone{International: strings.HasPrefix(key, "+")}

	num, err := libphonenumber.Parse(key, defaultRegion)
	if err == nil && num.GetCountryCode() != 0 {
		out.CountryCode = strconv.Itoa(int(num.GetCountryCode()))
		out.NationalNumber = libphonenumber.GetNationalSignificantNumber(num)
		return out
	}

	digits := strings.TrimLeftFunc(key, func(r rune) bool { return !unicode.IsDigit(r) })
	if !out.International || strings.HasPrefix(digits, homeCode) {
		out.CountryCode = homeCode
		if out.International {
			digits = strings.TrimPrefix(digits, homeCode)
		}
	}
	out.NationalNumber = digits
	return out
}

// CountryCode returns "+<cc>" for a key libphonenumber can parse, or "".
func CountryCode(key, defaultRegion string) string {
	num, err := libphonenumber.Parse(key, defaultRegion)
	if err != nil || num.GetCountryCode() == 0 {
		return ""
	}
	return "+" + strconv.Itoa(int(num.GetCountryCode()))
}
