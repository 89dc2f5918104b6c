// Package money handles monetary amounts as int64 minor units. Amounts are
// parsed from decimal strings without ever passing through a float; digits
// beyond two decimal places round half to even, never truncate.
package money

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ParseMinorUnits converts a decimal string like "14674.41" or "-0.005"
// into minor units.
func ParseMinorUnits(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("money: empty amount")
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart = s[:i]
		fracPart = s[i+1:]
		if strings.IndexByte(fracPart, '.') >= 0 {
			return 0, fmt.Errorf("money: malformed amount %q", s)
		}
	}
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("money: malformed amount %q", s)
	}
	// 16 integer digits already exceed any real statement line; beyond
	// that the minor-unit arithmetic would wrap int64.
	if len(strings.TrimLeft(intPart, "0")) > 16 {
		return 0, fmt.Errorf("money: amount %q out of range", s)
	}

	var minor int64
	for i := 0; i < len(intPart); i++ {
		c := intPart[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("money: malformed amount %q", s)
		}
		minor = minor*10 + int64(c-'0')
	}
	minor *= 100

	for i := 0; i < len(fracPart); i++ {
		c := fracPart[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("money: malformed amount %q", s)
		}
	}
	if len(fracPart) >= 1 {
		minor += int64(fracPart[0]-'0') * 10
	}
	if len(fracPart) >= 2 {
		minor += int64(fracPart[1] - '0')
	}

	// Round half to even on anything beyond two decimal places.
	if len(fracPart) > 2 {
		rest := fracPart[2:]
		switch {
		case rest[0] > '5':
			minor++
		case rest[0] == '5':
			if strings.Trim(rest[1:], "0") != "" {
				minor++
			} else if minor%2 != 0 {
				minor++
			}
		}
	}

	if negative {
		minor = -minor
	}
	return minor, nil
}

// Major renders minor units as a plain decimal string, "5885.76".
func Major(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// Format renders an amount with its currency symbol for display, falling
// back to "CODE amount" for codes the currency tables do not know.
func Format(minor int64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return code + " " + Major(minor)
	}
	printer := message.NewPrinter(language.English)
	return printer.Sprint(currency.Symbol(unit.Amount(Major(minor))))
}
