package credential

import (
	"strings"

	"github.com/cebe/gestao/core"
)

// Canonicalize reduces a national ID (CPF) to its digits-only form.
// Every identifier comparison goes through it.
func Canonicalize(identifier string) string {
	return core.Digits(identifier)
}

// SameIdentifier reports whether a and b denote the same non-empty canonical identifier.
func SameIdentifier(a, b string) bool {
	ca := Canonicalize(a)
	return ca != "" && ca == Canonicalize(b)
}

// FormatCPF applies the 000.000.000-00 mask progressively, as the login form does while
// typing. Digits past the eleventh are kept so canonicalization never loses information.
func FormatCPF(identifier string) string {
	digits := Canonicalize(identifier)
	var b strings.Builder
	b.Grow(len(digits) + 3)
	for i, r := range digits {
		switch i {
		case 3, 6:
			b.WriteByte('.')
		case 9:
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatPhone applies the (00) 00000-0000 mask; 10-digit landlines get (00) 0000-0000.
func FormatPhone(phone string) string {
	digits := core.Digits(phone)
	if len(digits) < 3 {
		return digits
	}
	local := digits[2:]
	split := 5
	if len(digits) == 10 {
		split = 4
	}
	if len(local) > split {
		local = local[:split] + "-" + local[split:]
	}
	return "(" + digits[:2] + ") " + local
}
