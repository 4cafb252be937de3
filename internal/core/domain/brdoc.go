package domain

import (
	"net/mail"
	"strings"
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 6

var (
	cnpjFirstWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjSecondWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// OnlyDigits strips every non-digit rune from s.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCNPJ checks length and both check digits of a CNPJ, formatted or not.
func ValidCNPJ(s string) bool {
	d := OnlyDigits(s)
	if len(d) != 14 {
		return false
	}
	if strings.Count(d, d[:1]) == 14 {
		return false
	}
	return cnpjDigit(d[:12], cnpjFirstWeights) == d[12] && cnpjDigit(d[:13], cnpjSecondWeights) == d[13]
}

func cnpjDigit(base string, weights []int) byte {
	sum := 0
	for i, w := range weights {
		sum += int(base[i]-'0') * w
	}
	rem := sum % 11
	if rem < 2 {
		return '0'
	}
	return byte('0' + 11 - rem)
}

// FormatCNPJ renders 14 digits as 00.000.000/0000-00. Other input is returned unchanged.
func FormatCNPJ(s string) string {
	d := OnlyDigits(s)
	if len(d) != 14 {
		return s
	}
	return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
}

// ValidCEP reports whether s holds exactly 8 digits.
func ValidCEP(s string) bool {
	return len(OnlyDigits(s)) == 8
}

// FormatCEP renders 8 digits as 00000-000.
func FormatCEP(s string) string {
	d := OnlyDigits(s)
	if len(d) != 8 {
		return s
	}
	return d[:5] + "-" + d[5:]
}

// ValidPhoneBR accepts landline (10 digits) and mobile (11 digits) numbers with area code.
func ValidPhoneBR(s string) bool {
	n := len(OnlyDigits(s))
	return n == 10 || n == 11
}

// FormatPhoneBR renders (00) 0000-0000 or (00) 00000-0000.
func FormatPhoneBR(s string) string {
	d := OnlyDigits(s)
	switch len(d) {
	case 10:
		return "(" + d[:2] + ") " + d[2:6] + "-" + d[6:]
	case 11:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	}
	return s
}

// ValidEmail reports whether s is a bare address.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// ValidatePassword enforces the sign-up password rules.
func ValidatePassword(password, confirm string) error {
	if len(password) < MinPasswordLength {
		return NewValidationError("password", "must have at least %d characters", MinPasswordLength)
	}
	if password != confirm {
		return NewValidationError("confirm_password", "passwords do not match")
	}
	return nil
}
