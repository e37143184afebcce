package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// MaskEmail redacts the local part of an email address, keeping the first
// character and the domain. "gautam@mail.com" -> "g•••@mail.com".
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "•••"
	}
	return email[:1] + "•••" + email[at:]
}

// MaskPhone redacts a phone number down to its last 2 digits.
func MaskPhone(phone string) string {
	if len(phone) <= 2 {
		return "•••"
	}
	return "•••" + phone[len(phone)-2:]
}
