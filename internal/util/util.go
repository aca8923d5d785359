// Package util holds small shared helpers.
package util

import "strings"

// NormalizeEmail trims surrounding whitespace and lowercases the domain
// part of an email address. The local part keeps its case.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}

	return email[:at+1] + strings.ToLower(email[at+1:])
}
