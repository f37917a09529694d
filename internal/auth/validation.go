package auth

import "regexp"

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail checks if an email has a valid shape. Emails are compared
// exact-match elsewhere; no case folding happens here.
func ValidEmail(email string) bool {
	return emailRegex.MatchString(email) && len(email) < 255
}
