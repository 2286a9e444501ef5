package utils

import "strings"

// MaskEmail hides all but the first two characters of the local part:
// test@gmail.com becomes te**@gmail.com. Short local parts are returned as is.
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at < 0 {
		return email
	}
	user, domain := email[:at], email[at+1:]
	if len(user) <= 2 {
		return email
	}
	return user[:2] + strings.Repeat("*", len(user)-2) + "@" + domain
}
