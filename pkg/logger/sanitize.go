package logger

import (
	"strings"
)

// SanitizedEmail masks an email address for logging (e.g., "b***@*.com")
func SanitizedEmail(email string) string {
	username, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "[invalid-email]"
	}

	if len(username) > 1 {
		username = username[:1] + strings.Repeat("*", len(username)-1)
	}

	// Keep only the TLD readable
	domainParts := strings.Split(domain, ".")
	for i := 0; i < len(domainParts)-1; i++ {
		domainParts[i] = strings.Repeat("*", len(domainParts[i]))
	}

	return username + "@" + strings.Join(domainParts, ".")
}

var sensitiveParams = []string{"password", "token", "secret", "nik", "email", "auth"}

// SanitizeQueryString reports whether a raw query should be redacted from logs
func SanitizeQueryString(rawQuery string) bool {
	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
