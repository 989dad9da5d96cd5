package debuglog

import "regexp"

// Credential patterns removed from captured log lines before they leave the
// node through debug.logs.
var credentialPatterns = []*regexp.Regexp{
	// Bearer/authorization headers
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._~+/=-]{8,}`),
	// GitHub tokens
	regexp.MustCompile(`gh[opusr]_[a-zA-Z0-9]{36}`),
	// AWS access keys
	regexp.MustCompile(`AKIA[A-Z0-9]{16}`),
	// key=value style secrets, including slog text output (token=..., "token":"...")
	regexp.MustCompile(`(?i)"?(api[_-]?key|token|secret|password|authorization)"?\s*[:=]\s*"?[^\s",]{8,}"?`),
	// URLs with embedded credentials
	regexp.MustCompile(`(?i)\b[a-z][a-z0-9+.-]*://[^\s/:@"']+:[^\s/@"']+@[^\s"']+`),
	// PEM private keys
	regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----`),
}

const redactedPlaceholder = "[REDACTED]"

// Scrub replaces known credential patterns in text with [REDACTED].
func Scrub(text string) string {
	for _, pat := range credentialPatterns {
		text = pat.ReplaceAllString(text, redactedPlaceholder)
	}
	return text
}
