package enums

import "strings"

// DefaultLanguage is used when a customer has no stored language preference.
const DefaultLanguage = "en"

// NormalizeLanguage lowercases and trims a language code, falling back to
// the default for empty input.
func NormalizeLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return DefaultLanguage
	}
	return code
}
