// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims and collapses inner runs of whitespace; case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Department trims and uppercases a department code.
func Department(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Text trims surrounding whitespace only.
func Text(s string) string {
	return strings.TrimSpace(s)
}
