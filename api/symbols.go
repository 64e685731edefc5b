package api

import "strings"

// NormalizeSymbol unifies ticker spellings into one canonical form so cache
// keys and action subjects stay consistent (e.g. "aapl" -> AAPL)
func NormalizeSymbol(s string) string {
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}
