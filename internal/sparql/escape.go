package sparql

import "strings"

//nolint:gochecknoglobals // immutable replacers, built once
var (
	literalEscaper = strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	iriEscaper = strings.NewReplacer(
		" ", "%20",
		"<", "%3C",
		">", "%3E",
		`"`, "%22",
		"{", "%7B",
		"}", "%7D",
		"|", "%7C",
		"^", "%5E",
		"`", "%60",
		`\`, "%5C",
	)
)

// EscapeString returns s as a double-quoted SPARQL string literal.
func EscapeString(s string) string {
	return `"` + literalEscaper.Replace(s) + `"`
}

// IRI returns s wrapped as a SPARQL IRI reference. Characters that are not
// allowed inside an IRIREF are percent-encoded.
func IRI(s string) string {
	return "<" + iriEscaper.Replace(s) + ">"
}
