package matching

import (
	"strings"
	"unicode"
)

// ExtractDomain returns the lowercase domain of an email address, or "" when
// the input does not look like local@domain.
func ExtractDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(parts[1]))
}

// DeriveNameFromEmail builds a human-readable display name from an email's
// local part:
//
//	"sarah.chen@x.com"  → "Sarah Chen"
//	"jane_doe@x.com"    → "Jane Doe"
//	"jsmith@x.com"      → "Jsmith" (single word, no split)
//
// Returns "" when no local part can be extracted.
func DeriveNameFromEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" {
		return ""
	}

	local := parts[0]
	local = strings.ReplaceAll(local, ".", " ")
	local = strings.ReplaceAll(local, "_", " ")
	local = strings.ReplaceAll(local, "-", " ")
	local = strings.ReplaceAll(local, "+", " ")

	words := strings.Fields(local)
	if len(words) == 0 {
		return ""
	}
	return TitleCase(strings.Join(words, " "))
}

// CompanyNameFromDomain synthesizes a display name for a company from its
// email domain: the TLD (and any further labels) is stripped, the remaining
// label is split on "-" and "_", and each segment is title-cased.
//
//	"insightpartners.com" → "Insightpartners"
//	"scale-vp.io"         → "Scale Vp"
func CompanyNameFromDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return ""
	}

	label := domain
	if i := strings.Index(domain, "."); i > 0 {
		label = domain[:i]
	}

	label = strings.ReplaceAll(label, "-", " ")
	label = strings.ReplaceAll(label, "_", " ")
	return TitleCase(label)
}

// TitleCase uppercases the first letter of each whitespace-separated word and
// lowercases the rest.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
