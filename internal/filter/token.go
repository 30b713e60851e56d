package filter

import (
	"regexp"
	"strings"
)

// Token is the inversion transform. Applied twice it cancels out.
const Token = "invert(1) hue-rotate(180deg)"

var (
	tokenPattern = regexp.MustCompile(`\s*invert\(1\) hue-rotate\(180deg\)\s*`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// AppendToken composes Token after an existing filter value.
func AppendToken(filter string) string {
	filter = strings.TrimSpace(filter)
	if filter == "" || strings.EqualFold(filter, "none") {
		return Token
	}
	return filter + " " + Token
}

// StripToken removes every Token from a filter value, keeping the rest.
func StripToken(filter string) string {
	out := tokenPattern.ReplaceAllString(filter, " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(out, " "))
}

// HasToken reports whether filter contains Token.
func HasToken(filter string) bool {
	return tokenPattern.MatchString(filter)
}

// ownFilter is the part of a computed filter not contributed by Token.
func ownFilter(filter string) string {
	f := StripToken(filter)
	if strings.EqualFold(f, "none") {
		return ""
	}
	return f
}
