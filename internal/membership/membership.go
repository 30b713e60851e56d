// Package membership resolves whether a URL is covered by the allow or deny
// list using prefix matching.
package membership

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Verdict is the membership of one URL.
type Verdict struct {
	InAllowList bool
	InDenyList  bool
	// AllowPrefix and DenyPrefix are the longest matching prefixes.
	AllowPrefix string
	DenyPrefix  string
}

// Listed reports whether the URL is allow-listed after precedence.
func (v Verdict) Listed() bool {
	return v.InAllowList
}

// Source supplies the current lists.
type Source interface {
	Lists(ctx context.Context) (allow, deny []string, err error)
}

// Resolve matches rawURL against both lists. The longest matching prefix
// wins; at equal length deny wins.
func Resolve(rawURL string, allow, deny []string) Verdict {
	a := longestPrefix(rawURL, allow)
	d := longestPrefix(rawURL, deny)

	v := Verdict{AllowPrefix: a, DenyPrefix: d}
	switch {
	case a == "" && d == "":
	case d != "" && len(d) >= len(a):
		v.InDenyList = true
	default:
		v.InAllowList = true
	}
	return v
}

// Lookup fetches the lists from src and resolves rawURL.
func Lookup(ctx context.Context, src Source, rawURL string) (Verdict, error) {
	allow, deny, err := src.Lists(ctx)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to read lists: %w", err)
	}
	return Resolve(rawURL, allow, deny), nil
}

func longestPrefix(rawURL string, prefixes []string) string {
	var best string
	for _, p := range prefixes {
		if p == "" || len(p) <= len(best) {
			continue
		}
		if strings.HasPrefix(rawURL, p) {
			best = p
		}
	}
	return best
}

// Origin returns scheme://host[:port] for rawURL.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q has no origin", rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// Lists is a fixed Source.
type Lists struct {
	Allow []string
	Deny  []string
}

// Lists implements Source.
func (l Lists) Lists(context.Context) (allow, deny []string, err error) {
	return l.Allow, l.Deny, nil
}
