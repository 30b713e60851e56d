// Package urllist stores the allow and deny lists of URL prefixes.
package urllist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

var (
	// ErrExists is returned when adding a URL already in the list.
	ErrExists = errors.New("url already in list")
	// ErrNotFound is returned when a URL is not in the list.
	ErrNotFound = errors.New("url not in list")
	// ErrInvalidURL is returned for empty or scheme-less URLs.
	ErrInvalidURL = errors.New("invalid url")
	// ErrQuotaExceeded is returned when a write would exceed the quota.
	ErrQuotaExceeded = errors.New("list quota exceeded")
)

const (
	// QuotaBytes is the storage budget shared by both lists.
	QuotaBytes = 102400
	// QuotaItems is the item budget shared by both lists.
	QuotaItems = 512
)

// Kind selects a list.
type Kind int

const (
	// Allow is the list of prefixes that opt in.
	Allow Kind = iota
	// Deny is the list of prefixes that opt out.
	Deny
)

// String returns "allow" or "deny".
func (k Kind) String() string {
	if k == Deny {
		return "deny"
	}
	return "allow"
}

// ParseKind accepts "allow" and "deny".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allow", "":
		return Allow, nil
	case "deny":
		return Deny, nil
	}
	return Allow, fmt.Errorf("unknown list %q (want allow|deny)", s)
}

// Usage reports consumption against the quota.
type Usage struct {
	Bytes        int     `json:"bytes"`
	Items        int     `json:"items"`
	QuotaBytes   int     `json:"quota_bytes"`
	QuotaItems   int     `json:"quota_items"`
	BytesPercent float64 `json:"bytes_percent"`
	ItemsPercent float64 `json:"items_percent"`
}

// Store persists both lists. Entries keep insertion order.
type Store interface {
	List(ctx context.Context, kind Kind) ([]string, error)
	Add(ctx context.Context, kind Kind, rawURL string) error
	Delete(ctx context.Context, kind Kind, rawURL string) error
	Update(ctx context.Context, kind Kind, oldURL, newURL string) error
	Clear(ctx context.Context, kind Kind) error
	Replace(ctx context.Context, kind Kind, urls []string) error
	Usage(ctx context.Context) (Usage, error)
	// Lists returns both lists, satisfying membership.Source.
	Lists(ctx context.Context) (allow, deny []string, err error)
	Close() error
}

// Validate normalises and checks a URL prefix.
func Validate(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" || (u.Host == "" && u.Opaque == "" && u.Path == "") {
		return "", fmt.Errorf("%w: %q needs a scheme", ErrInvalidURL, rawURL)
	}
	return rawURL, nil
}

func computeUsage(lists ...[]string) Usage {
	u := Usage{QuotaBytes: QuotaBytes, QuotaItems: QuotaItems}
	for _, l := range lists {
		for _, s := range l {
			u.Bytes += len(s)
			u.Items++
		}
	}
	u.BytesPercent = float64(u.Bytes) * 100 / QuotaBytes
	u.ItemsPercent = float64(u.Items) * 100 / QuotaItems
	return u
}

// fits reports whether adding the given bytes and items stays within quota.
func (u Usage) fits(bytes, items int) bool {
	return u.Bytes+bytes <= QuotaBytes && u.Items+items <= QuotaItems
}

// Toggle adds origin to the list if absent, otherwise removes it. It
// returns whether the origin is now listed.
func Toggle(ctx context.Context, s Store, kind Kind, origin string) (bool, error) {
	origin, err := Validate(origin)
	if err != nil {
		return false, err
	}

	list, err := s.List(ctx, kind)
	if err != nil {
		return false, err
	}
	for _, u := range list {
		if u == origin {
			if err := s.Delete(ctx, kind, origin); err != nil {
				return false, err
			}
			return false, nil
		}
	}

	if err := s.Add(ctx, kind, origin); err != nil {
		return false, err
	}
	return true, nil
}

// Export writes a list as a JSON array of strings.
func Export(ctx context.Context, s Store, kind Kind, w io.Writer) error {
	list, err := s.List(ctx, kind)
	if err != nil {
		return err
	}
	if list == nil {
		list = []string{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(list); err != nil {
		return fmt.Errorf("failed to encode %s list: %w", kind, err)
	}
	return nil
}

// Import reads a JSON array of strings. With replace the list is swapped
// wholesale, otherwise new entries are appended and duplicates skipped. It
// returns the number of entries written.
func Import(ctx context.Context, s Store, kind Kind, r io.Reader, replace bool) (int, error) {
	var urls []string
	if err := json.NewDecoder(r).Decode(&urls); err != nil {
		return 0, fmt.Errorf("failed to decode %s list: %w", kind, err)
	}

	if replace {
		if err := s.Replace(ctx, kind, urls); err != nil {
			return 0, err
		}
		return len(urls), nil
	}

	n := 0
	for _, u := range urls {
		switch err := s.Add(ctx, kind, u); {
		case err == nil:
			n++
		case errors.Is(err, ErrExists):
		default:
			return n, err
		}
	}
	return n, nil
}

// normalise validates urls and rejects duplicates within the slice.
func normalise(urls []string) ([]string, error) {
	out := make([]string, 0, len(urls))
	seen := make(map[string]bool, len(urls))
	for _, raw := range urls {
		u, err := Validate(raw)
		if err != nil {
			return nil, err
		}
		if seen[u] {
			return nil, fmt.Errorf("%w: %s", ErrExists, u)
		}
		seen[u] = true
		out = append(out, u)
	}
	return out, nil
}
