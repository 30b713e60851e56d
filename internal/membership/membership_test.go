package membership

import (
	"context"
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		allow     []string
		deny      []string
		wantAllow bool
		wantDeny  bool
	}{
		{name: "unlisted", url: "https://example.com/a", allow: []string{"https://other.org"}},
		{name: "allow prefix", url: "https://example.com/a", allow: []string{"https://example.com"}, wantAllow: true},
		{name: "deny prefix", url: "https://example.com/a", deny: []string{"https://example.com"}, wantDeny: true},
		{name: "equal length deny wins", url: "https://example.com/a", allow: []string{"https://example.com"}, deny: []string{"https://example.com"}, wantDeny: true},
		{name: "narrower allow wins", url: "https://example.com/docs/x", allow: []string{"https://example.com/docs"}, deny: []string{"https://example.com"}, wantAllow: true},
		{name: "narrower deny wins", url: "https://example.com/admin", allow: []string{"https://example.com"}, deny: []string{"https://example.com/admin"}, wantDeny: true},
		{name: "empty prefix ignored", url: "https://example.com", allow: []string{""}, deny: []string{""}},
		{name: "prefix not substring", url: "https://a.example.com", allow: []string{"example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.url, tt.allow, tt.deny)
			if got.InAllowList != tt.wantAllow || got.InDenyList != tt.wantDeny {
				t.Errorf("Resolve() = %+v, want allow=%v deny=%v", got, tt.wantAllow, tt.wantDeny)
			}
			if got.Listed() != tt.wantAllow {
				t.Errorf("Listed() = %v, want %v", got.Listed(), tt.wantAllow)
			}
		})
	}
}

func TestResolveReportsPrefixes(t *testing.T) {
	got := Resolve("https://example.com/docs/x",
		[]string{"https://example.com", "https://example.com/docs"},
		[]string{"https://example.com/d"})
	if got.AllowPrefix != "https://example.com/docs" || got.DenyPrefix != "https://example.com/d" {
		t.Errorf("Resolve() = %+v", got)
	}
}

type failingSource struct{}

func (failingSource) Lists(context.Context) ([]string, []string, error) {
	return nil, nil, errors.New("storage offline")
}

func TestLookup(t *testing.T) {
	v, err := Lookup(context.Background(), Lists{Allow: []string{"https://a.test"}}, "https://a.test/x")
	if err != nil || !v.Listed() {
		t.Errorf("Lookup() = %+v, %v", v, err)
	}
	if _, err := Lookup(context.Background(), failingSource{}, "https://a.test"); err == nil {
		t.Error("expected error from failing source")
	}
}

func TestOrigin(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://example.com/a/b?q=1", want: "https://example.com"},
		{in: "http://localhost:8080/x", want: "http://localhost:8080"},
		{in: "file:///tmp/page.html", wantErr: true},
		{in: "not a url", wantErr: true},
		{in: "://bad", wantErr: true},
	}

	for _, tt := range tests {
		got, err := Origin(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Origin(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Origin(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
