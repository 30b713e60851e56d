package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{level: "debug", wantDebug: true, wantInfo: true},
		{level: "info", wantDebug: false, wantInfo: true},
		{level: "error", wantDebug: false, wantInfo: false},
		{level: "", wantDebug: false, wantInfo: true},
		{level: "nonsense", wantDebug: false, wantInfo: true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Options{Name: "shade", Level: tt.level, Output: &buf})
			logger.Debug("debug line")
			logger.Info("info line")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(out, "info line"); got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v", got, tt.wantInfo)
			}
			if strings.Contains(out, "\x1b[") {
				t.Error("colour escape written to a non-terminal")
			}
		})
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Name: "shade", Output: &buf, JSON: true}).Info("applied", "url", "https://example.com")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v: %s", err, buf.String())
	}
	if line["@message"] != "applied" || line["url"] != "https://example.com" || line["@module"] != "shade" {
		t.Errorf("unexpected JSON line: %v", line)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		verbose, quiet bool
		want           string
	}{
		{verbose: true, want: "debug"},
		{quiet: true, want: "error"},
		{verbose: true, quiet: true, want: "debug"},
		{want: "warn"},
	}
	for _, tt := range tests {
		if got := Level(tt.verbose, tt.quiet, "warn"); got != tt.want {
			t.Errorf("Level(%v, %v) = %q, want %q", tt.verbose, tt.quiet, got, tt.want)
		}
	}
}
