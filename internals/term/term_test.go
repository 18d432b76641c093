package term

import (
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TERM", "")
	for _, name := range hyperlinkVars {
		t.Setenv(name, "")
	}
}

func TestSupportsHyperlinks(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{name: "no TERM", env: nil, want: false},
		{name: "dumb", env: map[string]string{"TERM": "dumb", "TERM_PROGRAM": "iTerm"}, want: false},
		{name: "alacritty opts out", env: map[string]string{"TERM": "alacritty", "TERM_PROGRAM": "iTerm"}, want: false},
		{name: "xterm without markers", env: map[string]string{"TERM": "xterm-256color"}, want: false},
		{name: "iTerm", env: map[string]string{"TERM": "xterm-256color", "TERM_PROGRAM": "iTerm"}, want: true},
		{name: "kitty", env: map[string]string{"TERM": "xterm-kitty", "KITTY_WINDOW_ID": "1"}, want: true},
		{name: "vte", env: map[string]string{"TERM": "xterm-256color", "VTE_VERSION": "7403"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}
			if got := SupportsHyperlinks(); got != tt.want {
				t.Errorf("SupportsHyperlinks() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClickableLink(t *testing.T) {
	clearEnv(t)
	t.Setenv("TERM", "dumb")

	if got := ClickableLink("daemon", "http://localhost:57911"); got != "daemon" {
		t.Fatalf("expected plain label on dumb term, got %q", got)
	}
	if got := ClickableLink("daemon", ""); got != "daemon" {
		t.Fatalf("expected label when url is empty, got %q", got)
	}

	clearEnv(t)
	t.Setenv("TERM", "xterm-256color")
	t.Setenv("TERM_PROGRAM", "iTerm")

	got := ClickableLink("daemon", "http://localhost:57911")
	if !strings.Contains(got, "\x1b]8;;http://localhost:57911") {
		t.Fatalf("expected OSC 8 sequence, got %q", got)
	}
	if !strings.Contains(got, "daemon") {
		t.Fatalf("expected label inside sequence, got %q", got)
	}

	if got := ClickableLink("", "http://localhost:57911"); !strings.Contains(got, "http://localhost:57911\x1b\\http://localhost:57911") {
		t.Fatalf("expected url reused as label, got %q", got)
	}
}
