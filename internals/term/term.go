// Package term detects terminal capabilities the CLI cares about. Detection
// is heuristic: it keys off environment variables the major emulators set.
package term

import "os"

// hyperlinkVars are set by emulators known to render OSC 8 hyperlinks.
var hyperlinkVars = []string{
	"WT_SESSION",
	"VTE_VERSION",
	"KONSOLE_VERSION",
	"KITTY_WINDOW_ID",
	"WEZTERM_EXECUTABLE",
	"DOMTERM",
	"TERM_PROGRAM",
}

// SupportsHyperlinks reports whether the terminal likely renders OSC 8
// hyperlinks. Unknown terminals are assumed not to.
func SupportsHyperlinks() bool {
	switch os.Getenv("TERM") {
	case "", "dumb", "alacritty":
		return false
	}
	for _, name := range hyperlinkVars {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// ClickableLink renders label as an OSC 8 hyperlink to url, falling back to
// the plain label on terminals without hyperlink support.
func ClickableLink(label string, url string) string {
	if url == "" {
		return label
	}
	if label == "" {
		label = url
	}
	if !SupportsHyperlinks() {
		return label
	}
	return "\x1b]8;;" + url + "\x1b\\" + label + "\x1b]8;;\x1b\\"
}
