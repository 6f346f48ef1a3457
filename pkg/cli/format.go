// Package cli provides shared formatting helpers for the netpec CLI.
package cli

import (
	"os"
	"strings"
)

// colorEnabled is false when NO_COLOR env var is set (per no-color.org).
var colorEnabled = os.Getenv("NO_COLOR") == ""

// SetColor turns ANSI colors on or off
func SetColor(enabled bool) {
	colorEnabled = enabled
}

func wrap(code, s string) string {
	if !colorEnabled {
		return s
	}
	return code + s + "\033[0m"
}

// Green wraps s in ANSI green
func Green(s string) string { return wrap("\033[32m", s) }

// Yellow wraps s in ANSI yellow
func Yellow(s string) string { return wrap("\033[33m", s) }

// Red wraps s in ANSI red
func Red(s string) string { return wrap("\033[31m", s) }

// Bold wraps s in ANSI bold
func Bold(s string) string { return wrap("\033[1m", s) }

// Dim wraps s in ANSI dim
func Dim(s string) string { return wrap("\033[2m", s) }

// Kind colors a PEC kind: exact green, merged yellow, anything else dim.
func Kind(kind string) string {
	switch kind {
	case "exact":
		return Green(kind)
	case "merged":
		return Yellow(kind)
	}
	return Dim(kind)
}

// Status renders a pass/fail marker
func Status(ok bool) string {
	if ok {
		return Green("valid")
	}
	return Red("invalid")
}

// DotPad pads name with dots to the given width.
// Example: DotPad("prefixes", 16) → "prefixes ......."
func DotPad(name string, width int) string {
	if width <= 0 || len(name) >= width-1 {
		return name
	}
	return name + " " + strings.Repeat(".", width-len(name)-1)
}

// OrNA returns s, or "N/A" when s is empty
func OrNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
