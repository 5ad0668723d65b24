// Package ansi strips terminal control sequences from raw PTY output.
package ansi

import "regexp"

// escapeRe matches CSI/OSC escape sequences plus lone control characters
// that would otherwise leak into classified or displayed text.
var escapeRe = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)|\x1b[@-_]|[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)

// Strip removes terminal control sequences, leaving printable text.
func Strip(s string) string {
	return escapeRe.ReplaceAllString(s, "")
}
