package textutil

import "strings"

// SanitizeFileName rewrites name so it is safe as a single path element on
// the filesystems a rip library typically lives on, including SMB/NTFS
// shares. Path separators and drive characters become dashes (runs of them
// collapse to one), other reserved characters and control bytes are
// dropped, and trailing dots are trimmed since Windows shares reject them.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastDash := false
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*':
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		case r == '?' || r == '"' || r == '<' || r == '>' || r == '|' || r < 0x20:
			// dropped outright
		default:
			b.WriteRune(r)
			lastDash = false
		}
	}
	return strings.TrimRight(strings.TrimSpace(b.String()), ". ")
}
