package identity

import "strings"

const (
	// MaxContextNameLength bounds a context name so it stays a single
	// reasonable path component.
	MaxContextNameLength = 64

	// FallbackContextName is used when nothing usable survives sanitizing.
	FallbackContextName = "xmpp_unknown"

	atToken = "_at_"
)

// Sanitize maps an arbitrary identifier to a context name made only of
// ASCII letters, digits, '_' and '-'. It never fails: every input,
// including the empty string, yields a non-empty name of at most
// MaxContextNameLength bytes. Sanitizing a sanitized name is a no-op.
func Sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + len(atToken))

	replacing := false
	sawAt := false
	for _, r := range raw {
		switch {
		case r == '@' && !sawAt:
			sawAt = true
			replacing = false
			b.WriteString(atToken)
		case isSafeRune(r):
			replacing = false
			b.WriteRune(r)
		case replacing:
			// Collapse a run of unsafe characters into one '_'.
		default:
			replacing = true
			b.WriteByte('_')
		}
	}

	name := b.String()
	if strings.HasPrefix(name, "-") {
		name = "_" + name[1:]
	}
	if len(name) > MaxContextNameLength {
		name = truncate(name)
	}
	if name == "" {
		return FallbackContextName
	}
	return name
}

// truncate cuts name to MaxContextNameLength. A cut that lands inside an
// "_at_" token drops the partial token, and a trailing run of '_' is
// removed so the cut never ends inside a replacement run.
func truncate(name string) string {
	cut := MaxContextNameLength
	for i := cut - len(atToken) + 1; i < cut; i++ {
		if strings.HasPrefix(name[i:], atToken) {
			cut = i
			break
		}
	}
	return strings.TrimRight(name[:cut], "_")
}

// IsSafe reports whether name is already a valid context name.
func IsSafe(name string) bool {
	if name == "" || len(name) > MaxContextNameLength || name[0] == '-' {
		return false
	}
	for _, r := range name {
		if !isSafeRune(r) {
			return false
		}
	}
	return true
}

func isSafeRune(r rune) bool {
	return r >= 'a' && r <= 'z' ||
		r >= 'A' && r <= 'Z' ||
		r >= '0' && r <= '9' ||
		r == '_' || r == '-'
}
