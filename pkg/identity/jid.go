// Package identity parses XMPP addresses and derives the local context
// names used for them.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Prefix tags a destination as belonging to the XMPP transport.
const Prefix = "xmpp:"

var (
	ErrEmpty       = errors.New("identifier is empty")
	ErrNoLocalPart = errors.New("identifier has no local part")
	ErrNoDomain    = errors.New("identifier has no domain part")

	ErrInvalidCharacter = errors.New("identifier contains invalid characters")
	ErrInvalidResource  = errors.New("identifier has an empty or nested resource")
)

// JID is a parsed XMPP address: local@domain[/resource].
type JID struct {
	Local    string
	Domain   string
	Resource string
}

// ParseJID validates that raw has a non-empty local and domain part and no
// whitespace or control characters anywhere. The resource, if present,
// must be non-empty and free of '/'.
func ParseJID(raw string) (JID, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return JID{}, ErrEmpty
	}
	// The address ends up inside a single transport command line.
	if strings.IndexFunc(s, isUnsafeAddressRune) >= 0 {
		return JID{}, fmt.Errorf("%q: %w", raw, ErrInvalidCharacter)
	}

	var (
		j           JID
		hasResource bool
	)
	s, j.Resource, hasResource = strings.Cut(s, "/")
	if hasResource && (j.Resource == "" || strings.Contains(j.Resource, "/")) {
		return JID{}, fmt.Errorf("%q: %w", raw, ErrInvalidResource)
	}

	at := strings.Index(s, "@")
	if at < 0 {
		return JID{}, fmt.Errorf("%q: %w", raw, ErrNoLocalPart)
	}
	j.Local = s[:at]
	j.Domain = s[at+1:]

	if j.Local == "" {
		return JID{}, fmt.Errorf("%q: %w", raw, ErrNoLocalPart)
	}
	if j.Domain == "" {
		return JID{}, fmt.Errorf("%q: %w", raw, ErrNoDomain)
	}
	if strings.ContainsAny(j.Local+j.Domain, "@") {
		return JID{}, fmt.Errorf("%q: %w", raw, ErrInvalidCharacter)
	}
	return j, nil
}

func isUnsafeAddressRune(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r) || r == unicode.ReplacementChar
}

// Bare returns local@domain.
func (j JID) Bare() string {
	return j.Local + "@" + j.Domain
}

func (j JID) String() string {
	if j.Resource == "" {
		return j.Bare()
	}
	return j.Bare() + "/" + j.Resource
}

// StripPrefix removes the transport prefix from a destination. The
// boolean reports whether the destination was addressed to this transport.
func StripPrefix(destination string) (string, bool) {
	rest, ok := strings.CutPrefix(destination, Prefix)
	return rest, ok
}
