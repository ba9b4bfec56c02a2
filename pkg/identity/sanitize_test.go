package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare jid", "alice@example.org", "alice_at_example_org"},
		{"with resource", "alice@example.org/phone", "alice_at_example_org_phone"},
		{"muc room", "room@conference.example.org", "room_at_conference_example_org"},
		{"empty", "", FallbackContextName},
		{"path traversal", "../../etc/passwd", "_etc_passwd"},
		{"collapses unsafe runs", "a...b", "a_b"},
		{"keeps existing underscores", "a_.b", "a__b"},
		{"second at is unsafe", "a@b@c", "a_at_b_c"},
		{"non ascii", "héllo@exämple.org", "h_llo_at_ex_mple_org"},
		{"leading hyphen", "-rf@example.org", "_rf_at_example_org"},
		{"control characters", "bob\x00\n@host", "bob__at_host"},
		{"already safe", "alice-chat", "alice-chat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitize_Truncates(t *testing.T) {
	long := strings.Repeat("a", 70) + "@example.org"
	got := Sanitize(long)
	assert.Len(t, got, MaxContextNameLength)
	assert.True(t, IsSafe(got))
}

func TestSanitize_TruncationDropsTrailingRun(t *testing.T) {
	in := strings.Repeat("b", MaxContextNameLength-1) + "...." + "tail"
	got := Sanitize(in)
	assert.Equal(t, strings.Repeat("b", MaxContextNameLength-1), got)
}

func TestSanitize_TruncationNeverSplitsAtToken(t *testing.T) {
	for n := MaxContextNameLength - len(atToken) + 1; n < MaxContextNameLength; n++ {
		local := strings.Repeat("a", n)
		got := Sanitize(local + "@example.org")
		assert.Equal(t, local, got, "local part of %d bytes", n)
		assert.Equal(t, got, Sanitize(got))
	}

	// A token that fits entirely is kept.
	local := strings.Repeat("a", MaxContextNameLength-len(atToken)-1)
	assert.Equal(t, local+"_at_e", Sanitize(local+"@example.org"))
}

func TestSanitize_AllUnderscoresFallsBack(t *testing.T) {
	got := Sanitize(strings.Repeat("_", 100))
	assert.Equal(t, FallbackContextName, got)
}

func TestSanitize_Properties(t *testing.T) {
	inputs := []string{
		"",
		" ",
		"..",
		"/",
		"@",
		"@@@@",
		"\x00\x01\x02",
		"../../../../root/.ssh/authorized_keys",
		"user@host/../../x",
		"-",
		"--help",
		strings.Repeat("é", 200),
		strings.Repeat("x@", 100),
		"alice@example.org",
		"日本語@例え.jp",
		"a‮b@c",
	}

	for _, in := range inputs {
		out := Sanitize(in)
		assert.NotEmpty(t, out, "input %q", in)
		assert.LessOrEqual(t, len(out), MaxContextNameLength, "input %q", in)
		assert.True(t, IsSafe(out), "input %q produced %q", in, out)
		assert.NotContains(t, out, "..")
		assert.NotContains(t, out, "/")
		assert.Equal(t, out, Sanitize(out), "not idempotent for %q", in)
	}
}

func TestIsSafe(t *testing.T) {
	assert.True(t, IsSafe("alice_at_example_org"))
	assert.True(t, IsSafe("alice-chat"))
	assert.False(t, IsSafe(""))
	assert.False(t, IsSafe("-x"))
	assert.False(t, IsSafe("a/b"))
	assert.False(t, IsSafe(".."))
	assert.False(t, IsSafe(strings.Repeat("a", MaxContextNameLength+1)))
}
