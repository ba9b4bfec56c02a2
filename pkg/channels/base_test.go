package channels

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAllowed_EmptyListAllowsAll(t *testing.T) {
	ch := NewBaseChannel("xmpp")
	assert.True(t, ch.IsAllowed("anyone@anywhere.org/res"))
}

func TestIsAllowed(t *testing.T) {
	ch := NewBaseChannel("xmpp", WithAllowList([]string{
		"alice@example.org",
		"bob@example.org/laptop",
		"@trusted.example",
		"xmpp:carol@example.net",
		"",
	}))

	tests := []struct {
		sender string
		want   bool
	}{
		{"alice@example.org", true},
		{"alice@example.org/phone", true},
		{"ALICE@Example.org", true},
		{"bob@example.org/laptop", true},
		{"bob@example.org/phone", false},
		{"bob@example.org", false},
		{"dave@trusted.example/x", true},
		{"dave@sub.trusted.example", false},
		{"carol@example.net", true},
		{"mallory@example.org", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.sender, func(t *testing.T) {
			assert.Equal(t, tt.want, ch.IsAllowed(tt.sender))
		})
	}
}

func TestName(t *testing.T) {
	assert.Equal(t, "xmpp", NewXMPPChannel("/tmp/x", nil).Name())
}
