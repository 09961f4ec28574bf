package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	cases := map[string]string{
		"5551234567":        "(555) 123-4567",
		" 555.123.4567 ":    "(555) 123-4567",
		"(555) 123-4567":    "(555) 123-4567",
		"15551234567":       "+1 (555) 123-4567",
		"+1 555-123-4567":   "+1 (555) 123-4567",
		"25551234567":       "25551234567",
		"+44 20 7946 0958 ": "+44 20 7946 0958",
		"":                  "",
		"ext":               "ext",
	}
	for in, want := range cases {
		assert.Equal(t, want, Format(in), in)
	}
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "5551234567", Digits("(555) 123-4567"))
	assert.Empty(t, Digits("n/a"))
}
