package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsGibberish(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want bool
	}{
		{"short never flagged", "!!", false},
		{"short repeats never flagged", "zz", false},
		{"no alphanumerics", "!!!!@@@@####", true},
		{"symbols only", "???", true},
		{"normal question", "Tell me about your services", false},
		{"single long run is allowed", "aaaaaaaaaaaa", false},
		{"three long runs", "aaaa bbbb cccc", true},
		{"two long runs", "aaaa bbbb c", false},
		{"digit heavy", "123456789 abc", true},
		{"digit heavy but short", "12345 ab", false},
		{"low variety over many words", "ab ab ab ab ab ab ab ab ab ab", true},
		{"varied sentence", "how can your team help us automate invoices", false},
		{"case and padding ignored", "   HELLO THERE   ", false},
		{"newline runs ignored", "hi\n\n\n\nthere\n\n\n\nfriend\n\n\n\n", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsGibberish(tc.in))
		})
	}
}

func TestIsGibberish_ShortInputs(t *testing.T) {
	for _, s := range []string{"", "a", "ab", "!!", "  ?? ", "11"} {
		require.False(t, IsGibberish(s), s)
	}
}

func TestValidateInputQuality(t *testing.T) {
	cases := []struct {
		name   string
		in     string
		ok     bool
		reason string
	}{
		{"empty", "", false, ReasonEmpty},
		{"whitespace", "   \t\n", false, ReasonEmpty},
		{"one char", " a ", false, ReasonTooShort},
		{"gibberish", "!!!!@@@@####", false, ReasonGibberish},
		{"too long", strings.Repeat("abcdefghij", 51), false, ReasonTooLong},
		{"at limit", strings.Repeat("abcdefghij", 50), true, ""},
		{"good", "Tell me about your services", true, ""},
		{"two chars", "hi", true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := ValidateInputQuality(tc.in)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.reason, reason)
		})
	}
}

func TestValidateInputQuality_GibberishBeforeLength(t *testing.T) {
	ok, reason := ValidateInputQuality(strings.Repeat("#", 600))
	require.False(t, ok)
	require.Equal(t, ReasonGibberish, reason)
}

// Long multi-word messages rarely reach the length rule: their distinct
// character count falls under 30% of their length first.
func TestValidateInputQuality_LongProseTripsVarietyRule(t *testing.T) {
	ok, reason := ValidateInputQuality(strings.Repeat("tell me more about it. ", 25))
	require.False(t, ok)
	require.Equal(t, ReasonGibberish, reason)
}

func TestRejectionMessage(t *testing.T) {
	msg := RejectionMessage(ReasonTooShort)
	require.True(t, strings.HasPrefix(msg, "I apologize, but I couldn't process your request. Your message is too short."))
	require.True(t, strings.HasSuffix(msg, "artificial intelligence solutions."))
}
