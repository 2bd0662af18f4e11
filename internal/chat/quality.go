package chat

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minMessageRunes = 2
	// Enforced limit. The rejection text (and the request schema) say 5000.
	maxQualityRunes = 500
)

const (
	ReasonEmpty     = "Please provide a valid message. Your input appears to be empty."
	ReasonTooShort  = "Your message is too short. Please provide a more detailed question or request."
	ReasonGibberish = "I notice your message might contain random characters or unclear text. Could you please rephrase your question about VibeMindAI Solutions? I'm here to help you learn about our AI services, consulting, and solutions."
	ReasonTooLong   = "Your message is too long. Please limit your message to 5000 characters."
)

// ValidateInputQuality reports whether text should be sent upstream, and if
// not, the user-facing reason. Rules are checked in order.
func ValidateInputQuality(text string) (bool, string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false, ReasonEmpty
	}
	if utf8.RuneCountInString(trimmed) < minMessageRunes {
		return false, ReasonTooShort
	}
	if IsGibberish(text) {
		return false, ReasonGibberish
	}
	if utf8.RuneCountInString(text) > maxQualityRunes {
		return false, ReasonTooLong
	}
	return true, ""
}

// IsGibberish is a cheap heuristic for keyboard mashing and repetitive input.
func IsGibberish(text string) bool {
	text = strings.TrimSpace(strings.ToLower(text))
	runes := []rune(text)
	n := len(runes)
	if n < 3 {
		return false
	}

	var letters, alnum int
	for _, r := range runes {
		isLetter := unicode.IsLetter(r)
		if isLetter {
			letters++
		}
		if isLetter || unicode.IsNumber(r) {
			alnum++
		}
	}
	if alnum == 0 {
		return true
	}
	letterRatio := float64(letters) / float64(alnum)

	if repeatedRuns(runes, 4) > 2 {
		return true
	}

	if letterRatio < 0.5 && n > 10 {
		return true
	}

	if len(strings.Fields(text)) > 5 {
		distinct := make(map[rune]struct{})
		for _, r := range runes {
			if r != ' ' {
				distinct[r] = struct{}{}
			}
		}
		if float64(len(distinct)) < float64(n)*0.3 {
			return true
		}
	}

	return false
}

// repeatedRuns counts maximal runs of at least min identical runes. Newlines
// never form a run.
func repeatedRuns(runes []rune, min int) int {
	count := 0
	for i := 0; i < len(runes); {
		j := i + 1
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		if runes[i] != '\n' && j-i >= min {
			count++
		}
		i = j
	}
	return count
}
