package storage

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxTweetLength caps tweet content at 280 characters.
	MaxTweetLength = 280
	// MaxCommentLength caps comment content.
	MaxCommentLength = 2048
	// MaxTitleLength caps video titles and playlist names.
	MaxTitleLength = 256
	// MaxDescriptionLength caps video and playlist descriptions.
	MaxDescriptionLength = 4096
)

// cleanText trims surrounding whitespace and enforces that the remaining
// value is non-empty and within maxRunes characters. maxRunes <= 0 disables
// the length check.
func cleanText(field, value string, maxRunes int) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", validationErrorf(field, "must not be empty")
	}
	if maxRunes > 0 && utf8.RuneCountInString(trimmed) > maxRunes {
		return "", validationErrorf(field, "must be at most %d characters", maxRunes)
	}
	return trimmed, nil
}

// cleanOptionalText behaves like cleanText but maps an empty value to ""
// without error, for fields that may be omitted.
func cleanOptionalText(field, value string, maxRunes int) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", nil
	}
	if maxRunes > 0 && utf8.RuneCountInString(trimmed) > maxRunes {
		return "", validationErrorf(field, "must be at most %d characters", maxRunes)
	}
	return trimmed, nil
}
