package security

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mroshb/apex_bot/pkg/errors"
	"github.com/mroshb/apex_bot/pkg/utils"
)

const (
	MaxNameLength        = 64
	MaxTitleLength       = 80
	MaxDescriptionLength = 600
)

var (
	htmlPolicy    = bluemonday.StrictPolicy()
	joinCodeRegex = regexp.MustCompile(`^[A-Z0-9]{4,12}$`)
)

// SanitizeText strips markup and control bytes from user input and caps it
// at maxRunes characters.
func SanitizeText(input string, maxRunes int) string {
	input = strings.ReplaceAll(input, "\x00", "")
	input = html.UnescapeString(htmlPolicy.Sanitize(input))
	input = strings.TrimSpace(input)

	if maxRunes > 0 && utf8.RuneCountInString(input) > maxRunes {
		input = strings.TrimSpace(string([]rune(input)[:maxRunes]))
	}
	return input
}

// CleanName sanitises a rider, leader or group name and rejects empty results.
func CleanName(input string) (string, error) {
	name := strings.Join(strings.Fields(SanitizeText(input, MaxNameLength)), " ")
	if name == "" {
		return "", errors.New(errors.ErrCodeValidation, "Name cannot be empty.")
	}
	return name, nil
}

// CleanTitle sanitises a ride title.
func CleanTitle(input string) (string, error) {
	title := SanitizeText(input, MaxTitleLength)
	if title == "" {
		return "", errors.New(errors.ErrCodeValidation, "Title cannot be empty.")
	}
	return title, nil
}

// CleanDescription sanitises free text. Empty is allowed.
func CleanDescription(input string) string {
	return SanitizeText(input, MaxDescriptionLength)
}

// NormalizeJoinCode uppercases a typed join code and checks its shape.
func NormalizeJoinCode(input string) (string, error) {
	code := utils.NormalizeCode(input)
	if !joinCodeRegex.MatchString(code) {
		return "", errors.ErrInvalidCode
	}
	return code, nil
}
