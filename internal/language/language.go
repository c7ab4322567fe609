package language

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto is the sentinel that asks whisper to detect the spoken language.
const Auto = "auto"

var titleCaser = cases.Title(xlang.English)

// Normalize converts a configured language into the form passed to
// whisper's --language flag. An empty result means the flag is omitted.
func Normalize(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	lower := strings.ToLower(trimmed)
	if lower == "" || lower == Auto {
		return "", nil
	}
	if !isLetters(lower) {
		return "", fmt.Errorf("language %q: only letters and spaces are allowed", trimmed)
	}
	if len(lower) <= 3 && !strings.Contains(lower, " ") {
		base, err := xlang.ParseBase(lower)
		if err != nil {
			return "", fmt.Errorf("language %q: %w", trimmed, err)
		}
		return base.String(), nil
	}
	return titleCaser.String(strings.Join(strings.Fields(lower), " ")), nil
}

// DisplayName returns an English display name for a normalized language.
// Codes resolve through the CLDR tables; names are returned unchanged.
func DisplayName(normalized string) string {
	if normalized == "" {
		return "auto-detect"
	}
	if len(normalized) > 3 {
		return normalized
	}
	tag, err := xlang.Parse(normalized)
	if err != nil {
		return strings.ToUpper(normalized)
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(normalized)
}

func isLetters(value string) bool {
	for _, r := range value {
		if !unicode.IsLetter(r) && r != ' ' {
			return false
		}
	}
	return true
}
