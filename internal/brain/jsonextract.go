package brain

import (
	"errors"
	"strings"
)

// ErrNoJSONFound means the model response contained no balanced JSON object.
var ErrNoJSONFound = errors.New("no JSON object found in response")

// ExtractJSON returns the first balanced {...} span in free text. The scan
// is string- and escape-aware so braces inside JSON strings don't unbalance
// the span.
func ExtractJSON(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ErrNoJSONFound
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", ErrNoJSONFound
}
