package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MinTextLength is the minimum trimmed length of composed text.
const MinTextLength = 10

// ErrInsufficientContent indicates the composed text is too short to embed.
var ErrInsufficientContent = errors.New("Insufficient text content")

// Compose concatenates the kind's fields into the text used as embedding input.
// Missing fields are empty strings; array fields are joined with ", ".
func Compose(name Name, record Record) (string, error) {
	s, err := name.layout()
	if err != nil {
		return "", err
	}

	parts := make([]string, len(s.fields))
	for i, field := range s.fields {
		v, _ := record.Field(field)
		parts[i] = fieldText(v)
	}

	text := strings.Join(parts, "\n")
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinTextLength {
		return "", ErrInsufficientContent
	}
	return text, nil
}

func fieldText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			items = append(items, fieldText(item))
		}
		return strings.Join(items, ", ")
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
