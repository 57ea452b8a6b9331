package completion

import (
	"encoding/json"
	"fmt"
)

// Stringify coerces an inference result to the text placed in a choice.
// Strings pass through, Stringers and errors use their own text, byte slices
// are read as UTF-8, and other values are JSON-encoded.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	case []byte:
		return string(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
