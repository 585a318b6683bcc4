package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

const codeFence = "```"

// Parse decodes raw into the requested fields. Output that is not a JSON
// object carrying every field is returned unchanged as Raw.
func Parse(raw string, fields []string) Result {
	if len(fields) == 0 {
		return Raw{Text: raw}
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &decoded); err != nil {
		return Raw{Text: raw}
	}

	values := make(map[string]string, len(fields))
	for _, field := range fields {
		value, ok := decoded[field]
		if !ok {
			return Raw{Text: raw}
		}
		values[field] = stringify(value)
	}

	return Structured{Fields: values}
}

// StripCodeFence removes a surrounding Markdown code fence with an optional
// info string such as "json".
func StripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, codeFence) {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, codeFence)
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		info := strings.TrimSpace(trimmed[:nl])
		if !strings.ContainsAny(info, "{[") {
			trimmed = trimmed[nl+1:]
		}
	}

	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, codeFence)

	return strings.TrimSpace(trimmed)
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64, bool:
		return fmt.Sprint(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}
