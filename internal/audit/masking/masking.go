package masking

import "strings"

const maskToken = "****"

// MaskSecret redacts a value while keeping a short suffix so operators can tell values apart.
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	prefix, remainder := splitPrefix(trimmed)
	if len(remainder) <= 4 {
		return prefix + maskToken
	}
	return prefix + maskToken + remainder[len(remainder)-4:]
}

// MaskEmail keeps the domain of an address and hides the local part.
func MaskEmail(value string) string {
	at := strings.LastIndex(value, "@")
	if at <= 0 {
		return MaskSecret(value)
	}
	return maskToken + value[at:]
}

// MaskFields returns snapshot with every listed top-level key redacted.
// Nested objects and arrays under a listed key are masked recursively.
func MaskFields(snapshot map[string]any, fields []string) map[string]any {
	if len(snapshot) == 0 || len(fields) == 0 {
		return snapshot
	}
	masked := make(map[string]any, len(snapshot))
	for key, value := range snapshot {
		masked[key] = value
	}
	for _, field := range fields {
		field = strings.TrimSpace(field)
		value, ok := masked[field]
		if !ok || value == nil {
			continue
		}
		if field == "email" {
			if s, ok := value.(string); ok {
				masked[field] = MaskEmail(s)
				continue
			}
		}
		masked[field] = maskValue(value)
	}
	return masked
}

func maskValue(value any) any {
	switch cast := value.(type) {
	case string:
		return MaskSecret(cast)
	case map[string]any:
		out := make(map[string]any, len(cast))
		for key, item := range cast {
			out[key] = maskValue(item)
		}
		return out
	case []any:
		out := make([]any, 0, len(cast))
		for _, item := range cast {
			out = append(out, maskValue(item))
		}
		return out
	default:
		return value
	}
}

func splitPrefix(value string) (string, string) {
	lastUnderscore := strings.LastIndex(value, "_")
	if lastUnderscore == -1 || lastUnderscore == len(value)-1 {
		return "", value
	}
	return value[:lastUnderscore+1], value[lastUnderscore+1:]
}
