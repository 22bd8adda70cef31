// Package attrs works with the [key1, value1, key2, value2, ...] attribute
// slices used by slog-style call sites and audit detail strings.
package attrs

import (
	"fmt"
	"strings"
)

// ExtractString extracts a string value from a key-value attribute slice.
// Returns empty string if the key is not found or the value is not a string.
func ExtractString(attrs []any, key string) string {
	for i := 0; i < len(attrs)-1; i += 2 {
		k, ok := attrs[i].(string)
		if !ok {
			continue
		}
		if k == key {
			if v, ok := attrs[i+1].(string); ok {
				return v
			}
		}
	}
	return ""
}

// Detail renders a key-value attribute slice as a compact "k=v k=v" string
// for audit event detail fields. Pairs with empty values are dropped; a
// trailing key without a value is ignored.
func Detail(attrs ...any) string {
	var b strings.Builder
	for i := 0; i < len(attrs)-1; i += 2 {
		key, ok := attrs[i].(string)
		if !ok || key == "" {
			continue
		}
		value := fmt.Sprint(attrs[i+1])
		if value == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(value)
	}
	return b.String()
}
