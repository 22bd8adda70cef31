// Package strings provides small string-slice helpers shared by
// configuration parsing.
package strings

import (
	"strings"
)

// SplitAndTrim splits a comma-separated list into its cleaned elements:
// whitespace is trimmed, empties and duplicates are dropped, order is
// preserved. Env-provided lists such as Kafka broker addresses parse
// through this.
func SplitAndTrim(list string) []string {
	if list == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(list, ","))
}

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}
