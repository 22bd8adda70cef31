package models

import "strings"

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// to prevent key collision attacks where user-controlled identifiers containing
// ':' could manipulate adjacent rate limit buckets.
//
// Example: An identifier "op:admin" would become "op_admin", preventing
// it from being interpreted as a separate key segment.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// OperatorKey builds the bucket key for an authenticated operator.
func OperatorKey(operatorID string) string {
	return "ratelimit:op:" + SanitizeKeySegment(operatorID)
}

// IPKey builds the bucket key for an unauthenticated client address.
func IPKey(ip string) string {
	return "ratelimit:ip:" + SanitizeKeySegment(ip)
}
