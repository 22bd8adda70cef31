package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKeySegment(t *testing.T) {
	assert.Equal(t, "op_admin", SanitizeKeySegment("op:admin"))
	assert.Equal(t, "plain", SanitizeKeySegment("plain"))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "ratelimit:op:6b9c4a31", OperatorKey("6b9c4a31"))
	assert.Equal(t, "ratelimit:ip:203.0.113.9", IPKey("203.0.113.9"))

	// Segments containing the delimiter cannot escape their prefix.
	assert.Equal(t, "ratelimit:ip:spoofed_op_x", IPKey("spoofed:op:x"))
}
