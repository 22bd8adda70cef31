package attrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractString(t *testing.T) {
	kv := []any{"client_ip", "10.0.0.9", "attempts", 3, "user_agent", "curl/8.5"}

	assert.Equal(t, "10.0.0.9", ExtractString(kv, "client_ip"))
	assert.Equal(t, "curl/8.5", ExtractString(kv, "user_agent"))
	assert.Equal(t, "", ExtractString(kv, "attempts"), "non-string values are skipped")
	assert.Equal(t, "", ExtractString(kv, "missing"))
	assert.Equal(t, "", ExtractString(nil, "client_ip"))
}

func TestDetail(t *testing.T) {
	assert.Equal(t,
		"client_ip=10.0.0.9 attempts=3",
		Detail("client_ip", "10.0.0.9", "attempts", 3))

	assert.Equal(t, "a=1", Detail("a", 1, "dangling"))
	assert.Equal(t, "", Detail())
	assert.Equal(t, "kept=x", Detail("dropped", "", "kept", "x"))
}
