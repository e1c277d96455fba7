package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeRemoteReject(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		message  string
		rejected bool
	}{
		{"json error payload", `{"error":"insufficient lease"}`, "insufficient lease", true},
		{"json error with extra fields", `{"error":"no capacity","retry_after":600}`, "no capacity", true},
		{"marker inside text", `server said: "error":"quota exceeded" please retry`, "quota exceeded", true},
		{"marker without closing quote", `"error":"truncated`, "truncated", true},
		{"valid configuration", "[Interface]\nPrivateKey = abc\n", "", false},
		{"json without error field", `{"kind":"config"}`, "", false},
		{"empty body", "", "", false},
		{"error word without marker", "an error occurred upstream", "", false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			message, rejected := decodeRemoteReject([]byte(test.body))
			assert.Equal(t, test.rejected, rejected)
			assert.Equal(t, test.message, message)
		})
	}
}
