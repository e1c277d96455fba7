package session

import (
	"encoding/json"
	"strings"
)

// errorMarker is the substring the configuration service embeds in a
// rejection payload instead of a valid tunnel configuration.
const errorMarker = `"error":"`

type remotePayload struct {
	Error string `json:"error"`
}

// decodeRemoteReject inspects a fetched configuration body for a server-side
// rejection. The body is decoded once, here at the boundary: a structured
// JSON decode is attempted first, with a marker scan as fallback for payloads
// that embed the error object in surrounding text.
func decodeRemoteReject(body []byte) (string, bool) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		var payload remotePayload
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil && payload.Error != "" {
			return payload.Error, true
		}
	}
	idx := strings.Index(trimmed, errorMarker)
	if idx < 0 {
		return "", false
	}
	rest := trimmed[idx+len(errorMarker):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return rest, true
	}
	return rest[:end], true
}
