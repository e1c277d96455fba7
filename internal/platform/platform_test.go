package platform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddMinutes(t *testing.T) {
	caps := Default()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		minutes int
		want    time.Time
	}{
		{"one hour", 60, time.Date(2026, 8, 28, 13, 0, 0, 0, time.UTC)},
		{"zero", 0, now},
		{"crosses midnight", 13 * 60, time.Date(2026, 8, 29, 1, 0, 0, 0, time.UTC)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, caps.AddMinutes(now, test.minutes))
		})
	}
}
