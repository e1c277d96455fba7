package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterfaceName(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"absolute path", "/home/user/.config/tunlease/tl0.conf", "tl0"},
		{"bare file", "wg1.conf", "wg1"},
		{"no extension", "/etc/wireguard/tl0", "tl0"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, InterfaceName(test.path))
		})
	}
}
