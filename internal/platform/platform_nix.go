//go:build !windows

package platform

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
)

func defaultCaps() Caps {
	return &nixCaps{}
}

type nixCaps struct {
	clockCaps
}

// tunnel interface name prefixes recognized during enumeration
var tunnelPrefixes = []string{"wg", "tun", "tap"}

func (c *nixCaps) ListTunnelInterfaces(ctx context.Context) ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("error enumerating network interfaces: %w", err)
	}
	var names []string
	for _, iface := range ifaces {
		for _, prefix := range tunnelPrefixes {
			if strings.HasPrefix(iface.Name, prefix) {
				names = append(names, iface.Name)
				break
			}
		}
	}
	return names, nil
}

func (c *nixCaps) DeleteInterface(ctx context.Context, name string) error {
	cmd := exec.CommandContext(ctx, "sudo", "-n", "ip", "link", "delete", name)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("error deleting interface %s: %s: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}
