//go:build windows

package platform

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
)

func defaultCaps() Caps {
	return &windowsCaps{}
}

type windowsCaps struct {
	clockCaps
}

func (c *windowsCaps) ListTunnelInterfaces(ctx context.Context) ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("error enumerating network interfaces: %w", err)
	}
	var names []string
	for _, iface := range ifaces {
		if strings.HasPrefix(iface.Name, "wg") || strings.Contains(strings.ToLower(iface.Name), "wireguard") {
			names = append(names, iface.Name)
		}
	}
	return names, nil
}

func (c *windowsCaps) DeleteInterface(ctx context.Context, name string) error {
	cmd := exec.CommandContext(ctx, "wireguard", "/uninstalltunnelservice", name)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("error deleting interface %s: %s: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}
