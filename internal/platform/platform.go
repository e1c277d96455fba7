// Package platform isolates the OS-conditional pieces of the tool: lease
// date arithmetic and tunnel interface enumeration/removal. One
// implementation is selected at startup so the callers stay portable.
package platform

import (
	"context"
	"time"
)

// Caps is the platform capability surface the controller and the wipe
// procedure depend on.
type Caps interface {
	// AddMinutes returns now shifted forward by n minutes.
	AddMinutes(now time.Time, n int) time.Time
	// ListTunnelInterfaces enumerates tunnel-class network interfaces.
	ListTunnelInterfaces(ctx context.Context) ([]string, error)
	// DeleteInterface removes a network interface by name.
	DeleteInterface(ctx context.Context, name string) error
}

// Default returns the capability implementation for the current platform.
func Default() Caps {
	return defaultCaps()
}

type clockCaps struct{}

func (clockCaps) AddMinutes(now time.Time, n int) time.Time {
	return now.Add(time.Duration(n) * time.Minute)
}
