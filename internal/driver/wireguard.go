// Package driver wraps the external WireGuard tooling behind the two
// effectful operations the session controller needs: bringing a tunnel up
// from a configuration file and tearing it down again.
package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/agentuity/go-common/logger"
)

var (
	// ErrActivationFailed is fatal for the connect flow.
	ErrActivationFailed = errors.New("tunnel driver activation failed")
	// ErrDeactivationFailed is reported but callers treat deactivation as
	// best-effort and never let it block local cleanup.
	ErrDeactivationFailed = errors.New("tunnel driver deactivation failed")
)

// WireGuard drives wg-quick through an elevated, non-interactive sudo so
// repeated invocations never re-prompt. Both operations are idempotent with
// respect to repeated calls.
type WireGuard struct {
	logger logger.Logger
}

func New(logger logger.Logger) *WireGuard {
	return &WireGuard{logger: logger}
}

// InterfaceName derives the tunnel interface name wg-quick will use from the
// configuration file path.
func InterfaceName(configPath string) string {
	return strings.TrimSuffix(filepath.Base(configPath), ".conf")
}

// Activate brings the tunnel described by configPath up. If an interface of
// the same name is already live, it is torn down first so a repeated call
// converges instead of failing.
func (w *WireGuard) Activate(ctx context.Context, configPath string, verbose bool) error {
	name := InterfaceName(configPath)
	if active, err := w.ActiveInterfaces(ctx); err == nil {
		for _, iface := range active {
			if iface == name {
				w.logger.Debug("interface %s already up, cycling it", name)
				_ = w.runQuiet(ctx, verbose, "wg-quick", "down", configPath)
			}
		}
	}
	if err := w.run(ctx, verbose, "wg-quick", "up", configPath); err != nil {
		return fmt.Errorf("%w: %s", ErrActivationFailed, err)
	}
	return nil
}

// Deactivate tears the tunnel down. Deactivating a tunnel that is already
// down succeeds without invoking the driver.
func (w *WireGuard) Deactivate(ctx context.Context, configPath string, verbose bool) error {
	name := InterfaceName(configPath)
	if active, err := w.ActiveInterfaces(ctx); err == nil {
		up := false
		for _, iface := range active {
			if iface == name {
				up = true
			}
		}
		if !up {
			w.logger.Debug("interface %s is not up, nothing to deactivate", name)
			return nil
		}
	}
	if err := w.run(ctx, verbose, "wg-quick", "down", configPath); err != nil {
		return fmt.Errorf("%w: %s", ErrDeactivationFailed, err)
	}
	return nil
}

// ActiveInterfaces reports the names of the WireGuard interfaces currently
// live on this machine.
func (w *WireGuard) ActiveInterfaces(ctx context.Context) ([]string, error) {
	cmd := exec.CommandContext(ctx, "sudo", "-n", "wg", "show", "interfaces")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("error listing wireguard interfaces: %w", err)
	}
	fields := strings.Fields(string(out))
	return fields, nil
}

// run invokes the driver. Verbose mode streams the driver's native output;
// otherwise stdout and stderr are both captured and surfaced only on error.
func (w *WireGuard) run(ctx context.Context, verbose bool, name string, args ...string) error {
	sudoArgs := append([]string{"-n", name}, args...)
	cmd := exec.CommandContext(ctx, "sudo", sudoArgs...)
	w.logger.Debug("running: sudo %s", strings.Join(sudoArgs, " "))
	if verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		out := strings.TrimSpace(buf.String())
		if out != "" {
			return fmt.Errorf("%s: %s", err, out)
		}
		return err
	}
	return nil
}

// runQuiet is run with the error swallowed, for best-effort cleanup steps.
func (w *WireGuard) runQuiet(ctx context.Context, verbose bool, name string, args ...string) error {
	if err := w.run(ctx, verbose, name, args...); err != nil {
		w.logger.Debug("ignoring error from %s: %s", name, err)
		return err
	}
	return nil
}
