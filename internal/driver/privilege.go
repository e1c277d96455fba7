package driver

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"

	"github.com/agentuity/go-common/logger"
)

// SudoersPath is the drop-in file that lets the tunnel driver run without
// re-prompting for a password.
const SudoersPath = "/etc/sudoers.d/tunlease"

// PrivilegesGranted reports whether the elevated-privilege grant for the
// tunnel driver is already in place.
func PrivilegesGranted() bool {
	if _, err := os.Stat(SudoersPath); os.IsNotExist(err) {
		return false
	}
	return true
}

// GrantPrivileges installs the sudoers drop-in so wg-quick and wg can be
// invoked non-interactively. This is a one-time, user-confirmed side action;
// it is never invoked as part of the state machine itself.
func GrantPrivileges(ctx context.Context, logger logger.Logger) error {
	current, err := user.Current()
	if err != nil {
		return fmt.Errorf("error resolving current user: %w", err)
	}
	wgQuick, err := exec.LookPath("wg-quick")
	if err != nil {
		return fmt.Errorf("wg-quick not found in PATH, install the wireguard tools first: %w", err)
	}
	wg, err := exec.LookPath("wg")
	if err != nil {
		return fmt.Errorf("wg not found in PATH, install the wireguard tools first: %w", err)
	}
	content := fmt.Sprintf("%s ALL=(root) NOPASSWD: %s, %s\n", current.Username, wgQuick, wg)
	tmp := filepath.Join(os.TempDir(), "tunlease-sudoers")
	if err := os.WriteFile(tmp, []byte(content), 0600); err != nil {
		return fmt.Errorf("error writing temporary sudoers file: %w", err)
	}
	defer os.Remove(tmp)
	logger.Info("installing %s (you may be prompted for your password once)", SudoersPath)
	cmd := exec.CommandContext(ctx, "sudo", "install", "-m", "0440", tmp, SudoersPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("error installing sudoers file: %w", err)
	}
	return nil
}
