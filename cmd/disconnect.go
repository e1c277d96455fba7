package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentuity/go-common/env"
	"github.com/spf13/cobra"
	"github.com/tunlease/cli/internal/errsystem"
	"github.com/tunlease/cli/internal/session"
	"github.com/tunlease/cli/internal/tui"
)

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Tear the active tunnel down and remove its configuration",
	Long: `Tear the active tunnel down and remove its configuration.

Deactivation is best effort: the session configuration is removed even when
the driver reports the tunnel was already down.

Examples:
  tunlease disconnect
  tunlease disconnect --dry-run`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := env.NewLogger(cmd)
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		verbose, _ := cmd.Flags().GetBool("verbose")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		controller := buildController(logger)
		result, err := controller.Disconnect(ctx, session.Params{DryRun: dryRun, Verbose: verbose})
		if err != nil {
			switch {
			case errors.Is(err, session.ErrNothingToDisconnect):
				errsystem.New(errsystem.ErrNothingToDisconnect, err,
					errsystem.WithUserMessage("No session configuration was found. Use %s to start one.", printCommand("connect"))).ShowErrorAndExit()
			case errors.Is(err, session.ErrLocked):
				errsystem.New(errsystem.ErrSessionLocked, err).ShowErrorAndExit()
			default:
				errsystem.New(errsystem.ErrWriteConfiguration, err).ShowErrorAndExit()
			}
		}

		if result.DryRun {
			tui.ShowSuccess("Dry run complete. The tunnel was not deactivated.")
			return
		}
		printSuccess("Tunnel is down and the session configuration was removed.")
		fmt.Println(tui.Muted("Public IP before: %s", result.IPBefore))
		fmt.Println(tui.Muted("Public IP after:  %s", result.IPAfter))
	},
}

func init() {
	rootCmd.AddCommand(disconnectCmd)
	disconnectCmd.Flags().Bool("dry-run", false, "Report what would be done without deactivating the tunnel")
	disconnectCmd.Flags().Bool("verbose", false, "Stream the tunnel driver's native output")
}
