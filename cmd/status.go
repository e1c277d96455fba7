package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/agentuity/go-common/env"
	"github.com/spf13/cobra"
	"github.com/tunlease/cli/internal/errsystem"
	"github.com/tunlease/cli/internal/tui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a tunnel is up and how much lease time remains",
	Long: `Show whether a tunnel is up and how much lease time remains.

Connectedness is determined from the live tunnel interfaces, not from any
files left on disk, so a stale lease record never reports a phantom session.

Examples:
  tunlease status`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := env.NewLogger(cmd)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		controller := buildController(logger)
		result, err := controller.Status(ctx)
		if err != nil {
			errsystem.New(errsystem.ErrInterfaceEnumeration, err).ShowErrorAndExit()
		}

		if result.InterruptedConnect {
			tui.ShowWarning("A previous connect was interrupted mid-transition; lease bookkeeping may be missing. Reconnect to recover.")
		}

		if !result.Connected {
			fmt.Println("Disconnected")
			return
		}

		printSuccess("Connected (%s)", strings.Join(result.Interfaces, ", "))
		if !result.HasLease {
			fmt.Println(tui.Muted("No lease information is available for this session."))
			return
		}
		fmt.Println(tui.Muted("Lease expires: %s", result.Lease.ExpiryHuman))
		fmt.Println(tui.Muted("Remaining:     %d minutes", result.RemainingMinutes))
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
