package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentuity/go-common/env"
	"github.com/spf13/cobra"
	"github.com/tunlease/cli/internal/errsystem"
	"github.com/tunlease/cli/internal/platform"
	"github.com/tunlease/cli/internal/tui"
)

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete every tunnel-class network interface on this machine",
	Long: `Delete every tunnel-class network interface on this machine.

This is a destructive recovery procedure for when interfaces were left behind
by crashed sessions. It touches live interfaces directly and is never run as
part of a normal connect or disconnect.

Examples:
  tunlease wipe
  tunlease wipe --yes`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := env.NewLogger(cmd)
		yes, _ := cmd.Flags().GetBool("yes")
		requireInteractive(yes)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		caps := platform.Default()
		interfaces, err := caps.ListTunnelInterfaces(ctx)
		if err != nil {
			errsystem.New(errsystem.ErrInterfaceEnumeration, err).ShowErrorAndExit()
		}
		if len(interfaces) == 0 {
			tui.ShowSuccess("No tunnel interfaces found, nothing to wipe.")
			return
		}

		if !yes {
			title := fmt.Sprintf("Delete %d tunnel interface(s)? This cannot be undone.", len(interfaces))
			if !tui.Ask(logger, title, false) {
				printWarning("Wipe aborted, nothing was changed.")
				return
			}
		}

		failed := 0
		for _, name := range interfaces {
			if err := caps.DeleteInterface(ctx, name); err != nil {
				logger.Error("failed to delete %s: %s", name, err)
				failed++
				continue
			}
			logger.Info("deleted interface %s", name)
		}
		if failed > 0 {
			printWarning("Wiped %d interface(s), %d failed.", len(interfaces)-failed, failed)
			os.Exit(1)
		}
		printSuccess("Wiped %d tunnel interface(s).", len(interfaces))
	},
}

func init() {
	rootCmd.AddCommand(wipeCmd)
	wipeCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
}
