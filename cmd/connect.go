package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentuity/go-common/env"
	"github.com/spf13/cobra"
	"github.com/tunlease/cli/internal/driver"
	"github.com/tunlease/cli/internal/endpoint"
	"github.com/tunlease/cli/internal/errsystem"
	"github.com/tunlease/cli/internal/session"
	"github.com/tunlease/cli/internal/tui"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Lease a tunnel configuration and bring the tunnel up",
	Long: `Lease a tunnel configuration and bring the tunnel up.

Fetches a configuration from the first reachable endpoint, activates the
tunnel driver with it, and records the lease expiry.

Examples:
  tunlease connect --country DE --minutes 60
  tunlease connect --country SE --minutes 30 --yes
  tunlease connect --country DE --minutes 60 --dry-run`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := env.NewLogger(cmd)
		country, _ := cmd.Flags().GetString("country")
		minutes, _ := cmd.Flags().GetInt("minutes")
		timeout, _ := cmd.Flags().GetInt("timeout")
		yes, _ := cmd.Flags().GetBool("yes")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		verbose, _ := cmd.Flags().GetBool("verbose")

		if country == "" {
			errsystem.New(errsystem.ErrInvalidArguments, fmt.Errorf("country code must not be empty"),
				errsystem.WithUserMessage("Pass --country with a two-letter country code. Use %s to see what is available.", printCommand("countries"))).ShowErrorAndExit()
		}
		if minutes <= 0 {
			errsystem.New(errsystem.ErrInvalidArguments, fmt.Errorf("lease minutes must be greater than zero"),
				errsystem.WithUserMessage("Pass --minutes with a positive lease duration.")).ShowErrorAndExit()
		}
		requireInteractive(yes)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		controller := buildController(logger)
		params := session.Params{
			Country:      country,
			LeaseMinutes: minutes,
			Timeout:      time.Duration(timeout) * time.Second,
			SkipConfirm:  yes,
			DryRun:       dryRun,
			Verbose:      verbose,
		}

		result, err := controller.Connect(ctx, params)
		if err != nil {
			var rejected *session.RemoteRejectedError
			switch {
			case errors.Is(err, session.ErrAborted):
				printWarning("Connect aborted, nothing was changed.")
				return
			case errors.As(err, &rejected):
				errsystem.New(errsystem.ErrRemoteRejected, err,
					errsystem.WithUserMessage("The configuration service rejected the request: %s", rejected.Message)).ShowErrorAndExit()
			case errors.Is(err, endpoint.ErrAllEndpointsFailed):
				errsystem.New(errsystem.ErrAllEndpointsFailed, err).ShowErrorAndExit()
			case errors.Is(err, driver.ErrActivationFailed):
				errsystem.New(errsystem.ErrDriverActivation, err,
					errsystem.WithUserMessage("The tunnel driver could not bring the tunnel up. The fetched configuration was kept for inspection.")).ShowErrorAndExit()
			case errors.Is(err, session.ErrLocked):
				errsystem.New(errsystem.ErrSessionLocked, err).ShowErrorAndExit()
			default:
				errsystem.New(errsystem.ErrWriteConfiguration, err).ShowErrorAndExit()
			}
		}

		if result.DryRun {
			tui.ShowSuccess("Dry run complete. A valid configuration was fetched; the tunnel was not activated.")
			return
		}
		printSuccess("Tunnel is up. Lease expires %s (%d minute lease).", result.Lease.ExpiryHuman, minutes)
		fmt.Println(tui.Muted("Public IP before: %s", result.IPBefore))
		fmt.Println(tui.Muted("Public IP after:  %s", result.IPAfter))
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
	connectCmd.Flags().String("country", "", "The country code to lease a tunnel in")
	connectCmd.Flags().Int("minutes", 60, "The lease duration in minutes")
	connectCmd.Flags().Int("timeout", 0, "Per-attempt network timeout in seconds (0 uses the configured default)")
	connectCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
	connectCmd.Flags().Bool("dry-run", false, "Fetch and validate a configuration without activating the tunnel")
	connectCmd.Flags().Bool("verbose", false, "Stream the tunnel driver's native output")
}
