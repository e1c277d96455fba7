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

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List the countries tunnels can be leased in",
	Long: `List the countries tunnels can be leased in.

Examples:
  tunlease countries
  tunlease countries --format code`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := env.NewLogger(cmd)
		format, _ := cmd.Flags().GetString("format")
		if format != "name" && format != "code" {
			errsystem.New(errsystem.ErrInvalidArguments, fmt.Errorf("unknown format %q", format),
				errsystem.WithUserMessage("--format must be either name or code.")).ShowErrorAndExit()
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		client := newEndpointClient(logger)
		var body []byte
		var err error
		tui.ShowSpinner(ctx, logger, "Fetching country list...", func() {
			body, err = client.Fetch(ctx, "api/config/countries?format="+format)
		})
		if err != nil {
			errsystem.New(errsystem.ErrAllEndpointsFailed, err).ShowErrorAndExit()
		}
		fmt.Println(strings.TrimSpace(string(body)))
	},
}

func init() {
	rootCmd.AddCommand(countriesCmd)
	countriesCmd.Flags().String("format", "name", "Output format: name or code")
}
