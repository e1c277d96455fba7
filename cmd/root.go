package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentuity/go-common/logger"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tunlease/cli/internal/driver"
	"github.com/tunlease/cli/internal/endpoint"
	"github.com/tunlease/cli/internal/errsystem"
	"github.com/tunlease/cli/internal/ipecho"
	"github.com/tunlease/cli/internal/lease"
	"github.com/tunlease/cli/internal/platform"
	"github.com/tunlease/cli/internal/session"
	"github.com/tunlease/cli/internal/tui"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tunlease",
	Short: "Lease a temporary WireGuard tunnel and manage its lifecycle",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/tunlease/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "The log level to use")
	addOverrideFlags(rootCmd)
}

func addOverrideFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringSlice("endpoints", []string{
		"https://lease1.tunlease.net",
		"https://lease2.tunlease.net",
		"https://lease3.tunlease.net",
	}, "The ordered list of configuration endpoints")
	cmd.PersistentFlags().MarkHidden("endpoints")
	viper.BindPFlag("overrides.endpoints", cmd.PersistentFlags().Lookup("endpoints"))

	cmd.PersistentFlags().String("ipecho-url", ipecho.DefaultURL, "The public IP echo service url")
	cmd.PersistentFlags().MarkHidden("ipecho-url")
	viper.BindPFlag("overrides.ipecho_url", cmd.PersistentFlags().Lookup("ipecho-url"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		dir := filepath.Join(home, ".config", "tunlease")
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0700); err != nil {
				log.Fatalf("failed to create config directory (%s): %s", dir, err)
			}
		}
		cfgFile = filepath.Join(dir, "config.yaml")
		viper.SetConfigFile(cfgFile)
	}

	viper.AutomaticEnv() // read in environment variables that match
	viper.ReadInConfig()

	viper.SetDefault("network.timeout_seconds", 10)
	viper.SetDefault("network.retries", endpoint.DefaultRetries)
	viper.SetDefault("network.retry_delay_seconds", 2)
	viper.SetDefault("session.config_path", filepath.Join(filepath.Dir(cfgFile), "tl0.conf"))
	viper.SetDefault("session.scratch_dir", os.TempDir())
}

func printSuccess(msg string, args ...any) {
	fmt.Printf("%s %s", color.GreenString("✓"), fmt.Sprintf(msg, args...))
	fmt.Println()
}

func printWarning(msg string, args ...any) {
	fmt.Printf("%s %s", color.RedString("✕"), fmt.Sprintf(msg, args...))
	fmt.Println()
}

func printCommand(cmd string, args ...string) string {
	cmdline := "tunlease " + strings.Join(append([]string{cmd}, args...), " ")
	return color.HiCyanString(cmdline)
}

// requireInteractive aborts commands that would need a prompt when stdin is
// not a terminal and --yes was not passed.
func requireInteractive(skipConfirm bool) {
	if skipConfirm {
		return
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		errsystem.New(errsystem.ErrInteractiveRequired, fmt.Errorf("stdin is not a terminal"),
			errsystem.WithUserMessage("Run from an interactive terminal or pass --yes to skip confirmations.")).ShowErrorAndExit()
	}
}

func networkConfig() endpoint.Config {
	return endpoint.Config{
		Endpoints:  viper.GetStringSlice("overrides.endpoints"),
		Timeout:    time.Duration(viper.GetInt("network.timeout_seconds")) * time.Second,
		Retries:    viper.GetInt("network.retries"),
		RetryDelay: time.Duration(viper.GetInt("network.retry_delay_seconds")) * time.Second,
	}
}

func newEndpointClient(logger logger.Logger) *endpoint.Client {
	client, err := endpoint.New(logger, networkConfig())
	if err != nil {
		errsystem.New(errsystem.ErrInvalidArguments, err,
			errsystem.WithUserMessage("The configured endpoint list is invalid.")).ShowErrorAndExit()
	}
	return client
}

// buildController assembles the session controller from the resolved
// configuration. This is the single place the collaborators are wired.
func buildController(logger logger.Logger) *session.Controller {
	client := newEndpointClient(logger)
	store := &lease.Store{Dir: viper.GetString("session.scratch_dir")}
	controller, err := session.NewController(logger, session.Config{
		ConfigPath: viper.GetString("session.config_path"),
		ScratchDir: viper.GetString("session.scratch_dir"),
		Endpoint:   client,
		Driver:     driver.New(logger),
		Lease:      store,
		IP:         ipecho.New(logger, viper.GetString("overrides.ipecho_url"), 5*time.Second),
		Caps:       platform.Default(),
		Confirm: func(title string, defaultValue bool) bool {
			return tui.Ask(logger, title, defaultValue)
		},
		PrivilegesGranted: driver.PrivilegesGranted,
		GrantPrivileges: func(ctx context.Context) error {
			return driver.GrantPrivileges(ctx, logger)
		},
	})
	if err != nil {
		logger.Fatal("%s", err)
	}
	return controller
}
