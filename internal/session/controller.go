// Package session implements the tunnel session lifecycle: acquiring a
// leased configuration from the failover endpoints, driving the tunnel
// driver through idempotent up/down transitions, and reconciling persisted
// lease state with the live system.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/agentuity/go-common/logger"
	"github.com/tunlease/cli/internal/endpoint"
	"github.com/tunlease/cli/internal/lease"
	"github.com/tunlease/cli/internal/platform"
)

const pendingFileName = "tunlease-connect.pending"

// Driver is the narrow contract against the external tunnel driver.
type Driver interface {
	Activate(ctx context.Context, configPath string, verbose bool) error
	Deactivate(ctx context.Context, configPath string, verbose bool) error
	ActiveInterfaces(ctx context.Context) ([]string, error)
}

// IPResolver reports the machine's public IP, for diagnostics only.
type IPResolver interface {
	PublicIP(ctx context.Context) string
}

// Params are the per-invocation request parameters. They are transient and
// never persisted.
type Params struct {
	Country      string
	LeaseMinutes int
	Timeout      time.Duration
	SkipConfirm  bool
	DryRun       bool
	Verbose      bool
}

// Config wires the controller's collaborators and fixed paths. It is built
// once at startup; the controller holds no other shared state.
type Config struct {
	// ConfigPath is the single fixed path of the session configuration.
	ConfigPath string
	// ScratchDir holds the lock file and the pending-connect marker.
	ScratchDir string
	Endpoint   *endpoint.Client
	Driver     Driver
	Lease      *lease.Store
	IP         IPResolver
	Caps       platform.Caps
	// Confirm asks the user a yes/no question. Nil means always yes.
	Confirm func(title string, defaultValue bool) bool
	// PrivilegesGranted reports whether the driver privilege grant is in
	// place; GrantPrivileges establishes it. Both nil means no precondition.
	PrivilegesGranted func() bool
	GrantPrivileges   func(ctx context.Context) error
}

type Controller struct {
	config Config
	logger logger.Logger
	now    func() time.Time
}

func NewController(logger logger.Logger, config Config) (*Controller, error) {
	if config.ConfigPath == "" {
		return nil, fmt.Errorf("session configuration path must be set")
	}
	if config.ScratchDir == "" {
		config.ScratchDir = os.TempDir()
	}
	if config.Driver == nil {
		return nil, fmt.Errorf("tunnel driver must be set")
	}
	if config.Endpoint == nil {
		return nil, fmt.Errorf("endpoint client must be set")
	}
	if config.Lease == nil {
		config.Lease = &lease.Store{Dir: config.ScratchDir}
	}
	if config.Caps == nil {
		config.Caps = platform.Default()
	}
	return &Controller{config: config, logger: logger, now: time.Now}, nil
}

// ConnectResult reports the outcome of a successful (or dry-run) connect.
type ConnectResult struct {
	IPBefore string
	IPAfter  string
	Lease    lease.Record
	DryRun   bool
}

// DisconnectResult reports the before/after public IPs of a disconnect.
type DisconnectResult struct {
	IPBefore string
	IPAfter  string
	DryRun   bool
}

// StatusResult reconciles live interface presence with the persisted lease.
type StatusResult struct {
	Connected        bool
	Interfaces       []string
	HasLease         bool
	Lease            lease.Record
	RemainingMinutes int64
	// InterruptedConnect is true when a pending-connect marker was left
	// behind by a crashed invocation.
	InterruptedConnect bool
}

func (c *Controller) pendingPath() string {
	return filepath.Join(c.config.ScratchDir, pendingFileName)
}

func (c *Controller) confirm(title string, defaultValue bool) bool {
	if c.config.Confirm == nil {
		return true
	}
	return c.config.Confirm(title, defaultValue)
}

func (c *Controller) publicIP(ctx context.Context) string {
	if c.config.IP == nil {
		return ""
	}
	return c.config.IP.PublicIP(ctx)
}

// Connect drives the full connect transition. On success the session
// configuration is on disk, the tunnel is up, and the lease record is
// persisted. Under params.DryRun the validating and fetching steps still run
// but the driver is never invoked and no lease is written.
func (c *Controller) Connect(ctx context.Context, params Params) (*ConnectResult, error) {
	if params.Country == "" {
		return nil, fmt.Errorf("country code must not be empty")
	}
	if params.LeaseMinutes <= 0 {
		return nil, fmt.Errorf("lease minutes must be greater than zero")
	}

	if c.config.PrivilegesGranted != nil && c.config.GrantPrivileges != nil && !c.config.PrivilegesGranted() {
		if !c.confirm("The tunnel driver privilege grant is not set up. Set it up now?", true) {
			return nil, ErrAborted
		}
		if err := c.config.GrantPrivileges(ctx); err != nil {
			return nil, fmt.Errorf("error setting up privilege grant: %w", err)
		}
	}

	if !params.SkipConfirm {
		title := fmt.Sprintf("Lease a tunnel in %s for %d minutes?", params.Country, params.LeaseMinutes)
		if !c.confirm(title, true) {
			return nil, ErrAborted
		}
	}

	release, err := acquireLock(c.config.ScratchDir)
	if err != nil {
		return nil, err
	}
	defer release()

	if pending, err := readLock(c.pendingPath()); err == nil {
		c.logger.Warn("a previous connect (pid %d) was interrupted mid-transition, cleaning up", pending.PID)
		os.Remove(c.pendingPath())
	}

	// stale-session cleanup makes connect idempotent when already connected
	if _, err := os.Stat(c.config.ConfigPath); err == nil {
		c.logger.Info("found a configuration from a prior session, tearing it down")
		if err := c.config.Driver.Deactivate(ctx, c.config.ConfigPath, params.Verbose); err != nil {
			c.logger.Warn("best-effort deactivate of stale session failed: %s", err)
		}
		if err := os.Remove(c.config.ConfigPath); err != nil {
			return nil, fmt.Errorf("error removing stale session configuration: %w", err)
		}
	}

	result := &ConnectResult{DryRun: params.DryRun}
	result.IPBefore = c.publicIP(ctx)

	query := fmt.Sprintf("api/config/new?format=text&geo=%s&lease_minutes=%d",
		url.QueryEscape(params.Country), params.LeaseMinutes)
	body, err := c.config.Endpoint.FetchWithTimeout(ctx, query, params.Timeout)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(c.config.ConfigPath), 0700); err != nil {
		return nil, fmt.Errorf("error creating configuration directory: %w", err)
	}
	if err := os.WriteFile(c.config.ConfigPath, body, 0600); err != nil {
		return nil, fmt.Errorf("error writing session configuration: %w", err)
	}

	if message, rejected := decodeRemoteReject(body); rejected {
		os.Remove(c.config.ConfigPath)
		return nil, &RemoteRejectedError{Message: message}
	}

	if params.DryRun {
		c.logger.Info("dry run: would activate tunnel from %s and lease for %d minutes",
			c.config.ConfigPath, params.LeaseMinutes)
		result.IPAfter = result.IPBefore
		return result, nil
	}

	// the pending marker makes a crash between activation and lease
	// persistence detectable on the next invocation
	if err := c.writePending(); err != nil {
		return nil, err
	}

	if err := c.config.Driver.Activate(ctx, c.config.ConfigPath, params.Verbose); err != nil {
		// configuration is left on disk for diagnostics
		os.Remove(c.pendingPath())
		return nil, err
	}

	result.IPAfter = c.publicIP(ctx)

	expiry := c.config.Caps.AddMinutes(c.now(), params.LeaseMinutes)
	record := lease.Record{
		ExpiryEpoch: expiry.Unix(),
		ExpiryHuman: expiry.Format(lease.HumanFormat),
	}
	if err := c.config.Lease.Save(record); err != nil {
		return nil, err
	}
	os.Remove(c.pendingPath())
	result.Lease = record
	return result, nil
}

// Disconnect tears the session down. Deactivation is best effort; the
// session configuration is always deleted afterwards. The lease record files
// are deliberately left in place.
func (c *Controller) Disconnect(ctx context.Context, params Params) (*DisconnectResult, error) {
	release, err := acquireLock(c.config.ScratchDir)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := os.Stat(c.config.ConfigPath); os.IsNotExist(err) {
		return nil, ErrNothingToDisconnect
	}

	result := &DisconnectResult{DryRun: params.DryRun}
	result.IPBefore = c.publicIP(ctx)

	if params.DryRun {
		c.logger.Info("dry run: would deactivate tunnel from %s and remove the configuration", c.config.ConfigPath)
		result.IPAfter = result.IPBefore
		return result, nil
	}

	if err := c.config.Driver.Deactivate(ctx, c.config.ConfigPath, params.Verbose); err != nil {
		c.logger.Warn("deactivate failed, continuing with local cleanup: %s", err)
	}
	if err := os.Remove(c.config.ConfigPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error removing session configuration: %w", err)
	}

	result.IPAfter = c.publicIP(ctx)
	return result, nil
}

// Status reconciles live interface presence with the persisted lease record.
// Connectedness comes purely from the driver's view of the system, never
// from the configuration file's existence.
func (c *Controller) Status(ctx context.Context) (*StatusResult, error) {
	result := &StatusResult{}

	interfaces, err := c.config.Driver.ActiveInterfaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("error querying tunnel driver: %w", err)
	}
	result.Interfaces = interfaces
	result.Connected = len(interfaces) > 0

	if _, err := os.Stat(c.pendingPath()); err == nil {
		result.InterruptedConnect = true
	}

	if !result.Connected {
		return result, nil
	}

	record, err := c.config.Lease.Load()
	if err != nil {
		if errors.Is(err, lease.ErrNoLease) {
			// connected with no lease bookkeeping is reportable, not an error
			return result, nil
		}
		return nil, err
	}
	result.HasLease = true
	result.Lease = record
	result.RemainingMinutes = record.Remaining(c.now())
	return result, nil
}

func (c *Controller) writePending() error {
	if err := os.MkdirAll(c.config.ScratchDir, 0700); err != nil {
		return fmt.Errorf("error creating scratch directory: %w", err)
	}
	record := lockRecord{PID: os.Getpid(), AcquiredAt: c.now()}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("error encoding pending-connect marker: %w", err)
	}
	if err := os.WriteFile(c.pendingPath(), raw, 0600); err != nil {
		return fmt.Errorf("error writing pending-connect marker: %w", err)
	}
	return nil
}
