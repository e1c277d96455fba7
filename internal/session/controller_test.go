package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentuity/go-common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunlease/cli/internal/driver"
	"github.com/tunlease/cli/internal/endpoint"
	"github.com/tunlease/cli/internal/lease"
)

type fakeDriver struct {
	activateCalls   int
	deactivateCalls int
	interfaces      []string
	activateErr     error
	deactivateErr   error
}

func (d *fakeDriver) Activate(ctx context.Context, configPath string, verbose bool) error {
	d.activateCalls++
	return d.activateErr
}

func (d *fakeDriver) Deactivate(ctx context.Context, configPath string, verbose bool) error {
	d.deactivateCalls++
	return d.deactivateErr
}

func (d *fakeDriver) ActiveInterfaces(ctx context.Context) ([]string, error) {
	return d.interfaces, nil
}

type fakeIP struct {
	ips  []string
	next int
}

func (f *fakeIP) PublicIP(ctx context.Context) string {
	if f.next >= len(f.ips) {
		return "unavailable"
	}
	ip := f.ips[f.next]
	f.next++
	return ip
}

type testEnv struct {
	controller *Controller
	driver     *fakeDriver
	dir        string
	configPath string
	store      *lease.Store
}

func newTestEnv(t *testing.T, handler http.Handler, fake *fakeDriver, confirm func(string, bool) bool) *testEnv {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	dir := t.TempDir()
	client, err := endpoint.New(&mockLogger{}, endpoint.Config{
		Endpoints:  []string{server.URL},
		Timeout:    2 * time.Second,
		Retries:    2,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)

	store := &lease.Store{Dir: dir}
	configPath := filepath.Join(dir, "tl0.conf")
	controller, err := NewController(&mockLogger{}, Config{
		ConfigPath: configPath,
		ScratchDir: dir,
		Endpoint:   client,
		Driver:     fake,
		Lease:      store,
		IP:         &fakeIP{ips: []string{"203.0.113.7", "198.51.100.9"}},
		Confirm:    confirm,
	})
	require.NoError(t, err)
	return &testEnv{controller: controller, driver: fake, dir: dir, configPath: configPath, store: store}
}

func configHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	})
}

func connectParams() Params {
	return Params{Country: "DE", LeaseMinutes: 60, SkipConfirm: true}
}

func TestConnectWritesConfigAndLease(t *testing.T) {
	env := newTestEnv(t, configHandler("[Interface]\nPrivateKey = x\n"), &fakeDriver{}, nil)

	result, err := env.controller.Connect(context.Background(), connectParams())
	require.NoError(t, err)

	raw, err := os.ReadFile(env.configPath)
	require.NoError(t, err)
	assert.Equal(t, "[Interface]\nPrivateKey = x\n", string(raw))
	assert.Equal(t, 1, env.driver.activateCalls)

	record, err := env.store.Load()
	require.NoError(t, err)
	want := time.Now().Add(60 * time.Minute).Unix()
	assert.InDelta(t, want, record.ExpiryEpoch, 5)
	assert.Equal(t, record, result.Lease)
	assert.Equal(t, "203.0.113.7", result.IPBefore)
	assert.Equal(t, "198.51.100.9", result.IPAfter)

	_, err = os.Stat(filepath.Join(env.dir, pendingFileName))
	assert.True(t, os.IsNotExist(err), "pending marker must be removed after a successful connect")
}

func TestConnectValidatesParams(t *testing.T) {
	env := newTestEnv(t, configHandler("config"), &fakeDriver{}, nil)

	_, err := env.controller.Connect(context.Background(), Params{Country: "", LeaseMinutes: 60})
	assert.Error(t, err)

	_, err = env.controller.Connect(context.Background(), Params{Country: "DE", LeaseMinutes: 0})
	assert.Error(t, err)
	assert.Equal(t, 0, env.driver.activateCalls)
}

func TestConnectTwiceReplacesConfiguration(t *testing.T) {
	bodies := []string{"first-config", "second-config"}
	var served int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, bodies[served])
		if served < len(bodies)-1 {
			served++
		}
	})
	env := newTestEnv(t, handler, &fakeDriver{}, nil)

	_, err := env.controller.Connect(context.Background(), connectParams())
	require.NoError(t, err)
	_, err = env.controller.Connect(context.Background(), connectParams())
	require.NoError(t, err)

	raw, err := os.ReadFile(env.configPath)
	require.NoError(t, err)
	assert.Equal(t, "second-config", string(raw))
	// the stale session is torn down before the new configuration is fetched
	assert.GreaterOrEqual(t, env.driver.deactivateCalls, 1)
	assert.Equal(t, 2, env.driver.activateCalls)

	entries, err := os.ReadDir(env.dir)
	require.NoError(t, err)
	configs := 0
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".conf" {
			configs++
		}
	}
	assert.Equal(t, 1, configs)
}

func TestConnectDryRun(t *testing.T) {
	env := newTestEnv(t, configHandler("dry-config"), &fakeDriver{}, nil)

	result, err := env.controller.Connect(context.Background(), Params{
		Country: "SE", LeaseMinutes: 30, SkipConfirm: true, DryRun: true,
	})
	require.NoError(t, err)
	assert.True(t, result.DryRun)

	// the configuration is still fetched and validated
	raw, err := os.ReadFile(env.configPath)
	require.NoError(t, err)
	assert.Equal(t, "dry-config", string(raw))

	assert.Equal(t, 0, env.driver.activateCalls)
	_, err = env.store.Load()
	assert.ErrorIs(t, err, lease.ErrNoLease)
}

func TestConnectRemoteRejected(t *testing.T) {
	env := newTestEnv(t, configHandler(`{"error":"insufficient lease"}`), &fakeDriver{}, nil)

	_, err := env.controller.Connect(context.Background(), connectParams())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteRejected)

	var rejected *RemoteRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "insufficient lease", rejected.Message)

	assert.Equal(t, 0, env.driver.activateCalls, "a rejected configuration must never reach the driver")
	_, statErr := os.Stat(env.configPath)
	assert.True(t, os.IsNotExist(statErr), "a rejected configuration must be cleaned up")
}

func TestConnectAllEndpointsFailed(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	env := newTestEnv(t, handler, &fakeDriver{}, nil)

	_, err := env.controller.Connect(context.Background(), connectParams())
	assert.ErrorIs(t, err, endpoint.ErrAllEndpointsFailed)
	assert.Equal(t, 0, env.driver.activateCalls)
	_, statErr := os.Stat(env.configPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConnectActivationFailureKeepsConfig(t *testing.T) {
	fake := &fakeDriver{activateErr: fmt.Errorf("%w: address already in use", driver.ErrActivationFailed)}
	env := newTestEnv(t, configHandler("broken-config"), fake, nil)

	_, err := env.controller.Connect(context.Background(), connectParams())
	assert.ErrorIs(t, err, driver.ErrActivationFailed)

	// configuration stays on disk for diagnostics, lease is never written
	_, statErr := os.Stat(env.configPath)
	assert.NoError(t, statErr)
	_, loadErr := env.store.Load()
	assert.ErrorIs(t, loadErr, lease.ErrNoLease)
	_, markerErr := os.Stat(filepath.Join(env.dir, pendingFileName))
	assert.True(t, os.IsNotExist(markerErr))
}

func TestConnectDeclined(t *testing.T) {
	var requests int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, "config")
	})
	decline := func(title string, defaultValue bool) bool { return false }
	env := newTestEnv(t, handler, &fakeDriver{}, decline)

	params := connectParams()
	params.SkipConfirm = false
	_, err := env.controller.Connect(context.Background(), params)
	assert.ErrorIs(t, err, ErrAborted)
	assert.Zero(t, requests, "declining the confirmation must have no side effects")
	_, statErr := os.Stat(env.configPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDisconnect(t *testing.T) {
	fake := &fakeDriver{deactivateErr: fmt.Errorf("%w: interface not found", driver.ErrDeactivationFailed)}
	env := newTestEnv(t, configHandler("unused"), fake, nil)
	require.NoError(t, os.WriteFile(env.configPath, []byte("config"), 0600))
	require.NoError(t, env.store.Save(lease.Record{ExpiryEpoch: time.Now().Unix() + 600, ExpiryHuman: "soon"}))

	result, err := env.controller.Disconnect(context.Background(), Params{})
	require.NoError(t, err, "deactivation failures must not block cleanup")
	assert.Equal(t, 1, fake.deactivateCalls)

	_, statErr := os.Stat(env.configPath)
	assert.True(t, os.IsNotExist(statErr), "the configuration is removed regardless of the driver outcome")

	// the lease record is deliberately left behind
	_, loadErr := env.store.Load()
	assert.NoError(t, loadErr)
	assert.Equal(t, "203.0.113.7", result.IPBefore)
}

func TestDisconnectNothingToDisconnect(t *testing.T) {
	env := newTestEnv(t, configHandler("unused"), &fakeDriver{}, nil)

	_, err := env.controller.Disconnect(context.Background(), Params{})
	assert.ErrorIs(t, err, ErrNothingToDisconnect)
	assert.Equal(t, 0, env.driver.deactivateCalls, "no driver calls when there is nothing to tear down")
}

func TestDisconnectDryRun(t *testing.T) {
	env := newTestEnv(t, configHandler("unused"), &fakeDriver{}, nil)
	require.NoError(t, os.WriteFile(env.configPath, []byte("config"), 0600))

	result, err := env.controller.Disconnect(context.Background(), Params{DryRun: true})
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 0, env.driver.deactivateCalls)

	_, statErr := os.Stat(env.configPath)
	assert.NoError(t, statErr, "dry run must leave the configuration in place")
}

func TestStatusDisconnectedIgnoresStaleLease(t *testing.T) {
	env := newTestEnv(t, configHandler("unused"), &fakeDriver{interfaces: nil}, nil)
	require.NoError(t, env.store.Save(lease.Record{ExpiryEpoch: time.Now().Unix() + 3600, ExpiryHuman: "later"}))

	result, err := env.controller.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Connected, "a stale lease record must not report a phantom session")
	assert.False(t, result.HasLease)
}

func TestStatusExpiredLeaseClampsToZero(t *testing.T) {
	env := newTestEnv(t, configHandler("unused"), &fakeDriver{interfaces: []string{"tl0"}}, nil)
	require.NoError(t, env.store.Save(lease.Record{ExpiryEpoch: time.Now().Unix() - 10, ExpiryHuman: "past"}))

	result, err := env.controller.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Connected)
	assert.True(t, result.HasLease)
	assert.Equal(t, int64(0), result.RemainingMinutes)
}

func TestStatusConnectedWithoutLease(t *testing.T) {
	env := newTestEnv(t, configHandler("unused"), &fakeDriver{interfaces: []string{"tl0"}}, nil)

	result, err := env.controller.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Connected)
	assert.False(t, result.HasLease, "a missing lease record is reportable, not an error")
}

func TestStatusReportsInterruptedConnect(t *testing.T) {
	env := newTestEnv(t, configHandler("unused"), &fakeDriver{}, nil)
	require.NoError(t, os.WriteFile(filepath.Join(env.dir, pendingFileName), []byte(`{"pid":1234}`), 0600))

	result, err := env.controller.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, result.InterruptedConnect)
}

func TestStatusRemainingMinutes(t *testing.T) {
	env := newTestEnv(t, configHandler("unused"), &fakeDriver{interfaces: []string{"tl0"}}, nil)
	require.NoError(t, env.store.Save(lease.Record{
		ExpiryEpoch: time.Now().Add(45 * time.Minute).Unix(),
		ExpiryHuman: "later",
	}))

	result, err := env.controller.Status(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 44, result.RemainingMinutes, 1)
}

type mockLogger struct{}

func (m *mockLogger) Debug(format string, args ...interface{}) {}
func (m *mockLogger) Info(format string, args ...interface{})  {}
func (m *mockLogger) Warn(format string, args ...interface{})  {}
func (m *mockLogger) Error(format string, args ...interface{}) {}
func (m *mockLogger) Fatal(format string, args ...interface{}) {}
func (m *mockLogger) Trace(format string, args ...interface{}) {}
func (m *mockLogger) SetLevel(level string)                    {}
func (m *mockLogger) GetLevel() string                         { return "info" }
func (m *mockLogger) WithField(key string, value interface{}) logger.Logger {
	return m
}
func (m *mockLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return m
}
func (m *mockLogger) WithError(err error) logger.Logger {
	return m
}
func (m *mockLogger) Stack(logger logger.Logger) logger.Logger {
	return m
}
func (m *mockLogger) With(fields map[string]interface{}) logger.Logger {
	return m
}
func (m *mockLogger) WithContext(ctx context.Context) logger.Logger {
	return m
}
func (m *mockLogger) WithPrefix(prefix string) logger.Logger {
	return m
}
