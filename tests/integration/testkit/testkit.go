package testkit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sha1n/mhi-server/internal/app"
	"github.com/spf13/pflag"
)

// Property names published by ServerService.
const (
	PropBaseURL = "base_url"
	PropPort    = "port"
)

// Service represents a test service that can be started and stopped
type Service interface {
	Start() (map[string]any, error)
	Stop() error
	GetName() string
}

// TestEnvContext provides access to properties collected during environment startup
type TestEnvContext interface {
	GetProperties() map[string]any
	GetProperty(name string) (any, bool)
}

// TestEnv manages the lifecycle of test services
type TestEnv interface {
	Start() (map[string]any, error)
	Stop() error
	GetContext() TestEnvContext
}

type properties map[string]any

func (p properties) GetProperties() map[string]any {
	return p
}

func (p properties) GetProperty(name string) (any, bool) {
	val, ok := p[name]
	return val, ok
}

type testEnv struct {
	services []Service
	props    properties
}

// NewTestEnv creates a new test environment with the given services
func NewTestEnv(services ...Service) TestEnv {
	return &testEnv{
		services: services,
		props:    make(properties),
	}
}

func (e *testEnv) Start() (map[string]any, error) {
	for _, s := range e.services {
		props, err := s.Start()
		if err != nil {
			return nil, err
		}
		for k, v := range props {
			e.props[k] = v
		}
	}
	return e.props, nil
}

// Stop stops services in reverse start order and returns the last error.
func (e *testEnv) Stop() error {
	var lastErr error
	for i := len(e.services) - 1; i >= 0; i-- {
		if err := e.services[i].Stop(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (e *testEnv) GetContext() TestEnvContext {
	return e.props
}

// GetFreePort returns a free port from the kernel
func GetFreePort() (int, error) {
	return getFreePortWithAddr("localhost:0")
}

// MustGetFreePort returns a free port or fails the test
func MustGetFreePort(t testing.TB) int {
	t.Helper()
	port, err := GetFreePort()
	if err != nil {
		t.Fatalf("Failed to get free port: %v", err)
	}
	return port
}

func getFreePortWithAddr(addrStr string) (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", addrStr)
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// FlagOptions configures NewTestFlags
type FlagOptions struct {
	Port           int      // Uses free port if 0
	Host           string   // Defaults to "localhost"
	DataDirectory  string   // Defaults to a fresh temp dir
	Subdirectories []string // Defaults to the server default
	AdminEnabled   bool
	AuthType       string // Defaults to "none"
	APIKeys        []string
}

// NewTestFlags creates a configured pflag.FlagSet for testing
func NewTestFlags(t testing.TB, opts *FlagOptions) *pflag.FlagSet {
	t.Helper()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	app.RegisterFlags(flags)

	if opts == nil {
		opts = &FlagOptions{}
	}

	port := opts.Port
	if port == 0 {
		port = MustGetFreePort(t)
	}
	host := opts.Host
	if host == "" {
		host = "localhost"
	}
	dataDir := opts.DataDirectory
	if dataDir == "" {
		dataDir = t.TempDir()
	}
	authType := opts.AuthType
	if authType == "" {
		authType = "none"
	}

	set := func(name, value string) {
		if err := flags.Set(name, value); err != nil {
			t.Fatalf("Failed to set flag %s: %v", name, err)
		}
	}

	set("port", fmt.Sprintf("%d", port))
	set("host", host)
	set("data-directory", dataDir)
	set("auth-type", authType)
	set("log-level", "warn")
	if len(opts.Subdirectories) > 0 {
		set("subdirectories", strings.Join(opts.Subdirectories, ","))
	}
	if len(opts.APIKeys) > 0 {
		set("auth-api-keys", strings.Join(opts.APIKeys, ","))
	}
	if opts.AdminEnabled {
		set("admin-enabled", "true")
	}

	return flags
}

// WriteCorpus writes files, keyed by slash-separated path relative to root.
func WriteCorpus(t testing.TB, root string, files map[string][]byte) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, content, 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}
}

// ServerService runs the full server loop in-process.
type ServerService struct {
	flags   *pflag.FlagSet
	timeout time.Duration
	cancel  context.CancelFunc
	done    chan error
}

// NewServerService creates a service that runs the server with flags.
func NewServerService(flags *pflag.FlagSet) *ServerService {
	return &ServerService{flags: flags, timeout: 10 * time.Second}
}

// GetName returns the service name.
func (s *ServerService) GetName() string {
	return "mhi-server"
}

// Start launches the server and blocks until /health answers.
func (s *ServerService) Start() (map[string]any, error) {
	host, _ := s.flags.GetString("host")
	port, _ := s.flags.GetInt("port")
	baseURL := "http://" + net.JoinHostPort(host, fmt.Sprintf("%d", port))

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan error, 1)
	go func() {
		s.done <- app.RunWithDeps(ctx, app.DefaultRunParams(), s.flags, "test")
	}()

	deadline := time.Now().Add(s.timeout)
	for time.Now().Before(deadline) {
		select {
		case err := <-s.done:
			cancel()
			if err == nil {
				err = errors.New("server exited before becoming ready")
			}
			return nil, err
		default:
		}

		resp, err := http.Get(baseURL + app.HealthPath)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return map[string]any{PropBaseURL: baseURL, PropPort: port}, nil
			}
		}
		time.Sleep(25 * time.Millisecond)
	}

	cancel()
	return nil, fmt.Errorf("server did not become ready within %s", s.timeout)
}

// Stop cancels the server and waits for it to exit.
func (s *ServerService) Stop() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	select {
	case err := <-s.done:
		return err
	case <-time.After(app.ShutdownTimeout + s.timeout):
		return errors.New("server did not stop")
	}
}
