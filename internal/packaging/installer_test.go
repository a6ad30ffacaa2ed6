package packaging

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

type mockSystemdController struct {
	available       bool
	active          bool
	daemonReloadErr error
	startErr        error
	stopErr         error

	calls []string
}

func (m *mockSystemdController) IsAvailable() bool      { return m.available }
func (m *mockSystemdController) IsActive(_ string) bool { return m.active }

func (m *mockSystemdController) DaemonReload() error {
	m.calls = append(m.calls, "daemon-reload")
	return m.daemonReloadErr
}

func (m *mockSystemdController) Enable(service string) error {
	m.calls = append(m.calls, "enable "+service)
	return nil
}

func (m *mockSystemdController) Disable(service string) error {
	m.calls = append(m.calls, "disable "+service)
	return nil
}

func (m *mockSystemdController) Start(service string) error {
	m.calls = append(m.calls, "start "+service)
	return m.startErr
}

func (m *mockSystemdController) Stop(service string) error {
	m.calls = append(m.calls, "stop "+service)
	return m.stopErr
}

type mockRootChecker struct {
	isRoot bool
}

func (m *mockRootChecker) IsRoot() bool { return m.isRoot }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestInstaller creates an Installer with every path under t.TempDir().
func newTestInstaller(t *testing.T, cfg InstallConfig, systemd *mockSystemdController, root *mockRootChecker) (*Installer, InstallConfig) {
	t.Helper()
	tmpDir := t.TempDir()
	cfg.BinaryPath = filepath.Join(tmpDir, "usr", "local", "bin", "wgsession")
	cfg.ConfigDir = filepath.Join(tmpDir, "etc", "wgsession")
	cfg.DataDir = filepath.Join(tmpDir, "var", "lib", "wgsession")
	cfg.RunDir = filepath.Join(tmpDir, "var", "run", "wgsession")
	cfg.UnitFilePath = filepath.Join(tmpDir, "etc", "systemd", "system", "wgsession.service")
	cfg.ApplyDefaults()
	return NewInstaller(cfg, systemd, root, testLogger()), cfg
}

func TestInstall_RejectsNonRoot(t *testing.T) {
	ins, cfg := newTestInstaller(t, InstallConfig{}, &mockSystemdController{available: true}, &mockRootChecker{})

	err := ins.Install()
	if err == nil || !strings.Contains(err.Error(), "root privileges") {
		t.Fatalf("Install() = %v, want root privileges error", err)
	}
	if _, err := os.Stat(cfg.ConfigDir); !errors.Is(err, os.ErrNotExist) {
		t.Error("config dir created despite missing privileges")
	}
}

func TestInstall_RejectsNoSystemd(t *testing.T) {
	ins, _ := newTestInstaller(t, InstallConfig{}, &mockSystemdController{}, &mockRootChecker{isRoot: true})

	if err := ins.Install(); err == nil || !strings.Contains(err.Error(), "systemd") {
		t.Fatalf("Install() = %v, want systemd error", err)
	}
}

func TestInstall_WritesFiles(t *testing.T) {
	systemd := &mockSystemdController{available: true}
	ins, cfg := newTestInstaller(t, InstallConfig{InterfaceName: "wgtest"}, systemd, &mockRootChecker{isRoot: true})

	if err := ins.Install(); err != nil {
		t.Fatalf("Install() = %v", err)
	}

	for _, dir := range []string{cfg.ConfigDir, cfg.DataDir, cfg.RunDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("directory %s missing: %v", dir, err)
		}
	}
	if info, err := os.Stat(cfg.BinaryPath); err != nil || info.Mode().Perm()&0o100 == 0 {
		t.Errorf("binary %s missing or not executable: %v", cfg.BinaryPath, err)
	}

	config, err := os.ReadFile(filepath.Join(cfg.ConfigDir, "config.yaml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(config), "interface_name: wgtest") {
		t.Errorf("config missing interface name:\n%s", config)
	}

	unit, err := os.ReadFile(cfg.UnitFilePath)
	if err != nil {
		t.Fatalf("read unit file: %v", err)
	}
	if !strings.Contains(string(unit), cfg.BinaryPath+" up --config") {
		t.Errorf("unit file ExecStart wrong:\n%s", unit)
	}

	if !slices.Equal(systemd.calls, []string{"daemon-reload"}) {
		t.Errorf("systemd calls = %v, want [daemon-reload]", systemd.calls)
	}
}

func TestInstall_PreservesExistingConfig(t *testing.T) {
	ins, cfg := newTestInstaller(t, InstallConfig{}, &mockSystemdController{available: true}, &mockRootChecker{isRoot: true})

	path := filepath.Join(cfg.ConfigDir, "config.yaml")
	if err := os.MkdirAll(cfg.ConfigDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("log_level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ins.Install(); err != nil {
		t.Fatalf("Install() = %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "log_level: debug\n" {
		t.Errorf("existing config overwritten: %q", data)
	}
}

func TestInstall_StartsService(t *testing.T) {
	systemd := &mockSystemdController{available: true}
	ins, _ := newTestInstaller(t, InstallConfig{Start: true}, systemd, &mockRootChecker{isRoot: true})

	if err := ins.Install(); err != nil {
		t.Fatalf("Install() = %v", err)
	}
	want := []string{"daemon-reload", "enable wgsession", "start wgsession"}
	if !slices.Equal(systemd.calls, want) {
		t.Errorf("systemd calls = %v, want %v", systemd.calls, want)
	}
}

func TestInstall_StartFailure(t *testing.T) {
	systemd := &mockSystemdController{available: true, startErr: errors.New("unit failed")}
	ins, _ := newTestInstaller(t, InstallConfig{Start: true}, systemd, &mockRootChecker{isRoot: true})

	if err := ins.Install(); err == nil {
		t.Fatal("Install() = nil, want start error")
	}
}

func TestUninstall_NotInstalled(t *testing.T) {
	systemd := &mockSystemdController{available: true}
	ins, _ := newTestInstaller(t, InstallConfig{}, systemd, &mockRootChecker{isRoot: true})

	if err := ins.Uninstall(false); err != nil {
		t.Fatalf("Uninstall() = %v", err)
	}
	if len(systemd.calls) != 0 {
		t.Errorf("systemd calls = %v, want none", systemd.calls)
	}
}

func TestUninstall_RemovesService(t *testing.T) {
	systemd := &mockSystemdController{available: true, stopErr: errors.New("not running")}
	ins, cfg := newTestInstaller(t, InstallConfig{}, systemd, &mockRootChecker{isRoot: true})
	if err := ins.Install(); err != nil {
		t.Fatalf("Install() = %v", err)
	}
	systemd.calls = nil

	if err := ins.Uninstall(true); err != nil {
		t.Fatalf("Uninstall() = %v", err)
	}

	want := []string{"stop wgsession", "disable wgsession", "daemon-reload"}
	if !slices.Equal(systemd.calls, want) {
		t.Errorf("systemd calls = %v, want %v", systemd.calls, want)
	}
	for _, path := range []string{cfg.UnitFilePath, cfg.BinaryPath, cfg.DataDir, cfg.ConfigDir} {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s still present", path)
		}
	}
}

func TestUninstall_KeepsDataWithoutPurge(t *testing.T) {
	ins, cfg := newTestInstaller(t, InstallConfig{}, &mockSystemdController{available: true}, &mockRootChecker{isRoot: true})
	if err := ins.Install(); err != nil {
		t.Fatalf("Install() = %v", err)
	}
	if err := ins.Uninstall(false); err != nil {
		t.Fatalf("Uninstall() = %v", err)
	}
	if _, err := os.Stat(cfg.ConfigDir); err != nil {
		t.Errorf("config dir removed without purge: %v", err)
	}
}

func TestInstallConfig_Validate(t *testing.T) {
	var cfg InstallConfig
	if err := cfg.Validate(); err == nil {
		t.Error("empty config validated")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaulted config rejected: %v", err)
	}
}
