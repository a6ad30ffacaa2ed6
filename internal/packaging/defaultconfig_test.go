package packaging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/plexsphere/wgsession/internal/agent"
)

func TestGenerateDefaultConfig_Parses(t *testing.T) {
	dir := t.TempDir()
	content := GenerateDefaultConfig(InstallConfig{
		DataDir:       filepath.Join(dir, "data"),
		RunDir:        filepath.Join(dir, "run"),
		InterfaceName: "wgtest",
	})
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := agent.ParseConfig(path, false)
	if err != nil {
		t.Fatalf("ParseConfig: %v\n%s", err, content)
	}
	if cfg.WireGuard.InterfaceName != "wgtest" {
		t.Errorf("InterfaceName = %q, want wgtest", cfg.WireGuard.InterfaceName)
	}
	if want := filepath.Join(dir, "run", "ctl.sock"); cfg.Ctl.SocketPath != want {
		t.Errorf("SocketPath = %q, want %q", cfg.Ctl.SocketPath, want)
	}
	if want := filepath.Join(dir, "data", "status.json"); cfg.Notify.StatusFile != want {
		t.Errorf("StatusFile = %q, want %q", cfg.Notify.StatusFile, want)
	}
	if !cfg.Metrics.Prometheus {
		t.Error("Prometheus disabled in default config")
	}
}

func TestGenerateDefaultConfig_AvoidsWgQuickInterface(t *testing.T) {
	content := GenerateDefaultConfig(InstallConfig{})
	if !strings.Contains(content, "interface_name: wgs0\n") {
		t.Errorf("default config does not use wgs0:\n%s", content)
	}
	if strings.Contains(content, "interface_name: wg0\n") {
		t.Errorf("default config claims wg-quick's wg0:\n%s", content)
	}
}
