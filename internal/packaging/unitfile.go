package packaging

import (
	"fmt"
	"path/filepath"
)

// GenerateUnitFile produces a complete systemd unit file for the wgsession service.
// It calls cfg.ApplyDefaults() to fill in zero-valued fields before generating the output.
func GenerateUnitFile(cfg InstallConfig) string {
	cfg.ApplyDefaults()

	configPath := filepath.Join(cfg.ConfigDir, "config.yaml")
	envPath := filepath.Join(cfg.ConfigDir, "environment")

	return fmt.Sprintf(`[Unit]
Description=wgsession WireGuard tunnel session daemon
After=network-online.target
Wants=network-online.target
StartLimitBurst=5
StartLimitIntervalSec=60

[Service]
Type=simple
ExecStart=%s up --config %s
Restart=on-failure
RestartSec=5s
TimeoutStopSec=30s
EnvironmentFile=-%s
AmbientCapabilities=CAP_NET_ADMIN
CapabilityBoundingSet=CAP_NET_ADMIN CAP_CHOWN
ProtectSystem=full
ProtectHome=read-only
ReadWritePaths=%s %s

[Install]
WantedBy=multi-user.target
`, cfg.BinaryPath, configPath, envPath, cfg.DataDir, cfg.RunDir)
}
