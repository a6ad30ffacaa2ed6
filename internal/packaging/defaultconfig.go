package packaging

import (
	"fmt"
	"path/filepath"
)

// GenerateDefaultConfig produces the config.yaml written on first install.
// Only paths and the interface name are set; everything else is left to
// the daemon's defaults and listed as comments.
func GenerateDefaultConfig(cfg InstallConfig) string {
	cfg.ApplyDefaults()

	return fmt.Sprintf(`# wgsession daemon configuration
# Every key can be overridden with a WGSESSION_* environment variable,
# e.g. WGSESSION_WIREGUARD_ROUTE_TABLE=200.

log_level: info
data_dir: %s

wireguard:
  interface_name: %s
  # route_table: 51820
  # rule_priority: 31000

metrics:
  counter_source: system   # or "interface"
  prometheus: true

ctl:
  socket_path: %s
  # group: wgsession

notify:
  indicator: both          # file, log or both
  # status_file: %s

# session:
#   queue_size: 8
#   stop_timeout: 10s
#   op_timeout: 30s
`, cfg.DataDir, cfg.InterfaceName, filepath.Join(cfg.RunDir, "ctl.sock"), filepath.Join(cfg.DataDir, "status.json"))
}
