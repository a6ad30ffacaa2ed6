package packaging

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// systemctl implements SystemdController by running the systemctl binary.
type systemctl struct{}

// NewSystemdController returns a SystemdController that calls the real systemctl binary.
func NewSystemdController() SystemdController {
	return systemctl{}
}

func (systemctl) IsAvailable() bool {
	_, err := exec.LookPath("systemctl")
	return err == nil
}

func (c systemctl) DaemonReload() error         { return c.run("daemon-reload") }
func (c systemctl) Enable(service string) error  { return c.run("enable", service) }
func (c systemctl) Disable(service string) error { return c.run("disable", service) }
func (c systemctl) Start(service string) error   { return c.run("start", service) }
func (c systemctl) Stop(service string) error    { return c.run("stop", service) }

func (systemctl) IsActive(service string) bool {
	return exec.Command("systemctl", "is-active", "--quiet", service).Run() == nil
}

func (systemctl) run(args ...string) error {
	output, err := exec.Command("systemctl", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("packaging: systemctl %s: %s: %w", args[0], strings.TrimSpace(string(output)), err)
	}
	return nil
}

type euidChecker struct{}

// NewRootChecker returns a RootChecker that checks the effective UID.
func NewRootChecker() RootChecker {
	return euidChecker{}
}

func (euidChecker) IsRoot() bool {
	return os.Geteuid() == 0
}
