//go:build !linux

package platform

func hasNetAdmin() (bool, error) { return false, ErrUnsupported }

func wireguardModuleLoaded() bool { return false }

func probeLink() error { return ErrUnsupported }
