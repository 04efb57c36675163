package collect

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// ErrDriverNotFound means no browser executable could be located. It is fatal for a run.
var ErrDriverNotFound = errors.New("browser driver not found")

// driverNames are looked up on PATH when no driver path is configured.
var driverNames = []string{
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"chrome",
}

// ResolveDriver returns the browser executable to automate: the configured
// path when set, otherwise the first known browser found on PATH.
func ResolveDriver(configured string) (string, error) {
	if configured != "" {
		info, err := os.Stat(configured)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrDriverNotFound, configured, err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%w: %s is a directory", ErrDriverNotFound, configured)
		}
		return configured, nil
	}

	for _, name := range driverNames {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w: none of %v on PATH", ErrDriverNotFound, driverNames)
}
