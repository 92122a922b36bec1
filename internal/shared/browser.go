package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// goos is swapped out in tests to exercise platform dispatch.
var goos = func() string { return runtime.GOOS }

// OpenBrowser launches the default browser at url so the user can complete
// the authorization flow without copying the link by hand. Supported on
// macOS, Linux, and Windows.
func OpenBrowser(url string) error {
	var name string
	var args []string

	switch platform := goos(); platform {
	case "darwin":
		name = "open"
	case "linux":
		name = "xdg-open"
	case "windows":
		name, args = "cmd", []string{"/c", "start"}
	default:
		return fmt.Errorf("%w: no browser launcher for %s", ErrServiceUnavailable, platform)
	}

	if err := exec.Command(name, append(args, url)...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
