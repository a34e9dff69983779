package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var currentOS = func() string { return runtime.GOOS }

// OpenBrowser launches the default system browser at url. Supported on
// macOS, Linux, and Windows.
func OpenBrowser(url string) error {
	var name string
	var args []string

	switch os := currentOS(); os {
	case "darwin":
		name = "open"
	case "linux":
		name = "xdg-open"
	case "windows":
		name, args = "cmd", []string{"/c", "start"}
	default:
		return fmt.Errorf("unsupported platform: %s", os)
	}

	if err := exec.Command(name, append(args, url)...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
