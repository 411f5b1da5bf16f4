package ui

import (
	"fmt"
	"os/exec"
	"runtime"
)

// OpenURL launches the system browser for a node's navigation URL.
func OpenURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	// Don't wait; the browser outlives us.
	go cmd.Wait()
	return nil
}
