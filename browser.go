package main

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openBrowser opens url with the platform's default handler and does not
// wait for it to exit.
func openBrowser(url string) error {
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
		return fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}
	go cmd.Wait() //nolint:errcheck
	return nil
}
