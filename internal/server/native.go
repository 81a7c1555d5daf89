package server

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/creack/pty"

	"github.com/comfyops/comfydock/internal/logger"
)

// RunNative starts a ComfyUI server as a local subprocess instead of a
// container, for hosts that already carry a working comfy-cli install.
//
// The subprocess runs under a pseudo-terminal so comfy-cli keeps its native
// progress output, which it suppresses when stdout is a pipe. Output is
// forwarded to this process's stdout; the call blocks until the subprocess
// exits.
//
// Parameters:
//   - command: The launch command, e.g. from builder.LaunchCommand
//
// Returns:
//   - nil if the subprocess exits cleanly
//   - Error if it cannot be started or exits with a failure
func RunNative(command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("native launch requires a command")
	}

	logger.Info("Launching natively: %v", command)
	cmd := exec.Command(command[0], command[1:]...)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("failed to start %s with pty: %w", command[0], err)
	}
	defer ptmx.Close()

	// The pty read returns an error when the subprocess exits; the exit
	// status itself comes from Wait below.
	if _, err := io.Copy(os.Stdout, ptmx); err != nil {
		logger.Debug("pty stream ended: %v", err)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s exited with failure: %w", command[0], err)
	}
	return nil
}
