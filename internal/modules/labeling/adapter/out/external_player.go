package out

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	labelingout "carepanion/internal/modules/labeling/port/out"
)

// ExternalPlayer hands the clip URL to the desktop opener. command, when
// set, replaces the platform default.
type ExternalPlayer struct {
	command string
}

func NewExternalPlayer(command string) labelingout.Player {
	return &ExternalPlayer{command: command}
}

func (p *ExternalPlayer) Play(_ context.Context, url string) error {
	name := p.command
	if name == "" {
		switch runtime.GOOS {
		case "darwin":
			name = "open"
		case "linux", "freebsd", "openbsd":
			name = "xdg-open"
		default:
			return fmt.Errorf("audio playback is not supported on %s", runtime.GOOS)
		}
	}
	cmd := exec.Command(name, url)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start audio player: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
