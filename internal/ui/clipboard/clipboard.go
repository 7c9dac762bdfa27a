// Package clipboard copies panel selections to the system clipboard.
package clipboard

import (
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Copier is the interface for clipboard writes. Use System in production and
// a fake in tests.
type Copier interface {
	Copy(text string) error
}

// System writes to the real clipboard. SSH sessions have no reachable native
// clipboard tool, so they go through the OSC 52 terminal escape; everything
// else pipes to the platform tool.
type System struct{}

// Copy implements Copier.
func (System) Copy(text string) error {
	if remoteSession() {
		return writeOSC52(text)
	}
	return writeNative(text)
}

func remoteSession() bool {
	return os.Getenv("SSH_TTY") != "" || os.Getenv("SSH_CONNECTION") != ""
}

// writeOSC52 emits an OSC 52 sequence directly to the terminal. It writes to
// /dev/tty rather than stdout so it still lands while the alt screen is up.
func writeOSC52(text string) error {
	payload := base64.StdEncoding.EncodeToString([]byte(text))
	seq := "\x1b]52;c;" + payload + "\x07"
	if os.Getenv("TMUX") != "" {
		// tmux swallows raw OSC sequences; wrap in a DCS passthrough.
		seq = "\x1bPtmux;" + strings.ReplaceAll(seq, "\x1b", "\x1b\x1b") + "\x1b\\"
	}

	tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open /dev/tty: %w", err)
	}
	_, werr := tty.WriteString(seq)
	if cerr := tty.Close(); werr == nil {
		werr = cerr
	}
	return werr
}

func writeNative(text string) error {
	name, args := "xclip", []string{"-selection", "clipboard"}
	if runtime.GOOS == "darwin" {
		name, args = "pbcopy", nil
	}
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
