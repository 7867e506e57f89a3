// ABOUTME: Capability interface for host desktop features
// ABOUTME: Core code calls the bridge instead of probing for a desktop environment
package desktop

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// Bridge exposes what the host environment can do for the app.
type Bridge interface {
	// OpenURL shows url to the user, normally in the default browser.
	OpenURL(url string) error
	// Notify shows a short desktop notification.
	Notify(title, body string) error
	// IsDesktop reports whether a graphical session is available.
	IsDesktop() bool
}

// NoopBridge is used in headless and server contexts. URLs are printed so the
// user can open them by hand.
type NoopBridge struct {
	Out io.Writer
}

func (b NoopBridge) OpenURL(url string) error {
	var out io.Writer = os.Stderr
	if b.Out != nil {
		out = b.Out
	}
	_, err := fmt.Fprintf(out, "Open this URL in your browser:\n%s\n", url)
	return err
}

func (NoopBridge) Notify(string, string) error { return nil }

func (NoopBridge) IsDesktop() bool { return false }

// SystemBridge drives the host OS with its standard opener commands.
type SystemBridge struct {
	// run starts a command; replaced in tests.
	run func(name string, args ...string) error
}

// NewSystemBridge returns a bridge that shells out to open, start or xdg-open.
func NewSystemBridge() *SystemBridge {
	return &SystemBridge{run: startCommand}
}

func startCommand(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// OpenURL attempts to open url in the default browser.
func (b *SystemBridge) OpenURL(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	return b.run(cmd, args...)
}

// Notify uses osascript on macOS and notify-send elsewhere.
func (b *SystemBridge) Notify(title, body string) error {
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", body, title)
		return b.run("osascript", "-e", script)
	case "windows":
		return nil
	default:
		return b.run("notify-send", title, body)
	}
}

// IsDesktop reports whether a display server is reachable.
func (b *SystemBridge) IsDesktop() bool {
	switch runtime.GOOS {
	case "darwin", "windows":
		return true
	}
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// Detect returns a SystemBridge when a desktop session is available and a
// NoopBridge otherwise. It is meant for main; core code receives the result.
func Detect() Bridge {
	b := NewSystemBridge()
	if b.IsDesktop() {
		return b
	}
	return NoopBridge{}
}
