// Package autostart registers the tray host to launch at login: an XDG
// autostart entry on Linux, a LaunchAgent on macOS.
package autostart

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

const label = "com.usagegauge.tray"

// Installer writes and removes the login item for Exec.
type Installer struct {
	GOOS string
	// Exec is the binary to launch; it is started with the "tray" argument.
	Exec string
	// ConfigDir and HomeDir default to os.UserConfigDir and os.UserHomeDir.
	ConfigDir string
	HomeDir   string
	// Run executes launchctl on macOS.
	Run func(name string, args ...string) error
}

// Default returns an installer for the running binary.
func Default() (*Installer, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, err
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Installer{
		GOOS:      runtime.GOOS,
		Exec:      exe,
		ConfigDir: configDir,
		HomeDir:   home,
		Run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}, nil
}

// Path is the file Install writes.
func (i *Installer) Path() (string, error) {
	switch i.GOOS {
	case "linux":
		return filepath.Join(i.ConfigDir, "autostart", "usagegauge.desktop"), nil
	case "darwin":
		return filepath.Join(i.HomeDir, "Library", "LaunchAgents", label+".plist"), nil
	default:
		return "", fmt.Errorf("autostart not supported on %s", i.GOOS)
	}
}

func (i *Installer) Install() error {
	path, err := i.Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	content := fmt.Sprintf(desktopEntry, i.Exec)
	if i.GOOS == "darwin" {
		content = fmt.Sprintf(launchAgentPlist, label, i.Exec)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return err
	}

	if i.GOOS == "darwin" && i.Run != nil {
		return i.Run("launchctl", "load", path)
	}
	return nil
}

// Uninstall removes the login item. Removing one that is not installed is
// not an error.
func (i *Installer) Uninstall() error {
	path, err := i.Path()
	if err != nil {
		return err
	}
	if i.GOOS == "darwin" && i.Run != nil {
		i.Run("launchctl", "unload", path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

const desktopEntry = `[Desktop Entry]
Type=Application
Name=Usage Gauge
Comment=Claude usage gauges
Exec=%s tray
Terminal=false
X-GNOME-Autostart-enabled=true
`

const launchAgentPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>%s</string>
    <key>ProgramArguments</key>
    <array>
        <string>%s</string>
        <string>tray</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
</dict>
</plist>
`
