package autostart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstaller_Linux(t *testing.T) {
	dir := t.TempDir()
	i := &Installer{GOOS: "linux", Exec: "/usr/local/bin/usagegauge", ConfigDir: dir}

	require.NoError(t, i.Install())

	path := filepath.Join(dir, "autostart", "usagegauge.desktop")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Exec=/usr/local/bin/usagegauge tray")

	require.NoError(t, i.Uninstall())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, i.Uninstall(), "uninstalling twice is fine")
}

func TestInstaller_Darwin(t *testing.T) {
	home := t.TempDir()
	var calls [][]string
	i := &Installer{
		GOOS:    "darwin",
		Exec:    "/Applications/usagegauge",
		HomeDir: home,
		Run: func(name string, args ...string) error {
			calls = append(calls, append([]string{name}, args...))
			return nil
		},
	}

	require.NoError(t, i.Install())

	path := filepath.Join(home, "Library", "LaunchAgents", "com.usagegauge.tray.plist")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<string>/Applications/usagegauge</string>")
	assert.Contains(t, string(data), "<string>com.usagegauge.tray</string>")

	require.NoError(t, i.Uninstall())
	assert.Equal(t, [][]string{
		{"launchctl", "load", path},
		{"launchctl", "unload", path},
	}, calls)
}

func TestInstaller_Unsupported(t *testing.T) {
	i := &Installer{GOOS: "plan9"}
	assert.Error(t, i.Install())
	assert.Error(t, i.Uninstall())
}
