package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	require.NotNil(t, cmd)
	assert.Equal(t, "usagegauge", cmd.Use)
	assert.Equal(t, Version, cmd.Version)
}

func TestRootCmdSubcommands(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	subCmds := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subCmds[sub.Name()] = true
	}

	for _, name := range []string{"status", "watch", "tray", "config"} {
		assert.True(t, subCmds[name], "root should have subcommand %q", name)
	}
}

func TestRootCmdVersionFlag(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "usagegauge "+Version+"\n", buf.String())
}

func TestRootCmdDefaultsToStatus(t *testing.T) {
	env := newTestEnv(t, true)

	out, _, err := env.run()
	require.NoError(t, err)
	assert.Equal(t, "5h: 42% (no reset scheduled)  7d: 7% (no reset scheduled)\n", out)
}

func TestRootCmdUnknownCommand(t *testing.T) {
	env := newTestEnv(t, true)

	_, _, err := env.run("bogus")
	assert.Error(t, err)
}
