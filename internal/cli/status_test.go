package cli

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnunamak/usagegauge/internal/api"
	"github.com/tnunamak/usagegauge/internal/credentials"
	"github.com/tnunamak/usagegauge/internal/display"
)

func TestStatusCmd_Plain(t *testing.T) {
	env := newTestEnv(t, true)

	out, _, err := env.run("status", "--plain")
	require.NoError(t, err)
	assert.Equal(t, "5h: 42% (no reset scheduled)  7d: 7% (no reset scheduled)\n", out)
}

func TestStatusCmd_JSON(t *testing.T) {
	env := newTestEnv(t, true)

	out, _, err := env.run("status", "--json")
	require.NoError(t, err)

	var got jsonOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 42.0, got.FiveHour.Utilization)
	assert.Equal(t, 7.4, got.SevenDay.Utilization)
	assert.Empty(t, got.FiveHour.ResetsAt)
	assert.False(t, got.FetchedAt.IsZero())
}

func TestStatusCmd_MissingCredentials(t *testing.T) {
	env := newTestEnv(t, false)

	_, _, err := env.run("status")
	require.Error(t, err)
	assert.ErrorIs(t, err, credentials.ErrNotFound)

	var ee *exitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 2, ee.code)
	assert.Contains(t, err.Error(), "sign in with Claude Code")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", credentials.ErrNotFound, 2},
		{"parse", credentials.ErrParse, 2},
		{"http", &api.HTTPError{Op: "usage fetch", StatusCode: 500}, 1},
		{"other", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ee *exitError
			require.True(t, errors.As(classify(tt.err), &ee))
			assert.Equal(t, tt.code, ee.code)
		})
	}
}

func TestPrintColor(t *testing.T) {
	v := display.View{
		FiveHour: display.Gauge{Label: "5h", Pct: 85, HasData: true, Reset: "Resets in 1h 30m"},
		SevenDay: display.Gauge{Label: "7d", Pct: 10, HasData: true, Reset: "Resets in 3d 3h"},
	}
	var b strings.Builder
	printColor(&b, v, 10)

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "\033[31m")
	assert.Contains(t, lines[0], "85%")
	assert.Contains(t, lines[0], "Resets in 1h 30m")
	assert.Contains(t, lines[1], "\033[32m")
	assert.True(t, strings.HasPrefix(lines[1], "            7d"))
}

func TestBarWidth(t *testing.T) {
	assert.Equal(t, 20, barWidth(160))
	assert.Equal(t, 10, barWidth(80))
	assert.Equal(t, 5, barWidth(0))
}
