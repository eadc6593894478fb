package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tnunamak/usagegauge/internal/api"
	"github.com/tnunamak/usagegauge/internal/config"
)

const testUsage = `{"five_hour": {"utilization": 42, "resets_at": null}, "seven_day": {"utilization": 7.4, "resets_at": null}}`

// testEnv is a settings file pointing at a credentials file, plus a fake
// usage endpoint.
type testEnv struct {
	settingsPath string
	credsPath    string
	srv          *httptest.Server
}

func newTestEnv(t *testing.T, writeCreds bool) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		settingsPath: filepath.Join(dir, "usagegauge.yaml"),
		credsPath:    filepath.Join(dir, ".credentials.json"),
	}

	s := config.Default()
	s.CredentialsPath = env.credsPath
	require.NoError(t, s.Save(env.settingsPath))

	if writeCreds {
		expires := time.Now().Add(time.Hour).UnixMilli()
		doc := fmt.Sprintf(`{"claudeAiOauth": {"accessToken": "tok", "refreshToken": "ref", "expiresAt": %d}}`, expires)
		require.NoError(t, os.WriteFile(env.credsPath, []byte(doc), 0600))
	}

	env.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testUsage))
	}))
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) options() *globalOptions {
	return &globalOptions{
		clientOpts: []api.Option{api.WithUsageURL(e.srv.URL)},
	}
}

// run executes the command tree with args and returns stdout and stderr.
func (e *testEnv) run(args ...string) (string, string, error) {
	cmd := newRootCmd(e.options())
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(bytes.NewReader(nil))
	cmd.SetArgs(append(args, "--config", e.settingsPath))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
