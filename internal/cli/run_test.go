package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hostbridge/internal/executor"
	"github.com/roach88/hostbridge/internal/testutil"
)

// executeRun runs the run command with a private runtime and sequential ids.
func executeRun(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	rt, err := executor.New(16)
	require.NoError(t, err)
	t.Cleanup(rt.Stop)

	buf := &bytes.Buffer{}
	cmd := newRunCommand(&RunOptions{
		RootOptions: &RootOptions{Format: format},
		Runtime:     rt,
		IDGenerator: testutil.NewSequenceGenerator("id"),
	})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return buf.String(), err
}

func TestRun_PipelineGolden(t *testing.T) {
	dbPath := testutil.DatabasePath(t)

	out, err := executeRun(t, "text", "--db", dbPath, "testdata/scripts/pipeline.lua")
	require.NoError(t, err)

	newGoldie(t).Assert(t, "run_pipeline", []byte(out))

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database should be created")
}

func TestRun_JSONFormat(t *testing.T) {
	dbPath := testutil.DatabasePath(t)

	out, err := executeRun(t, "json", "--db", dbPath, "testdata/scripts/pipeline.lua")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "upserted\t3", lines[0])

	var resp struct {
		Status string            `json:"status"`
		Data   map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "testdata/scripts/pipeline.lua", resp.Data["script"])
	assert.Equal(t, dbPath, resp.Data["database"])
}

func TestRun_DatabaseFromEnvironment(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("HOSTBRIDGE_DATABASE", dbPath)

	out, err := executeRun(t, "json", "testdata/scripts/pipeline.lua")
	require.NoError(t, err)
	assert.Contains(t, out, `"database":"`+dbPath+`"`)

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestRun_MissingScript(t *testing.T) {
	out, err := executeRun(t, "text", "--db", testutil.DatabasePath(t), "testdata/scripts/missing.lua")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeNotFound+"]")
}

func TestRun_ScriptError(t *testing.T) {
	out, err := executeRun(t, "text", "--db", testutil.DatabasePath(t), "testdata/scripts/fail.lua")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeScriptFailed+"]")
	assert.Contains(t, out, "INVALID_DOCUMENT")
}

func TestRun_InvalidLogLevel(t *testing.T) {
	t.Setenv("HOSTBRIDGE_LOG_LEVEL", "loud")

	out, err := executeRun(t, "text", "--db", testutil.DatabasePath(t), "testdata/scripts/pipeline.lua")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeSettings+"]")
}

func TestRun_RequiresScriptArg(t *testing.T) {
	_, err := executeRun(t, "text")
	require.Error(t, err)
}

func TestRunHelpText(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "hostbridge module")
	assert.Contains(t, output, "--db")
}
