package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--env-only", "--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func setEnv(t *testing.T) {
	t.Setenv("TJ_DB_DRIVER", "sqlite")
	t.Setenv("TJ_DB_DSN", filepath.Join(t.TempDir(), "journal.db"))
	t.Setenv("TJ_DB_LOG_LEVEL", "silent")
	t.Setenv("TJ_AUTH_JWT_SECRET", "test")
	t.Setenv("TJ_LOG_LEVEL", "error")
}

func TestInstrumentsCommands(t *testing.T) {
	setEnv(t)

	out, err := run(t, "instruments", "add", "XAUUSD", "DAX")
	require.NoError(t, err)
	assert.Contains(t, out, "added 2 of 2")

	out, err = run(t, "instruments", "add", "DAX", "BTC")
	require.NoError(t, err)
	assert.Contains(t, out, "added 1 of 2")

	out, err = run(t, "instruments", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], "\tXAUUSD"))
	assert.True(t, strings.HasSuffix(lines[2], "\tBTC"))
}

func TestUsersCommandsRejectUnknownUser(t *testing.T) {
	setEnv(t)

	_, err := run(t, "migrate")
	require.NoError(t, err)

	_, err = run(t, "users", "seed-biases", "42")
	assert.ErrorContains(t, err, "not found")
	_, err = run(t, "users", "delete", "42")
	assert.ErrorContains(t, err, "not found")
	_, err = run(t, "users", "delete", "abc")
	assert.ErrorContains(t, err, "invalid user id")
}

func TestParseUserID(t *testing.T) {
	id, err := parseUserID("7")
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)

	for _, bad := range []string{"0", "-1", "x"} {
		_, err := parseUserID(bad)
		assert.Error(t, err, bad)
	}
}
