package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"budget/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("debug")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger = SetupLogger("nonsense")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("BUDGET_CLI_TEST_KEY=from-file\n"), 0o600))
	t.Setenv("BUDGET_CLI_TEST_KEY", "")
	os.Unsetenv("BUDGET_CLI_TEST_KEY")

	LoadEnvFile(path)
	assert.Equal(t, "from-file", os.Getenv("BUDGET_CLI_TEST_KEY"))

	// missing files are ignored
	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestConnectAMQPDisabled(t *testing.T) {
	assert.Nil(t, ConnectAMQP(SetupLogger("error"), &config.Config{}))
}
