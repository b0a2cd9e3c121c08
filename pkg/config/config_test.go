package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into an empty directory so no stray config.yaml or .env is read.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestBuildDefaults(t *testing.T) {
	chdir(t)
	cfg, err := Build("", nil)
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Workspace)
	assert.Equal(t, "bolt", cfg.Store.Driver)
	assert.Equal(t, "conciliar.db", cfg.Store.Path)
	assert.Equal(t, 30*time.Second, cfg.CommitTimeout)
	assert.Equal(t, log.InfoLevel, cfg.Level())
	assert.Contains(t, cfg.Columns.Description, "descricao")
}

func TestBuildPrecedence(t *testing.T) {
	dir := chdir(t)
	file := filepath.Join(dir, "conciliar.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
workspace: casa
store:
  driver: memory
commit_timeout: 10s
log_level: debug
columns:
  description: [lancamento]
`), 0o644))

	t.Setenv("CONCILIAR_WORKSPACE", "from-env")
	t.Setenv("CONCILIAR_COMMIT_TIMEOUT", "12s")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--workspace", "from-flag"}))

	cfg, err := Build(file, flags)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Workspace)
	assert.Equal(t, 12*time.Second, cfg.CommitTimeout)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, log.DebugLevel, cfg.Level())
	assert.Equal(t, []string{"lancamento"}, cfg.Columns.Description)
	assert.Equal(t, []string{"valor", "amount", "montante"}, cfg.Columns.Amount)
}

func TestBuildReadsDotEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CONCILIAR_STORE_DRIVER=memory\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CONCILIAR_STORE_DRIVER") })

	cfg, err := Build("", nil)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
}

func TestValidate(t *testing.T) {
	chdir(t)
	t.Setenv("CONCILIAR_STORE_DRIVER", "postgres")
	_, err := Build("", nil)
	assert.ErrorContains(t, err, "unknown store.driver")
}

func TestOpenLedger(t *testing.T) {
	dir := chdir(t)
	cfg := &Config{Store: StoreConfig{Driver: "bolt", Path: filepath.Join(dir, "l.db")}}
	ledger, closeFn, err := cfg.OpenLedger(log.New(io.Discard))
	require.NoError(t, err)
	require.NotNil(t, ledger)
	assert.NoError(t, closeFn())
	assert.FileExists(t, cfg.Store.Path)
}
