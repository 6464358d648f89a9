package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func clearPathEnv(t *testing.T) {
	t.Helper()
	for _, env := range pathEnv {
		t.Setenv(env, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)
	clearPathEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 1, cfg.Characterize.Workers)
	assert.Equal(t, 1, cfg.Characterize.Attempts)
	assert.Equal(t, "utf-8", cfg.Output.Encoding)
	assert.Empty(t, cfg.Ledger.Path)
	assert.Empty(t, cfg.Paths.FITS)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)
	clearPathEnv(t)

	yaml := `
paths:
  fits: /opt/fits/fits.sh
  nara: /ref/nara.csv
log:
  level: debug
  format: console
characterize:
  workers: 4
  attempts: 3
output:
  encoding: windows-1252
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/opt/fits/fits.sh", cfg.Paths.FITS)
	assert.Equal(t, "/ref/nara.csv", cfg.Paths.NARA)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 4, cfg.Characterize.Workers)
	assert.Equal(t, 3, cfg.Characterize.Attempts)
	assert.Equal(t, "windows-1252", cfg.Output.Encoding)
	// Defaults still apply for unset values
	assert.Empty(t, cfg.Ledger.Path)
}

func TestLoadPathsFromBareEnv(t *testing.T) {
	chdirTemp(t)

	t.Setenv("FITS", "/opt/fits/fits.sh")
	t.Setenv("ITA", "/ref/ita.csv")
	t.Setenv("RISK", "/ref/risk.csv")
	t.Setenv("NARA", "/ref/nara.csv")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, PathsConfig{
		FITS: "/opt/fits/fits.sh",
		ITA:  "/ref/ita.csv",
		Risk: "/ref/risk.csv",
		NARA: "/ref/nara.csv",
	}, cfg.Paths)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	clearPathEnv(t)

	yaml := `
paths:
  ita: /ref/from-file.csv
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("ITA", "/ref/from-env.csv")
	t.Setenv("FORMAT_ANALYSIS_LOG_LEVEL", "warn")
	t.Setenv("FORMAT_ANALYSIS_LEDGER_PATH", "/var/lib/ledger.db")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "/ref/from-env.csv", cfg.Paths.ITA)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/var/lib/ledger.db", cfg.Ledger.Path)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("paths: [unclosed"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validConfig returns a Config whose reference paths exist.
func validConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	touch := func(name string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		return p
	}
	return &Config{
		Paths: PathsConfig{
			FITS: touch("fits.sh"),
			ITA:  touch("ita.csv"),
			Risk: touch("risk.csv"),
			NARA: touch("nara.csv"),
		},
		Characterize: CharacterizeConfig{Workers: 1, Attempts: 1},
		Output:       OutputConfig{Encoding: "utf-8"},
	}
}

func TestValidate_AllPresent(t *testing.T) {
	assert.NoError(t, validConfig(t).Validate())
}

func TestValidate_ReportsEveryDeficiency(t *testing.T) {
	cfg := validConfig(t)
	cfg.Paths.FITS = ""
	cfg.Paths.ITA = filepath.Join(t.TempDir(), "missing.csv")
	cfg.Paths.NARA = t.TempDir()
	cfg.Characterize.Workers = 0
	cfg.Output.Encoding = "klingon"

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Len(t, multierr.Errors(err), 5)
	assert.Contains(t, err.Error(), "FITS is not set")
	assert.Contains(t, err.Error(), "ITA path")
	assert.Contains(t, err.Error(), "NARA path")
	assert.Contains(t, err.Error(), "is a directory")
	assert.Contains(t, err.Error(), "characterize.workers")
	assert.Contains(t, err.Error(), "output.encoding")
}
