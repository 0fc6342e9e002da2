package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// env builds a LookupEnv over a fixed map.
func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func isolated(vars map[string]string) Loader {
	return Loader{EnvFile: filepath.Join("testdata", "absent.env"), LookupEnv: env(vars)}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := isolated(nil).Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "recordstore.db", cfg.Database.Path)
	assert.Len(t, cfg.Database.StoreOptions(), 1)
}

func TestLoad_File(t *testing.T) {
	cfg, err := isolated(nil).Load(filepath.Join("testdata", "recordstore.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "school.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Second, cfg.Database.BusyTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 6, cfg.Security.BcryptCost)

	level, err := cfg.Logging.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_FileErrors(t *testing.T) {
	_, err := isolated(nil).Load(filepath.Join("testdata", "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = isolated(nil).Load(filepath.Join("testdata", "typo.yaml"))
	assert.ErrorContains(t, err, "busy_timout")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	cfg, err := isolated(map[string]string{
		EnvDB:         "/tmp/other.db",
		EnvLogLevel:   "WARN",
		EnvLogFormat:  "text",
		EnvBcryptCost: "4",
	}).Load(filepath.Join("testdata", "recordstore.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 4, cfg.Security.BcryptCost)
	assert.Equal(t, 2*time.Second, cfg.Database.BusyTimeout, "unset variables leave the file value")
}

func TestLoad_Dotenv(t *testing.T) {
	l := Loader{EnvFile: filepath.Join("testdata", "dotenv"), LookupEnv: env(nil)}
	cfg, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.db", cfg.Database.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// The process environment wins over the dotenv file.
	l.LookupEnv = env(map[string]string{EnvDB: "from-env.db"})
	cfg, err = l.Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Database.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]struct {
		vars map[string]string
		want string
	}{
		"empty path":      {map[string]string{EnvDB: ""}, "database.path is required"},
		"unknown level":   {map[string]string{EnvLogLevel: "loud"}, "logging.level"},
		"unknown format":  {map[string]string{EnvLogFormat: "xml"}, "logging.format"},
		"cost not number": {map[string]string{EnvBcryptCost: "high"}, EnvBcryptCost},
		"cost too low":    {map[string]string{EnvBcryptCost: "2"}, "security.bcrypt_cost"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := isolated(tt.vars).Load("")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
