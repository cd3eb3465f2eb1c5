package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := parseConfig(env(nil))
	require.NoError(t, err)

	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 20, cfg.CacheCapacity)
	assert.Equal(t, 4, cfg.BucketSize)
	assert.Zero(t, cfg.IOLimit)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfig(env(map[string]string{
		"GISDB_LOG_LEVEL":        "debug",
		"GISDB_LOG_FORMAT":       "JSON",
		"GISDB_CACHE_CAPACITY":   "50",
		"GISDB_BUCKET_SIZE":      "8",
		"GISDB_IO_LIMIT":         "1048576",
		"GISDB_METRICS_ADDR":     ":2112",
		"GISDB_MINIO_ENDPOINT":   "localhost:9000",
		"GISDB_MINIO_BUCKET":     "gis",
		"GISDB_MINIO_SECURE":     "true",
		"GISDB_S3_PREFIX":        "va/",
		"GISDB_MINIO_ACCESS_KEY": "key",
	}))
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 50, cfg.CacheCapacity)
	assert.Equal(t, 8, cfg.BucketSize)
	assert.Equal(t, int64(1048576), cfg.IOLimit)
	assert.Equal(t, ":2112", cfg.MetricsAddr)
	assert.Equal(t, "localhost:9000", cfg.MinioEndpoint)
	assert.Equal(t, "gis", cfg.MinioBucket)
	assert.True(t, cfg.MinioSecure)
	assert.Equal(t, "va/", cfg.S3Prefix)
	assert.Equal(t, "key", cfg.MinioAccessKey)
}

func TestParseConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"GISDB_LOG_LEVEL":      "loud",
		"GISDB_LOG_FORMAT":     "xml",
		"GISDB_CACHE_CAPACITY": "0",
		"GISDB_BUCKET_SIZE":    "four",
		"GISDB_IO_LIMIT":       "-1",
		"GISDB_MINIO_SECURE":   "maybe",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			_, err := parseConfig(env(map[string]string{key: val}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadConfig_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GISDB_BUCKET_SIZE=6\nGISDB_CACHE_CAPACITY=30\n"), 0o644))

	// Values in the environment win over the file.
	t.Setenv("GISDB_CACHE_CAPACITY", "10")
	t.Setenv("GISDB_BUCKET_SIZE", "")
	require.NoError(t, os.Unsetenv("GISDB_BUCKET_SIZE"))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.BucketSize)
	assert.Equal(t, 10, cfg.CacheCapacity)
}

const runScript = "; Sample script\n" +
	"world\t0794130W\t0792630W\t381500N\t383000N\n" +
	"import\t%s\n" +
	"what_is\tHighland\tVA\n" +
	"what_is_at\t383200N\t0793300W\n" +
	"quit\n"

const runRecords = "FEATURE_ID|FEATURE_NAME|FEATURE_CLASS|STATE_ALPHA|STATE_NUMERIC|COUNTY_NAME|COUNTY_NUMERIC|PRIMARY_LAT_DMS|PRIM_LONG_DMS|PRIM_LAT_DEC|PRIM_LONG_DEC|SOURCE_LAT_DMS|SOURCE_LONG_DMS|SOURCE_LAT_DEC|SOURCE_LONG_DEC|ELEV_IN_M|ELEV_IN_FT|MAP_NAME|DATE_CREATED|DATE_EDITED\n" +
	"1481345|Monterey|Populated Place|VA|51|Highland|091|382300N|0793453W|38.3834|-79.5814|||||881|2890|Monterey|09/28/1979|\n"

func TestRunCmd(t *testing.T) {
	dir := t.TempDir()
	records := filepath.Join(dir, "records.txt")
	require.NoError(t, os.WriteFile(records, []byte(runRecords), 0o644))

	scriptFile := filepath.Join(dir, "script.txt")
	require.NoError(t, os.WriteFile(scriptFile, []byte(strings.Replace(runScript, "%s", records, 1)), 0o644))

	dbFile := filepath.Join(dir, "db.txt")
	logFile := filepath.Join(dir, "log.txt")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--env-file", "", "run", dbFile, scriptFile, logFile})
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())

	logged, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logged), "Imported Features by name: 1")
	assert.Contains(t, string(logged), "Terminating execution of commands.")

	stored, err := os.ReadFile(dbFile)
	require.NoError(t, err)
	assert.Contains(t, string(stored), "1481345|Monterey|Populated Place|VA")
}

func TestRunCmd_MissingScript(t *testing.T) {
	dir := t.TempDir()
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--env-file", "", "run",
		filepath.Join(dir, "db.txt"), filepath.Join(dir, "missing.txt"), filepath.Join(dir, "log.txt")})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open script")
}

func TestPublishCmd_NoDestination(t *testing.T) {
	t.Setenv("GISDB_MINIO_ENDPOINT", "")
	t.Setenv("GISDB_S3_BUCKET", "")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--env-file", "", "publish", filepath.Join(t.TempDir(), "db.txt")})
	assert.ErrorIs(t, cmd.Execute(), errNoDestination)
}
