package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hupe1980/gisdb"
	"github.com/hupe1980/gisdb/resource"
)

// config is read from GISDB_* environment variables. Values already present
// in the environment take precedence over the env file.
type config struct {
	LogLevel      slog.Level
	LogFormat     string
	CacheCapacity int
	BucketSize    int
	IOLimit       int64
	MetricsAddr   string

	S3Bucket   string
	S3Prefix   string
	S3Region   string
	S3Endpoint string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSecure    bool
}

func loadConfig(envFile string) (config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}
	return parseConfig(os.Getenv)
}

func parseConfig(getenv func(string) string) (config, error) {
	cfg := config{
		LogLevel:      slog.LevelInfo,
		LogFormat:     "text",
		CacheCapacity: 20,
		BucketSize:    gisdb.DefaultBucketSize,
		MetricsAddr:   getenv("GISDB_METRICS_ADDR"),
		S3Bucket:      getenv("GISDB_S3_BUCKET"),
		S3Prefix:      getenv("GISDB_S3_PREFIX"),
		S3Region:      getenv("GISDB_S3_REGION"),
		S3Endpoint:    getenv("GISDB_S3_ENDPOINT"),

		MinioEndpoint:  getenv("GISDB_MINIO_ENDPOINT"),
		MinioAccessKey: getenv("GISDB_MINIO_ACCESS_KEY"),
		MinioSecretKey: getenv("GISDB_MINIO_SECRET_KEY"),
		MinioBucket:    getenv("GISDB_MINIO_BUCKET"),
	}

	if v := getenv("GISDB_LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return config{}, fmt.Errorf("GISDB_LOG_LEVEL: %w", err)
		}
	}

	if v := getenv("GISDB_LOG_FORMAT"); v != "" {
		switch f := strings.ToLower(v); f {
		case "text", "json":
			cfg.LogFormat = f
		default:
			return config{}, fmt.Errorf("GISDB_LOG_FORMAT: unknown format %q", v)
		}
	}

	var err error
	if cfg.CacheCapacity, err = positiveInt(getenv, "GISDB_CACHE_CAPACITY", cfg.CacheCapacity); err != nil {
		return config{}, err
	}
	if cfg.BucketSize, err = positiveInt(getenv, "GISDB_BUCKET_SIZE", cfg.BucketSize); err != nil {
		return config{}, err
	}

	if v := getenv("GISDB_IO_LIMIT"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return config{}, fmt.Errorf("GISDB_IO_LIMIT: invalid byte rate %q", v)
		}
		cfg.IOLimit = n
	}

	if v := getenv("GISDB_MINIO_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return config{}, fmt.Errorf("GISDB_MINIO_SECURE: %w", err)
		}
		cfg.MinioSecure = b
	}

	return cfg, nil
}

func positiveInt(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s: expected a positive integer, got %q", key, v)
	}
	return n, nil
}

func (c config) logger() *gisdb.Logger {
	if c.LogFormat == "json" {
		return gisdb.NewJSONLogger(c.LogLevel)
	}
	return gisdb.NewTextLogger(c.LogLevel)
}

// options translates the configuration into Open options.
func (c config) options(logger *gisdb.Logger, mc gisdb.MetricsCollector) []gisdb.Option {
	opts := []gisdb.Option{
		gisdb.WithLogger(logger),
		gisdb.WithCacheCapacity(c.CacheCapacity),
		gisdb.WithBucketSize(c.BucketSize),
		gisdb.WithMetricsCollector(mc),
	}
	if c.IOLimit > 0 {
		opts = append(opts, gisdb.WithResourceController(resource.NewController(resource.Config{
			ReadBytesPerSec: c.IOLimit,
		})))
	}
	return opts
}
