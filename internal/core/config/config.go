package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Brokers string
	Topic   string
	GroupID string
}

type Config struct {
	Addr     string
	LogLevel string

	GeocodeURL string
	ArchiveURL string

	CacheBackend     string
	CacheDir         string
	MemoryCacheSize  int
	GeocodeCacheSize int
	CacheOpTimeout   time.Duration

	BlobAccountURL string
	BlobConnString string
	BlobContainer  string

	RedisAddr string

	Invalidation InvalidationCfg
}

func FromEnv() Config {
	memSize := getint("MEMORY_CACHE_SIZE", 100)
	if memSize < 1 {
		memSize = 1
	}

	return Config{
		Addr:     getenv("ADDR", ":8080"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		GeocodeURL: getenv("GEOCODE_URL", "https://geocoding-api.open-meteo.com/v1/search"),
		ArchiveURL: getenv("ARCHIVE_URL", "https://archive-api.open-meteo.com/v1/archive"),

		CacheBackend:     strings.ToLower(getenv("CACHE_BACKEND", "blob")),
		CacheDir:         getenv("CACHE_DIR", "./imagecache"),
		MemoryCacheSize:  memSize,
		GeocodeCacheSize: getint("GEOCODE_CACHE_SIZE", 128),
		CacheOpTimeout:   getduration("CACHE_OP_TIMEOUT", 5*time.Second),

		BlobAccountURL: getenv("AZURE_STORAGE_ACCOUNT_URL", ""),
		BlobConnString: getenv("AZURE_STORAGE_CONNECTION_STRING", ""),
		BlobContainer:  getenv("BLOB_CONTAINER", "weather-images"),

		RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),

		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getenv("KAFKA_TOPIC", "image-purge"),
			GroupID: getenv("KAFKA_GROUP_ID", "weather-images"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
