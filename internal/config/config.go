// Package config loads runtime configuration from environment variables.
package config

import (
	"os"
	"strconv"

	"photo-pipeline/internal/logging"
	"photo-pipeline/internal/workers"
)

// Config holds every tunable the pipeline reads at startup.
type Config struct {
	// ListenAddr is the HTTP listen address for the stats/demo server.
	ListenAddr string
	// DataDir is the root directory for stored originals.
	DataDir string

	// OriginalCacheBytes / OriginalCacheEntries budget the originals tier.
	OriginalCacheBytes   int64
	OriginalCacheEntries int
	// ThumbCacheBytes / ThumbCacheEntries budget the thumbnails tier.
	ThumbCacheBytes   int64
	ThumbCacheEntries int

	// PreviewSize is the square thumbnail size served first by the
	// seamless loader.
	PreviewSize int
	// PreloadRadius is the default neighbor window for preloading.
	PreloadRadius int

	// InteractiveWorkers and BackgroundWorkers size the two load pools.
	InteractiveWorkers int
	BackgroundWorkers  int

	// DisableGPU skips the GPU probe and forces the CPU resample path.
	DisableGPU bool

	// MemoryLimitBytes caps heap use before pressure handling kicks in.
	// Zero means derive from GOMEMLIMIT or fall back to the default.
	MemoryLimitBytes int64
}

// Defaults chosen for a desktop-class machine browsing a large library.
const (
	defaultListenAddr       = ":8080"
	defaultDataDir          = "./data"
	defaultOriginalBytes    = int64(512 << 20) // 512 MiB
	defaultOriginalEntries  = 32
	defaultThumbBytes       = int64(128 << 20) // 128 MiB
	defaultThumbEntries     = 4096
	defaultPreviewSize      = 300
	defaultPreloadRadius    = 3
	defaultMemoryLimitBytes = int64(2 << 30) // 2 GiB
	maxInteractiveWorkers   = 8
	maxBackgroundWorkers    = 4
)

// Load reads configuration from the environment, applying defaults for
// anything unset. Invalid values log a warning and fall back.
func Load() *Config {
	cfg := &Config{
		ListenAddr:           getEnv("PHOTO_PIPELINE_ADDR", defaultListenAddr),
		DataDir:              getEnv("PHOTO_PIPELINE_DATA_DIR", defaultDataDir),
		OriginalCacheBytes:   getEnvInt64("PHOTO_PIPELINE_ORIGINAL_CACHE_BYTES", defaultOriginalBytes),
		OriginalCacheEntries: getEnvInt("PHOTO_PIPELINE_ORIGINAL_CACHE_ENTRIES", defaultOriginalEntries),
		ThumbCacheBytes:      getEnvInt64("PHOTO_PIPELINE_THUMB_CACHE_BYTES", defaultThumbBytes),
		ThumbCacheEntries:    getEnvInt("PHOTO_PIPELINE_THUMB_CACHE_ENTRIES", defaultThumbEntries),
		PreviewSize:          getEnvInt("PHOTO_PIPELINE_PREVIEW_SIZE", defaultPreviewSize),
		PreloadRadius:        getEnvInt("PHOTO_PIPELINE_PRELOAD_RADIUS", defaultPreloadRadius),
		InteractiveWorkers:   getEnvInt("PHOTO_PIPELINE_INTERACTIVE_WORKERS", workers.ForMixed(maxInteractiveWorkers)),
		BackgroundWorkers:    getEnvInt("PHOTO_PIPELINE_BACKGROUND_WORKERS", workers.ForIO(maxBackgroundWorkers)),
		DisableGPU:           getEnvBool("PHOTO_PIPELINE_NOGPU", false),
		MemoryLimitBytes:     getEnvInt64("PHOTO_PIPELINE_MEMORY_LIMIT_BYTES", defaultMemoryLimitBytes),
	}

	if cfg.PreviewSize < 1 {
		logging.Warn("config: invalid preview size %d, using %d", cfg.PreviewSize, defaultPreviewSize)
		cfg.PreviewSize = defaultPreviewSize
	}
	if cfg.PreloadRadius < 0 {
		logging.Warn("config: negative preload radius %d, using %d", cfg.PreloadRadius, defaultPreloadRadius)
		cfg.PreloadRadius = defaultPreloadRadius
	}
	if cfg.InteractiveWorkers < 1 {
		cfg.InteractiveWorkers = 1
	}
	if cfg.BackgroundWorkers < 1 {
		cfg.BackgroundWorkers = 1
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("config: invalid boolean for %s: %q, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("config: invalid integer for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		logging.Warn("config: invalid integer for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
