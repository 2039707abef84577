package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.DataDir != "./data" {
		t.Errorf("DataDir = %q, want ./data", cfg.DataDir)
	}
	if cfg.PreviewSize != 300 {
		t.Errorf("PreviewSize = %d, want 300", cfg.PreviewSize)
	}
	if cfg.PreloadRadius != 3 {
		t.Errorf("PreloadRadius = %d, want 3", cfg.PreloadRadius)
	}
	if cfg.OriginalCacheBytes != 512<<20 {
		t.Errorf("OriginalCacheBytes = %d, want %d", cfg.OriginalCacheBytes, int64(512<<20))
	}
	if cfg.DisableGPU {
		t.Error("DisableGPU defaulted to true")
	}
	if cfg.InteractiveWorkers < 1 || cfg.BackgroundWorkers < 1 {
		t.Errorf("worker counts = %d/%d, want >= 1", cfg.InteractiveWorkers, cfg.BackgroundWorkers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PHOTO_PIPELINE_ADDR", ":9999")
	t.Setenv("PHOTO_PIPELINE_DATA_DIR", "/tmp/photos")
	t.Setenv("PHOTO_PIPELINE_PREVIEW_SIZE", "120")
	t.Setenv("PHOTO_PIPELINE_PRELOAD_RADIUS", "5")
	t.Setenv("PHOTO_PIPELINE_THUMB_CACHE_BYTES", "1048576")
	t.Setenv("PHOTO_PIPELINE_NOGPU", "true")
	t.Setenv("PHOTO_PIPELINE_INTERACTIVE_WORKERS", "2")

	cfg := Load()

	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q, want :9999", cfg.ListenAddr)
	}
	if cfg.DataDir != "/tmp/photos" {
		t.Errorf("DataDir = %q, want /tmp/photos", cfg.DataDir)
	}
	if cfg.PreviewSize != 120 {
		t.Errorf("PreviewSize = %d, want 120", cfg.PreviewSize)
	}
	if cfg.PreloadRadius != 5 {
		t.Errorf("PreloadRadius = %d, want 5", cfg.PreloadRadius)
	}
	if cfg.ThumbCacheBytes != 1048576 {
		t.Errorf("ThumbCacheBytes = %d, want 1048576", cfg.ThumbCacheBytes)
	}
	if !cfg.DisableGPU {
		t.Error("DisableGPU = false with PHOTO_PIPELINE_NOGPU=true")
	}
	if cfg.InteractiveWorkers != 2 {
		t.Errorf("InteractiveWorkers = %d, want 2", cfg.InteractiveWorkers)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("PHOTO_PIPELINE_PREVIEW_SIZE", "not-a-number")
	t.Setenv("PHOTO_PIPELINE_NOGPU", "maybe")
	t.Setenv("PHOTO_PIPELINE_PRELOAD_RADIUS", "-2")

	cfg := Load()

	if cfg.PreviewSize != 300 {
		t.Errorf("PreviewSize = %d, want default 300", cfg.PreviewSize)
	}
	if cfg.DisableGPU {
		t.Error("DisableGPU = true for unparseable value")
	}
	if cfg.PreloadRadius != 3 {
		t.Errorf("PreloadRadius = %d, want default 3", cfg.PreloadRadius)
	}
}
