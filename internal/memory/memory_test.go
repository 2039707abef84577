package memory

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTriggerPressureFiresHandlers(t *testing.T) {
	m := NewMonitor(Config{
		MemoryLimitBytes:  1 << 30,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     time.Hour, // never ticks during the test
	})

	var fired atomic.Int32
	m.OnPressure(func() { fired.Add(1) })
	m.OnPressure(func() { fired.Add(1) })

	m.TriggerPressure()

	if got := fired.Load(); got != 2 {
		t.Errorf("handlers fired %d times, want 2", got)
	}
}

func TestNilHandlerIgnored(t *testing.T) {
	m := NewMonitor(DefaultConfig())
	m.OnPressure(nil)
	m.TriggerPressure() // must not panic
}

func TestShouldThrottleNoLimit(t *testing.T) {
	m := NewMonitor(Config{CheckInterval: time.Hour})
	if m.limit != 0 {
		t.Skip("GOMEMLIMIT is set in this environment")
	}
	if m.ShouldThrottle() {
		t.Error("ShouldThrottle true with no limit")
	}
	if m.GetUsage() != 0 {
		t.Errorf("GetUsage = %v with no limit, want 0", m.GetUsage())
	}
}

func TestCheckMemoryUpdatesUsage(t *testing.T) {
	m := NewMonitor(Config{
		MemoryLimitBytes:  1 << 40, // huge, never critical
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     time.Hour,
	})

	m.checkMemory()

	current, limit, usage := m.GetStats()
	if current <= 0 {
		t.Errorf("current = %d, want > 0 after sample", current)
	}
	if limit != 1<<40 {
		t.Errorf("limit = %d, want %d", limit, int64(1)<<40)
	}
	if usage <= 0 || usage >= 1 {
		t.Errorf("usage = %v, want (0, 1)", usage)
	}
}

func TestCriticalWatermarkFiresOncePerEpisode(t *testing.T) {
	m := NewMonitor(Config{
		MemoryLimitBytes:  1, // any allocation is critical
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     time.Hour,
	})

	var fired atomic.Int32
	m.OnPressure(func() { fired.Add(1) })

	m.checkMemory()
	m.checkMemory()
	m.checkMemory()

	if got := fired.Load(); got != 1 {
		t.Errorf("handlers fired %d times within one episode, want 1", got)
	}
}

func TestStopIdempotent(t *testing.T) {
	m := NewMonitor(Config{MemoryLimitBytes: 1 << 30, CheckInterval: time.Millisecond})
	m.Start()
	m.Stop()
	m.Stop()
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{512 << 20, "512.0 MiB"},
		{2 << 30, "2.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
