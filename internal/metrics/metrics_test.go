package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCacheCounters(t *testing.T) {
	before := testutil.ToFloat64(CacheHits.WithLabelValues("originals"))
	CacheHits.WithLabelValues("originals").Inc()
	after := testutil.ToFloat64(CacheHits.WithLabelValues("originals"))

	if after != before+1 {
		t.Errorf("CacheHits = %v, want %v", after, before+1)
	}
}

func TestResidentGauges(t *testing.T) {
	CacheResidentBytes.WithLabelValues("thumbnails").Set(1024)
	if got := testutil.ToFloat64(CacheResidentBytes.WithLabelValues("thumbnails")); got != 1024 {
		t.Errorf("CacheResidentBytes = %v, want 1024", got)
	}

	CacheResidentBytes.WithLabelValues("thumbnails").Set(0)
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("test", "go1.25")
	if got := testutil.ToFloat64(AppInfo.WithLabelValues("test", "go1.25")); got != 1 {
		t.Errorf("AppInfo = %v, want 1", got)
	}
}

type fakeProvider struct {
	snap Snapshot
}

func (f *fakeProvider) Stats() Snapshot { return f.snap }

func TestCollectorUpdatesGauges(t *testing.T) {
	provider := &fakeProvider{snap: Snapshot{PreloadsActive: 7}}
	c := NewCollector(provider, 10*time.Millisecond)
	c.Start()
	defer c.Stop()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if testutil.ToFloat64(PreloadInFlight) == 7 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("PreloadInFlight = %v, want 7", testutil.ToFloat64(PreloadInFlight))
}

func TestSnapshotHitRate(t *testing.T) {
	snap := Snapshot{CacheHits: 3, CacheMisses: 1, HitRate: 0.75}
	if snap.HitRate != 0.75 {
		t.Errorf("HitRate = %v, want 0.75", snap.HitRate)
	}
}
