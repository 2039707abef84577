package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"photo-pipeline/internal/config"
	"photo-pipeline/internal/gallery"
)

func testRouter(t *testing.T) (*mux.Router, *gallery.Gallery) {
	t.Helper()
	g, err := gallery.New(&config.Config{
		DataDir:              t.TempDir(),
		OriginalCacheBytes:   64 << 20,
		OriginalCacheEntries: 16,
		ThumbCacheBytes:      16 << 20,
		ThumbCacheEntries:    256,
		PreviewSize:          300,
		PreloadRadius:        3,
		InteractiveWorkers:   2,
		BackgroundWorkers:    2,
		DisableGPU:           true,
		MemoryLimitBytes:     1 << 40,
	}, nil, nil)
	if err != nil {
		t.Fatalf("gallery.New: %v", err)
	}
	t.Cleanup(g.Close)

	h := New(g)
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")
	r.HandleFunc("/api/stats", h.GetStats).Methods("GET")
	r.HandleFunc("/api/images", h.ListImages).Methods("GET")
	r.HandleFunc("/api/preload", h.Preload).Methods("POST")
	r.HandleFunc("/image/{id}", h.IngestImage).Methods("POST")
	r.HandleFunc("/image/{id}", h.GetImage).Methods("GET")
	r.HandleFunc("/image/{id}", h.DeleteImage).Methods("DELETE")
	r.HandleFunc("/thumbnail/{id}", h.GetThumbnail).Methods("GET")
	return r, g
}

func pngBody(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: 10, G: 120, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func do(t *testing.T, r *mux.Router, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndVersion(t *testing.T) {
	r, _ := testRouter(t)

	rec := do(t, r, "GET", "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}

	rec = do(t, r, "GET", "/version", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("version status = %d", rec.Code)
	}
	var v map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("version body: %v", err)
	}
	if v["goVersion"] == "" {
		t.Error("version response missing goVersion")
	}
}

func TestIngestAndGetImage(t *testing.T) {
	r, _ := testRouter(t)

	rec := do(t, r, "POST", "/image/a.png", pngBody(t, 64, 48))
	if rec.Code != http.StatusCreated {
		t.Fatalf("ingest status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, r, "GET", "/image/a.png", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("response not decodable PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("served image = %dx%d, want 64x48", b.Dx(), b.Dy())
	}
}

func TestIngestRejectsGarbage(t *testing.T) {
	r, _ := testRouter(t)
	rec := do(t, r, "POST", "/image/bad.png", []byte("not an image"))
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnsupportedMediaType)
	}
}

func TestGetImageNotFound(t *testing.T) {
	r, _ := testRouter(t)
	rec := do(t, r, "GET", "/image/missing.png", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetThumbnail(t *testing.T) {
	r, _ := testRouter(t)
	do(t, r, "POST", "/image/a.png", pngBody(t, 640, 480))

	rec := do(t, r, "GET", "/thumbnail/a.png?w=120&h=120", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("thumbnail not decodable: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 120 {
		t.Errorf("thumbnail = %dx%d, want 120x120", b.Dx(), b.Dy())
	}
}

func TestGetThumbnailInvalidDimensions(t *testing.T) {
	r, _ := testRouter(t)
	do(t, r, "POST", "/image/a.png", pngBody(t, 64, 64))

	for _, query := range []string{"?w=0", "?w=-5", "?w=9999"} {
		rec := do(t, r, "GET", "/thumbnail/a.png"+query, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", query, rec.Code)
		}
	}
}

func TestDeleteImage(t *testing.T) {
	r, _ := testRouter(t)
	do(t, r, "POST", "/image/a.png", pngBody(t, 32, 32))

	rec := do(t, r, "DELETE", "/image/a.png", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = do(t, r, "DELETE", "/image/a.png", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestListImages(t *testing.T) {
	r, _ := testRouter(t)
	do(t, r, "POST", "/image/b.png", pngBody(t, 32, 32))
	do(t, r, "POST", "/image/a.png", pngBody(t, 32, 32))

	rec := do(t, r, "GET", "/api/images", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Images []string `json:"images"`
		Count  int      `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 2 || len(body.Images) != 2 {
		t.Errorf("count = %d, images = %v, want 2", body.Count, body.Images)
	}
}

func TestPreload(t *testing.T) {
	r, _ := testRouter(t)
	do(t, r, "POST", "/image/a.png", pngBody(t, 32, 32))
	do(t, r, "POST", "/image/b.png", pngBody(t, 32, 32))

	body, _ := json.Marshal(map[string]any{
		"ids":          []string{"a.png", "b.png"},
		"currentIndex": 0,
		"radius":       1,
	})
	rec := do(t, r, "POST", "/api/preload", body)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = do(t, r, "POST", "/api/preload", []byte("{bad json"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", rec.Code)
	}
}

func TestPreloadWarmsAfterResponse(t *testing.T) {
	r, g := testRouter(t)
	do(t, r, "POST", "/image/a.png", pngBody(t, 32, 32))
	do(t, r, "POST", "/image/b.png", pngBody(t, 32, 32))

	// Drop the renditions ingest cached so the preload has real work to do.
	g.TriggerMemoryPressure()
	if g.Cached("a.png") {
		t.Fatal("cache not empty after pressure")
	}

	body, _ := json.Marshal(map[string]any{
		"ids":          []string{"a.png", "b.png"},
		"currentIndex": 0,
		"radius":       1,
	})

	// net/http cancels the request context once the handler returns; the
	// scheduled warms run after that and must not be aborted by it.
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("POST", "/api/preload", bytes.NewReader(body)).WithContext(ctx)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	cancel()

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["scheduled"] != 2 {
		t.Fatalf("scheduled = %d, want 2", resp["scheduled"])
	}

	deadline := time.After(5 * time.Second)
	for !(g.Cached("a.png") && g.Cached("b.png")) {
		select {
		case <-deadline:
			t.Fatal("preloaded images never became resident")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStatsEndpoint(t *testing.T) {
	r, _ := testRouter(t)
	do(t, r, "POST", "/image/a.png", pngBody(t, 32, 32))
	do(t, r, "GET", "/image/a.png", nil)

	rec := do(t, r, "GET", "/api/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var snap map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("stats body: %v", err)
	}
	if _, ok := snap["hitRate"]; !ok {
		t.Error("stats response missing hitRate")
	}
}
