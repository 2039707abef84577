// Command photo-pipeline runs the image pipeline behind a small HTTP API:
// ingest images, serve originals and GPU-generated thumbnails, warm the
// cache around the viewer's position, and expose Prometheus metrics.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photo-pipeline/internal/config"
	"photo-pipeline/internal/gallery"
	"photo-pipeline/internal/handlers"
	"photo-pipeline/internal/logging"
	"photo-pipeline/internal/memory"
	"photo-pipeline/internal/metrics"
	"photo-pipeline/internal/middleware"
)

func main() {
	startTime := time.Now()

	memory.ConfigureFromEnv()
	cfg := config.Load()
	metrics.SetAppInfo(handlers.Version, runtime.Version())

	g, err := gallery.New(cfg, nil, nil)
	if err != nil {
		logging.Fatal("Failed to initialize gallery: %v", err)
	}

	collector := metrics.NewCollector(g, 15*time.Second)
	collector.Start()

	h := handlers.New(g)
	router := setupRouter(h)

	logged := middleware.Logger(middleware.DefaultLoggingConfig())(router)
	handler := middleware.Metrics(middleware.DefaultMetricsConfig())(logged)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(srv, g, collector)

	logging.Info("Listening on %s (startup took %v)", cfg.ListenAddr, time.Since(startTime).Round(time.Millisecond))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stats", h.GetStats).Methods("GET")
	api.HandleFunc("/images", h.ListImages).Methods("GET")
	api.HandleFunc("/preload", h.Preload).Methods("POST")

	r.HandleFunc("/image/{id}", h.IngestImage).Methods("POST")
	r.HandleFunc("/image/{id}", h.GetImage).Methods("GET")
	r.HandleFunc("/image/{id}", h.DeleteImage).Methods("DELETE")
	r.HandleFunc("/thumbnail/{id}", h.GetThumbnail).Methods("GET")

	return r
}

func handleShutdown(srv *http.Server, g *gallery.Gallery, collector *metrics.Collector) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)

	for {
		sig := <-sigChan
		// SIGUSR1 simulates OS memory pressure without killing the process.
		if sig == syscall.SIGUSR1 {
			logging.Info("Received SIGUSR1, triggering memory pressure")
			g.TriggerMemoryPressure()
			continue
		}

		logging.Info("Received %s, shutting down", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := srv.Shutdown(ctx); err != nil {
			logging.Warn("Server shutdown error: %v", err)
		}
		cancel()

		collector.Stop()
		g.Close()
		logging.Info("Shutdown complete")
		return
	}
}
