package api

import (
	"net/http"
	"os"

	"lan-stream/internal/api/handlers"
	"lan-stream/internal/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterOptions are the filesystem locations the router serves
type RouterOptions struct {
	UploadDir string
	StaticDir string
	Gatherer  prometheus.Gatherer
}

// SetupRouter configures HTTP routes
func SetupRouter(handler *handlers.Handler, logger *zap.Logger, m *metrics.Registry, opts RouterOptions) *mux.Router {
	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return LoggingMiddleware(logger, next)
	})
	router.Use(func(next http.Handler) http.Handler {
		return MetricsMiddleware(m, next)
	})

	router.HandleFunc("/health", handler.HealthHandler).Methods("GET")

	// Real-time channel
	router.HandleFunc("/ws", handler.WebSocketHandler).Methods("GET")

	// History
	router.HandleFunc("/history", handler.HistoryHandler).Methods("GET")
	router.HandleFunc("/history", handler.ClearHistoryHandler).Methods("DELETE")
	router.HandleFunc("/history/page", handler.HistoryPageHandler).Methods("GET")
	router.HandleFunc("/history/{id}", handler.DeleteEntryHandler).Methods("DELETE")

	// Files
	router.HandleFunc("/upload", handler.UploadHandler).Methods("POST")
	router.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", noDirListing(http.FileServer(http.Dir(opts.UploadDir)))),
	).Methods("GET", "HEAD")

	router.HandleFunc("/qr", handler.QRHandler).Methods("GET")

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	if info, err := os.Stat(opts.StaticDir); err == nil && info.IsDir() {
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(opts.StaticDir))).Methods("GET", "HEAD")
	} else if opts.StaticDir != "" {
		logger.Warn("Static directory not found, UI disabled", zap.String("static_dir", opts.StaticDir))
	}

	return router
}

// noDirListing hides directory indexes of the upload folder
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || r.URL.Path[len(r.URL.Path)-1] == '/' {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
