package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"drone-activity-classifier/alert"
	"drone-activity-classifier/config"
	"drone-activity-classifier/detections"
	"drone-activity-classifier/drone"
	"drone-activity-classifier/metrics"
	"drone-activity-classifier/monitor"
	"drone-activity-classifier/sms"
	"drone-activity-classifier/utils"

	"github.com/mdobak/go-xerrors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type apiError struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Message: message})
}

// allowGet handles CORS preflight and rejects anything but GET. It reports
// whether the caller should go on serving the request.
func allowGet(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return false
	}
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func newModelInfoHandler(info drone.ModelInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

func newDetectionsHandler(store *detections.Store) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}

		detectionsList, err := store.Load()
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to load detections", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "failed to load detections")
			return
		}

		writeJSON(w, http.StatusOK, detectionsList)
	}
}

// newNotifier returns the SMS notifier when Twilio is configured and a
// log-only notifier otherwise.
func newNotifier(ctx context.Context, logger *slog.Logger) alert.Notifier {
	creds := config.TwilioCredentials()
	if !creds.Complete() {
		logger.WarnContext(ctx, "Twilio credentials incomplete, alerts will only be logged")
		return alert.LogNotifier{Logger: logger}
	}

	notifier, err := sms.NewTwilioNotifier(creds, logger)
	if err != nil {
		logger.WarnContext(ctx, "failed to create Twilio notifier, alerts will only be logged",
			slog.Any("error", xerrors.New(err)))
		return alert.LogNotifier{Logger: logger}
	}
	return notifier
}

func runMonitor(ctx context.Context, cfg config.Config, protocol string) error {
	logger := utils.GetLogger()

	// Artifacts are loaded once; a missing or mismatched pair stops startup
	// before any reading is shown.
	classifier, err := drone.NewClassifierFromDir(cfg.Artifacts.Dir)
	if err != nil {
		return fmt.Errorf("loading model artifacts from %s: %w", cfg.Artifacts.Dir, err)
	}
	info := classifier.Info()
	metrics.ModelInfo.WithLabelValues(info.Version).Set(1)
	logger.InfoContext(ctx, "model loaded",
		slog.String("version", info.Version),
		slog.Time("trainedAt", info.TrainedAt),
		slog.Any("classes", info.Classes),
		slog.Int("estimators", info.Estimators),
	)

	gate := alert.NewGate(newNotifier(ctx, logger),
		alert.WithCooldown(cfg.Monitor.Cooldown),
		alert.WithLogger(logger),
	)
	displays := []monitor.Display{monitor.LogDisplay{Logger: logger}}

	socketServer := newSocketServer(newSocketController(info))
	go func() {
		if err := socketServer.Serve(); err != nil {
			logger.ErrorContext(ctx, "socketio listen error", slog.Any("error", xerrors.New(err)))
		}
	}()
	defer socketServer.Close()

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", socketServer)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/model", newModelInfoHandler(info))

	// The detection log is opt-in.
	if cfg.Monitor.DetectionsPath != "" {
		store := detections.NewStore(cfg.Monitor.DetectionsPath, info.Version)
		displays = append(displays, store)
		mux.HandleFunc("/api/detections", newDetectionsHandler(store))
		logger.InfoContext(ctx, "detection log enabled", slog.String("path", cfg.Monitor.DetectionsPath))
	}
	displays = append(displays, socketDisplay{server: socketServer})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- serveHTTP(ctx, strings.EqualFold(protocol, "https"), cfg.Monitor.HTTPPort, mux)
	}()

	options := []func(*monitor.Monitor){
		monitor.WithInterval(cfg.Monitor.PollInterval),
		monitor.WithLogger(logger),
	}
	for _, d := range displays {
		options = append(options, monitor.WithDisplay(d))
	}
	m := monitor.New(drone.NewSimulator(cfg.Monitor.Seed), classifier, gate, options...)

	runErr := make(chan error, 1)
	go func() { runErr <- m.Run(ctx) }()

	select {
	case err := <-runErr:
		cancel()
		return errors.Join(err, <-httpErr)
	case err := <-httpErr:
		cancel()
		return errors.Join(err, <-runErr)
	}
}

// serveHTTP serves handler until ctx is done.
func serveHTTP(ctx context.Context, serveHTTPS bool, port string, handler http.Handler) error {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	var err error
	if serveHTTPS {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}

		certKey := utils.GetEnv("CERT_KEY", "")
		certFile := utils.GetEnv("CERT_FILE", "")
		if certKey == "" || certFile == "" {
			return fmt.Errorf("https requires CERT_KEY and CERT_FILE")
		}

		log.Printf("Starting HTTPS server on %s\n", server.Addr)
		err = server.ListenAndServeTLS(certFile, certKey)
	} else {
		log.Printf("Starting HTTP server on port %v", port)
		err = server.ListenAndServe()
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
