package main

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

var requestCounter atomic.Int64

// responseWriter wraps http.ResponseWriter to capture the status code and
// byte count written, the same shape the teacher's logging.go uses.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// newLogger builds the shared structured logger every component writes
// through, configured with logrus's JSON formatter so log lines stay
// machine-parseable the way the teacher's hand-rolled json.Marshal did.
func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// LoggingMiddleware logs one structured line per request: request id,
// method, path, status, duration, bytes written, client IP.
func LoggingMiddleware(log *logrus.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := "sevino-" + newToken()
		w.Header().Set("X-Request-Id", reqID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		log.WithFields(logrus.Fields{
			"request_id": reqID,
			"method":     r.Method,
			"uri":        r.RequestURI,
			"status":     rw.statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
			"bytes":      rw.written,
			"client_ip":  r.RemoteAddr,
		}).Info("request handled")

		requestCounter.Add(1)
		observeRequest(r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

// MaxClientsMiddleware limits concurrent in-flight HTTP operations using a
// buffered-channel semaphore, exactly as the teacher's main.go wires it.
func MaxClientsMiddleware(maxClients int) func(http.Handler) http.Handler {
	semaphore := make(chan struct{}, maxClients)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()
			next.ServeHTTP(w, r)
		})
	}
}
