package main

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSMiddleware applies the configured CORS policy to every response and
// answers OPTIONS preflight requests directly, mirroring the teacher's
// cors.go shape but driven by Config instead of hardcoded headers.
func CORSMiddleware(cfg *Config, next http.Handler) http.Handler {
	if !cfg.EnableCORS {
		return next
	}

	allowAny := false
	for _, o := range cfg.CORSOrigins {
		if o == "*" {
			allowAny = true
			break
		}
	}
	methods := strings.Join(cfg.CORSMethods, ", ")
	headers := strings.Join(cfg.CORSHeaders, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if allowAny {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" && originAllowed(cfg.CORSOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}

		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.Header().Set("Access-Control-Allow-Headers", headers)
		w.Header().Set("Access-Control-Max-Age", "3600")
		if cfg.CORSAllowCredentials {
			w.Header().Set("Access-Control-Allow-Credentials", strconv.FormatBool(true))
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	for _, o := range allowed {
		if o == origin {
			return true
		}
	}
	return false
}
