package ingest

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"mclink/internal/application"

	goerrors "github.com/goliatone/go-errors"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

func requireAPIKey(key string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok || key == "" || subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
				writeError(w, goerrors.New("missing or invalid api key", goerrors.CategoryAuth).
					WithCode(http.StatusUnauthorized).
					WithTextCode(textCodeUnauthorized))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func throttle(limiter *rate.Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, goerrors.New("too many requests", goerrors.CategoryRateLimit).
					WithCode(http.StatusTooManyRequests).
					WithTextCode(textCodeRateLimited))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func recovery(logger application.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					logger.Error("panic serving %s %s: %v", r.Method, r.URL.Path, p)
					writeError(w, internalError())
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}
