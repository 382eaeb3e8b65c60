package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"inkpress/app/auth"
	"inkpress/app/logger"
	"inkpress/app/models"
)

// statusRecorder remembers the status written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Logger logs information about each request
func Logger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			log.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"bytes", rec.bytes,
				"duration", time.Since(start),
			)
		})
	}
}

// Recoverer recovers from panics and logs the error
func Recoverer(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					log.Error("Panic while serving request",
						"method", r.Method,
						"path", r.URL.Path,
						"panic", err,
						"stack", string(debug.Stack()),
					)
					writeError(w, http.StatusInternalServerError, "Internal Server Error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeJSON sets the Content-Type header to application/json for API routes
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api") {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// TokenVerifier resolves a bearer token to the subject it was issued for.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, raw string) (*models.Subject, error)
}

type subjectKey struct{}

// WithSubject stores the acting subject in ctx.
func WithSubject(ctx context.Context, subject *models.Subject) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// SubjectFrom returns the acting subject, or nil for anonymous requests.
func SubjectFrom(ctx context.Context) *models.Subject {
	subject, _ := ctx.Value(subjectKey{}).(*models.Subject)
	return subject
}

// Authenticate resolves an optional bearer token. Requests without one pass
// through anonymously; a token that does not verify is rejected.
func Authenticate(verifier TokenVerifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
				next.ServeHTTP(w, r)
				return
			}
			raw := strings.TrimSpace(header[7:])
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "Not authorized, token missing")
				return
			}

			subject, err := verifier.VerifyToken(r.Context(), raw)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					log.Debug("Rejected bearer token", "path", r.URL.Path, "error", err)
					writeError(w, http.StatusUnauthorized, "Not authorized, token invalid")
					return
				}
				log.Error("Token verification failed", "error", err)
				writeError(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
		})
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SubjectFrom(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "Not authorized, token missing")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.Envelope{Success: false, Error: msg})
}
