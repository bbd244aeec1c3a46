// Package middleware contains HTTP middleware functions.
//
// WHAT IS MIDDLEWARE?
// Middleware is a function that wraps an HTTP handler to add cross-cutting behaviour
// (logging, auth, CORS, etc.) without modifying the handler itself.
//
// The pattern is:
//
//	func MyMiddleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // Do something BEFORE the handler runs
//	        next.ServeHTTP(w, r)  // Call the actual handler
//	        // Do something AFTER the handler runs
//	    })
//	}
//
// Authentication lives in internal/auth; this package only holds the
// request logger.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/snippets-api/internal/actor"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
// Go's http.ResponseWriter doesn't expose the status code after WriteHeader is called,
// so we wrap it to track it ourselves.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	written     int64
	wroteHeader bool
}

// WriteHeader records only the first status, like net/http does.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures bytes written and delegates to the embedded ResponseWriter.
func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Logger returns an HTTP middleware that logs each completed request.
//
// Each log line carries the method, path, status, duration, bytes written,
// chi's request id and, once the auth middleware has run, the caller.
// 5xx responses log at error level, 4xx at warn, everything else at info.
//
// ORDERING:
// Install Logger after chimiddleware.RequestID so the id is available, and
// before auth.Authenticate. The actor is read from the request the inner
// handlers saw, which is why Logger peeks at it through actorSlot rather
// than r.Context().
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK, // Default if WriteHeader is never called
			}

			slot := &actorSlot{}
			next.ServeHTTP(wrapped, r.WithContext(withActorSlot(r.Context(), slot)))

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
			}
			if id := chimiddleware.GetReqID(r.Context()); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			if slot.set {
				attrs = append(attrs, slog.Int64("user_id", slot.actor.UserID), slog.String("user", slot.actor.Username))
			}

			logger.LogAttrs(r.Context(), levelFor(wrapped.statusCode), "request completed", attrs...)
		})
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// CaptureActor records the actor bound by the auth middleware so Logger can
// report it. Mount it directly after auth.Authenticate.
func CaptureActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slot := actorSlotFrom(r.Context()); slot != nil {
			if a, ok := actor.FromContext(r.Context()); ok {
				slot.actor, slot.set = a, true
			}
		}
		next.ServeHTTP(w, r)
	})
}

// actorSlot is filled in on the way down the chain and read by Logger on the
// way back up, because context values set by inner middleware are not
// visible to outer ones.
type actorSlot struct {
	actor actor.Actor
	set   bool
}

type slotKey struct{}

func withActorSlot(ctx context.Context, slot *actorSlot) context.Context {
	return context.WithValue(ctx, slotKey{}, slot)
}

func actorSlotFrom(ctx context.Context) *actorSlot {
	slot, _ := ctx.Value(slotKey{}).(*actorSlot)
	return slot
}
