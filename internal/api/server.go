package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/interviewace/interviewace/internal/provider"
	"github.com/interviewace/interviewace/internal/storage"
)

// Resumes arrive base64 encoded inside the JSON body.
const maxRequestBodySize = 16 << 20 // 16MB

// Deps holds everything the route handlers need.
type Deps struct {
	Provider *provider.Client

	// Store records interview history. Optional; when nil nothing is
	// recorded and the history routes answer 503.
	Store *storage.Store

	// AdminToken guards the diagnostic and history routes. When empty those
	// routes only accept loopback clients.
	AdminToken string

	// CountryCode is prefixed to phone numbers that carry none.
	CountryCode string

	Logger *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewHandler returns the HTTP surface used by the dashboard frontend plus the
// management routes. Public routes are mounted both with and without the
// /api prefix.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Get("/health", handleHealth)

	log := deps.logger()
	for _, prefix := range []string{"", "/api"} {
		r.With(recoverAs(log, "Failed to process request")).
			Post(prefix+"/chat-agent", handleChatAgent(deps))
		r.With(recoverAs(log, "Failed to process voice interview request")).
			Post(prefix+"/voice-interview", handleVoiceInterview(deps))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Recoverer)
		r.Use(AdminAuth(deps.AdminToken))

		r.Get("/voice-interview/test", handleDiagnose(deps))
		r.Get("/api/voice-interview/test", handleDiagnose(deps))
		r.Get("/api/interviews", handleListInterviews(deps))
		r.Get("/api/interviews/{id}", handleGetInterview(deps))
		r.Get("/api/chats", handleListChats(deps))
		r.Get("/api/stats", handleStats(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// recoverAs turns a panic in a public handler into the frontend's 500
// envelope carrying msg, logging the panic to log.
func recoverAs(log *slog.Logger, msg string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("route panic", "path", r.URL.Path, "panic", rec,
						"request_id", middleware.GetReqID(r.Context()))
					clientError(w, http.StatusInternalServerError, msg)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// clientError writes the flat {"error": "..."} envelope the frontend expects.
func clientError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// httpError writes the typed envelope used by the management routes.
func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}
