// Package httpapi is the JSON-over-HTTP surface the browser UI polls.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bnema/familiar-bridge/internal/application"
)

// Services are the application services the handlers call.
type Services struct {
	Conversations *application.ConversationService
	Familiars     *application.FamiliarService
	Cycles        *application.CycleService
	Moments       *application.MomentService
	Settings      *application.SettingsService
}

type Server struct {
	services Services
	logger   *slog.Logger
}

func NewServer(services Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{services: services, logger: logger}
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /greet", s.handleGreet)
	mux.HandleFunc("GET /cli/status", s.handleTurnStatus)
	mux.HandleFunc("POST /cli/cancel", s.handleCancel)
	mux.HandleFunc("GET /cli/heartbeat", s.handleHeartbeat)

	mux.HandleFunc("GET /settings", s.handleGetSettings)
	mux.HandleFunc("POST /settings", s.handleUpdateSettings)

	mux.HandleFunc("GET /cycle/status", s.handleCycleStatus)
	mux.HandleFunc("POST /cycle/start_focus", s.handleCycleStart("focus"))
	mux.HandleFunc("POST /cycle/start_break", s.handleCycleStart("break"))
	mux.HandleFunc("POST /cycle/start_long_break", s.handleCycleStart("long_break"))
	mux.HandleFunc("POST /cycle/stop", s.handleCycleStop)

	mux.HandleFunc("GET /familiars", s.handleListFamiliars)
	mux.HandleFunc("GET /familiars/{id}/meta", s.handleMeta)
	mux.HandleFunc("GET /familiars/{id}/state", s.handleGetState)
	mux.HandleFunc("POST /familiars/{id}/state", s.handleUpdateState)
	mux.HandleFunc("GET /familiars/{id}/profile", s.handleGetProfile)
	mux.HandleFunc("POST /familiars/{id}/profile", s.handleMergeProfile)
	mux.HandleFunc("GET /familiars/{id}/activities", s.handleActivities)
	mux.HandleFunc("GET /familiars/{id}/catalog", s.handleCatalog)
	mux.HandleFunc("GET /familiars/{id}/avatars", s.handleAvatars)
	mux.HandleFunc("GET /familiars/{id}/locations", s.handleLocations)
	mux.HandleFunc("GET /familiars/{id}/journey", s.handleJourney)
	mux.HandleFunc("GET /familiars/{id}/layout", s.handleLayout)
	mux.HandleFunc("GET /familiars/{id}/avatar-layout/{path...}", s.handleAvatarLayout)

	mux.HandleFunc("POST /moments/start_break", s.handleStartBreak)
	mux.HandleFunc("POST /moments/commit", s.handleCommitMoment)

	return s.logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		level := slog.LevelInfo
		if recorder.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration", time.Since(started),
		)
	})
}
