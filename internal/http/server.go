package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/internal/config"
	"rollcall/internal/db"
	"rollcall/internal/paircode"
)

type Server struct {
	cfg   config.Config
	store *db.Store
	codes *paircode.Store
}

func NewServer(cfg config.Config, store *db.Store, codes *paircode.Store) *Server {
	return &Server{
		cfg:   cfg,
		store: store,
		codes: codes,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)

	r.Get("/schedule", s.handleGetSchedule)
	r.Get("/subjects", s.handleGetSubjects)

	r.Get("/attendance", s.handleGetAttendance)
	r.Get("/attendance/subject", s.handleGetAttendanceBySubject)
	r.Post("/attendance", s.handleUpdateAttendance)
	r.Post("/attendance/mark", s.handleMarkAttendance)
	r.Post("/attendance/paircode", s.handleIssuePairCode)
	r.Post("/attendance/access", s.handleCheckAccess)
	r.Post("/attendance/access/remove", s.handleRemoveAccess)

	return r
}
