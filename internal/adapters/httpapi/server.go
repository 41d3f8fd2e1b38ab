// Package httpapi serves the dashboard API over HTTP. It is a thin JSON
// translation layer around the primary ports; no business rules live here.
package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/missionctl/internal/apperr"
	"github.com/example/missionctl/internal/config"
	"github.com/example/missionctl/internal/core/task"
	"github.com/example/missionctl/internal/ports/primary"
)

// Server hosts the dashboard API.
type Server struct {
	env    *config.Env
	orch   primary.OrchestratorService
	query  primary.QueryService
	logger *slog.Logger
	server *http.Server
}

// NewServer creates a dashboard API server.
func NewServer(env *config.Env, orch primary.OrchestratorService, query primary.QueryService, logger *slog.Logger) *Server {
	return &Server{env: env, orch: orch, query: query, logger: logger}
}

// Handler builds the full route tree. Exposed separately so tests can
// drive it with httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.slogMiddleware)

	r.Route("/api", func(r chi.Router) {
		if s.env.BasicAuthEnabled() {
			r.Use(s.basicAuth)
		}

		r.Get("/health", s.handleHealth)
		r.Get("/tasks", s.handleListTasks)
		r.Post("/tasks", s.handleCreateTask)
		r.Post("/tasks/{id}/status", s.handleChangeStatus)
		r.Get("/tasks/{id}/events", s.handleTaskEvents)
		r.Get("/workers", s.handleListWorkers)
		r.Post("/workers/{id}/heartbeat", s.handleHeartbeat)
		r.Get("/stats", s.handleStats)
	})

	return r
}

// ListenAndServe starts the server. The context is the base context for
// all requests; cancellation triggers a graceful shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:        s.env.HTTPAddr,
		Handler:     s.Handler(),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	s.logger.Info("starting dashboard api", "addr", s.env.HTTPAddr, "auth", s.env.BasicAuthEnabled())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown failed", "error", err)
		}
	}()

	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) slogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// basicAuth gates the API. The gate is only installed when both
// credentials are configured; a partial configuration leaves the API open
// rather than locking everyone out with an unusable gate.
func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.env.BasicAuthUser)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(s.env.BasicAuthPass)) == 1
		if !ok || !userOK || !passOK {
			w.Header().Set("WWW-Authenticate", `Basic realm="mission-control"`)
			writeError(w, apperr.New(apperr.Validation, "unauthorized"), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeError(w http.ResponseWriter, err error, status int) {
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: apperr.KindOf(err).String()})
}

// writeServiceError maps the error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch apperr.KindOf(err) {
	case apperr.Validation:
		writeError(w, err, http.StatusBadRequest)
	case apperr.NotFound:
		writeError(w, err, http.StatusNotFound)
	case apperr.Conflict:
		writeError(w, err, http.StatusConflict)
	default:
		writeError(w, err, http.StatusInternalServerError)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.query.ListTasks(r.Context(), 0)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": taskOverviewsJSON(tasks)})
}

type createTaskBody struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Requester   string   `json:"requester"`
	Tags        []string `json:"tags"`
	WorkerType  string   `json:"workerType"`
	WorkerID    string   `json:"workerId"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var body createTaskBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.New(apperr.Validation, "invalid json body"), http.StatusBadRequest)
		return
	}

	actor := primary.Actor{Type: task.ActorUI}
	create := primary.CreateTaskRequest{
		Title:       body.Title,
		Description: body.Description,
		Priority:    body.Priority,
		Source:      task.SourceUI,
		Requester:   body.Requester,
		Tags:        body.Tags,
		Actor:       actor,
	}

	var created *primary.Task
	var err error
	if body.WorkerType != "" {
		created, err = s.orch.CreateAndAssign(r.Context(), primary.CreateAndAssignRequest{
			Create: create,
			Assign: primary.AssignRequest{
				WorkerType: body.WorkerType,
				WorkerID:   body.WorkerID,
				Actor:      actor,
			},
		})
	} else {
		created, err = s.orch.CreateTask(r.Context(), create)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, taskJSON(created))
}

type changeStatusBody struct {
	Status string `json:"status"`
}

func (s *Server) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	var body changeStatusBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.New(apperr.Validation, "invalid json body"), http.StatusBadRequest)
		return
	}

	change, err := s.orch.ChangeStatus(r.Context(), chi.URLParam(r, "id"), body.Status,
		primary.Actor{Type: task.ActorUI})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"taskId": change.TaskID,
		"from":   change.From,
		"to":     change.To,
	})
}

func (s *Server) handleTaskEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.query.EventsForTask(r.Context(), chi.URLParam(r, "id"), 0)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": eventsJSON(events)})
}

func (s *Server) handleListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := s.query.ListWorkers(r.Context(), 0)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workers": workerOverviewsJSON(workers)})
}

type heartbeatBody struct {
	WorkerTypes []string `json:"workerTypes"`
	Status      string   `json:"status"`
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var body heartbeatBody
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, apperr.New(apperr.Validation, "invalid json body"), http.StatusBadRequest)
			return
		}
	}

	worker, err := s.orch.Heartbeat(r.Context(), primary.HeartbeatRequest{
		WorkerID:    chi.URLParam(r, "id"),
		WorkerTypes: body.WorkerTypes,
		Status:      body.Status,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workerJSON(worker))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.query.CountsByStatus(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	completed, err := s.query.CompletedByWorker(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	byStatus := map[string]int{}
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}
	byWorker := make([]map[string]any, 0, len(completed))
	for _, c := range completed {
		byWorker = append(byWorker, map[string]any{"workerId": c.WorkerID, "count": c.Count})
	}

	resp := map[string]any{
		"tasksByStatus":     byStatus,
		"completedByWorker": byWorker,
	}

	// Per-day completion series for the heatmap, 90 days by default.
	if workerID := r.URL.Query().Get("worker"); workerID != "" {
		days := 90
		if d := r.URL.Query().Get("days"); d != "" {
			parsed, err := strconv.Atoi(d)
			if err != nil || parsed <= 0 {
				writeError(w, apperr.New(apperr.Validation, "days must be a positive integer"), http.StatusBadRequest)
				return
			}
			days = parsed
		}
		daily, err := s.query.WorkerDaily(r.Context(), workerID, days)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		series := make([]map[string]any, 0, len(daily))
		for _, d := range daily {
			series = append(series, map[string]any{"day": d.Day, "count": d.Count})
		}
		resp["workerDaily"] = map[string]any{"workerId": workerID, "days": days, "series": series}
	}

	writeJSON(w, http.StatusOK, resp)
}
