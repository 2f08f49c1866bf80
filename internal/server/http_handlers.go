package server

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"strconv"

	"github.com/sanonone/spacecol/internal/hostinfo"
	"github.com/sanonone/spacecol/pkg/export/dot"
)

// maxStepsPerRequest bounds n on POST /step.
const maxStepsPerRequest = 10_000

// registerHTTPHandlers sets up the REST API routes.
func (s *Server) registerHTTPHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /info", s.handleInfo)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /connections", s.handleConnections)
	mux.HandleFunc("POST /step", s.handleStep)
	mux.HandleFunc("POST /run", s.handleRun)
	mux.HandleFunc("GET /tasks/{id}", s.handleTaskStatus)
	mux.HandleFunc("POST /tasks/{id}/cancel", s.handleTaskCancel)

	// --- Debug endpoints (pprof) ---
	mux.HandleFunc("GET /debug/pprof/", pprof.Index)
	mux.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeHTTPResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	cfg := s.Engine.Config()
	if cfg.Server.AuthToken != "" {
		cfg.Server.AuthToken = "redacted"
	}
	s.writeHTTPResponse(w, http.StatusOK, InfoResponse{
		RunID:  s.Engine.RunID().String(),
		Host:   hostinfo.Collect(),
		Config: cfg,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeHTTPResponse(w, http.StatusOK, s.Engine.Status())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeHTTPResponse(w, http.StatusOK, s.Engine.Snapshot())
}

// handleConnections returns JSON by default and a Graphviz digraph with
// ?format=dot.
func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	edges := s.Engine.Connections()
	switch r.URL.Query().Get("format") {
	case "", "json":
		s.writeHTTPResponse(w, http.StatusOK, ConnectionsResponse{Edges: edges})
	case "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		dot.Write(w, edges)
	default:
		s.writeHTTPError(w, http.StatusBadRequest, "format must be json or dot")
	}
}

// handleStep runs ?n= steps (default 1) synchronously.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	n := 1
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxStepsPerRequest {
			s.writeHTTPError(w, http.StatusBadRequest, "n must be an integer between 1 and "+strconv.Itoa(maxStepsPerRequest))
			return
		}
		n = v
	}

	resp := StepResponse{Steps: n}
	for range n {
		stats, err := s.Engine.Step()
		if err != nil {
			resp.Errors = append(resp.Errors, err.Error())
		}
		resp.Created += stats.Created
		resp.Last = stats
	}
	resp.Status = s.Engine.Status()
	s.writeHTTPResponse(w, http.StatusOK, resp)
}

// handleRun starts Engine.Run in the background.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	task, started := s.taskManager.Start(s.Engine.Run)
	if !started {
		s.writeHTTPResponse(w, http.StatusConflict, task.View())
		return
	}
	w.Header().Set("Location", "/tasks/"+task.ID)
	s.writeHTTPResponse(w, http.StatusAccepted, task.View())
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	task, ok := s.taskManager.GetTask(r.PathValue("id"))
	if !ok {
		s.writeHTTPError(w, http.StatusNotFound, "task not found")
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, task.View())
}

func (s *Server) handleTaskCancel(w http.ResponseWriter, r *http.Request) {
	task, ok := s.taskManager.GetTask(r.PathValue("id"))
	if !ok {
		s.writeHTTPError(w, http.StatusNotFound, "task not found")
		return
	}
	task.Cancel()
	task.Wait()
	s.writeHTTPResponse(w, http.StatusOK, task.View())
}

func (s *Server) writeHTTPResponse(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeHTTPError(w http.ResponseWriter, statusCode int, message string) {
	s.writeHTTPResponse(w, statusCode, map[string]string{"error": message})
}
