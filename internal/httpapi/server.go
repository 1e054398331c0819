// Package httpapi is a thin net/http mapping over the Job Store and
// Ready Transport operations: a translation layer with no business
// logic of its own, one handleXxx per route registered directly on
// http.ServeMux with no router library, serving a JSON REST surface.
package httpapi

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"jobengine/internal/errs"
	"jobengine/internal/job"
	"jobengine/internal/metrics"
	"jobengine/internal/policy"
	"jobengine/internal/store"
	"jobengine/internal/transport"
)

const defaultPageSize = 20
const maxPageSize = 200

// Server wires the Store and Transport into the HTTP operations table.
type Server struct {
	store     store.Store
	transport transport.Transport
	poolSize  int
	mux       *http.ServeMux
}

func NewServer(s store.Store, t transport.Transport, poolSize int) *Server {
	srv := &Server{store: s, transport: t, poolSize: poolSize, mux: http.NewServeMux()}
	srv.routes()
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) routes() {
	s.mux.HandleFunc("/jobs", s.handleJobsCollection)
	s.mux.HandleFunc("/jobs/", s.handleJobByID)
	s.mux.HandleFunc("/stats", s.handleStats)
	s.mux.HandleFunc("/policy", s.handlePolicy)
	s.mux.HandleFunc("/scheduler/status", s.handleSchedulerStatus)
	s.mux.HandleFunc("/dlq", s.handleDLQ)
	s.mux.HandleFunc("/health", s.handleHealth)
}

// handleJobsCollection serves "submit job" (POST) and "list jobs" (GET).
func (s *Server) handleJobsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.submitJob(w, r)
	case http.MethodGet:
		s.listJobs(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type submitRequest struct {
	Name              string                 `json:"name"`
	JobType           string                 `json:"job_type"`
	Payload           map[string]interface{} `json:"payload"`
	Priority          int                    `json:"priority,omitempty"`
	EstimatedDuration float64                `json:"estimated_duration,omitempty"`
	// MaxRetries is a pointer so an explicit 0 in the request body
	// survives decoding instead of being indistinguishable from "omitted".
	MaxRetries *int `json:"max_retries,omitempty"`
}

func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	j, err := s.store.Create(r.Context(), job.Spec{
		Name:              req.Name,
		JobType:           req.JobType,
		Payload:           req.Payload,
		Priority:          req.Priority,
		EstimatedDuration: req.EstimatedDuration,
		MaxRetries:        req.MaxRetries,
	})
	if err != nil {
		var ve *errs.ValidationError
		if asValidation(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
			return
		}
		log.Printf("httpapi: submit failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	metrics.JobsSubmittedTotal.Inc()
	writeJSON(w, http.StatusCreated, j)
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := job.Status(q.Get("status"))
	jobType := q.Get("job_type")
	page := parseIntDefault(q.Get("page"), 1)
	pageSize := parseIntDefault(q.Get("page_size"), defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}

	items, err := s.store.List(r.Context(), status, jobType, pageSize, (page-1)*pageSize)
	if err != nil {
		log.Printf("httpapi: list failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	total, err := s.store.CountList(r.Context(), status, jobType)
	if err != nil {
		log.Printf("httpapi: count failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// handleJobByID serves "get job" (GET) and "cancel job" (DELETE) at
// /jobs/{id}.
func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/jobs/"):]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		j, err := s.store.Get(r.Context(), id)
		if err != nil {
			if errs.IsNotFound(err) {
				writeError(w, http.StatusNotFound, "job not found")
				return
			}
			writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
		writeJSON(w, http.StatusOK, j)
	case http.MethodDelete:
		err := s.store.Delete(r.Context(), id)
		switch {
		case err == nil:
			w.WriteHeader(http.StatusOK)
		case errs.IsNotFound(err):
			writeError(w, http.StatusNotFound, "job not found")
		case errs.IsConflict(err):
			writeError(w, http.StatusConflict, "job is running or already terminal")
		default:
			writeError(w, http.StatusServiceUnavailable, "store unavailable")
		}
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.CountByStatus(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	dlq, _ := s.transport.ListDLQ(r.Context(), 0, 0)
	depth, _ := s.transport.Depth(r.Context())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"counts":      counts,
		"dlq_size":    len(dlq),
		"queue_depth": depth,
	})
}

type setPolicyRequest struct {
	Policy string `json:"policy"`
}

func (s *Server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut, http.MethodPost:
		var req setPolicyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if !isKnownPolicy(req.Policy) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown policy %q", req.Policy))
			return
		}
		if err := s.transport.SetPolicy(r.Context(), req.Policy); err != nil {
			writeError(w, http.StatusServiceUnavailable, "transport unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"policy":       req.Policy,
			"effective_at": "next engine tick",
		})
	case http.MethodGet:
		name, err := s.transport.GetPolicy(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "transport unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"policy": name})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	name, err := s.transport.GetPolicy(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "transport unavailable")
		return
	}
	depth, err := s.transport.Depth(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "transport unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"policy":      name,
		"queue_depth": depth,
		"pool_size":   s.poolSize,
	})
}

func (s *Server) handleDLQ(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseIntDefault(q.Get("page"), 1)
	pageSize := parseIntDefault(q.Get("page_size"), defaultPageSize)
	if page < 1 {
		page = 1
	}
	entries, err := s.transport.ListDLQ(r.Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "transport unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": entries, "page": page, "page_size": pageSize})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storeStatus := "ok"
	if _, err := s.store.CountByStatus(r.Context()); err != nil {
		storeStatus = "down"
	}
	transportStatus := "ok"
	if _, err := s.transport.Depth(r.Context()); err != nil {
		transportStatus = "down"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"store": storeStatus, "transport": transportStatus})
}

func isKnownPolicy(name string) bool {
	switch name {
	case policy.FCFS, policy.SJF, policy.Priority, policy.RoundRobin:
		return true
	default:
		return false
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpapi: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func asValidation(err error, target **errs.ValidationError) bool {
	ve, ok := err.(*errs.ValidationError)
	if !ok {
		return false
	}
	*target = ve
	return true
}
