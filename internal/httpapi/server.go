package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/false-systems/nopea/internal/agentrt"
	"github.com/false-systems/nopea/internal/cache"
	"github.com/false-systems/nopea/internal/deploy"
	"github.com/false-systems/nopea/internal/memory"
	"github.com/false-systems/nopea/internal/nlog"
)

const subsystem = "httpapi"

// Server holds the dependencies nopea's HTTP routes need.
type Server struct {
	registry *agentrt.Registry
	memory   *memory.Service
	cache    *cache.Cache
}

// New builds a Server. memSvc may be nil: context lookups then return
// a null context rather than failing.
func New(registry *agentrt.Registry, memSvc *memory.Service, c *cache.Cache) *Server {
	return &Server{registry: registry, memory: memSvc, cache: c}
}

// Handler builds the mux routing every HTTP route to its handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("POST /api/deploy", s.handleDeploy)
	mux.HandleFunc("GET /api/context/{service}", s.handleContext)
	mux.HandleFunc("GET /api/history/{service}", s.handleHistory)
	mux.HandleFunc("/", s.handleNotFound)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.cache.Available() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type deployRequest struct {
	Service   string           `json:"service"`
	Namespace string           `json:"namespace,omitempty"`
	Manifests []deploy.Manifest `json:"manifests,omitempty"`
	Strategy  string           `json:"strategy,omitempty"`
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	var req deployRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_json"})
		return
	}
	if req.Service == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "service is required"})
		return
	}

	spec := &deploy.Spec{
		Service:   req.Service,
		Namespace: req.Namespace,
		Manifests: req.Manifests,
		Strategy:  deploy.Strategy(req.Strategy),
	}
	spec.Normalize()

	result := s.registry.Deploy(req.Service, spec)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	service := r.PathValue("service")
	namespace := r.URL.Query().Get("namespace")
	if namespace == "" {
		namespace = "default"
	}

	if s.memory == nil {
		writeJSON(w, http.StatusOK, memory.Context{Service: service, Namespace: namespace})
		return
	}
	writeJSON(w, http.StatusOK, s.memory.GetDeployContext(service, namespace))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	service := r.PathValue("service")

	deployments := s.cache.ListDeployments(service)
	state, hasState := s.cache.ServiceState.Get(service)

	resp := map[string]interface{}{
		"service":     service,
		"deployments": deployments,
	}
	if hasState {
		resp["state"] = state
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		nlog.Warn(subsystem, "encoding response: %s", err)
	}
}
