package rest

import (
	"encoding/json"
	"net/http"

	"data-syncer/src/logger"
	"data-syncer/src/models"
	"data-syncer/src/syncer"
	"data-syncer/src/utils"

	"github.com/gorilla/mux"
)

// -----------------------------------------------------------------------------
// APIHandler serves the REST control surface for the syncer
// -----------------------------------------------------------------------------

type APIHandler struct {
	Name   string
	logger *logger.Logger
	syncer *syncer.Syncer
}

// -----------------------------------------------------------------------------

// NewAPIHandler creates a new APIHandler instance
func NewAPIHandler(log *logger.Logger, s *syncer.Syncer) *APIHandler {
	return &APIHandler{
		Name:   "RESTControlAPI",
		logger: log,
		syncer: s,
	}
}

// -----------------------------------------------------------------------------

// Router builds the mux router with all control endpoints registered.
func (h *APIHandler) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/rest/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/rest/sources", h.ListSources).Methods(http.MethodGet)
	r.HandleFunc("/rest/sources", h.AddSource).Methods(http.MethodPost)
	r.HandleFunc("/rest/sources/{name}", h.RemoveSource).Methods(http.MethodDelete)
	r.HandleFunc("/rest/sources/{name}", h.UpdateSource).Methods(http.MethodPut)
	r.HandleFunc("/rest/sources/{name}/status", h.SourceStatus).Methods(http.MethodGet)
	r.HandleFunc("/rest/sources/{name}/state", h.SourceState).Methods(http.MethodGet)
	r.HandleFunc("/rest/sources/{name}/start", h.StartSource).Methods(http.MethodPost)
	r.HandleFunc("/rest/sources/{name}/stop", h.StopSource).Methods(http.MethodPost)
	r.HandleFunc("/rest/sources/{name}/refresh", h.RefreshSource).Methods(http.MethodPost)
	r.HandleFunc("/rest/sources/{name}/send", h.SendMessage).Methods(http.MethodPost)

	return r
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

// HealthCheck reports overall service health
func (h *APIHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"sources": len(h.syncer.ListSources()),
	})
}

// -----------------------------------------------------------------------------

// ListSources returns the status of every managed source
func (h *APIHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	statuses := h.syncer.Statuses()
	for _, status := range statuses {
		status.Endpoint = utils.MaskAPIKey(status.Endpoint)
	}
	h.writeJSON(w, http.StatusOK, statuses)
}

// -----------------------------------------------------------------------------

// AddSource registers a new source from a JSON config body
func (h *APIHandler) AddSource(w http.ResponseWriter, r *http.Request) {
	sourceConfig, ok := h.decodeSourceConfig(w, r)
	if !ok {
		return
	}

	if err := h.syncer.AddSource(sourceConfig); err != nil {
		h.writeError(w, http.StatusConflict, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"result": "added", "name": sourceConfig.Name})
}

// -----------------------------------------------------------------------------

// UpdateSource replaces a source's configuration (teardown plus recreate)
func (h *APIHandler) UpdateSource(w http.ResponseWriter, r *http.Request) {
	sourceConfig, ok := h.decodeSourceConfig(w, r)
	if !ok {
		return
	}
	sourceConfig.Name = mux.Vars(r)["name"]

	if err := h.syncer.UpdateSource(sourceConfig); err != nil {
		h.writeError(w, http.StatusNotFound, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"result": "updated", "name": sourceConfig.Name})
}

// -----------------------------------------------------------------------------

// RemoveSource stops and deletes a source
func (h *APIHandler) RemoveSource(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.syncer.RemoveSource(name); err != nil {
		h.writeError(w, http.StatusNotFound, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"result": "removed", "name": name})
}

// -----------------------------------------------------------------------------

// SourceStatus returns one source's runtime status
func (h *APIHandler) SourceStatus(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	status, err := h.syncer.GetSourceStatus(name)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err)
		return
	}
	status.Endpoint = utils.MaskAPIKey(status.Endpoint)
	h.writeJSON(w, http.StatusOK, status)
}

// -----------------------------------------------------------------------------

// SourceState returns one source's observable state
func (h *APIHandler) SourceState(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	state, err := h.syncer.GetSourceState(name)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err)
		return
	}
	h.writeJSON(w, http.StatusOK, state)
}

// -----------------------------------------------------------------------------

// StartSource starts one source
func (h *APIHandler) StartSource(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.syncer.StartSource(name); err != nil {
		h.writeError(w, http.StatusBadGateway, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"result": "started", "name": name})
}

// -----------------------------------------------------------------------------

// StopSource stops one source
func (h *APIHandler) StopSource(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.syncer.StopSource(name); err != nil {
		h.writeError(w, http.StatusNotFound, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"result": "stopped", "name": name})
}

// -----------------------------------------------------------------------------

// RefreshSource triggers an immediate fetch on a timed source
func (h *APIHandler) RefreshSource(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.syncer.RefreshSource(name); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"result": "refreshed", "name": name})
}

// -----------------------------------------------------------------------------

// SendMessage forwards a JSON payload over a push source
func (h *APIHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var payload any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.syncer.SendMessage(name, payload); err != nil {
		h.writeError(w, http.StatusConflict, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"result": "sent", "name": name})
}

// -----------------------------------------------------------------------------
// Private/Helper Methods
// -----------------------------------------------------------------------------

// decodeSourceConfig parses and sanity-checks a source config body.
func (h *APIHandler) decodeSourceConfig(w http.ResponseWriter, r *http.Request) (*models.MSourceConfig, bool) {
	var sourceConfig models.MSourceConfig
	if err := json.NewDecoder(r.Body).Decode(&sourceConfig); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	return &sourceConfig, true
}

// -----------------------------------------------------------------------------

func (h *APIHandler) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("%s : failed to encode response: %v", h.Name, err)
	}
}

// -----------------------------------------------------------------------------

func (h *APIHandler) writeError(w http.ResponseWriter, code int, err error) {
	h.logger.Warning("%s : request failed: %v", h.Name, err)
	h.writeJSON(w, code, map[string]string{"error": err.Error()})
}
