package api

import (
	"net/http"

	"github.com/okian/heatcheck/internal/domain/archetype"
	"github.com/okian/heatcheck/internal/domain/heat"
)

// ArchetypesHandler serves the reference data the engine evaluates against.
type ArchetypesHandler struct {
	deps Dependencies
}

// NewArchetypesHandler creates a new archetypes handler.
func NewArchetypesHandler(deps Dependencies) *ArchetypesHandler {
	return &ArchetypesHandler{deps: deps}
}

type archetypesResponse struct {
	Archetypes []archetype.PlayerArchetype `json:"archetypes"`
	Thresholds map[string][]heat.Threshold `json:"thresholds"`
}

// HandleGetArchetypes handles GET /archetypes.
func (h *ArchetypesHandler) HandleGetArchetypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, archetypesResponse{
		Archetypes: h.deps.Archetypes(),
		Thresholds: h.deps.Thresholds(),
	})
}
