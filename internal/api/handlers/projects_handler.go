package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/opsledger/catalog/internal/services"
)

// ProjectsHandler exposes the project aggregate and the project-scoped
// component listing.
type ProjectsHandler struct {
	projects   services.ProjectService
	components services.ComponentService
}

func NewProjectsHandler(projects services.ProjectService, components services.ComponentService) *ProjectsHandler {
	return &ProjectsHandler{projects: projects, components: components}
}

func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := projectIDParam(w, r)
	if !ok {
		return
	}
	agg, err := h.projects.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, agg)
}

func (h *ProjectsHandler) ListComponents(w http.ResponseWriter, r *http.Request) {
	id, ok := projectIDParam(w, r)
	if !ok {
		return
	}
	page, err := h.components.ProjectComponents(r.Context(), id, r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, page)
}

func projectIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid project id")
		return 0, false
	}
	return id, true
}
