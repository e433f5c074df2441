package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/opsledger/catalog/internal/api/middleware"
	"github.com/opsledger/catalog/internal/services"
)

// patches are small; anything larger is hostile
const maxPatchBytes = 64 << 10

// ComponentsHandler exposes the component collection and records.
// Package URLs contain slashes, so record routes are mounted on a
// wildcard and the raw path tail is the identifier.
type ComponentsHandler struct {
	svc services.ComponentService
}

func NewComponentsHandler(svc services.ComponentService) *ComponentsHandler {
	return &ComponentsHandler{svc: svc}
}

func (h *ComponentsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.List(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, page)
}

func (h *ComponentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateComponentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	actor := middleware.GetActor(r.Context())
	c, err := h.svc.Create(r.Context(), &input, actor.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, c)
}

func (h *ComponentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), packageURLParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

func (h *ComponentsHandler) Patch(w http.ResponseWriter, r *http.Request) {
	ops, err := io.ReadAll(io.LimitReader(r.Body, maxPatchBytes))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "unreadable request body")
		return
	}
	actor := middleware.GetActor(r.Context())
	outcome, err := h.svc.Patch(r.Context(), packageURLParam(r), ops, actor.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	if !outcome.Modified {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeData(w, http.StatusOK, outcome.Component)
}

func (h *ComponentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), packageURLParam(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func packageURLParam(r *http.Request) string {
	raw := chi.URLParam(r, "*")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		return unescaped
	}
	return raw
}
