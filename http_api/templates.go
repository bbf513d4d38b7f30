package http_api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pixel_forge/entities"
)

func (s *serverImpl) listTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.app.Templates(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"templates": templates, "count": len(templates)})
}

func (s *serverImpl) createTemplate(w http.ResponseWriter, r *http.Request) {
	var template entities.PromptTemplate
	if err := decodeJSON(r, &template); err != nil {
		writeError(w, err)
		return
	}

	template.ID = ""

	saved, err := s.app.SaveTemplate(r.Context(), &template)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, saved)
}

func (s *serverImpl) updateTemplate(w http.ResponseWriter, r *http.Request) {
	var template entities.PromptTemplate
	if err := decodeJSON(r, &template); err != nil {
		writeError(w, err)
		return
	}

	template.ID = chi.URLParam(r, "id")

	saved, err := s.app.SaveTemplate(r.Context(), &template)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, saved)
}

func (s *serverImpl) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.app.DeleteTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *serverImpl) getCredentials(w http.ResponseWriter, r *http.Request) {
	configured, err := s.app.ConfiguredProviders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"configured": configured})
}

type credentialRequest struct {
	APIKey string `json:"apiKey"`
}

func (s *serverImpl) putCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.app.SetCredential(r.Context(), chi.URLParam(r, "provider"), req.APIKey); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
