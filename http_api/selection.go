package http_api

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *serverImpl) selectionState() map[string]any {
	coordinator := s.app.Selection()

	return map[string]any{
		"inMode":      coordinator.InMode(),
		"count":       coordinator.Count(),
		"allSelected": coordinator.IsAllSelected(),
		"ids":         coordinator.SelectedIDs(),
	}
}

func (s *serverImpl) getSelection(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.selectionState())
}

func (s *serverImpl) clearSelection(w http.ResponseWriter, _ *http.Request) {
	s.app.Selection().Clear()
	writeJSON(w, http.StatusOK, s.selectionState())
}

type modeRequest struct {
	Enabled *bool `json:"enabled"`
}

// selectionMode sets the mode when enabled is given and toggles it otherwise.
func (s *serverImpl) selectionMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	coordinator := s.app.Selection()

	switch {
	case req.Enabled == nil:
		coordinator.ToggleMode()
	case *req.Enabled:
		coordinator.EnterMode()
	default:
		coordinator.LeaveMode()
	}

	writeJSON(w, http.StatusOK, s.selectionState())
}

func (s *serverImpl) toggleSelection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.app.Record(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	s.app.Selection().Toggle(id)
	writeJSON(w, http.StatusOK, s.selectionState())
}

func (s *serverImpl) toggleAll(w http.ResponseWriter, _ *http.Request) {
	s.app.Selection().ToggleAll()
	writeJSON(w, http.StatusOK, s.selectionState())
}

func (s *serverImpl) deleteSelection(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.app.BulkDelete(r.Context())
	writeDeleted(w, deleted, err)
}

func (s *serverImpl) exportSelection(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer

	name, err := s.app.ExportSelected(r.Context(), &buf)
	if err != nil {
		writeError(w, err)
		return
	}

	writeFile(w, "application/zip", name, buf.Bytes())
}

func (s *serverImpl) uploadSelection(w http.ResponseWriter, r *http.Request) {
	upload, err := s.app.UploadSelected(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, upload)
}
