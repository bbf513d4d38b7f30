package http_api

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"pixel_forge/entities"
	"pixel_forge/history"
	"pixel_forge/randomizer"
)

func (s *serverImpl) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *serverImpl) generate(w http.ResponseWriter, r *http.Request) {
	var opts entities.GenerationOptions
	if err := decodeJSON(r, &opts); err != nil {
		writeError(w, err)
		return
	}

	records, err := s.app.Generate(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"records": records, "count": len(records)})
}

func (s *serverImpl) regenerate(w http.ResponseWriter, r *http.Request) {
	records, err := s.app.Regenerate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"records": records, "count": len(records)})
}

func (s *serverImpl) status(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"status":     s.app.ProcessingStatus(),
		"generating": s.app.IsGenerating(),
		"lastError":  s.app.LastError(),
		"current":    nil,
	}

	if current := s.app.Current(); current != nil {
		body["current"] = current.ID
	}

	writeJSON(w, http.StatusOK, body)
}

type randomizeRequest struct {
	Mode     string                     `json:"mode"`
	Category string                     `json:"category"`
	Current  entities.GenerationOptions `json:"current"`
}

func (s *serverImpl) randomize(w http.ResponseWriter, r *http.Request) {
	var req randomizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	mode, err := randomizer.ParseMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}

	opts, err := s.app.Randomize(r.Context(), mode, req.Category, req.Current)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, opts)
}

// importPNG accepts a multipart "file" field or a raw PNG body.
func (s *serverImpl) importPNG(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var source io.Reader = r.Body

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
			return
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file required"})
			return
		}
		defer file.Close()

		source = file
	}

	data, err := io.ReadAll(source)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read image"})
		return
	}

	opts, err := s.app.ImportPNG(data)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, opts)
}

func (s *serverImpl) modifiers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"styles":      entities.Styles,
		"lighting":    entities.Lighting,
		"moods":       entities.Moods,
		"ratios":      entities.Ratios,
		"resolutions": entities.Resolutions,
		"categories":  randomizer.Categories,
		"variations":  map[string]int{"min": entities.MinVariations, "max": entities.MaxVariations},
	})
}

type historyRow struct {
	Record     *entities.ImageRecord `json:"record"`
	Variations int                   `json:"variations"`
}

// listHistory returns the displayed rows. Image payloads are left out unless
// images=true.
func (s *serverImpl) listHistory(w http.ResponseWriter, r *http.Request) {
	withImages := r.URL.Query().Get("images") == "true"
	manager := s.app.History()

	rows := manager.Filtered()
	out := make([]historyRow, 0, len(rows))

	for _, record := range rows {
		count := 1
		if groupID := record.GroupID(); groupID != "" {
			count = len(manager.Variations(groupID))
		}

		if !withImages {
			record.ImageBase64 = ""
		}

		out = append(out, historyRow{Record: record, Variations: count})
	}

	writeJSON(w, http.StatusOK, map[string]any{"rows": out, "count": len(out), "view": manager.View()})
}

func (s *serverImpl) getView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.app.History().View())
}

type viewRequest struct {
	SearchTerm  *string `json:"searchTerm"`
	StyleFilter *string `json:"styleFilter"`
	Sort        *string `json:"sort"`
}

func (s *serverImpl) putView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	manager := s.app.History()

	if req.Sort != nil {
		order, err := history.ParseSortOrder(*req.Sort)
		if err != nil {
			writeError(w, err)
			return
		}

		if err := manager.SetSort(order); err != nil {
			writeError(w, err)
			return
		}
	}

	if req.SearchTerm != nil {
		manager.SetSearchTerm(*req.SearchTerm)
	}

	if req.StyleFilter != nil {
		manager.SetStyleFilter(*req.StyleFilter)
	}

	writeJSON(w, http.StatusOK, manager.View())
}

func (s *serverImpl) getRecord(w http.ResponseWriter, r *http.Request) {
	record, err := s.app.Record(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (s *serverImpl) deleteRecord(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.app.DeleteRecord(r.Context(), chi.URLParam(r, "id"))
	writeDeleted(w, deleted, err)
}

func writeDeleted(w http.ResponseWriter, deleted []string, err error) {
	if err != nil && len(deleted) == 0 {
		writeError(w, err)
		return
	}

	body := map[string]any{"deleted": deleted, "count": len(deleted)}
	if err != nil {
		body["error"] = err.Error()
		writeJSON(w, http.StatusMultiStatus, body)

		return
	}

	writeJSON(w, http.StatusOK, body)
}

func (s *serverImpl) recordImage(w http.ResponseWriter, r *http.Request) {
	data, record, err := s.app.ImageOf(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	filename := ""
	if r.URL.Query().Get("download") == "true" {
		filename = record.Filename + ".png"
	}

	writeFile(w, http.DetectContentType(data), filename, data)
}

func (s *serverImpl) recordMetadata(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer

	name, err := s.app.ExportMetadata(r.Context(), chi.URLParam(r, "id"), &buf)
	if err != nil {
		writeError(w, err)
		return
	}

	writeFile(w, "application/json", name, buf.Bytes())
}

func (s *serverImpl) getGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.app.Variations(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"variations": group, "count": len(group)})
}

func (s *serverImpl) deleteGroup(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.app.DeleteGroup(r.Context(), chi.URLParam(r, "groupID"))
	writeDeleted(w, deleted, err)
}

func (s *serverImpl) exportGroup(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer

	name, err := s.app.ExportGroup(r.Context(), chi.URLParam(r, "groupID"), &buf)
	if err != nil {
		writeError(w, err)
		return
	}

	writeFile(w, "application/zip", name, buf.Bytes())
}

func (s *serverImpl) groupSheet(w http.ResponseWriter, r *http.Request) {
	sheet, err := s.app.ContactSheet(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeFile(w, "image/png", "", sheet)
}
