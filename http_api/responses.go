package http_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"pixel_forge/entities"
	"pixel_forge/generation"
	"pixel_forge/repositories"
	"pixel_forge/studio"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}

	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(data); err != nil {
		log.Printf("Error writing %s: %v", filename, err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, &entities.ValidationError{}):
		return http.StatusBadRequest
	case errors.Is(err, &entities.ConfigurationError{}):
		return http.StatusPreconditionFailed
	case errors.Is(err, &entities.ContentSafetyError{}):
		return http.StatusUnprocessableEntity
	case errors.Is(err, &entities.APIError{}):
		return http.StatusBadGateway
	case errors.Is(err, generation.ErrGenerationInProgress):
		return http.StatusConflict
	case errors.Is(err, &repositories.NotFoundError{}):
		return http.StatusNotFound
	case errors.Is(err, studio.ErrUploadsDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)

	body := map[string]any{"error": err.Error()}
	if status == http.StatusPreconditionFailed {
		body["configure"] = true
	}

	if status >= http.StatusInternalServerError {
		log.Printf("Error handling request: %v", err)
	}

	writeJSON(w, status, body)
}

func decodeJSON(r *http.Request, dest any) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return &entities.ValidationError{Field: "body", Message: "invalid request body"}
	}

	return nil
}
