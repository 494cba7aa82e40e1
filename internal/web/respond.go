package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/camuig/capital-tracker/internal/errors"
	"github.com/camuig/capital-tracker/internal/storage"
)

const dateLayout = "2006-01-02"

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	resp := errorResponse{Error: http.StatusText(status)}

	if ce := apperrors.Categorize(err); ce != nil {
		resp.Error = ce.Message
		resp.Code = ce.Code
		if field, ok := ce.Details["field"].(string); ok {
			resp.Field = field
		}
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, resp)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.NewValidationError("body", "invalid JSON body")
	}
	return nil
}

func pathID(r *http.Request) (storage.ID, error) {
	raw := chi.URLParam(r, "id")
	id, ok := storage.ParseID(raw)
	if !ok {
		return 0, apperrors.NewValidationError("id", "invalid id: "+raw)
	}
	return id, nil
}

// queryDate returns the named query parameter, which must be empty or a
// YYYY-MM-DD date.
func queryDate(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", nil
	}
	if _, err := time.Parse(dateLayout, v); err != nil {
		return "", apperrors.NewValidationError(name, name+" must be a YYYY-MM-DD date")
	}
	return v, nil
}

// queryRange reads from and to. Both or neither must be set.
func queryRange(r *http.Request) (from, to string, err error) {
	if from, err = queryDate(r, "from"); err != nil {
		return "", "", err
	}
	if to, err = queryDate(r, "to"); err != nil {
		return "", "", err
	}
	if (from == "") != (to == "") {
		return "", "", apperrors.NewValidationError("from", "from and to must be given together")
	}
	return from, to, nil
}
