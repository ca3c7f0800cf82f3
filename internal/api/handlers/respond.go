package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/ludoteca/catalog-api/internal/domain"
)

var validate = validator.New()

type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a domain error kind to its status code. Anything outside
// the closed set degrades to a generic 500.
func writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	writeJSON(w, kind.HTTPStatus(), errorResponse{Message: domain.MessageOf(err)})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Message: message})
}

// decodeValid decodes a JSON body into v and runs struct validation.
func decodeValid(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return validate.Struct(v)
}

func idParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// pageRequest reads the pagination query parameters. createdAt selects the
// cursor variant and wins over page when both are present.
func pageRequest(r *http.Request) (domain.PageRequest, error) {
	req := domain.PageRequest{}
	q := r.URL.Query()

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return req, err
		}
		req.Limit = limit
	}
	if raw := q.Get("createdAt"); raw != "" {
		cursor, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return req, err
		}
		req.CreatedAt = &cursor
		return req, nil
	}
	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return req, err
		}
		req.Page = page
	}
	return req, nil
}
