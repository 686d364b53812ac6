package api

import (
	"encoding/json"
	"net/http"

	"github.com/tuanvm/fashionstore-backend/internal/apperr"
	"github.com/tuanvm/fashionstore-backend/pkg/logger"
	"go.uber.org/zap"
)

type errorBody struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error maps the business error taxonomy onto HTTP statuses. Unclassified
// errors become opaque 500s; the detail is logged, never leaked.
func Error(w http.ResponseWriter, log logger.ZapLogger, err error) {
	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindBadRequest:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperr.KindForbidden:
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		log.Error("unhandled error", zap.Error(err))
		JSON(w, status, errorBody{Kind: "internal", Detail: "Internal server error"})
		return
	}
	JSON(w, status, errorBody{Kind: kind.String(), Detail: apperr.DetailOf(err)})
}

// DecodeJSON rejects malformed or unknown-field bodies as bad requests.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.BadRequest("Invalid request body")
	}
	return nil
}
