package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"warehouse-be/internal/apperr"
	"warehouse-be/internal/logger"
	"warehouse-be/internal/middleware"
	"warehouse-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object into dst. Malformed bodies are bad
// requests; well-formed bodies with wrongly typed fields fail validation.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &typeErr):
			return apperr.Validation("invalid value for field " + typeErr.Field)
		case errors.As(err, &maxErr):
			return apperr.BadRequest("request body too large")
		case errors.Is(err, io.EOF):
			return apperr.BadRequest("request body is empty")
		default:
			return apperr.BadRequest("invalid JSON body")
		}
	}
	return nil
}

// writeError logs internal failures with their cause before rendering the
// public detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("layer", "api"),
			zap.Error(err),
		)
	}
	middleware.WriteError(w, r, err)
}

func pathID(r *http.Request) (int64, error) {
	id, ok := utils.ParseID(chi.URLParam(r, "id"))
	if !ok {
		return 0, apperr.Validation("id must be a positive integer")
	}
	return id, nil
}
