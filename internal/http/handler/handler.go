package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mariabakes/breads-rest-api/internal/http/response"
	"github.com/mariabakes/breads-rest-api/internal/repository"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeAndValidate parses the JSON body into dst and runs struct validation.
// On failure it writes the error response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		response.Error(w, r, http.StatusBadRequest, "INVALID_BODY", "malformed request body", nil)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		details := map[string]string{}
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details[fe.Field()] = fe.Tag()
			}
		}
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_FAILED", "request validation failed", details)
		return false
	}
	return true
}

func urlID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		response.Error(w, r, http.StatusBadRequest, "INVALID_ID", "invalid "+name+" parameter", nil)
		return 0, false
	}
	return uint(id), true
}

// writeDomainError maps repository sentinels onto the API error taxonomy.
// Anything unrecognized is a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrBakeryNotFound),
		errors.Is(err, repository.ErrBreadNotFound),
		errors.Is(err, repository.ErrTagNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, repository.ErrDuplicateKey):
		response.Error(w, r, http.StatusConflict, "CONFLICT", "resource already exists", nil)
	default:
		response.Internal(w, r)
	}
}
