// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alchemorsel/kitchenops/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/kitchenops/pkg/errors"
)

// maxBodyBytes bounds request bodies; the largest legitimate body is a
// proposal with a list of external swaps.
const maxBodyBytes = 1 << 20

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// writeJSON writes a JSON response
func (h *RotationHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(APIResponse{Success: true, Data: data}); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// writeError renders any error as an ErrorResponse. Errors that are not
// AppErrors are reported as internal and logged with their cause.
func (h *RotationHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := errors.Wrap(err, "Request failed")
	if appErr.StatusCode() >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.String("code", string(appErr.Code)),
			zap.Error(err),
		)
	}
	middleware.WriteError(w, r, appErr, 0)
}

// decode reads a JSON body into dst and validates it
func (h *RotationHandlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.NewBadRequestError("Malformed JSON body").WithCause(err)
	}
	return h.validate(dst)
}

func (h *RotationHandlers) validate(dst interface{}) error {
	err := h.validator.Struct(dst)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.NewBadRequestError(err.Error())
	}
	out := make([]errors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, errors.ValidationError{
			Field:   fe.Field(),
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()),
		})
	}
	return errors.NewValidationErrors(out)
}

// newValidator reports JSON field names instead of Go field names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, errors.NewValidationError(fmt.Sprintf("%s must be a UUID", name))
	}
	return id, nil
}

func intParam(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, errors.NewValidationError(fmt.Sprintf("%s must be an integer", name))
	}
	return n, nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
}

// parseDay accepts 0..6 (0 = Sunday) or an English weekday name.
// Range checking is left to the domain.
func parseDay(s string) (time.Weekday, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Weekday(n), nil
	}
	if d, ok := weekdayNames[strings.ToLower(s)]; ok {
		return d, nil
	}
	return 0, errors.NewValidationError(fmt.Sprintf("day %q is neither 0..6 nor a weekday name", s))
}
