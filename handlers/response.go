package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"panellicense/logger"
	"panellicense/middleware"
	"panellicense/models"
	"panellicense/services"
)

const maxBodyBytes = 64 << 10

// newValidator reports field errors by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and runs struct validation. Failures are InvalidRequest.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &services.LicenseError{Kind: services.KindInvalidRequest, Message: "request body is required"}
		}
		return &services.LicenseError{Kind: services.KindInvalidRequest, Message: "invalid request body", Err: err}
	}

	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &services.LicenseError{
				Kind:    services.KindInvalidRequest,
				Field:   fe.Field(),
				Message: fmt.Sprintf("%s failed the %q rule", fe.Field(), fe.Tag()),
			}
		}
		return &services.LicenseError{Kind: services.KindInvalidRequest, Message: "invalid request", Err: err}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

// errorResponse maps err to its status and envelope. Storage details never reach the client.
func errorResponse(err error) (int, models.APIResponse) {
	var le *services.LicenseError
	if !errors.As(err, &le) {
		le = &services.LicenseError{Kind: services.KindStorage, Err: err}
	}

	message := le.Error()
	if le.Kind == services.KindStorage {
		message = "internal server error"
	}
	return le.Kind.HTTPStatus(), models.CodedErrorResponse(message, le.Kind.Code(), le.Field)
}

func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, body := logError(r, op, err)
	writeJSON(w, status, body)
}

// logError maps err like errorResponse and logs the failure of op.
func logError(r *http.Request, op string, err error) (int, models.APIResponse) {
	status, body := errorResponse(err)

	fields := map[string]interface{}{
		"request_id": middleware.RequestIDFromContext(r.Context()),
		"operation":  op,
		"code":       body.Code,
		"error":      err.Error(),
	}
	if status >= http.StatusInternalServerError {
		logger.WithFields(fields).Error("License operation failed")
	} else {
		logger.WithFields(fields).Warn("License operation rejected")
	}
	return status, body
}
