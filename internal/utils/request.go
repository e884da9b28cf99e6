package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	appErrors "github.com/akozlov/webstore/internal/errors"
	"github.com/akozlov/webstore/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

func DecodeJSONBody(r *http.Request, dest any) error {

	body, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Error("Failed to read request body",
			slog.String("error", err.Error()),
			slog.String("endpoint", r.URL.Path),
		)

		return fmt.Errorf("failed to read request body: %w", err)
	}

	defer r.Body.Close()

	if len(body) == 0 {
		slog.Warn("Empty request body", slog.String("endpoint", r.URL.Path))

		return errors.New("request body cannot be empty")
	}

	if err := json.Unmarshal(body, dest); err != nil {
		slog.Warn("Failed to parse request JSON",
			slog.String("error", err.Error()),
			slog.String("endpoint", r.URL.Path),
		)

		return fmt.Errorf("invalid JSON format: %w", err)
	}

	return nil
}

// ParseAndValidate decodes the JSON body into dest and runs struct
// validation, writing the error response itself on failure.
func ParseAndValidate(r *http.Request, w http.ResponseWriter, dest any, validate *validator.Validate) bool {

	if err := DecodeJSONBody(r, dest); err != nil {
		response.Error(w, appErrors.BadRequestError("Invalid request body").WithError(err))

		return false
	}

	if err := validate.Struct(dest); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			response.ValidationError(w, validationErrs)

			return false
		}

		response.Error(w, err)

		return false
	}

	return true
}

// ValidateRequest runs struct validation only, for requests assembled from
// form fields rather than a JSON body.
func ValidateRequest(w http.ResponseWriter, dest any, validate *validator.Validate) bool {

	if err := validate.Struct(dest); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			response.ValidationError(w, validationErrs)

			return false
		}

		response.Error(w, err)

		return false
	}

	return true
}
