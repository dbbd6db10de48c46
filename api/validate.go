/*
validate.go - Request body decoding and schema validation

Decodes JSON request bodies and runs the validator schema declared on the
DTO. Validator failures are translated into per-field messages so clients
see "henwaste is required" instead of a raw tag dump.
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator builds the schema validator, reporting fields by their
// json tag so error messages match the wire names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate parses the request body into dst and validates it.
// On failure it writes the error response itself and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var valErrs validator.ValidationErrors
		if !errors.As(err, &valErrs) {
			writeError(w, http.StatusBadRequest, "Invalid request", err)
			return false
		}

		fields := make([]FieldErrorDTO, len(valErrs))
		for i, fe := range valErrs {
			fields[i] = FieldErrorDTO{Field: fe.Field(), Msg: fieldMessage(fe)}
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "All fields are required",
			Fields: fields,
		})
		return false
	}
	return true
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "gte":
		return "must not be negative"
	case "gt":
		return "must be positive"
	default:
		return fmt.Sprintf("is invalid (%s)", fe.Tag())
	}
}
