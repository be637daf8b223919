package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gclaussn/go-planning/http/common"
	"github.com/gclaussn/go-planning/planning"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0] // e.g. `json:"startDate,omitempty"` -> startDate
	})

	// validate dates as strings, so that a zero date fails "required"
	validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
		date, ok := field.Interface().(planning.Date)
		if !ok || date.IsZero() {
			return ""
		}
		return date.String()
	}, planning.Date{})

	return validate
}

// decodeJSONRequestBody decodes the request body using v and validates it.
// Media type, request body or validation related errors are returned as a Problem.
//
// inspired by https://www.alexedwards.net/blog/how-to-properly-parse-a-json-request-body
func decodeJSONRequestBody(w http.ResponseWriter, r *http.Request, v any) error {
	if contentType := r.Header.Get(common.HeaderContentType); contentType != "" {
		mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
		if mediaType != common.ContentTypeJson {
			return common.Problem{
				Status: http.StatusUnsupportedMediaType,
				Type:   common.ProblemHttpMediaType,
				Title:  "unsupported media type",
				Detail: fmt.Sprintf("media type %s is not supported", mediaType),
			}
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, 65536) // 64kb

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		problem := common.Problem{
			Status: http.StatusBadRequest,
			Type:   common.ProblemHttpRequestBody,
			Title:  "invalid request body",
		}

		switch {
		case errors.As(err, &syntaxError):
			problem.Detail = fmt.Sprintf("malformed JSON at position %d", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			problem.Detail = "unexpected end of JSON"
		case errors.As(err, &unmarshalTypeError):
			problem.Detail = fmt.Sprintf("JSON field %s has an invalid value at position %d", unmarshalTypeError.Field, unmarshalTypeError.Offset)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			problem.Detail = fmt.Sprintf("unknown JSON field %s", fieldName)
		case errors.Is(err, io.EOF):
			problem.Detail = "request body is empty"
		case errors.As(err, &maxBytesError):
			problem.Detail = "request body size must not exceed 64KB"
		default:
			problem.Detail = fmt.Sprintf("failed to unmarshal JSON: %v", err)
		}

		return problem
	}

	if err := validate.Struct(v); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}

		errors := make([]common.Error, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			var (
				detail string
				value  string
			)
			switch fieldError.Tag() {
			case "email":
				detail = "must be a valid email address"
				value = fmt.Sprintf("%v", fieldError.Value())
			case "max":
				detail = fmt.Sprintf("exceeds a maximum of %s", fieldError.Param())
			case "min":
				detail = fmt.Sprintf("must contain at least %s items", fieldError.Param())
			case "required":
				detail = "is required"
			default:
				detail = "unknown error"
				value = fmt.Sprintf("%v", fieldError.Value())
			}

			errors = append(errors, common.Error{
				Pointer: toPointer(fieldError.Namespace()),
				Type:    fieldError.Tag(),
				Detail:  detail,
				Value:   value,
			})
		}

		return common.Problem{
			Status: http.StatusBadRequest,
			Type:   common.ProblemValidation,
			Title:  "invalid request body",
			Detail: "failed to validate request body",
			Errors: errors,
		}
	}

	return nil
}

// toPointer converts a validator namespace into a JSON pointer, e.g. "CreateProjectCmd.resources[1]" -> "#/resources/1".
func toPointer(namespace string) string {
	var (
		pointerBuilder strings.Builder
		next           rune
	)
	for _, r := range namespace {
		if pointerBuilder.Len() == 0 {
			// skip until first dot
			if r == '.' {
				pointerBuilder.WriteString("#/")
			}
			continue
		}

		switch r {
		case '.', '[':
			next = '/'
		case ']':
			continue
		default:
			next = r
		}

		pointerBuilder.WriteRune(next)
	}
	return pointerBuilder.String()
}

func parseId(r *http.Request) (int32, error) {
	idValue := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idValue, 10, 32)
	if err != nil {
		return 0, common.Problem{
			Status: http.StatusBadRequest,
			Type:   common.ProblemHttpRequestUri,
			Title:  "invalid path parameter id",
			Detail: fmt.Sprintf("failed to parse value '%s'", idValue),
		}
	}
	if id < 1 {
		return 0, common.Problem{
			Status: http.StatusBadRequest,
			Type:   common.ProblemValidation,
			Title:  "invalid path parameter id",
			Detail: fmt.Sprintf("ID %s must be greater than 0", idValue),
		}
	}
	return int32(id), nil
}
