package common

import (
	"fmt"
	"strings"
)

// ProblemType determines if a problem is HTTP or application related.
type ProblemType int

const (
	ProblemHttpMediaType ProblemType = iota + 1
	ProblemHttpRequestBody
	ProblemHttpRequestUri
	ProblemTooManyRequests

	// application error types
	ProblemBpm
	ProblemConflict
	ProblemForbidden
	ProblemNotFound
	ProblemUnauthorized
	ProblemUnavailable
	ProblemValidation
)

func MapProblemType(s string) ProblemType {
	switch s {
	case "HTTP_MEDIA_TYPE":
		return ProblemHttpMediaType
	case "HTTP_REQUEST_BODY":
		return ProblemHttpRequestBody
	case "HTTP_REQUEST_URI":
		return ProblemHttpRequestUri
	case "TOO_MANY_REQUESTS":
		return ProblemTooManyRequests
	case "BPM":
		return ProblemBpm
	case "CONFLICT":
		return ProblemConflict
	case "FORBIDDEN":
		return ProblemForbidden
	case "NOT_FOUND":
		return ProblemNotFound
	case "UNAUTHORIZED":
		return ProblemUnauthorized
	case "UNAVAILABLE":
		return ProblemUnavailable
	case "VALIDATION":
		return ProblemValidation
	default:
		return 0
	}
}

func (v ProblemType) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", v.String())), nil
}

func (v ProblemType) String() string {
	switch v {
	case ProblemHttpMediaType:
		return "HTTP_MEDIA_TYPE"
	case ProblemHttpRequestBody:
		return "HTTP_REQUEST_BODY"
	case ProblemHttpRequestUri:
		return "HTTP_REQUEST_URI"
	case ProblemTooManyRequests:
		return "TOO_MANY_REQUESTS"
	case ProblemBpm:
		return "BPM"
	case ProblemConflict:
		return "CONFLICT"
	case ProblemForbidden:
		return "FORBIDDEN"
	case ProblemNotFound:
		return "NOT_FOUND"
	case ProblemUnauthorized:
		return "UNAUTHORIZED"
	case ProblemUnavailable:
		return "UNAVAILABLE"
	case ProblemValidation:
		return "VALIDATION"
	default:
		return "UNKNOWN"
	}
}

func (v *ProblemType) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 {
		return fmt.Errorf("invalid problem type data %s", s)
	}
	*v = MapProblemType(s[1 : len(s)-1])
	return nil
}

// Common format for HTTP 4xx and 5xx error responses, based on https://datatracker.ietf.org/doc/html/rfc9457.
type Problem struct {
	Status int         `json:"status"`           // HTTP status code.
	Type   ProblemType `json:"type"`             // Problem type.
	Title  string      `json:"title"`            // Human-readable problem summary.
	Detail string      `json:"detail"`           // Human-readable, detailed information about the problem.
	Errors []Error     `json:"errors,omitempty"` // Validation errors.
}

func (v Problem) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("HTTP %d: %s: %s: %s", v.Status, v.Type, v.Title, v.Detail))

	for i := range v.Errors {
		sb.WriteRune('\n')
		sb.WriteString(v.Errors[i].String())
	}

	return sb.String()
}

// Error represents a failed validation, pointing on a JSON property.
type Error struct {
	// A pointer, locating the invalid JSON property.
	Pointer string `json:"pointer"`
	// Error type.
	//
	// Values:
	//   - `email`: value is not a valid email address
	//   - `max`: value or array exceeds a maximum
	//   - `min`: array falls below a minimum number of items
	//   - `required`: value is required
	Type string `json:"type"`
	// Human-readable, detailed information about the error.
	Detail string `json:"detail"`
	// Value that caused the validation error.
	Value string `json:"value,omitempty"`
}

func (v Error) String() string {
	return fmt.Sprintf("%s: %s", v.Pointer, v.Detail)
}
