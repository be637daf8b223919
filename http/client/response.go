package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gclaussn/go-planning/http/common"
	"github.com/gclaussn/go-planning/planning"
)

// decodeJSONResponseBody decodes a successful response into v. A problem response is returned as [planning.Error],
// if it maps to an application error type, and as [common.Problem] otherwise.
func decodeJSONResponseBody(res *http.Response, v any) error {
	defer res.Body.Close()

	decoder := json.NewDecoder(res.Body)

	contentType := res.Header.Get(common.HeaderContentType)
	if contentType == common.ContentTypeProblemJson {
		var problem common.Problem
		if err := decoder.Decode(&problem); err != nil {
			return fmt.Errorf("failed to decode JSON problem response body: %v", err)
		}

		var errorType planning.ErrorType
		switch problem.Type {
		case common.ProblemBpm:
			errorType = planning.ErrorBpm
		case common.ProblemConflict:
			errorType = planning.ErrorConflict
		case common.ProblemForbidden:
			errorType = planning.ErrorForbidden
		case common.ProblemNotFound:
			errorType = planning.ErrorNotFound
		case common.ProblemUnauthorized:
			errorType = planning.ErrorUnauthorized
		case common.ProblemUnavailable:
			errorType = planning.ErrorUnavailable
		case common.ProblemValidation:
			if len(problem.Errors) > 0 {
				return problem
			}
			errorType = planning.ErrorValidation
		default:
			return problem
		}

		return planning.Error{
			Type:   errorType,
			Title:  problem.Title,
			Detail: problem.Detail,
		}
	}

	if res.StatusCode >= 300 {
		text := fmt.Sprintf(
			"%s %s: HTTP %d",
			res.Request.Method,
			res.Request.URL.Path,
			res.StatusCode,
		)

		b, err := io.ReadAll(res.Body)
		if err != nil {
			return fmt.Errorf("%s: %v", text, err)
		} else if len(b) != 0 {
			return fmt.Errorf("%s: %s", text, string(b))
		} else {
			return errors.New(text)
		}
	}

	if v == nil {
		return nil
	}
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("failed to decode JSON response body: %v", err)
	}

	return nil
}
