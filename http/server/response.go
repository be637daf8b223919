package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gclaussn/go-planning/http/common"
	"github.com/gclaussn/go-planning/planning"
	"github.com/hashicorp/go-hclog"
)

func encodeJSONProblemResponseBody(w http.ResponseWriter, r *http.Request, logger hclog.Logger, err error) {
	var problem common.Problem
	var planningErr planning.Error

	switch {
	case errors.As(err, &problem):
	case errors.As(err, &planningErr) && planningErr.Type != 0:
		problem = toProblem(planningErr)
	default:
		logger.Error("unexpected error occurred", "method", r.Method, "uri", r.RequestURI, "err", err)

		problem = common.Problem{
			Status: http.StatusInternalServerError,
			Title:  "unexpected error occurred",
			Detail: "see server logs",
		}
	}

	w.Header().Set(common.HeaderContentType, common.ContentTypeProblemJson)
	w.WriteHeader(problem.Status)

	if err := json.NewEncoder(w).Encode(problem); err != nil {
		logger.Error("failed to create JSON problem response body", "method", r.Method, "uri", r.RequestURI, "err", err)
	}
}

func encodeJSONResponseBody(w http.ResponseWriter, r *http.Request, logger hclog.Logger, v any, statusCode int) {
	w.Header().Set(common.HeaderContentType, common.ContentTypeJson)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to create JSON response body", "method", r.Method, "uri", r.RequestURI, "err", err)
	}
}

func toProblem(err planning.Error) common.Problem {
	var (
		status      int
		problemType common.ProblemType
	)

	switch err.Type {
	case planning.ErrorBpm:
		status = http.StatusBadGateway
		problemType = common.ProblemBpm
	case planning.ErrorConflict:
		status = http.StatusConflict
		problemType = common.ProblemConflict
	case planning.ErrorForbidden:
		status = http.StatusForbidden
		problemType = common.ProblemForbidden
	case planning.ErrorNotFound:
		status = http.StatusNotFound
		problemType = common.ProblemNotFound
	case planning.ErrorUnauthorized:
		status = http.StatusUnauthorized
		problemType = common.ProblemUnauthorized
	case planning.ErrorUnavailable:
		status = http.StatusServiceUnavailable
		problemType = common.ProblemUnavailable
	case planning.ErrorValidation:
		status = http.StatusBadRequest
		problemType = common.ProblemValidation
	default:
		status = http.StatusInternalServerError
	}

	return common.Problem{
		Status: status,
		Type:   problemType,
		Title:  err.Title,
		Detail: err.Detail,
	}
}
