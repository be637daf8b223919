package bonita

import (
	"fmt"
	"strings"
)

// AuthenticationError is returned, when a login is not answered with a success status.
type AuthenticationError struct {
	Status int    // HTTP status code or 0, if the request could not be executed.
	Body   string // Response body.
	Cause  error
}

func (e AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("authentication failed: %v", e.Cause)
	}
	return withBody(fmt.Sprintf("authentication failed: HTTP %d", e.Status), e.Body)
}

func (e AuthenticationError) Unwrap() error {
	return e.Cause
}

// SessionExtractionError is returned, when a successful login response lacks the session ID or the API token.
type SessionExtractionError struct {
	MissingSessionId bool
	MissingApiToken  bool
}

func (e SessionExtractionError) Error() string {
	var missing []string
	if e.MissingSessionId {
		missing = append(missing, CookieSessionId)
	}
	if e.MissingApiToken {
		missing = append(missing, HeaderApiToken)
	}
	return fmt.Sprintf("failed to extract session: no %s in login response", strings.Join(missing, " and "))
}

// ProcessNotFoundError is returned, when no process definition matches a name.
type ProcessNotFoundError struct {
	Name string
}

func (e ProcessNotFoundError) Error() string {
	return fmt.Sprintf("process %s not found", e.Name)
}

// MalformedResponseError is returned, when a response body lacks an expected field or has an unexpected shape.
type MalformedResponseError struct {
	Path   string
	Detail string
}

func (e MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response of %s: %s", e.Path, e.Detail)
}

// InstantiationError is returned, when a process instantiation is not answered with a success status.
type InstantiationError struct {
	ProcessDefinitionId string
	Status              int
	Body                string
}

func (e InstantiationError) Error() string {
	return withBody(fmt.Sprintf("failed to instantiate process %s: HTTP %d", e.ProcessDefinitionId, e.Status), e.Body)
}

// TaskExecutionError is returned, when a located user task could not be assigned or executed.
type TaskExecutionError struct {
	TaskId string
	Step   string // "assign" or "execute"
	Status int
	Body   string
	Cause  error
}

func (e TaskExecutionError) Error() string {
	text := fmt.Sprintf("failed to %s task %s", e.Step, e.TaskId)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", text, e.Cause)
	}
	return withBody(fmt.Sprintf("%s: HTTP %d", text, e.Status), e.Body)
}

func (e TaskExecutionError) Unwrap() error {
	return e.Cause
}

// TaskCompletionExhaustedError is returned, when no ready user task could be found within the configured attempts
// or when the polling has been canceled.
//
// The error does not indicate a failed case: the case exists, only its first task has not been advanced.
type TaskCompletionExhaustedError struct {
	CaseId   string
	Attempts int   // Number of performed task queries.
	Cause    error // Context error, if the polling has been canceled.
}

func (e TaskCompletionExhaustedError) Error() string {
	text := fmt.Sprintf("no ready user task found for case %s after %d attempts", e.CaseId, e.Attempts)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", text, e.Cause)
	}
	return text
}

func (e TaskCompletionExhaustedError) Unwrap() error {
	return e.Cause
}

func withBody(text string, body string) string {
	if body == "" {
		return text
	}
	return text + ": " + body
}
