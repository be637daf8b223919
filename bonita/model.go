package bonita

import (
	"net/http"
	"time"
)

const (
	CookieSessionId = "JSESSIONID"
	HeaderApiToken  = "X-Bonita-API-Token"
	HeaderCookie    = "Cookie"
	HeaderSetCookie = "Set-Cookie"

	ContentTypeForm = "application/x-www-form-urlencoded"
	ContentTypeJson = "application/json"

	PathIdentityMembership   = "API/identity/membership"
	PathIdentityUser         = "API/identity/user"
	PathLogin                = "loginservice"
	PathProcesses            = "API/bpm/process"
	PathProcessInstantiation = "API/bpm/process/{id}/instantiation"
	PathTasks                = "API/bpm/task"
	PathUserTask             = "API/bpm/userTask/{id}"
	PathUserTaskExecution    = "API/bpm/userTask/{id}/execution"

	TaskStateReady = "ready"
	TaskTypeUser   = "USER_TASK"
)

// Session is the authenticated context, required to call protected Bonita endpoints.
type Session struct {
	SessionId  string    // Value of the JSESSIONID cookie.
	ApiToken   string    // Value of the X-Bonita-API-Token cookie, sent back as header.
	ObtainedAt time.Time // Point in time, when the login succeeded.
}

// apply adds the session cookie and API token header to an outgoing request.
func (s Session) apply(req *http.Request) {
	req.Header.Set(HeaderCookie, CookieSessionId+"="+s.SessionId)
	req.Header.Set(HeaderApiToken, s.ApiToken)
}

// UserSession is the result of an end user login, enriched with the user's identity.
type UserSession struct {
	Session

	UserId string   // Bonita user ID or empty, if the identity lookup failed.
	Roles  []string // Distinct role names of the user's memberships.
}

// Process is a deployed process definition, as listed by Bonita.
type Process struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	State       string `json:"state"`
}

// ProcessDefinitionRef references a process definition by ID, name and version.
type ProcessDefinitionRef struct {
	Id      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ProjectFields are the project values, a process instance is seeded with.
type ProjectFields struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Resources []string
}

// ProcessInstanceRequest is the request body of a process instantiation.
type ProcessInstanceRequest struct {
	ProcessDefinitionId string     `json:"processDefinitionId"`
	Variables           []Variable `json:"variables"`
}

// Variable is a named process variable value.
type Variable struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

func newProcessInstanceRequest(processDefinitionId string, fields ProjectFields) ProcessInstanceRequest {
	resources := fields.Resources
	if resources == nil {
		resources = []string{}
	}

	return ProcessInstanceRequest{
		ProcessDefinitionId: processDefinitionId,
		Variables: []Variable{
			{Name: "projectName", Value: fields.Name},
			{Name: "startDate", Value: fields.StartDate.Format(time.DateOnly)},
			{Name: "endDate", Value: fields.EndDate.Format(time.DateOnly)},
			{Name: "resources", Value: resources},
		},
	}
}

// Task is an activity of a case.
type Task struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	State string `json:"state"`
}

// IsReadyUserTask determines if the task is a human task that can be assigned and executed.
func (t Task) IsReadyUserTask() bool {
	return t.Type == TaskTypeUser && t.State == TaskStateReady
}
