package common

import (
	"github.com/gclaussn/go-planning/bonita"
	"github.com/gclaussn/go-planning/planning"
)

// Response of a successful login.
type LoginRes struct {
	Token string `json:"token"` // Bearer token, used to authorize subsequent requests.
}

// Response of a successful Bonita login.
type BonitaLoginRes struct {
	SessionId string   `json:"sessionId"`
	ApiToken  string   `json:"apiToken"`
	UserId    string   `json:"userId"`
	Roles     []string `json:"roles"`
}

// Response of a process listing.
type ProcessRes struct {
	Count   int              `json:"count"`   // Number of processes.
	Results []bonita.Process `json:"results"` // Processes, available in Bonita.
}

// Response of a project listing.
type ProjectRes struct {
	Count   int                `json:"count"`
	Results []planning.Project `json:"results"`
}

// Response of a resource listing.
type ResourceRes struct {
	Count   int                 `json:"count"`
	Results []planning.Resource `json:"results"`
}
