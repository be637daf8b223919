package planning

import (
	"context"
	"fmt"
)

// A Store persists users, projects and the resources of projects.
//
// Implementations return an [Error] of type [ErrorNotFound], when an entity does not exist, and of type
// [ErrorConflict], when a unique constraint is violated.
type Store interface {
	// CreateUser creates a user. The email must be unique.
	CreateUser(context.Context, User) (User, error)

	// GetUserByEmail gets a user by its email.
	GetUserByEmail(context.Context, string) (User, error)

	// CreateProject creates a project together with its resources. Each resource is created in state
	// [ResourcePending].
	CreateProject(context.Context, Project) (Project, error)

	// GetProject gets a project, including its resources.
	GetProject(context.Context, int32) (Project, error)

	// QueryProjects queries all projects, ordered by start date descending. Resources are not included.
	QueryProjects(context.Context) ([]Project, error)

	// SetProjectCaseId sets the ID of the Bonita case, that has been started for a project.
	SetProjectCaseId(ctx context.Context, id int32, caseId string) error

	// QueryResources queries the resources of an existing project, ordered by ID.
	QueryResources(ctx context.Context, projectId int32) ([]Resource, error)

	// GetResource gets a resource.
	GetResource(context.Context, int32) (Resource, error)

	// UpdateResource updates state and contact email of a resource.
	UpdateResource(context.Context, Resource) (Resource, error)

	Shutdown()
}

type Error struct {
	Type   ErrorType
	Title  string
	Detail string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Type, e.Title, e.Detail)
}

type ErrorType int

const (
	ErrorBpm ErrorType = iota + 1
	ErrorConflict
	ErrorForbidden
	ErrorNotFound
	ErrorUnauthorized
	ErrorUnavailable
	ErrorValidation
)

func MapErrorType(s string) ErrorType {
	switch s {
	case "BPM":
		return ErrorBpm
	case "CONFLICT":
		return ErrorConflict
	case "FORBIDDEN":
		return ErrorForbidden
	case "NOT_FOUND":
		return ErrorNotFound
	case "UNAUTHORIZED":
		return ErrorUnauthorized
	case "UNAVAILABLE":
		return ErrorUnavailable
	case "VALIDATION":
		return ErrorValidation
	default:
		return 0
	}
}

func (v ErrorType) String() string {
	switch v {
	case ErrorBpm:
		return "BPM"
	case ErrorConflict:
		return "CONFLICT"
	case ErrorForbidden:
		return "FORBIDDEN"
	case ErrorNotFound:
		return "NOT_FOUND"
	case ErrorUnauthorized:
		return "UNAUTHORIZED"
	case ErrorUnavailable:
		return "UNAVAILABLE"
	case ErrorValidation:
		return "VALIDATION"
	default:
		return "UNKNOWN"
	}
}
