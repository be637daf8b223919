package mem

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gclaussn/go-planning/planning"
)

func New() planning.Store {
	return &memStore{
		users:     make(map[int32]planning.User),
		projects:  make(map[int32]planning.Project),
		resources: make(map[int32]planning.Resource),
	}
}

type memStore struct {
	mutex sync.RWMutex

	users     map[int32]planning.User
	projects  map[int32]planning.Project // without resources
	resources map[int32]planning.Resource

	userId     int32
	projectId  int32
	resourceId int32
}

func (s *memStore) CreateUser(_ context.Context, user planning.User) (planning.User, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return planning.User{}, planning.Error{
				Type:   planning.ErrorConflict,
				Title:  "failed to create user",
				Detail: fmt.Sprintf("user with email %s exists", user.Email),
			}
		}
	}

	s.userId++

	user.Id = s.userId
	user.CreatedAt = now()

	s.users[user.Id] = user
	return user, nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (planning.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}

	return planning.User{}, planning.Error{
		Type:   planning.ErrorNotFound,
		Title:  "failed to get user",
		Detail: fmt.Sprintf("user with email %s could not be found", email),
	}
}

func (s *memStore) CreateProject(_ context.Context, project planning.Project) (planning.Project, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.projectId++

	project.Id = s.projectId
	project.CreatedAt = now()

	resources := make([]planning.Resource, len(project.Resources))
	for i, resource := range project.Resources {
		s.resourceId++

		resources[i] = planning.Resource{
			Id:        s.resourceId,
			ProjectId: project.Id,
			Name:      resource.Name,
			State:     planning.ResourcePending,
		}

		s.resources[s.resourceId] = resources[i]
	}

	project.Resources = nil
	s.projects[project.Id] = project

	project.Resources = resources
	return project, nil
}

func (s *memStore) GetProject(_ context.Context, id int32) (planning.Project, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	project, ok := s.projects[id]
	if !ok {
		return planning.Project{}, projectNotFound(id)
	}

	project.Resources = s.queryResources(id)
	return project, nil
}

func (s *memStore) QueryProjects(_ context.Context) ([]planning.Project, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	projects := make([]planning.Project, 0, len(s.projects))
	for _, project := range s.projects {
		projects = append(projects, project)
	}

	slices.SortFunc(projects, func(a, b planning.Project) int {
		if c := b.StartDate.Time().Compare(a.StartDate.Time()); c != 0 {
			return c
		}
		return int(b.Id - a.Id)
	})

	return projects, nil
}

func (s *memStore) SetProjectCaseId(_ context.Context, id int32, caseId string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	project, ok := s.projects[id]
	if !ok {
		return projectNotFound(id)
	}

	project.CaseId = caseId
	s.projects[id] = project
	return nil
}

func (s *memStore) QueryResources(_ context.Context, projectId int32) ([]planning.Resource, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if _, ok := s.projects[projectId]; !ok {
		return nil, projectNotFound(projectId)
	}

	return s.queryResources(projectId), nil
}

func (s *memStore) GetResource(_ context.Context, id int32) (planning.Resource, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	resource, ok := s.resources[id]
	if !ok {
		return planning.Resource{}, resourceNotFound(id)
	}
	return resource, nil
}

func (s *memStore) UpdateResource(_ context.Context, resource planning.Resource) (planning.Resource, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	existing, ok := s.resources[resource.Id]
	if !ok {
		return planning.Resource{}, resourceNotFound(resource.Id)
	}

	existing.ContactEmail = resource.ContactEmail
	existing.State = resource.State

	s.resources[existing.Id] = existing
	return existing, nil
}

func (s *memStore) Shutdown() {
}

// queryResources must be called while holding a lock.
func (s *memStore) queryResources(projectId int32) []planning.Resource {
	resources := make([]planning.Resource, 0)
	for _, resource := range s.resources {
		if resource.ProjectId == projectId {
			resources = append(resources, resource)
		}
	}

	slices.SortFunc(resources, func(a, b planning.Resource) int {
		return int(a.Id - b.Id)
	})
	return resources
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func projectNotFound(id int32) error {
	return planning.Error{
		Type:   planning.ErrorNotFound,
		Title:  "failed to get project",
		Detail: fmt.Sprintf("project %d could not be found", id),
	}
}

func resourceNotFound(id int32) error {
	return planning.Error{
		Type:   planning.ErrorNotFound,
		Title:  "failed to get resource",
		Detail: fmt.Sprintf("resource %d could not be found", id),
	}
}
