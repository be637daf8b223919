package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gclaussn/go-planning/auth"
	"github.com/gclaussn/go-planning/bonita"
	"github.com/gclaussn/go-planning/planning"
	"github.com/hashicorp/go-hclog"
)

// Bonita is the part of the [bonita.Client], the service depends on.
type Bonita interface {
	CheckAvailability(context.Context) bool
	ListAvailableProcesses(context.Context) []bonita.Process
	LoginUser(ctx context.Context, username string, password string) (bonita.UserSession, error)
	StartProcessInstance(context.Context, bonita.ProjectFields) (string, error)
}

// Monitor provides a cached Bonita availability. It is implemented by [bonita.Monitor].
type Monitor interface {
	Available() bool
	CheckedAt() time.Time
}

func New(store planning.Store, b Bonita, tokenIssuer *auth.TokenIssuer, customizers ...func(*Options)) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if b == nil {
		return nil, errors.New("Bonita client is nil")
	}
	if tokenIssuer == nil {
		return nil, errors.New("token issuer is nil")
	}

	options := Options{}
	for _, customizer := range customizers {
		customizer(&options)
	}

	logger := options.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Service{
		store:       store,
		bonita:      b,
		tokenIssuer: tokenIssuer,
		monitor:     options.Monitor,
		logger:      logger,
	}, nil
}

type Options struct {
	Logger  hclog.Logger
	Monitor Monitor // Optional monitor, used to report the Bonita status without probing.
}

// Service implements the use cases of the project planning application.
type Service struct {
	store       planning.Store
	bonita      Bonita
	tokenIssuer *auth.TokenIssuer
	monitor     Monitor
	logger      hclog.Logger
}

// Profile is the identity of an authenticated user, as encoded in a token.
type Profile struct {
	Email                string `json:"email"`
	OfferingOrganization bool   `json:"isOfferingOrganization"`
}

type BonitaStatus struct {
	Available bool       `json:"available"`
	CheckedAt *time.Time `json:"checkedAt,omitempty"`
}

func (s *Service) Register(ctx context.Context, cmd planning.RegisterCmd) (planning.User, error) {
	if err := auth.ValidatePassword(cmd.Password); err != nil {
		return planning.User{}, planning.Error{
			Type:   planning.ErrorValidation,
			Title:  "failed to register user",
			Detail: err.Error(),
		}
	}

	passwordHash, err := auth.HashPassword(cmd.Password)
	if err != nil {
		return planning.User{}, err
	}

	user, err := s.store.CreateUser(ctx, planning.User{
		Email:                strings.TrimSpace(cmd.Email),
		Name:                 cmd.Name,
		Organization:         cmd.Organization,
		OfferingOrganization: cmd.OfferingOrganization,
		PasswordHash:         passwordHash,
	})

	var planningErr planning.Error
	if errors.As(err, &planningErr) && planningErr.Type == planning.ErrorConflict {
		return planning.User{}, planning.Error{
			Type:   planning.ErrorConflict,
			Title:  "failed to register user",
			Detail: "email already registered",
		}
	}
	if err != nil {
		return planning.User{}, err
	}

	s.logger.Info("user registered", "userId", user.Id, "offeringOrganization", user.OfferingOrganization)
	return user, nil
}

// Login verifies the credentials of a user and issues a token.
func (s *Service) Login(ctx context.Context, cmd planning.LoginCmd) (string, error) {
	invalidCredentials := planning.Error{
		Type:   planning.ErrorUnauthorized,
		Title:  "failed to log in",
		Detail: "invalid credentials",
	}

	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(cmd.Email))

	var planningErr planning.Error
	if errors.As(err, &planningErr) && planningErr.Type == planning.ErrorNotFound {
		return "", invalidCredentials
	}
	if err != nil {
		return "", err
	}

	if !auth.VerifyPassword(cmd.Password, user.PasswordHash) {
		return "", invalidCredentials
	}

	return s.tokenIssuer.Issue(user.Email, user.OfferingOrganization)
}

// VerifyToken verifies a bearer token, issued by [Service.Login].
func (s *Service) VerifyToken(token string) (auth.Claims, error) {
	claims, err := s.tokenIssuer.Verify(token)
	if err != nil {
		return auth.Claims{}, planning.Error{
			Type:   planning.ErrorUnauthorized,
			Title:  "failed to authenticate",
			Detail: err.Error(),
		}
	}
	return claims, nil
}

func (s *Service) Profile(claims auth.Claims) Profile {
	return Profile{
		Email:                claims.Email,
		OfferingOrganization: claims.OfferingOrganization,
	}
}

// CreateProject persists a project and starts a Bonita process instance for it.
//
// The project is persisted, even if Bonita is not available or the process instance could not be started. In these
// cases an error of type [planning.ErrorUnavailable] or [planning.ErrorBpm] is returned.
func (s *Service) CreateProject(ctx context.Context, cmd planning.CreateProjectCmd) (planning.Project, error) {
	if cmd.EndDate.Before(cmd.StartDate) {
		return planning.Project{}, planning.Error{
			Type:   planning.ErrorValidation,
			Title:  "failed to create project",
			Detail: "end date must be greater than or equal to start date",
		}
	}

	resources := make([]planning.Resource, len(cmd.Resources))
	for i, name := range cmd.Resources {
		resources[i] = planning.Resource{Name: strings.TrimSpace(name)}
	}

	project, err := s.store.CreateProject(ctx, planning.Project{
		Name:      strings.TrimSpace(cmd.Name),
		StartDate: cmd.StartDate,
		EndDate:   cmd.EndDate,
		Resources: resources,
	})
	if err != nil {
		return planning.Project{}, err
	}

	logger := s.logger.With("projectId", project.Id)

	if !s.bonita.CheckAvailability(ctx) {
		logger.Warn("Bonita is not available")
		return project, planning.Error{
			Type:   planning.ErrorUnavailable,
			Title:  "failed to create process instance",
			Detail: "Bonita BPM is not available",
		}
	}

	caseId, err := s.bonita.StartProcessInstance(ctx, bonita.ProjectFields{
		Name:      project.Name,
		StartDate: project.StartDate.Time(),
		EndDate:   project.EndDate.Time(),
		Resources: project.ResourceNames(),
	})
	if err != nil {
		logger.Error("failed to start process instance", "err", err)
		return project, planning.Error{
			Type:   planning.ErrorBpm,
			Title:  "failed to create process instance",
			Detail: "could not create process instance",
		}
	}

	if err := s.store.SetProjectCaseId(ctx, project.Id, caseId); err != nil {
		return project, fmt.Errorf("failed to set case ID of project %d: %v", project.Id, err)
	}

	project.CaseId = caseId

	logger.Info("project created", "caseId", caseId)
	return project, nil
}

func (s *Service) GetProject(ctx context.Context, id int32) (planning.Project, error) {
	return s.store.GetProject(ctx, id)
}

// ListProjects lists all projects, newest start date first.
func (s *Service) ListProjects(ctx context.Context) ([]planning.Project, error) {
	return s.store.QueryProjects(ctx)
}

func (s *Service) ListResources(ctx context.Context, projectId int32) ([]planning.Resource, error) {
	return s.store.QueryResources(ctx, projectId)
}

// OfferResource offers a pending resource on behalf of an offering organization.
func (s *Service) OfferResource(ctx context.Context, cmd planning.OfferResourceCmd) (planning.Resource, error) {
	if !cmd.OfferingOrganization {
		return planning.Resource{}, planning.Error{
			Type:   planning.ErrorForbidden,
			Title:  "failed to offer resource",
			Detail: "only offering organizations can offer resources",
		}
	}

	resource, err := s.store.GetResource(ctx, cmd.Id)
	if err != nil {
		return planning.Resource{}, err
	}

	if resource.State != planning.ResourcePending {
		return planning.Resource{}, planning.Error{
			Type:   planning.ErrorConflict,
			Title:  "failed to offer resource",
			Detail: fmt.Sprintf("resource %d is in state %s, but must be pending", resource.Id, resource.State),
		}
	}

	resource.State = planning.ResourceOffer
	resource.ContactEmail = cmd.Email

	resource, err = s.store.UpdateResource(ctx, resource)
	if err != nil {
		return planning.Resource{}, err
	}

	s.logger.Info("resource offered", "resourceId", resource.Id, "projectId", resource.ProjectId)
	return resource, nil
}

// AcceptResource accepts the offer of a resource.
func (s *Service) AcceptResource(ctx context.Context, id int32) (planning.Resource, error) {
	resource, err := s.store.GetResource(ctx, id)
	if err != nil {
		return planning.Resource{}, err
	}

	if resource.State != planning.ResourceOffer {
		return planning.Resource{}, planning.Error{
			Type:   planning.ErrorConflict,
			Title:  "failed to accept resource",
			Detail: fmt.Sprintf("resource %d is in state %s, but must be offer", resource.Id, resource.State),
		}
	}

	resource.State = planning.ResourceAccepted

	resource, err = s.store.UpdateResource(ctx, resource)
	if err != nil {
		return planning.Resource{}, err
	}

	s.logger.Info("resource accepted", "resourceId", resource.Id, "projectId", resource.ProjectId)
	return resource, nil
}

// BonitaStatus reports the Bonita availability. If a monitor is configured, its cached result is used.
func (s *Service) BonitaStatus(ctx context.Context) BonitaStatus {
	if s.monitor != nil {
		checkedAt := s.monitor.CheckedAt()
		if !checkedAt.IsZero() {
			return BonitaStatus{Available: s.monitor.Available(), CheckedAt: &checkedAt}
		}
	}

	now := time.Now().UTC()
	return BonitaStatus{Available: s.bonita.CheckAvailability(ctx), CheckedAt: &now}
}

func (s *Service) ListProcesses(ctx context.Context) []bonita.Process {
	return s.bonita.ListAvailableProcesses(ctx)
}

// BonitaLogin logs a user in to Bonita and returns the user's Bonita session.
func (s *Service) BonitaLogin(ctx context.Context, cmd planning.BonitaLoginCmd) (bonita.UserSession, error) {
	userSession, err := s.bonita.LoginUser(ctx, cmd.Username, cmd.Password)

	var authErr bonita.AuthenticationError
	if errors.As(err, &authErr) && authErr.Cause == nil {
		return bonita.UserSession{}, planning.Error{
			Type:   planning.ErrorUnauthorized,
			Title:  "failed to log in to Bonita",
			Detail: "invalid credentials",
		}
	}
	if err != nil {
		s.logger.Error("failed to log in to Bonita", "username", cmd.Username, "err", err)
		return bonita.UserSession{}, planning.Error{
			Type:   planning.ErrorBpm,
			Title:  "failed to log in to Bonita",
			Detail: "could not log in to Bonita BPM",
		}
	}

	return userSession, nil
}
