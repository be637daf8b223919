package pg

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gclaussn/go-planning/planning"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tables lists the tables, created by the store, in dependency order.
var Tables = []string{"app_user", "project", "resource"}

//go:embed ddl
var resources embed.FS

func New(databaseUrl string, customizers ...func(*Options)) (planning.Store, error) {
	if databaseUrl == "" {
		return nil, errors.New("database URL is empty")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	pgPoolConfig, err := pgxpool.ParseConfig(databaseUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %v", err)
	}

	if _, ok := pgPoolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		pgPoolConfig.ConnConfig.RuntimeParams["application_name"] = options.ApplicationName
	}

	pgPoolCtx, pgPoolCancel := context.WithTimeout(context.Background(), options.Timeout)
	defer pgPoolCancel()

	pgPool, err := pgxpool.NewWithConfig(pgPoolCtx, pgPoolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %v", err)
	}

	pgStore := pgStore{pgPool: pgPool, timeout: options.Timeout}

	if err := pgStore.migrateDatabase(); err != nil {
		pgStore.Shutdown()
		return nil, fmt.Errorf("failed to migrate database: %v", err)
	}

	return &pgStore, nil
}

func NewOptions() Options {
	return Options{
		ApplicationName: "go-planning",
		Timeout:         30 * time.Second,
	}
}

type Options struct {
	ApplicationName string        // Used as runtime parameter "application_name", unless the database URL specifies one.
	Timeout         time.Duration // Time limit for database transactions, utilized when no external deadline is set.
}

func (o Options) Validate() error {
	if o.Timeout <= 0 {
		return errors.New("timeout must be greater than zero")
	}
	return nil
}

type pgStore struct {
	pgPool  *pgxpool.Pool
	timeout time.Duration

	shutdownOnce sync.Once
}

func (s *pgStore) CreateUser(ctx context.Context, user planning.User) (planning.User, error) {
	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		user.CreatedAt = now()

		row := tx.QueryRow(ctx, `
INSERT INTO app_user (
	created_at,
	email,
	name,
	offering_organization,
	organization,
	password_hash
) VALUES (
	$1,
	$2,
	$3,
	$4,
	$5,
	$6
) RETURNING id
`,
			user.CreatedAt,
			user.Email,
			user.Name,
			user.OfferingOrganization,
			user.Organization,
			user.PasswordHash,
		)

		return row.Scan(&user.Id)
	})
	if isUniqueViolation(err) {
		return planning.User{}, planning.Error{
			Type:   planning.ErrorConflict,
			Title:  "failed to create user",
			Detail: fmt.Sprintf("user with email %s exists", user.Email),
		}
	}
	if err != nil {
		return planning.User{}, fmt.Errorf("failed to insert user: %v", err)
	}
	return user, nil
}

func (s *pgStore) GetUserByEmail(ctx context.Context, email string) (planning.User, error) {
	var user planning.User
	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
SELECT
	id,

	created_at,
	email,
	name,
	offering_organization,
	organization,
	password_hash
FROM
	app_user
WHERE
	LOWER(email) = LOWER($1)
`, email)

		return row.Scan(
			&user.Id,

			&user.CreatedAt,
			&user.Email,
			&user.Name,
			&user.OfferingOrganization,
			&user.Organization,
			&user.PasswordHash,
		)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return planning.User{}, planning.Error{
			Type:   planning.ErrorNotFound,
			Title:  "failed to get user",
			Detail: fmt.Sprintf("user with email %s could not be found", email),
		}
	}
	if err != nil {
		return planning.User{}, fmt.Errorf("failed to select user: %v", err)
	}

	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

func (s *pgStore) CreateProject(ctx context.Context, project planning.Project) (planning.Project, error) {
	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		project.CreatedAt = now()

		row := tx.QueryRow(ctx, `
INSERT INTO project (
	created_at,
	end_date,
	name,
	start_date
) VALUES (
	$1,
	$2,
	$3,
	$4
) RETURNING id
`,
			project.CreatedAt,
			project.EndDate.Time(),
			project.Name,
			project.StartDate.Time(),
		)

		if err := row.Scan(&project.Id); err != nil {
			return err
		}

		for i := range project.Resources {
			resource := &project.Resources[i]
			resource.ProjectId = project.Id
			resource.State = planning.ResourcePending
			resource.ContactEmail = ""

			row := tx.QueryRow(ctx, `
INSERT INTO resource (
	project_id,

	name,
	state
) VALUES (
	$1,
	$2,
	$3
) RETURNING id
`,
				resource.ProjectId,

				resource.Name,
				resource.State.String(),
			)

			if err := row.Scan(&resource.Id); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return planning.Project{}, fmt.Errorf("failed to insert project: %v", err)
	}
	return project, nil
}

func (s *pgStore) GetProject(ctx context.Context, id int32) (planning.Project, error) {
	var project planning.Project
	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
SELECT
	id,

	case_id,
	created_at,
	end_date,
	name,
	start_date
FROM
	project
WHERE
	id = $1
`, id)

		var err error
		if project, err = scanProject(row); err != nil {
			return err
		}

		project.Resources, err = selectResources(ctx, tx, id)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return planning.Project{}, projectNotFound(id)
	}
	if err != nil {
		return planning.Project{}, fmt.Errorf("failed to select project: %v", err)
	}
	return project, nil
}

func (s *pgStore) QueryProjects(ctx context.Context) ([]planning.Project, error) {
	var projects []planning.Project
	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
SELECT
	id,

	case_id,
	created_at,
	end_date,
	name,
	start_date
FROM
	project
ORDER BY
	start_date DESC, id DESC
`)
		if err != nil {
			return err
		}

		defer rows.Close()

		projects = make([]planning.Project, 0)
		for rows.Next() {
			project, err := scanProject(rows)
			if err != nil {
				return err
			}
			projects = append(projects, project)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to select projects: %v", err)
	}
	return projects, nil
}

func (s *pgStore) SetProjectCaseId(ctx context.Context, id int32, caseId string) error {
	var rowsAffected int64
	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "UPDATE project SET case_id = $2 WHERE id = $1", id, caseId)
		rowsAffected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update project %d: %v", id, err)
	}
	if rowsAffected == 0 {
		return projectNotFound(id)
	}
	return nil
}

func (s *pgStore) QueryResources(ctx context.Context, projectId int32) ([]planning.Resource, error) {
	var resources []planning.Resource
	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var exists bool
		row := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM project WHERE id = $1)", projectId)
		if err := row.Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}

		var err error
		resources, err = selectResources(ctx, tx, projectId)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, projectNotFound(projectId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select resources: %v", err)
	}
	return resources, nil
}

func (s *pgStore) GetResource(ctx context.Context, id int32) (planning.Resource, error) {
	var resource planning.Resource
	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
SELECT
	id,
	project_id,

	contact_email,
	name,
	state
FROM
	resource
WHERE
	id = $1
`, id)

		var err error
		resource, err = scanResource(row)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return planning.Resource{}, resourceNotFound(id)
	}
	if err != nil {
		return planning.Resource{}, fmt.Errorf("failed to select resource: %v", err)
	}
	return resource, nil
}

func (s *pgStore) UpdateResource(ctx context.Context, resource planning.Resource) (planning.Resource, error) {
	var updated planning.Resource
	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
UPDATE resource SET
	contact_email = $2,
	state = $3
WHERE
	id = $1
RETURNING
	id,
	project_id,

	contact_email,
	name,
	state
`,
			resource.Id,
			nullString(resource.ContactEmail),
			resource.State.String(),
		)

		var err error
		updated, err = scanResource(row)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return planning.Resource{}, resourceNotFound(resource.Id)
	}
	if err != nil {
		return planning.Resource{}, fmt.Errorf("failed to update resource: %v", err)
	}
	return updated, nil
}

func (s *pgStore) Shutdown() {
	s.shutdownOnce.Do(s.pgPool.Close)
}

func (s *pgStore) migrateDatabase() error {
	ddl, err := resources.ReadDir("ddl")
	if err != nil {
		return fmt.Errorf("failed to list resources under ddl: %v", err)
	}

	return s.withTx(context.Background(), func(ctx context.Context, tx pgx.Tx) error {
		for _, entry := range ddl {
			if entry.IsDir() {
				continue
			}

			name := "ddl/" + entry.Name()
			b, err := resources.ReadFile(name)
			if err != nil {
				return fmt.Errorf("failed to read resource %s: %v", name, err)
			}

			if _, err := tx.Exec(ctx, string(b)); err != nil {
				return fmt.Errorf("failed to execute %s: %v", name, err)
			}
		}
		return nil
	})
}

// withTx executes f within a transaction. If the context has no deadline, the configured timeout is applied.
func (s *pgStore) withTx(ctx context.Context, f func(context.Context, pgx.Tx) error) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	return pgx.BeginFunc(ctx, s.pgPool, func(tx pgx.Tx) error {
		return f(ctx, tx)
	})
}

func selectResources(ctx context.Context, tx pgx.Tx, projectId int32) ([]planning.Resource, error) {
	rows, err := tx.Query(ctx, `
SELECT
	id,
	project_id,

	contact_email,
	name,
	state
FROM
	resource
WHERE
	project_id = $1
ORDER BY
	id
`, projectId)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	resources := make([]planning.Resource, 0)
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}

	return resources, rows.Err()
}

func scanProject(row pgx.Row) (planning.Project, error) {
	var (
		project   planning.Project
		caseId    pgtype.Text
		endDate   time.Time
		startDate time.Time
	)

	if err := row.Scan(
		&project.Id,

		&caseId,
		&project.CreatedAt,
		&endDate,
		&project.Name,
		&startDate,
	); err != nil {
		return planning.Project{}, err
	}

	project.CaseId = caseId.String
	project.CreatedAt = project.CreatedAt.UTC()
	project.EndDate = planning.Date(endDate.UTC())
	project.StartDate = planning.Date(startDate.UTC())
	return project, nil
}

func scanResource(row pgx.Row) (planning.Resource, error) {
	var (
		resource     planning.Resource
		contactEmail pgtype.Text
		state        string
	)

	if err := row.Scan(
		&resource.Id,
		&resource.ProjectId,

		&contactEmail,
		&resource.Name,
		&state,
	); err != nil {
		return planning.Resource{}, err
	}

	resource.ContactEmail = contactEmail.String
	resource.State = planning.MapResourceState(state)
	return resource, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func now() time.Time {
	// must be UTC and truncated to millis, since TIMESTAMP(3) is used
	return time.Now().UTC().Truncate(time.Millisecond)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
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
