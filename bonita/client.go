package bonita

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/singleflight"
)

func New(baseUrl string, customizers ...func(*Options)) (*Client, error) {
	if baseUrl == "" {
		return nil, errors.New("base URL is empty")
	}
	if _, err := url.ParseRequestURI(baseUrl); err != nil {
		return nil, fmt.Errorf("base URL is invalid: %v", err)
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	httpClient := http.Client{}

	if options.Configure != nil {
		options.Configure(&httpClient)
	}

	logger := options.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	if !strings.HasSuffix(baseUrl, "/") {
		baseUrl = baseUrl + "/"
	}

	client := Client{
		httpClient: &httpClient,
		baseUrl:    baseUrl,
		options:    options,
		logger:     logger,
	}

	return &client, nil
}

func NewOptions() Options {
	return Options{
		Timeout: 30 * time.Second,

		TaskPollAttempts: 5,
		TaskPollInterval: time.Second,
	}
}

type Options struct {
	Username string // Name of the technical user, used for liveness probes and API calls.
	Password string // Password of the technical user.

	// ProcessDefinitionId is the ID of the process definition to instantiate.
	// If set, it takes precedence over ProcessName.
	ProcessDefinitionId string
	// ProcessName is the name of a process definition, whose ID is resolved before each instantiation.
	ProcessName string
	UserId      string // ID of the Bonita user, the first task of a case is assigned to.

	Timeout time.Duration // Time limit for a single request.

	TaskPollAttempts int           // Maximum number of task queries, performed to find the first ready user task of a case.
	TaskPollInterval time.Duration // Delay after a task query, that yielded no ready user task.

	Logger hclog.Logger // Optional logger - if not set, nothing is logged.

	// OnRequest is an optional function that accepts a [*http.Request]. It is called before a HTTP request is send.
	OnRequest func(*http.Request) error
	// OnResponse is an optional function that accepts a [*http.Response]. It is called after a HTTP response is returned.
	OnResponse func(*http.Response) error

	Configure func(*http.Client) // Optional function, used to configure the underlying HTTP client.
}

func (o Options) Validate() error {
	if o.Username == "" {
		return errors.New("username is empty")
	}
	if o.Timeout <= 0 {
		return errors.New("timeout must be greater than zero")
	}
	if o.TaskPollAttempts < 1 {
		return errors.New("task poll attempts must be greater than zero")
	}
	if o.TaskPollInterval < 0 {
		return errors.New("task poll interval must not be negative")
	}
	return nil
}

// Client is a session client for the Bonita REST API.
//
// A client authenticates once and reuses its session for all subsequent calls. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseUrl    string
	options    Options
	logger     hclog.Logger

	mutex   sync.RWMutex
	session *Session
	group   singleflight.Group
}

// Authenticate performs a login with the configured credentials, unless a session is already held.
//
// Concurrent calls, made while a login is in flight, wait for and share its outcome.
func (c *Client) Authenticate(ctx context.Context) error {
	if _, ok := c.Session(); ok {
		return nil
	}

	ch := c.group.DoChan("authenticate", func() (any, error) {
		if session, ok := c.Session(); ok {
			return session, nil
		}

		// login must not be aborted, when the caller that started it goes away
		loginCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.options.Timeout)
		defer cancel()

		session, err := c.login(loginCtx, c.options.Username, c.options.Password)
		if err != nil {
			c.logger.Error("authentication failed", "err", err)
			return nil, err
		}

		c.mutex.Lock()
		c.session = &session
		c.mutex.Unlock()

		c.logger.Info("authenticated", "username", c.options.Username)
		return session, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case result := <-ch:
		return result.Err
	}
}

// CheckAvailability determines if the Bonita server answers a login with the configured credentials with a
// success status. Cookies of the response are ignored. Any failure results in false.
func (c *Client) CheckAvailability(ctx context.Context) bool {
	res, err := c.postLogin(ctx, c.options.Username, c.options.Password)
	if err != nil {
		c.logger.Debug("Bonita is not available", "err", err)
		return false
	}
	if !res.ok() {
		c.logger.Debug("Bonita is not available", "status", res.status)
		return false
	}
	return true
}

// CompleteFirstTask polls the tasks of a case, until a ready user task is found. The task is assigned to the
// configured user and executed.
//
// If no such task is found within the configured attempts or the context is canceled, a
// [TaskCompletionExhaustedError] is returned. If assignment or execution fails, a [TaskExecutionError] is returned.
func (c *Client) CompleteFirstTask(ctx context.Context, caseId string) error {
	var lastErr error
	for attempt := 1; attempt <= c.options.TaskPollAttempts; attempt++ {
		c.logger.Debug("querying tasks", "caseId", caseId, "attempt", attempt)

		task, found, err := c.findReadyUserTask(ctx, caseId)
		if err != nil {
			c.logger.Warn("failed to query tasks", "caseId", caseId, "attempt", attempt, "err", err)
			lastErr = err
		} else if found {
			return c.executeTask(ctx, caseId, task)
		}

		timer := time.NewTimer(c.options.TaskPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return TaskCompletionExhaustedError{CaseId: caseId, Attempts: attempt, Cause: ctx.Err()}
		case <-timer.C:
		}
	}

	return TaskCompletionExhaustedError{CaseId: caseId, Attempts: c.options.TaskPollAttempts, Cause: lastErr}
}

// Invalidate drops the held session. The next call, requiring a session, performs a new login.
func (c *Client) Invalidate() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.session = nil
}

// ListAvailableProcesses lists up to 100 deployed process definitions.
// Any failure is logged and results in an empty list.
func (c *Client) ListAvailableProcesses(ctx context.Context) []Process {
	res, err := c.doGet(ctx, PathProcesses, url.Values{"p": {"0"}, "c": {"100"}})
	if err != nil {
		c.logger.Error("failed to list processes", "err", err)
		return []Process{}
	}
	if !res.ok() {
		c.logger.Error("failed to list processes", "status", res.status, "err", res.err())
		return []Process{}
	}

	var processes []Process
	if err := res.decode(&processes); err != nil {
		c.logger.Error("failed to list processes", "err", err)
		return []Process{}
	}
	if processes == nil {
		return []Process{}
	}

	c.logger.Debug("listed processes", "count", len(processes))
	return processes
}

// ResolveProcessDefinition returns the ID of the first process definition with the given name.
func (c *Client) ResolveProcessDefinition(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", errors.New("process name is empty")
	}

	res, err := c.doGet(ctx, PathProcesses, url.Values{"p": {"0"}, "c": {"10"}, "f": {"name=" + name}})
	if err != nil {
		return "", err
	}
	if !res.ok() {
		return "", res.err()
	}

	id, found, err := parseFirstId(res)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ProcessNotFoundError{Name: name}
	}
	return id, nil
}

// Session returns the held session. The second return value is false, if the client is not authenticated.
func (c *Client) Session() (Session, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// StartProcessInstance instantiates the configured process definition, seeded with the given project fields, and
// returns the ID of the created case.
//
// After the instantiation, the first user task of the case is completed. A failure of this step is logged only,
// since the case exists anyway.
func (c *Client) StartProcessInstance(ctx context.Context, fields ProjectFields) (string, error) {
	processDefinitionId, err := c.processDefinitionId(ctx)
	if err != nil {
		return "", err
	}

	path := strings.Replace(PathProcessInstantiation, "{id}", url.PathEscape(processDefinitionId), 1)

	res, err := c.doJSON(ctx, http.MethodPost, path, newProcessInstanceRequest(processDefinitionId, fields))
	if err != nil {
		return "", err
	}
	if !res.ok() {
		return "", InstantiationError{
			ProcessDefinitionId: processDefinitionId,
			Status:              res.status,
			Body:                string(res.body),
		}
	}

	caseId, ok := parseCaseId(res.body)
	if !ok {
		return "", MalformedResponseError{Path: path, Detail: "no caseId or id"}
	}

	c.logger.Info("process instance started", "processDefinitionId", processDefinitionId, "caseId", caseId)

	if err := c.CompleteFirstTask(ctx, caseId); err != nil {
		c.logger.Error("failed to complete first task", "caseId", caseId, "err", err)
	}

	return caseId, nil
}

func (c *Client) Shutdown() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) executeTask(ctx context.Context, caseId string, task Task) error {
	c.logger.Debug("found ready user task", "caseId", caseId, "taskId", task.Id)

	path := strings.Replace(PathUserTask, "{id}", url.PathEscape(task.Id), 1)

	res, err := c.doJSON(ctx, http.MethodPut, path, map[string]string{"assigned_id": c.options.UserId})
	if err != nil {
		return TaskExecutionError{TaskId: task.Id, Step: "assign", Cause: err}
	}
	if !res.ok() {
		return TaskExecutionError{TaskId: task.Id, Step: "assign", Status: res.status, Body: string(res.body)}
	}

	path = strings.Replace(PathUserTaskExecution, "{id}", url.PathEscape(task.Id), 1)

	res, err = c.doJSON(ctx, http.MethodPost, path, struct{}{})
	if err != nil {
		return TaskExecutionError{TaskId: task.Id, Step: "execute", Cause: err}
	}
	if !res.ok() {
		return TaskExecutionError{TaskId: task.Id, Step: "execute", Status: res.status, Body: string(res.body)}
	}

	c.logger.Info("first task completed", "caseId", caseId, "taskId", task.Id, "userId", c.options.UserId)
	return nil
}

func (c *Client) findReadyUserTask(ctx context.Context, caseId string) (Task, bool, error) {
	res, err := c.doGet(ctx, PathTasks, url.Values{"f": {"rootCaseId=" + caseId}, "p": {"0"}, "c": {"10"}})
	if err != nil {
		return Task{}, false, err
	}
	if !res.ok() {
		return Task{}, false, res.err()
	}

	var tasks []Task
	if err := res.decode(&tasks); err != nil {
		return Task{}, false, err
	}

	for _, task := range tasks {
		if task.IsReadyUserTask() {
			return task, true, nil
		}
	}
	return Task{}, false, nil
}

// login submits the credentials and extracts a session from the response, without storing it.
func (c *Client) login(ctx context.Context, username string, password string) (Session, error) {
	res, err := c.postLogin(ctx, username, password)
	if err != nil {
		return Session{}, AuthenticationError{Cause: err}
	}
	if !res.ok() {
		return Session{}, AuthenticationError{Status: res.status, Body: string(res.body)}
	}

	sessionId, apiToken := parseSession(res.header)
	if sessionId == "" || apiToken == "" {
		return Session{}, SessionExtractionError{
			MissingSessionId: sessionId == "",
			MissingApiToken:  apiToken == "",
		}
	}

	return Session{
		SessionId:  sessionId,
		ApiToken:   apiToken,
		ObtainedAt: time.Now(),
	}, nil
}

func (c *Client) postLogin(ctx context.Context, username string, password string) (response, error) {
	form := url.Values{
		"username": {username},
		"password": {password},
		"redirect": {"false"},
	}
	return c.do(ctx, nil, http.MethodPost, PathLogin, ContentTypeForm, []byte(form.Encode()))
}

func (c *Client) processDefinitionId(ctx context.Context) (string, error) {
	if c.options.ProcessDefinitionId != "" {
		return c.options.ProcessDefinitionId, nil
	}
	if c.options.ProcessName != "" {
		return c.ResolveProcessDefinition(ctx, c.options.ProcessName)
	}
	return "", errors.New("neither process definition ID nor process name is configured")
}

// authenticated ensures authentication and returns the session to use.
func (c *Client) authenticated(ctx context.Context) (Session, error) {
	if err := c.Authenticate(ctx); err != nil {
		return Session{}, err
	}

	session, ok := c.Session()
	if !ok {
		return Session{}, errors.New("session has been invalidated")
	}
	return session, nil
}

func (c *Client) doGet(ctx context.Context, path string, query url.Values) (response, error) {
	session, err := c.authenticated(ctx)
	if err != nil {
		return response{}, err
	}

	if len(query) != 0 {
		path = path + "?" + query.Encode()
	}
	return c.do(ctx, &session, http.MethodGet, path, "", nil)
}

func (c *Client) doJSON(ctx context.Context, method string, path string, reqBody any) (response, error) {
	session, err := c.authenticated(ctx)
	if err != nil {
		return response{}, err
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return response{}, fmt.Errorf("failed to create JSON request body: %v", err)
	}

	return c.do(ctx, &session, method, path, ContentTypeJson, b)
}

func (c *Client) do(ctx context.Context, session *Session, method string, path string, contentType string, body []byte) (response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+path, reqBody)
	if err != nil {
		return response{}, fmt.Errorf("failed to create %s request: %v", method, err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", ContentTypeJson)

	if session != nil {
		session.apply(req)
	}

	if c.options.OnRequest != nil {
		if err := c.options.OnRequest(req); err != nil {
			return response{}, err
		}
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("failed to execute %s %s: %v", method, path, err)
	}

	defer res.Body.Close()

	if c.options.OnResponse != nil {
		if err := c.options.OnResponse(res); err != nil {
			return response{}, err
		}
	}

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return response{}, fmt.Errorf("failed to read response body of %s %s: %v", method, path, err)
	}

	c.logger.Trace("request executed", "method", method, "path", path, "status", res.StatusCode)

	return response{
		method: method,
		path:   path,
		status: res.StatusCode,
		header: res.Header,
		body:   b,
	}, nil
}
