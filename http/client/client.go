package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gclaussn/go-planning/bonita"
	"github.com/gclaussn/go-planning/http/common"
	"github.com/gclaussn/go-planning/planning"
	"github.com/gclaussn/go-planning/service"
)

func New(url string, customizers ...func(*Options)) (*Client, error) {
	if url == "" {
		return nil, errors.New("URL is empty")
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

	client := Client{
		httpClient: &httpClient,
		url:        strings.TrimSuffix(url, "/"),
		options:    options,
	}

	return &client, nil
}

func NewOptions() Options {
	return Options{
		Timeout: 40 * time.Second,
	}
}

type Options struct {
	Timeout time.Duration // Time limit for requests made by the HTTP client, utilized when no external context is provided.

	// Token is a bearer token, issued by a login. It is required by all operations, except register, login and Bonita login.
	Token string

	// OnRequest is an optional function that accepts a [*http.Request]. It is called before a HTTP request is send.
	OnRequest func(*http.Request) error
	// OnResponse is an optional function that accepts a [*http.Response]. It is called after a HTTP response is returned.
	OnResponse func(*http.Response) error

	Configure func(*http.Client) // Optional function, used to configure the underlying HTTP client.
}

func (o Options) Validate() error {
	if o.Timeout <= 0 {
		return errors.New("timeout must be greater than zero")
	}
	return nil
}

// Client is a client for the project planning HTTP API.
type Client struct {
	httpClient *http.Client
	url        string
	options    Options
}

func (c *Client) AcceptResource(ctx context.Context, id int32) (planning.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var resource planning.Resource
	if err := c.do(ctx, http.MethodPatch, resolve(common.PathResourcesAccept, id), nil, &resource); err != nil {
		return planning.Resource{}, err
	}
	return resource, nil
}

func (c *Client) BonitaLogin(ctx context.Context, cmd planning.BonitaLoginCmd) (common.BonitaLoginRes, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var resBody common.BonitaLoginRes
	if err := c.do(ctx, http.MethodPost, common.PathBonitaLogin, cmd, &resBody); err != nil {
		return common.BonitaLoginRes{}, err
	}
	return resBody, nil
}

func (c *Client) BonitaStatus(ctx context.Context) (service.BonitaStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var status service.BonitaStatus
	if err := c.do(ctx, http.MethodGet, common.PathBonitaStatus, nil, &status); err != nil {
		return service.BonitaStatus{}, err
	}
	return status, nil
}

func (c *Client) CreateProject(ctx context.Context, cmd planning.CreateProjectCmd) (planning.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var project planning.Project
	if err := c.do(ctx, http.MethodPost, common.PathProjects, cmd, &project); err != nil {
		return planning.Project{}, err
	}
	return project, nil
}

func (c *Client) GetProject(ctx context.Context, id int32) (planning.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var project planning.Project
	if err := c.do(ctx, http.MethodGet, resolve(common.PathProjectsId, id), nil, &project); err != nil {
		return planning.Project{}, err
	}
	return project, nil
}

func (c *Client) ListProcesses(ctx context.Context) ([]bonita.Process, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var resBody common.ProcessRes
	if err := c.do(ctx, http.MethodGet, common.PathBonitaProcesses, nil, &resBody); err != nil {
		return nil, err
	}
	return resBody.Results, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]planning.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var resBody common.ProjectRes
	if err := c.do(ctx, http.MethodGet, common.PathProjects, nil, &resBody); err != nil {
		return nil, err
	}
	return resBody.Results, nil
}

func (c *Client) ListResources(ctx context.Context, projectId int32) ([]planning.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var resBody common.ResourceRes
	if err := c.do(ctx, http.MethodGet, resolve(common.PathProjectsResources, projectId), nil, &resBody); err != nil {
		return nil, err
	}
	return resBody.Results, nil
}

// Login logs a registered user in and returns a bearer token.
func (c *Client) Login(ctx context.Context, cmd planning.LoginCmd) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var resBody common.LoginRes
	if err := c.do(ctx, http.MethodPost, common.PathAuthLogin, cmd, &resBody); err != nil {
		return "", err
	}
	return resBody.Token, nil
}

func (c *Client) OfferResource(ctx context.Context, id int32) (planning.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var resource planning.Resource
	if err := c.do(ctx, http.MethodPatch, resolve(common.PathResourcesOffer, id), nil, &resource); err != nil {
		return planning.Resource{}, err
	}
	return resource, nil
}

func (c *Client) Profile(ctx context.Context) (service.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var profile service.Profile
	if err := c.do(ctx, http.MethodGet, common.PathAuthProfile, nil, &profile); err != nil {
		return service.Profile{}, err
	}
	return profile, nil
}

func (c *Client) Register(ctx context.Context, cmd planning.RegisterCmd) (planning.User, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var user planning.User
	if err := c.do(ctx, http.MethodPost, common.PathAuthRegister, cmd, &user); err != nil {
		return planning.User{}, err
	}
	return user, nil
}

func (c *Client) Shutdown() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) do(ctx context.Context, method string, path string, reqBody any, resBody any) error {
	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to create JSON request body: %v", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %v", method, err)
	}

	if body != nil {
		req.Header.Set(common.HeaderContentType, common.ContentTypeJson)
	}
	if c.options.Token != "" {
		req.Header.Set(common.HeaderAuthorization, "Bearer "+c.options.Token)
	}

	if c.options.OnRequest != nil {
		if err := c.options.OnRequest(req); err != nil {
			return err
		}
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute %v", err)
	}

	if c.options.OnResponse != nil {
		if err := c.options.OnResponse(res); err != nil {
			res.Body.Close()
			return err
		}
	}

	return decodeJSONResponseBody(res, resBody)
}
