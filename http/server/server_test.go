package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gclaussn/go-planning/auth"
	"github.com/gclaussn/go-planning/bonita"
	"github.com/gclaussn/go-planning/http/common"
	"github.com/gclaussn/go-planning/planning"
	"github.com/gclaussn/go-planning/planning/mem"
	"github.com/gclaussn/go-planning/service"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

type fakeBonita struct {
	available bool
}

func (b *fakeBonita) CheckAvailability(context.Context) bool {
	return b.available
}

func (b *fakeBonita) ListAvailableProcesses(context.Context) []bonita.Process {
	return []bonita.Process{{Id: "7", Name: "Project planning", Version: "1.0", State: "ENABLED"}}
}

func (b *fakeBonita) LoginUser(_ context.Context, username string, password string) (bonita.UserSession, error) {
	if password != "bpm" {
		return bonita.UserSession{}, bonita.AuthenticationError{Status: http.StatusUnauthorized}
	}
	return bonita.UserSession{
		Session: bonita.Session{SessionId: "ABC123", ApiToken: "XYZ789"},
		UserId:  "4",
		Roles:   []string{"member"},
	}, nil
}

func (b *fakeBonita) StartProcessInstance(context.Context, bonita.ProjectFields) (string, error) {
	return "1001", nil
}

type testClient struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func (c *testClient) do(method string, path string, body string) *httptest.ResponseRecorder {
	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}

	r := httptest.NewRequest(method, path, reqBody)
	if body != "" {
		r.Header.Set(common.HeaderContentType, common.ContentTypeJson)
	}
	if c.token != "" {
		r.Header.Set(common.HeaderAuthorization, "Bearer "+c.token)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, r)
	return w
}

func (c *testClient) decode(w *httptest.ResponseRecorder, v any) {
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		c.t.Fatalf("failed to decode response body %s: %v", w.Body.String(), err)
	}
}

func mustCreateServer(t *testing.T, customizers ...func(*Options)) *Server {
	tokenIssuer, err := auth.NewTokenIssuer("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("failed to create token issuer: %v", err)
	}

	s, err := service.New(mem.New(), &fakeBonita{available: true}, tokenIssuer)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	server, err := New(s, customizers...)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	return server
}

func mustLogin(t *testing.T, c *testClient, email string, offeringOrganization bool) string {
	registerBody := fmt.Sprintf(`{"email":%q,"name":"Test","organization":"Org","offeringOrganization":%t,"password":"secret1"}`, email, offeringOrganization)
	if w := c.do(http.MethodPost, common.PathAuthRegister, registerBody); w.Code != http.StatusCreated {
		t.Fatalf("failed to register: HTTP %d: %s", w.Code, w.Body.String())
	}

	w := c.do(http.MethodPost, common.PathAuthLogin, fmt.Sprintf(`{"email":%q,"password":"secret1"}`, email))
	if w.Code != http.StatusOK {
		t.Fatalf("failed to log in: HTTP %d: %s", w.Code, w.Body.String())
	}

	var resBody common.LoginRes
	c.decode(w, &resBody)
	return resBody.Token
}

func TestServer(t *testing.T) {
	assert := assert.New(t)

	server := mustCreateServer(t, func(o *Options) {
		o.LoginRateLimit = rate.Limit(1000)
		o.LoginRateBurst = 1000
	})

	c := &testClient{t: t, handler: server.Handler()}

	t.Run("readiness", func(t *testing.T) {
		w := c.do(http.MethodGet, common.PathReadiness, "")
		assert.Equal(http.StatusOK, w.Code)
		assert.Equal("ready", w.Body.String())
	})

	t.Run("unauthorized without token", func(t *testing.T) {
		w := c.do(http.MethodGet, common.PathProjects, "")
		assert.Equal(http.StatusUnauthorized, w.Code)
		assert.Equal(common.ContentTypeProblemJson, w.Header().Get(common.HeaderContentType))
	})

	t.Run("unauthorized with invalid token", func(t *testing.T) {
		c := &testClient{t: t, handler: server.Handler(), token: "invalid"}

		w := c.do(http.MethodGet, common.PathProjects, "")
		assert.Equal(http.StatusUnauthorized, w.Code)

		var problem common.Problem
		c.decode(w, &problem)
		assert.Equal(common.ProblemUnauthorized, problem.Type)
	})

	t.Run("not found", func(t *testing.T) {
		w := c.do(http.MethodGet, "/api/unknown", "")
		assert.Equal(http.StatusNotFound, w.Code)
	})

	t.Run("register returns conflict when email is registered", func(t *testing.T) {
		body := `{"email":"dup@example.org","name":"Test","password":"secret1"}`

		w := c.do(http.MethodPost, common.PathAuthRegister, body)
		assert.Equal(http.StatusCreated, w.Code)
		assert.NotContains(w.Body.String(), "secret1")
		assert.NotContains(w.Body.String(), "passwordHash")

		w = c.do(http.MethodPost, common.PathAuthRegister, body)
		assert.Equal(http.StatusConflict, w.Code)
	})

	t.Run("login returns unauthorized when password is wrong", func(t *testing.T) {
		w := c.do(http.MethodPost, common.PathAuthLogin, `{"email":"dup@example.org","password":"wrong1"}`)
		assert.Equal(http.StatusUnauthorized, w.Code)
	})

	t.Run("profile", func(t *testing.T) {
		c := &testClient{t: t, handler: server.Handler()}
		c.token = mustLogin(t, c, "profile@example.org", true)

		w := c.do(http.MethodGet, common.PathAuthProfile, "")
		assert.Equal(http.StatusOK, w.Code)

		var profile service.Profile
		c.decode(w, &profile)
		assert.Equal("profile@example.org", profile.Email)
		assert.True(profile.OfferingOrganization)
	})

	t.Run("Bonita", func(t *testing.T) {
		c := &testClient{t: t, handler: server.Handler()}
		c.token = mustLogin(t, c, "bonita@example.org", false)

		w := c.do(http.MethodGet, common.PathBonitaStatus, "")
		assert.Equal(http.StatusOK, w.Code)

		var status service.BonitaStatus
		c.decode(w, &status)
		assert.True(status.Available)

		w = c.do(http.MethodGet, common.PathBonitaProcesses, "")
		assert.Equal(http.StatusOK, w.Code)

		var processRes common.ProcessRes
		c.decode(w, &processRes)
		assert.Equal(1, processRes.Count)
		assert.Equal("Project planning", processRes.Results[0].Name)
	})

	t.Run("Bonita login", func(t *testing.T) {
		w := c.do(http.MethodPost, common.PathBonitaLogin, `{"username":"walter.bates","password":"bpm"}`)
		assert.Equal(http.StatusOK, w.Code)

		var resBody common.BonitaLoginRes
		c.decode(w, &resBody)
		assert.Equal("ABC123", resBody.SessionId)
		assert.Equal("XYZ789", resBody.ApiToken)
		assert.Equal("4", resBody.UserId)
		assert.Equal([]string{"member"}, resBody.Roles)

		w = c.do(http.MethodPost, common.PathBonitaLogin, `{"username":"walter.bates","password":"wrong"}`)
		assert.Equal(http.StatusUnauthorized, w.Code)

		w = c.do(http.MethodPost, common.PathBonitaLogin, `{"username":"walter.bates"}`)
		assert.Equal(http.StatusBadRequest, w.Code)

		// alias
		w = c.do(http.MethodPost, common.PathBonitaAuthLogin, `{"username":"walter.bates","password":"bpm"}`)
		assert.Equal(http.StatusOK, w.Code)

		c.decode(w, &resBody)
		assert.Equal("4", resBody.UserId)
	})

	t.Run("projects and resources", func(t *testing.T) {
		c := &testClient{t: t, handler: server.Handler()}
		c.token = mustLogin(t, c, "projects@example.org", false)

		ngo := &testClient{t: t, handler: server.Handler()}
		ngo.token = mustLogin(t, ngo, "ngo@example.org", true)

		// create
		w := c.do(http.MethodPost, common.PathProjects, `{
			"name": "Well construction",
			"startDate": "2026-01-01",
			"endDate": "2026-03-31",
			"resources": ["Excavator", "Engineers"]
		}`)
		assert.Equal(http.StatusCreated, w.Code)

		var project planning.Project
		c.decode(w, &project)
		assert.Equal("1001", project.CaseId)
		assert.Len(project.Resources, 2)

		// end date before start date
		w = c.do(http.MethodPost, common.PathProjects, `{
			"name": "Invalid",
			"startDate": "2026-03-31",
			"endDate": "2026-01-01",
			"resources": ["Excavator"]
		}`)
		assert.Equal(http.StatusBadRequest, w.Code)

		// list
		w = c.do(http.MethodGet, common.PathProjects, "")
		assert.Equal(http.StatusOK, w.Code)

		var projectRes common.ProjectRes
		c.decode(w, &projectRes)
		assert.Equal(1, projectRes.Count)

		// get
		w = c.do(http.MethodGet, fmt.Sprintf("/api/projects/%d", project.Id), "")
		assert.Equal(http.StatusOK, w.Code)

		w = c.do(http.MethodGet, "/api/projects/999", "")
		assert.Equal(http.StatusNotFound, w.Code)

		w = c.do(http.MethodGet, "/api/projects/x", "")
		assert.Equal(http.StatusBadRequest, w.Code)

		// resources
		w = c.do(http.MethodGet, fmt.Sprintf("/api/projects/%d/resources", project.Id), "")
		assert.Equal(http.StatusOK, w.Code)

		var resourceRes common.ResourceRes
		c.decode(w, &resourceRes)
		assert.Equal(2, resourceRes.Count)

		resourceId := resourceRes.Results[0].Id

		// offer
		w = c.do(http.MethodPatch, fmt.Sprintf("/api/resources/%d/offer", resourceId), "")
		assert.Equal(http.StatusForbidden, w.Code)

		w = ngo.do(http.MethodPatch, fmt.Sprintf("/api/resources/%d/offer", resourceId), "")
		assert.Equal(http.StatusOK, w.Code)

		var resource planning.Resource
		c.decode(w, &resource)
		assert.Equal(planning.ResourceOffer, resource.State)
		assert.Equal("ngo@example.org", resource.ContactEmail)

		w = ngo.do(http.MethodPatch, fmt.Sprintf("/api/resources/%d/offer", resourceId), "")
		assert.Equal(http.StatusConflict, w.Code)

		// accept
		w = c.do(http.MethodPatch, fmt.Sprintf("/api/resources/%d/accept", resourceId), "")
		assert.Equal(http.StatusOK, w.Code)

		c.decode(w, &resource)
		assert.Equal(planning.ResourceAccepted, resource.State)
	})

	t.Run("project without resources", func(t *testing.T) {
		c := &testClient{t: t, handler: server.Handler()}
		c.token = mustLogin(t, c, "empty@example.org", false)

		w := c.do(http.MethodPost, common.PathProjects, `{
			"name": "Planning workshop",
			"startDate": "2026-04-01",
			"endDate": "2026-04-01",
			"resources": []
		}`)
		assert.Equal(http.StatusCreated, w.Code)

		var project planning.Project
		c.decode(w, &project)
		assert.Equal("1001", project.CaseId)
		assert.Empty(project.Resources)

		w = c.do(http.MethodGet, fmt.Sprintf("/api/projects/%d/resources", project.Id), "")
		assert.Equal(http.StatusOK, w.Code)

		var resourceRes common.ResourceRes
		c.decode(w, &resourceRes)
		assert.Equal(0, resourceRes.Count)
	})

	t.Run("metrics", func(t *testing.T) {
		w := c.do(http.MethodGet, common.PathMetrics, "")
		assert.Equal(http.StatusOK, w.Code)
		assert.Contains(w.Body.String(), "go_planning_http_requests_total")
		assert.Contains(w.Body.String(), `path="/api/projects"`)
	})
}

func TestLoginRateLimit(t *testing.T) {
	assert := assert.New(t)

	server := mustCreateServer(t, func(o *Options) {
		o.LoginRateLimit = rate.Limit(0.001)
		o.LoginRateBurst = 2
	})

	c := &testClient{t: t, handler: server.Handler()}

	body := `{"email":"unknown@example.org","password":"secret1"}`

	assert.Equal(http.StatusUnauthorized, c.do(http.MethodPost, common.PathAuthLogin, body).Code)
	assert.Equal(http.StatusUnauthorized, c.do(http.MethodPost, common.PathAuthLogin, body).Code)

	w := c.do(http.MethodPost, common.PathAuthLogin, body)
	assert.Equal(http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(w.Header().Get(common.HeaderRetryAfter))

	var problem common.Problem
	c.decode(w, &problem)
	assert.Equal(common.ProblemTooManyRequests, problem.Type)
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	_, err := New(nil)
	assert.EqualError(err, "service is nil")
}
