package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gclaussn/go-planning/auth"
	"github.com/gclaussn/go-planning/bonita"
	"github.com/gclaussn/go-planning/http/client"
	"github.com/gclaussn/go-planning/http/server"
	"github.com/gclaussn/go-planning/planning/mem"
	"github.com/gclaussn/go-planning/service"
)

type fakeBonita struct {
	available bool
	caseId    string

	completedCaseId string
	started         bonita.ProjectFields
}

func (b *fakeBonita) CheckAvailability(context.Context) bool {
	return b.available
}

func (b *fakeBonita) CompleteFirstTask(_ context.Context, caseId string) error {
	if caseId == "404" {
		return bonita.TaskCompletionExhaustedError{CaseId: caseId, Attempts: 5}
	}
	b.completedCaseId = caseId
	return nil
}

func (b *fakeBonita) ListAvailableProcesses(context.Context) []bonita.Process {
	return []bonita.Process{{Id: "7", Name: "Project planning", Version: "1.0", DisplayName: "Project planning", State: "ENABLED"}}
}

func (b *fakeBonita) LoginUser(_ context.Context, username string, password string) (bonita.UserSession, error) {
	if password != "bpm" {
		return bonita.UserSession{}, bonita.AuthenticationError{Status: http.StatusUnauthorized}
	}
	return bonita.UserSession{
		Session: bonita.Session{SessionId: "ABC123", ApiToken: "XYZ789", ObtainedAt: time.Now()},
		UserId:  "4",
		Roles:   []string{"member", "manager"},
	}, nil
}

func (b *fakeBonita) ResolveProcessDefinition(_ context.Context, name string) (string, error) {
	if name != "Project planning" {
		return "", bonita.ProcessNotFoundError{Name: name}
	}
	return "7", nil
}

func (b *fakeBonita) StartProcessInstance(_ context.Context, fields bonita.ProjectFields) (string, error) {
	if !b.available {
		return "", errors.New("connection refused")
	}
	b.started = fields
	return b.caseId, nil
}

func (b *fakeBonita) Shutdown() {
}

// mustStartServer starts a HTTP server, backed by a mem store and a fake Bonita.
func mustStartServer(t *testing.T) *httptest.Server {
	tokenIssuer, err := auth.NewTokenIssuer("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("failed to create token issuer: %v", err)
	}

	s, err := service.New(mem.New(), &fakeBonita{available: true, caseId: "1001"}, tokenIssuer)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	httpServer, err := server.New(s, func(o *server.Options) {
		o.LoginRateBurst = 100
	})
	if err != nil {
		t.Fatalf("failed to create HTTP server: %v", err)
	}

	return httptest.NewServer(httpServer.Handler())
}

func mustCreateApi(t *testing.T, url string, token string) Api {
	api, err := client.New(url, func(o *client.Options) {
		o.Token = token
	})
	if err != nil {
		t.Fatalf("failed to create HTTP client: %v", err)
	}
	return api
}

func execute(cli *Cli, args []string) (string, error) {
	rootCmd := newRootCmd(cli)
	rootCmd.PersistentPostRun = nil

	var buffer bytes.Buffer
	rootCmd.SetOut(&buffer)
	rootCmd.SetErr(&buffer)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buffer.String(), err
}

func mustExecute(t *testing.T, cli *Cli, args []string) string {
	output, err := execute(cli, args)
	if err != nil {
		t.Fatalf("failed to execute %v: %v", args, err)
	}
	return output
}
