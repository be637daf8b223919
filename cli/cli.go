package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gclaussn/go-planning/bonita"
	"github.com/gclaussn/go-planning/http/client"
	"github.com/gclaussn/go-planning/http/common"
	"github.com/gclaussn/go-planning/planning"
	"github.com/gclaussn/go-planning/service"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	bonitaRequired   = "bonitaRequired"   // annotation, indicating that the command talks to Bonita directly
	envLookupAllowed = "envLookupAllowed" // flag level annotation that allows an environment variable lookup
	envPrefix        = "GO_PLANNING_"
	noClientRequired = "noClientRequired" // annotation, indicating that no client is required to run the command
	program          = "go-planning"
)

// Api is the part of the HTTP API, used by commands.
type Api interface {
	AcceptResource(context.Context, int32) (planning.Resource, error)
	CreateProject(context.Context, planning.CreateProjectCmd) (planning.Project, error)
	GetProject(context.Context, int32) (planning.Project, error)
	ListProjects(context.Context) ([]planning.Project, error)
	ListResources(context.Context, int32) ([]planning.Resource, error)
	Login(context.Context, planning.LoginCmd) (string, error)
	OfferResource(context.Context, int32) (planning.Resource, error)
	Profile(context.Context) (service.Profile, error)
	Register(context.Context, planning.RegisterCmd) (planning.User, error)

	Shutdown()
}

// Bonita is the part of the Bonita session client, used by commands.
type Bonita interface {
	CheckAvailability(context.Context) bool
	CompleteFirstTask(context.Context, string) error
	ListAvailableProcesses(context.Context) []bonita.Process
	LoginUser(ctx context.Context, username string, password string) (bonita.UserSession, error)
	ResolveProcessDefinition(context.Context, string) (string, error)
	StartProcessInstance(context.Context, bonita.ProjectFields) (string, error)

	Shutdown()
}

func New(version string) *Cli {
	cli := Cli{version: version}

	cli.rootCmd = newRootCmd(&cli)

	return &cli
}

type Cli struct {
	version string

	rootCmd *cobra.Command

	api          Api
	bonita       Bonita
	debugEnabled bool
}

func (c *Cli) Execute() int {
	if err := c.rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func (c *Cli) help(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}

func newRootCmd(cli *Cli) *cobra.Command {
	var (
		url     string
		token   string
		timeout time.Duration
	)

	c := cobra.Command{
		Use:   program,
		Short: "A client for go-planning HTTP servers and Bonita BPM",
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			c.SilenceUsage = true

			if _, ok := c.Annotations[noClientRequired]; ok {
				return nil
			}

			c.Flags().VisitAll(func(f *pflag.Flag) {
				if f.Changed {
					return
				}
				if _, ok := f.Annotations[envLookupAllowed]; !ok {
					return
				}

				// e.g. bonita-base-url -> GO_PLANNING_BONITA_BASE_URL
				key := envPrefix + strings.ReplaceAll(strings.ToUpper(f.Name), "-", "_")

				if value, ok := os.LookupEnv(key); ok {
					f.Value.Set(value)
				}
			})

			if _, ok := c.Annotations[bonitaRequired]; ok {
				if cli.bonita != nil {
					return nil // skip client creation when testing
				}

				b, err := newBonitaClient(c, cli.debugEnabled)
				if err != nil {
					return err
				}

				cli.bonita = b
				return nil
			}

			if cli.api != nil {
				return nil // skip client creation when testing
			}

			if url == "" {
				return fmt.Errorf("no URL set.\n\nuse flag --url or environment variable %sURL\n ", envPrefix)
			}

			api, err := client.New(url, func(o *client.Options) {
				o.Timeout = timeout
				o.Token = token

				if cli.debugEnabled {
					o.OnRequest = debugRequest
					o.OnResponse = debugResponse
				}
			})
			if err != nil {
				return fmt.Errorf("failed to create HTTP client: %v", err)
			}

			cli.api = api
			return nil
		},
		RunE: cli.help,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cli.api != nil {
				cli.api.Shutdown()
			}
			if cli.bonita != nil {
				cli.bonita.Shutdown()
			}
		},
		Annotations: map[string]string{noClientRequired: ""},
	}

	c.PersistentFlags().StringVar(&url, "url", "", "HTTP server URL")
	c.PersistentFlags().StringVar(&token, "token", "", "Bearer token, issued by \"auth login\"")
	c.PersistentFlags().DurationVar(&timeout, "timeout", 40*time.Second, "Time limit for requests made by the HTTP client")
	c.PersistentFlags().BoolVar(&cli.debugEnabled, "debug", false, "Log HTTP requests and responses")

	c.PersistentFlags().SetAnnotation("url", envLookupAllowed, nil)
	c.PersistentFlags().SetAnnotation("token", envLookupAllowed, nil)
	c.PersistentFlags().SetAnnotation("timeout", envLookupAllowed, nil)
	c.PersistentFlags().SetAnnotation("debug", envLookupAllowed, nil)

	c.AddCommand(newAuthCmd(cli))
	c.AddCommand(newBonitaCmd(cli))
	c.AddCommand(newProjectCmd(cli))
	c.AddCommand(newResourceCmd(cli))
	c.AddCommand(newVersionCmd(cli))

	return &c
}

func newVersionCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(c *cobra.Command, _ []string) {
			c.Println(cli.version)
		},
		Annotations: map[string]string{noClientRequired: ""},
	}

	return &c
}

func debugRequest(req *http.Request) error {
	log.Printf("%s %s", req.Method, req.URL)

	if req.Body == nil {
		return nil
	}

	b, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}

	var reqBodyStr string

	buf := &bytes.Buffer{}
	if err := json.Indent(buf, b, "", "  "); err != nil {
		reqBodyStr = string(b)
	} else {
		reqBodyStr = buf.String()
	}

	req.Body = io.NopCloser(bytes.NewReader(b)) // make body readable again

	log.Printf("request body:\n%s", reqBodyStr)
	return nil
}

func debugResponse(res *http.Response) error {
	log.Printf("status code: %d", res.StatusCode)

	log.Println("response headers:")
	for name, values := range res.Header {
		if name == "Set-Cookie" {
			values = []string{"<hidden>"}
		}
		log.Printf("%s: %s", name, strings.Join(values, ", "))
	}

	resBody := res.Body
	defer resBody.Close()

	b, err := io.ReadAll(resBody)
	if err != nil {
		log.Printf("failed to read response body: %v", err)
		return err
	}

	res.Body = nil

	var resBodyStr string

	contentType := res.Header.Get(common.HeaderContentType)
	if strings.HasPrefix(contentType, common.ContentTypeJson) || contentType == common.ContentTypeProblemJson {
		buf := &bytes.Buffer{}
		if err := json.Indent(buf, b, "", "  "); err == nil {
			resBodyStr = buf.String()
			res.Body = io.NopCloser(buf) // make body readable again
		}
	}

	if res.Body == nil {
		resBodyStr = string(b)
		res.Body = io.NopCloser(bytes.NewReader(b)) // make body readable again
	}

	if resBodyStr != "" {
		log.Printf("response body:\n%s", resBodyStr)
	}
	return nil
}
