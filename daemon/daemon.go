package daemon

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gclaussn/go-planning/auth"
	"github.com/gclaussn/go-planning/bonita"
	"github.com/gclaussn/go-planning/http/server"
	"github.com/gclaussn/go-planning/planning"
	"github.com/gclaussn/go-planning/planning/mem"
	"github.com/gclaussn/go-planning/planning/pg"
	"github.com/gclaussn/go-planning/service"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"
)

var (
	version = "unknown-version"
)

// Run runs the daemon until SIGINT or SIGTERM is received and returns an exit code.
func Run(args []string) int {
	flags := flag.NewFlagSet("go-planning-d", flag.ContinueOnError)
	flags.SetOutput(log.Writer())

	env := env{}
	flags.Var(env, "env", "set environment variables")

	var configFile string
	flags.StringVar(&configFile, "config", "", "read in a YAML configuration file")

	var doCreateJwtKey bool
	flags.BoolVar(&doCreateJwtKey, "create-jwt-key", false, "create a new JWT key - used for "+envPrefix+"JWT_KEY")
	var doListConfOpts bool
	flags.BoolVar(&doListConfOpts, "list-conf-opts", false, "list configuration options")
	var doListConf bool
	flags.BoolVar(&doListConf, "list-conf", false, "list configuration")
	var doVersion bool
	flags.BoolVar(&doVersion, "version", false, "show version")

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		} else {
			return 1
		}
	}

	if doCreateJwtKey {
		return createJwtKey()
	}
	if doListConfOpts {
		writeConfigOptions(log.Writer())
		return 0
	}
	if doVersion {
		return showVersion()
	}

	restoreEnv := env.apply()
	defer restoreEnv()

	config, err := readConfig(configFile)
	if err != nil {
		log.Printf("failed to read configuration: %v", err)
		return 1
	}

	if doListConf {
		writeConfig(log.Writer(), config)
		return 0
	}

	if err := config.Validate(); err != nil {
		log.Printf("invalid configuration:\n%v", err)
		return 1
	}

	d, err := start(config)
	if err != nil {
		log.Printf("failed to start daemon: %v", err)
		return 1
	}

	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGTERM)

	<-signalC

	d.shutdown()

	return 0
}

type daemon struct {
	logger       hclog.Logger
	store        planning.Store
	bonitaClient *bonita.Client
	monitor      *bonita.Monitor
	server       *server.Server
}

// start creates all components, based on a validated configuration, and starts monitor and server.
func start(config Config) (*daemon, error) {
	startTime := time.Now()

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "go-planning",
		Level:      hclog.LevelFromString(config.Log.Level),
		JSONFormat: config.Log.Json,
		Output:     log.Writer(),
	})

	var (
		store planning.Store
		err   error
	)
	if config.Database.Url == "" {
		logger.Warn("no database URL configured, using in-memory store")
		store = mem.New()
	} else {
		store, err = pg.New(config.Database.Url, func(o *pg.Options) {
			o.ApplicationName = config.Database.ApplicationName
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create pg store: %v", err)
		}
	}

	bonitaClient, err := bonita.New(config.Bonita.BaseUrl, func(o *bonita.Options) {
		o.Username = config.Bonita.Username
		o.Password = config.Bonita.Password
		o.ProcessDefinitionId = config.Bonita.ProcessDefinitionId
		o.ProcessName = config.Bonita.ProcessName
		o.UserId = config.Bonita.UserId
		o.Timeout = config.Bonita.Timeout
		o.TaskPollAttempts = config.Bonita.TaskPollAttempts
		o.TaskPollInterval = config.Bonita.TaskPollInterval
		o.Logger = logger.Named("bonita")
	})
	if err != nil {
		store.Shutdown()
		return nil, fmt.Errorf("failed to create Bonita client: %v", err)
	}

	tokenIssuer, err := auth.NewTokenIssuer(config.Jwt.Key, func(o *auth.TokenOptions) {
		o.Issuer = config.Jwt.Issuer
		o.Audience = config.Jwt.Audience
		o.Ttl = config.Jwt.Ttl
	})
	if err != nil {
		store.Shutdown()
		return nil, fmt.Errorf("failed to create token issuer: %v", err)
	}

	metrics := server.NewMetrics()

	var monitor *bonita.Monitor
	if config.Bonita.ProbeCron != "" {
		monitor, err = bonita.NewMonitor(bonitaClient, func(o *bonita.MonitorOptions) {
			o.Cron = config.Bonita.ProbeCron
			o.Gauge = metrics.BonitaAvailable
			o.Logger = logger.Named("monitor")
		})
		if err != nil {
			store.Shutdown()
			return nil, fmt.Errorf("failed to create Bonita monitor: %v", err)
		}
	}

	s, err := service.New(store, bonitaClient, tokenIssuer, func(o *service.Options) {
		o.Logger = logger.Named("service")
		if monitor != nil {
			o.Monitor = monitor
		}
	})
	if err != nil {
		store.Shutdown()
		return nil, fmt.Errorf("failed to create service: %v", err)
	}

	httpServer, err := server.New(s, func(o *server.Options) {
		o.BindAddress = config.Http.BindAddress
		o.HandlerTimeout = config.Http.HandlerTimeout
		o.ReadTimeout = config.Http.ReadTimeout
		o.WriteTimeout = config.Http.WriteTimeout
		o.ShutdownDelay = config.Http.ShutdownDelay
		o.CorsAllowedOrigins = config.Http.CorsAllowedOrigins
		o.LoginRateLimit = rate.Limit(config.Http.LoginRateLimit)
		o.LoginRateBurst = config.Http.LoginRateBurst
		o.Logger = logger.Named("server")
		o.Metrics = metrics
	})
	if err != nil {
		store.Shutdown()
		return nil, fmt.Errorf("failed to create HTTP server: %v", err)
	}

	if monitor != nil {
		monitor.Start()
	}

	httpServer.ListenAndServe()

	logger.Info("daemon started", "version", version, "startupMillis", time.Since(startTime).Milliseconds())

	return &daemon{
		logger:       logger,
		store:        store,
		bonitaClient: bonitaClient,
		monitor:      monitor,
		server:       httpServer,
	}, nil
}

func (d *daemon) shutdown() {
	d.server.Shutdown()

	if d.monitor != nil {
		d.monitor.Stop()
	}

	d.bonitaClient.Shutdown()
	d.store.Shutdown()

	d.logger.Info("daemon shut down")
}

func createJwtKey() int {
	key, err := auth.NewKey()
	if err != nil {
		log.Printf("failed to create JWT key: %v", err)
		return 1
	}

	log.SetFlags(0)
	log.Writer().Write([]byte(key))
	return 0
}

func showVersion() int {
	log.Println(version)
	return 0
}

type env map[string]string

func (v env) Set(value string) error {
	s := strings.SplitN(value, "=", 2)
	if len(s) != 2 {
		return fmt.Errorf("required format %s", v)
	}
	v[s[0]] = s[1]
	return nil
}

func (v env) String() string {
	return "<key>=<value>"
}

// apply sets the environment variables and returns a function, which restores the previous state.
func (v env) apply() func() {
	previous := make(map[string]*string, len(v))
	for key, value := range v {
		if old, ok := os.LookupEnv(key); ok {
			previous[key] = &old
		} else {
			previous[key] = nil
		}
		os.Setenv(key, value)
	}

	return func() {
		for key, old := range previous {
			if old != nil {
				os.Setenv(key, *old)
			} else {
				os.Unsetenv(key)
			}
		}
	}
}
