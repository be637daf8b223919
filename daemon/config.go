package daemon

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/gclaussn/go-planning/auth"
	"github.com/hashicorp/go-hclog"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	envPrefix = "GO_PLANNING_"

	secretMask = "********"
)

// Config is the daemon configuration, read from an optional YAML file and environment variables.
// Environment variables take precedence.
type Config struct {
	Log      LogConfig      `yaml:"log" env-prefix:"GO_PLANNING_LOG_"`
	Http     HttpConfig     `yaml:"http" env-prefix:"GO_PLANNING_HTTP_"`
	Database DatabaseConfig `yaml:"database" env-prefix:"GO_PLANNING_DATABASE_"`
	Jwt      JwtConfig      `yaml:"jwt" env-prefix:"GO_PLANNING_JWT_"`
	Bonita   BonitaConfig   `yaml:"bonita" env-prefix:"GO_PLANNING_BONITA_"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL" env-default:"info" env-description:"log level: trace, debug, info, warn or error"`
	Json  bool   `yaml:"json" env:"JSON" env-default:"false" env-description:"log in JSON format"`
}

type HttpConfig struct {
	BindAddress    string        `yaml:"bindAddress" env:"BIND_ADDRESS" env-default:"127.0.0.1:8080" env-description:"TCP address of the HTTP API to listen on"`
	HandlerTimeout time.Duration `yaml:"handlerTimeout" env:"HANDLER_TIMEOUT" env-default:"60s" env-description:"time limit for HTTP handlers"`
	ReadTimeout    time.Duration `yaml:"readTimeout" env:"READ_TIMEOUT" env-default:"5s" env-description:"maximum duration for reading the entire request - see http.Server#ReadTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout" env:"WRITE_TIMEOUT" env-default:"65s" env-description:"maximum duration before timing out writing the response - see http.Server#WriteTimeout"`
	ShutdownDelay  time.Duration `yaml:"shutdownDelay" env:"SHUTDOWN_DELAY" env-default:"5s" env-description:"delay between the shutdown signal and the actual shutdown"`

	CorsAllowedOrigins []string `yaml:"corsAllowedOrigins" env:"CORS_ALLOWED_ORIGINS" env-default:"*" env-separator:"," env-description:"comma-separated list of origins, allowed to perform cross-origin requests"`

	LoginRateLimit float64 `yaml:"loginRateLimit" env:"LOGIN_RATE_LIMIT" env-default:"1" env-description:"number of login attempts per second and remote address"`
	LoginRateBurst int     `yaml:"loginRateBurst" env:"LOGIN_RATE_BURST" env-default:"5" env-description:"maximum number of login attempts in a burst"`
}

type DatabaseConfig struct {
	Url             string `yaml:"url" env:"URL" secret:"true" env-description:"PostgreSQL URL, format: postgres://<username>:<password>@<host>:<port>/<database>?search_path=<schema> - if empty, an in-memory store is used"`
	ApplicationName string `yaml:"applicationName" env:"APPLICATION_NAME" env-default:"go-planning" env-description:"application name, reported to PostgreSQL"`
}

type JwtConfig struct {
	Key      string        `yaml:"key" env:"KEY" secret:"true" required:"true" env-description:"key for signing tokens, at least 16 characters - see -create-jwt-key"`
	Issuer   string        `yaml:"issuer" env:"ISSUER" env-default:"ProjectPlanning" env-description:"token issuer"`
	Audience string        `yaml:"audience" env:"AUDIENCE" env-default:"ProjectPlanningUsers" env-description:"token audience"`
	Ttl      time.Duration `yaml:"ttl" env:"TTL" env-default:"2h" env-description:"time to live of a token"`
}

type BonitaConfig struct {
	BaseUrl             string        `yaml:"baseUrl" env:"BASE_URL" env-default:"http://localhost:8080/bonita/" env-description:"base URL of the Bonita server"`
	Username            string        `yaml:"username" env:"USERNAME" required:"true" env-description:"name of the technical Bonita user"`
	Password            string        `yaml:"password" env:"PASSWORD" secret:"true" env-description:"password of the technical Bonita user"`
	ProcessDefinitionId string        `yaml:"processDefinitionId" env:"PROCESS_DEFINITION_ID" env-description:"ID of the process definition to instantiate - takes precedence over the process name"`
	ProcessName         string        `yaml:"processName" env:"PROCESS_NAME" env-description:"name of the process definition to instantiate"`
	UserId              string        `yaml:"userId" env:"USER_ID" env-description:"ID of the Bonita user, the first task of a case is assigned to"`
	Timeout             time.Duration `yaml:"timeout" env:"TIMEOUT" env-default:"30s" env-description:"time limit for a single Bonita request"`
	TaskPollAttempts    int           `yaml:"taskPollAttempts" env:"TASK_POLL_ATTEMPTS" env-default:"5" env-description:"maximum number of queries for the first ready user task of a case"`
	TaskPollInterval    time.Duration `yaml:"taskPollInterval" env:"TASK_POLL_INTERVAL" env-default:"1s" env-description:"delay between two queries for the first ready user task"`
	ProbeCron           string        `yaml:"probeCron" env:"PROBE_CRON" env-default:"* * * * *" env-description:"CRON expression, defining when the Bonita availability is probed - if empty, no probing is done"`
}

// readConfig reads the configuration from a YAML file, if a file name is given, and from environment variables.
func readConfig(fileName string) (Config, error) {
	var (
		config Config
		err    error
	)

	if fileName != "" {
		err = cleanenv.ReadConfig(fileName, &config)
	} else {
		err = cleanenv.ReadEnv(&config)
	}

	return config, err
}

func (c Config) Validate() error {
	var errs []error

	walkConfig(c, func(key string, field reflect.StructField, value reflect.Value) {
		if field.Tag.Get("required") == "true" && value.IsZero() {
			errs = append(errs, fmt.Errorf("%s: is empty", key))
		}
	})

	if hclog.LevelFromString(c.Log.Level) == hclog.NoLevel {
		errs = append(errs, fmt.Errorf("%sLOG_LEVEL: level %q is invalid", envPrefix, c.Log.Level))
	}
	if c.Http.BindAddress == "" {
		errs = append(errs, fmt.Errorf("%sHTTP_BIND_ADDRESS: is empty", envPrefix))
	}
	if c.Jwt.Key != "" {
		if _, err := auth.NewTokenIssuer(c.Jwt.Key); err != nil {
			errs = append(errs, fmt.Errorf("%sJWT_KEY: %v", envPrefix, err))
		}
	}
	if c.Bonita.BaseUrl == "" {
		errs = append(errs, fmt.Errorf("%sBONITA_BASE_URL: is empty", envPrefix))
	}
	if c.Bonita.ProcessDefinitionId == "" && c.Bonita.ProcessName == "" {
		errs = append(errs, fmt.Errorf("%sBONITA_PROCESS_DEFINITION_ID or %sBONITA_PROCESS_NAME must be set", envPrefix, envPrefix))
	}
	if c.Bonita.ProbeCron != "" && !gronx.IsValid(c.Bonita.ProbeCron) {
		errs = append(errs, fmt.Errorf("%sBONITA_PROBE_CRON: CRON expression %q is invalid", envPrefix, c.Bonita.ProbeCron))
	}

	return errors.Join(errs...)
}

// writeConfig writes the effective configuration as sorted KEY=VALUE lines. Secrets are masked.
func writeConfig(w io.Writer, c Config) {
	var lines []string

	walkConfig(c, func(key string, field reflect.StructField, value reflect.Value) {
		var s string
		switch v := value.Interface().(type) {
		case []string:
			s = strings.Join(v, ",")
		default:
			s = fmt.Sprint(v)
		}

		if field.Tag.Get("secret") == "true" && s != "" {
			s = secretMask
		}

		lines = append(lines, key+"="+s)
	})

	slices.Sort(lines)

	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

// writeConfigOptions writes a description of all configuration options.
func writeConfigOptions(w io.Writer) {
	header := "Configuration options (environment variables):"
	cleanenv.FUsage(w, &Config{}, &header)()
}

// walkConfig calls f for each option of a configuration, passing the option's environment variable name.
func walkConfig(c Config, f func(key string, field reflect.StructField, value reflect.Value)) {
	v := reflect.ValueOf(c)
	t := v.Type()

	for i := range t.NumField() {
		group := t.Field(i)
		prefix := group.Tag.Get("env-prefix")

		groupValue := v.Field(i)
		for j := range group.Type.NumField() {
			field := group.Type.Field(j)
			f(prefix+field.Tag.Get("env"), field, groupValue.Field(j))
		}
	}
}
