package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/gclaussn/go-planning/http/common"
	"github.com/gclaussn/go-planning/planning"
	"github.com/gclaussn/go-planning/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"
)

func New(s *service.Service, customizers ...func(*Options)) (*Server, error) {
	if s == nil {
		return nil, errors.New("service is nil")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	metrics := options.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	// server-wide context for incoming requests
	httpServerCtx, httpServerCancel := context.WithCancel(context.Background())

	server := Server{
		service:          s,
		httpServerCtx:    httpServerCtx,
		httpServerCancel: httpServerCancel,
		logger:           logger,
		metrics:          metrics,
		options:          options,
	}

	loginLimiter := newRateLimiter(options.LoginRateLimit, options.LoginRateBurst, logger)

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   options.CorsAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", common.HeaderAuthorization, common.HeaderContentType},
		ExposedHeaders:   []string{"Content-Length", common.HeaderRetryAfter},
		AllowCredentials: false,
		MaxAge:           int((12 * time.Hour).Seconds()),
	}))
	router.Use(metrics.instrument)

	router.Post(common.PathAuthRegister, server.register)
	router.With(loginLimiter.Handler).Post(common.PathAuthLogin, server.login)
	router.Post(common.PathBonitaLogin, server.bonitaLogin)
	router.Post(common.PathBonitaAuthLogin, server.bonitaLogin)

	router.Group(func(r chi.Router) {
		r.Use(server.authenticate)

		r.Get(common.PathAuthProfile, server.getProfile)

		r.Get(common.PathBonitaProcesses, server.listProcesses)
		r.Get(common.PathBonitaStatus, server.getBonitaStatus)

		r.Get(common.PathProjects, server.listProjects)
		r.Post(common.PathProjects, server.createProject)
		r.Get(common.PathProjectsId, server.getProject)
		r.Get(common.PathProjectsResources, server.listResources)

		r.Patch(common.PathResourcesAccept, server.acceptResource)
		r.Patch(common.PathResourcesOffer, server.offerResource)
	})

	router.Get(common.PathReadiness, server.checkReadiness)
	router.Method(http.MethodGet, common.PathMetrics, metrics.Handler())

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	server.handler = http.TimeoutHandler(router, options.HandlerTimeout, "handler timed out")

	httpServer := http.Server{
		Addr: options.BindAddress,
		BaseContext: func(_ net.Listener) context.Context {
			return httpServerCtx
		},
		Handler:      server.handler,
		IdleTimeout:  options.IdleTimeout,
		ReadTimeout:  options.ReadTimeout,
		WriteTimeout: options.WriteTimeout,
	}

	if options.Configure != nil {
		options.Configure(&httpServer)
	}

	server.httpServer = &httpServer

	return &server, nil
}

func NewOptions() Options {
	return Options{
		BindAddress: "127.0.0.1:8080",

		HandlerTimeout: 30 * time.Second,
		IdleTimeout:    60 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   35 * time.Second,

		ShutdownDelay:       5 * time.Second,
		ShutdownPeriod:      30 * time.Second,
		ShutdownForcePeriod: 5 * time.Second,

		CorsAllowedOrigins: []string{"*"},

		LoginRateLimit: rate.Limit(1),
		LoginRateBurst: 5,
	}
}

type Options struct {
	BindAddress string // TCP address for the server to listen on.

	HandlerTimeout time.Duration // Time limit for HTTP handler - when reached, the handler responds with HTTP 503.
	IdleTimeout    time.Duration // Maximum amount of time to wait for the next request, when keep-alives are enabled - see http.Server#IdleTimeout
	ReadTimeout    time.Duration // Maximum duration for reading the entire request - see http.Server#ReadTimeout
	WriteTimeout   time.Duration // Maximum duration before timing out writing the response - see http.Server#WriteTimeout

	ShutdownDelay       time.Duration // Delay between the shutdown signal and the actual shutdown, used to propagate readiness.
	ShutdownPeriod      time.Duration // Period for a graceful shutdown without interrupting ongoing requests.
	ShutdownForcePeriod time.Duration // Period for a forced shutdown, where ongoing requests are canceled.

	CorsAllowedOrigins []string // Origins, allowed to perform cross-origin requests.

	LoginRateLimit rate.Limit // Number of login attempts per second and remote address.
	LoginRateBurst int        // Maximum number of login attempts in a burst.

	Logger  hclog.Logger
	Metrics *Metrics // Optional metrics - if nil, new metrics are created.

	Configure func(*http.Server) // Optional function, used to configure the underlying HTTP server if needed.
}

func (o Options) Validate() error {
	if o.HandlerTimeout <= 0 {
		return errors.New("handler timeout must be greater than zero")
	}
	if o.LoginRateLimit <= 0 {
		return errors.New("login rate limit must be greater than zero")
	}
	if o.LoginRateBurst < 1 {
		return errors.New("login rate burst must be greater than zero")
	}
	return nil
}

type Server struct {
	service          *service.Service
	handler          http.Handler
	httpServer       *http.Server
	httpServerCtx    context.Context    // server-wide base context for incoming requests
	httpServerCancel context.CancelFunc // invoked after server shutdown to cancel to ongoing requests
	isShuttingDown   atomic.Bool
	logger           hclog.Logger
	metrics          *Metrics
	options          Options
}

// Handler returns the server's HTTP handler, including all middlewares.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) ListenAndServe() {
	go func() {
		s.logger.Info("server listening", "address", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("failed to listen and serve HTTP", "err", err)
			os.Exit(1)
		}
	}()
}

func (s *Server) Shutdown() {
	s.isShuttingDown.Store(true)
	s.logger.Info("server is shutting down")

	time.Sleep(s.options.ShutdownDelay)
	s.logger.Info("server is shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.options.ShutdownPeriod)
	defer shutdownCancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.httpServerCancel()
	if err != nil {
		s.logger.Error("failed to shutdown HTTP server", "err", err)
		time.Sleep(s.options.ShutdownForcePeriod)
	}

	s.logger.Info("server shut down")
}

// auth

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	profile := s.service.Profile(claimsFromContext(r.Context()))
	encodeJSONResponseBody(w, r, s.logger, profile, http.StatusOK)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var cmd planning.LoginCmd
	if err := decodeJSONRequestBody(w, r, &cmd); err != nil {
		encodeJSONProblemResponseBody(w, r, s.logger, err)
		return
	}

	token, err := s.service.Login(r.Context(), cmd)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, s.logger, err)
		return
	}

	encodeJSONResponseBody(w, r, s.logger, common.LoginRes{Token: token}, http.StatusOK)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var cmd planning.RegisterCmd
	if err := decodeJSONRequestBody(w, r, &cmd); err != nil {
		encodeJSONProblemResponseBody(w, r, s.logger, err)
		return
	}

	user, err := s.service.Register(r.Context(), cmd)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, s.logger, err)
		return
	}

	encodeJSONResponseBody(w, r, s.logger, user, http.StatusCreated)
}

// Bonita

func (s *Server) bonitaLogin(w http.ResponseWriter, r *http.Request) {
	var cmd planning.BonitaLoginCmd
	if err := decodeJSONRequestBody(w, r, &cmd); err != nil {
		encodeJSONProblemResponseBody(w, r, s.logger, err)
		return
	}

	userSession, err := s.service.BonitaLogin(r.Context(), cmd)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, s.logger, err)
		return
	}

	resBody := common.BonitaLoginRes{
		SessionId: userSession.SessionId,
		ApiToken:  userSession.ApiToken,
		UserId:    userSession.UserId,
		Roles:     userSession.Roles,
	}

	encodeJSONResponseBody(w, r, s.logger, resBody, http.StatusOK)
}

func (s *Server) getBonitaStatus(w http.ResponseWriter, r *http.Request) {
	encodeJSONResponseBody(w, r, s.logger, s.service.BonitaStatus(r.Context()), http.StatusOK)
}

func (s *Server) listProcesses(w http.ResponseWriter, r *http.Request) {
	processes := s.service.ListProcesses(r.Context())

	resBody := common.ProcessRes{
		Count:   len(processes),
		Results: processes,
	}

	encodeJSONResponseBody(w, r, s.logger, resBody, http.StatusOK)
}

// projects

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var cmd planning.CreateProjectCmd
	if err := decodeJSONRequestBody(w, r, &cmd); err != nil {
		encodeJSONProblemResponseBody(w, r, s.logger, err)
		return
	}

	project, err := s.service.CreateProject(r.Context(), cmd)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, s.logger, err)
		return
	}

	encodeJSONResponseBody(w, r, s.logger, project, http.StatusCreated)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	id, err := parseId(r)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, s.logger, err)
		return
	}

	project, err := s.service.GetProject(r.Context(), id)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, s.logger, err)
		return
	}

	encodeJSONResponseBody(w, r, s.logger, project, http.StatusOK)
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.service.ListProjects(r.Context())
	if err != nil {
		encodeJSONProblemResponseBody(w, r, s.logger, err)
		return
	}

	resBody := common.ProjectRes{
		Count:   len(projects),
		Results: projects,
	}

	encodeJSONResponseBody(w, r, s.logger, resBody, http.StatusOK)
}

func (s *Server) listResources(w http.ResponseWriter, r *http.Request) {
	id, err := parseId(r)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, s.logger, err)
		return
	}

	resources, err := s.service.ListResources(r.Context(), id)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, s.logger, err)
		return
	}

	resBody := common.ResourceRes{
		Count:   len(resources),
		Results: resources,
	}

	encodeJSONResponseBody(w, r, s.logger, resBody, http.StatusOK)
}

// resources

func (s *Server) acceptResource(w http.ResponseWriter, r *http.Request) {
	id, err := parseId(r)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, s.logger, err)
		return
	}

	resource, err := s.service.AcceptResource(r.Context(), id)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, s.logger, err)
		return
	}

	encodeJSONResponseBody(w, r, s.logger, resource, http.StatusOK)
}

func (s *Server) offerResource(w http.ResponseWriter, r *http.Request) {
	id, err := parseId(r)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, s.logger, err)
		return
	}

	claims := claimsFromContext(r.Context())

	resource, err := s.service.OfferResource(r.Context(), planning.OfferResourceCmd{
		Id:                   id,
		Email:                claims.Email,
		OfferingOrganization: claims.OfferingOrganization,
	})
	if err != nil {
		encodeJSONProblemResponseBody(w, r, s.logger, err)
		return
	}

	encodeJSONResponseBody(w, r, s.logger, resource, http.StatusOK)
}

// management

func (s *Server) checkReadiness(w http.ResponseWriter, r *http.Request) {
	if s.isShuttingDown.Load() {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ready"))
}
