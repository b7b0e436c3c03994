package service

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-admin/internal"
	"github.com/antonio-alexander/go-employee-admin/internal/auth"
	"github.com/antonio-alexander/go-employee-admin/internal/cache"
	"github.com/antonio-alexander/go-employee-admin/internal/data"
	"github.com/antonio-alexander/go-employee-admin/internal/logic"
	"github.com/antonio-alexander/go-employee-admin/internal/photos"
	"github.com/antonio-alexander/go-employee-admin/internal/utilities"
	"github.com/antonio-alexander/go-employee-admin/internal/views"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

var (
	Version   string
	GitCommit string
	GitBranch string
)

func init() {
	if Version = data.Version; Version == "" {
		Version = "<no_version_provided>"
	}
	if GitCommit = data.GitCommit; GitCommit == "" {
		GitCommit = "<no_git_commit>"
	}
	if GitBranch = data.GitBranch; GitBranch == "" {
		GitBranch = "<no_git_branch>"
	}
}

type service struct {
	sync.RWMutex
	sync.WaitGroup
	config struct {
		address          string
		port             string
		shutdownTimeout  time.Duration
		maxRequestBytes  int64
		allowedOrigins   []string
		allowedMethods   []string
		allowedHeaders   []string
		allowCredentials bool
		corsDisabled     bool
		corsDebug        bool
		timersEnabled    bool
		sslCrtFile       string
		sslKeyFile       string
		sslCaFile        string
	}
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
	handler http.Handler
	*mux.Router
	*http.Server
	cache  internal.Clearer
	auth   auth.Auth
	photos photos.Photos
	views  views.Views
	utilities.Logger
	utilities.Counter
	utilities.Timers
	logic.Logic
}

func NewService(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Handler() http.Handler
} {
	router := mux.NewRouter()
	s := &service{
		Router: router,
		Server: &http.Server{
			Handler: router,
		},
		Logger: utilities.NewNopLogger(),
	}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case auth.Auth:
			s.auth = p
		case photos.Photos:
			s.photos = p
		case views.Views:
			s.views = p
		case interface {
			cache.Cache
			internal.Clearer
		}:
			s.cache = p
		case logic.Logic:
			s.Logic = p
		case utilities.Counter:
			s.Counter = p
		case utilities.Timers:
			s.Timers = p
		case utilities.Logger:
			s.Logger = p
		}
	}
	return s
}

func (s *service) launchServer() error {
	started := make(chan struct{})
	chErr := make(chan error, 1)
	s.Add(1)
	go func() {
		defer s.WaitGroup.Done()
		defer close(chErr)

		close(started)
		if s.Server.TLSConfig != nil {
			if err := s.Server.ListenAndServeTLS("", ""); err != nil {
				chErr <- err
			}
			return
		}
		if err := s.Server.ListenAndServe(); err != nil {
			chErr <- err
		}
	}()
	<-started
	select {
	case err := <-chErr:
		//KIM: here we're accounting for a situation where the server closes unexexpectedly
		// but quickly (within a second of starting); this allows us to respond to errors such as
		// the port being already used
		return err
	case <-time.After(time.Second):
		address := net.JoinHostPort(s.config.address, s.config.port)
		s.Info(s.ctx, "started server: %s", address)
		return nil
	}
}

func (s *service) buildRoutes() {
	s.Router.Use(s.middlewareRequest)
	//middleware registered with Use only runs on matched routes
	s.Router.NotFoundHandler = s.middlewareRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, nil, errNotFound)
	}))
	s.Router.HandleFunc(data.RouteCreate, s.gate(data.PermissionAdd, func(w http.ResponseWriter, r *http.Request, requester *data.Requester) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			s.endpointEmployeeForm(w, r, requester)
		case http.MethodPost:
			s.endpointEmployeeCreate(w, r, requester)
		}
	}))
	s.Router.HandleFunc(data.RouteAll, s.gate(data.PermissionView, func(w http.ResponseWriter, r *http.Request, requester *data.Requester) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			s.endpointEmployeesList(w, r, requester)
		}
	}))
	s.Router.HandleFunc(data.RouteSearch, s.gate(data.PermissionView, func(w http.ResponseWriter, r *http.Request, requester *data.Requester) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			s.endpointEmployeesSearch(w, r, requester)
		}
	}))
	s.Router.HandleFunc(data.RouteDetails, s.gate(data.PermissionView, func(w http.ResponseWriter, r *http.Request, requester *data.Requester) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			s.endpointEmployeeDetails(w, r, requester)
		}
	}))
	s.Router.HandleFunc(data.RouteUpdate, s.gate(data.PermissionChange, func(w http.ResponseWriter, r *http.Request, requester *data.Requester) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			s.endpointEmployeeUpdateForm(w, r, requester)
		case http.MethodPost:
			s.endpointEmployeeUpdate(w, r, requester)
		}
	}))
	s.Router.HandleFunc(data.RouteDelete, s.gate(data.PermissionDelete, func(w http.ResponseWriter, r *http.Request, requester *data.Requester) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			s.endpointEmployeeDeleteConfirm(w, r, requester)
		case http.MethodPost:
			s.endpointEmployeeDelete(w, r, requester)
		}
	}))
	s.Router.HandleFunc(data.RouteMedia, s.gate(data.PermissionView, func(w http.ResponseWriter, r *http.Request, requester *data.Requester) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet, http.MethodHead:
			s.endpointMedia(w, r, requester)
		}
	}))
	s.Router.HandleFunc(data.RouteSignin, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			s.endpointSigninForm(w, r)
		case http.MethodPost:
			s.endpointSignin(w, r)
		}
	})
	s.Router.HandleFunc(data.RouteSignout, s.gate("", func(w http.ResponseWriter, r *http.Request, requester *data.Requester) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet, http.MethodPost:
			s.endpointSignout(w, r, requester)
		}
	}))
	s.Router.HandleFunc(data.RouteVersion, s.gateSuperuser(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			s.endpointVersion(w, r)
		}
	}))
	s.Router.HandleFunc(data.RouteCacheCounters, s.gateSuperuser(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			s.endpointCacheCountersRead(w, r)
		case http.MethodDelete:
			s.endpointCacheCountersClear(w, r)
		}
	}))
	s.Router.HandleFunc(data.RouteCache, s.gateSuperuser(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodDelete:
			s.endpointCacheClear(w, r)
		}
	}))
	s.Router.HandleFunc(data.RouteTimers, s.gateSuperuser(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			s.endpointTimersRead(w, r)
		case http.MethodDelete:
			s.endpointTimersClear(w, r)
		}
	}))
}

func (s *service) Start(group string) int {
	if s.Timers == nil || !s.config.timersEnabled {
		return -1
	}
	return s.Timers.Start(group)
}

func (s *service) Stop(group string, index int) int64 {
	if s.Timers == nil || index < 0 {
		return -1
	}
	return s.Timers.Stop(group, index)
}

// Handler returns the routed handler, wrapped with cors unless disabled; it's
// built once, after Configure
func (s *service) Handler() http.Handler {
	s.once.Do(func() {
		s.buildRoutes()
		s.handler = s.Router
		if !s.config.corsDisabled {
			s.handler = cors.New(cors.Options{
				AllowedOrigins:   s.config.allowedOrigins,
				AllowCredentials: s.config.allowCredentials,
				AllowedMethods:   s.config.allowedMethods,
				AllowedHeaders:   s.config.allowedHeaders,
				Debug:            s.config.corsDebug,
			}).Handler(s.Router)
		}
	})
	return s.handler
}

func (s *service) Configure(envs map[string]string) error {
	s.config.shutdownTimeout = 10 * time.Second
	s.config.maxRequestBytes = photos.DefaultMaxBytes + (1 << 20)
	if address, ok := envs["SERVICE_ADDRESS"]; ok {
		s.config.address = address
	}
	if port, ok := envs["SERVICE_PORT"]; ok {
		s.config.port = port
	}
	if shutdownTimeoutString, ok := envs["SERVICE_SHUTDOWN_TIMEOUT"]; ok {
		if shutdownTimeoutInt, err := strconv.Atoi(shutdownTimeoutString); err == nil {
			if timeout := time.Duration(shutdownTimeoutInt) * time.Second; timeout > 0 {
				s.config.shutdownTimeout = timeout
			}
		}
	}
	if maxRequestBytesString, ok := envs["SERVICE_MAX_REQUEST_BYTES"]; ok {
		if maxRequestBytes, err := strconv.ParseInt(maxRequestBytesString, 10, 64); err == nil && maxRequestBytes > 0 {
			s.config.maxRequestBytes = maxRequestBytes
		}
	}
	if allowCredentialsString, ok := envs["SERVICE_CORS_ALLOW_CREDENTIALS"]; ok {
		if allowCredentials, err := strconv.ParseBool(allowCredentialsString); err == nil {
			s.config.allowCredentials = allowCredentials
		}
	}
	if allowedOrigins := envs["SERVICE_CORS_ALLOWED_ORIGINS"]; allowedOrigins != "" {
		s.config.allowedOrigins = strings.Split(allowedOrigins, ",")
	}
	if allowedMethods := envs["SERVICE_CORS_ALLOWED_METHODS"]; allowedMethods != "" {
		s.config.allowedMethods = strings.Split(allowedMethods, ",")
	}
	if allowedHeaders := envs["SERVICE_CORS_ALLOWED_HEADERS"]; allowedHeaders != "" {
		s.config.allowedHeaders = strings.Split(allowedHeaders, ",")
	}
	if corsDisabledString, ok := envs["SERVICE_CORS_DISABLED"]; ok {
		if corsDisabled, err := strconv.ParseBool(corsDisabledString); err == nil {
			s.config.corsDisabled = corsDisabled
		}
	}
	if corsDebug, ok := envs["SERVICE_CORS_DEBUG"]; ok {
		if corsDebug, err := strconv.ParseBool(corsDebug); err == nil {
			s.config.corsDebug = corsDebug
		}
	}
	if timersEnabled := envs["SERVICE_TIMERS_ENABLED"]; timersEnabled != "" {
		s.config.timersEnabled, _ = strconv.ParseBool(timersEnabled)
	}
	s.config.sslCrtFile = envs["SSL_CRT_FILE"]
	s.config.sslKeyFile = envs["SSL_KEY_FILE"]
	s.config.sslCaFile = envs["SSL_CA_FILE"]
	return nil
}

func (s *service) Open(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.Server.Addr = net.JoinHostPort(s.config.address, s.config.port)
	s.Server.Handler = s.Handler()
	if s.config.sslCrtFile != "" && s.config.sslKeyFile != "" {
		tlsConfig, err := internal.GetTlsConfig(s.config.sslCrtFile,
			s.config.sslKeyFile, s.config.sslCaFile)
		if err != nil {
			return err
		}
		s.Server.TLSConfig = tlsConfig
	}
	if err := s.launchServer(); err != nil {
		return err
	}
	return nil
}

func (s *service) Close(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.config.shutdownTimeout)
	defer cancel()
	if err := s.Server.Shutdown(ctx); err != nil {
		s.Error(ctx, "error while shutting down the server: %s", err)
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.Wait()
	return nil
}
