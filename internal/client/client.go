package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-admin/internal"
	"github.com/antonio-alexander/go-employee-admin/internal/data"
	"github.com/antonio-alexander/go-employee-admin/internal/utilities"

	"github.com/pkg/errors"
)

// Client reads the debug endpoints of a running service, signed in as a
// superuser.
type Client interface {
	Version(ctx context.Context) (map[string]string, error)
	CacheClear(ctx context.Context) error
	CacheCountersRead(ctx context.Context) (*data.CacheCounters, error)
	CacheCountersClear(ctx context.Context) error
	TimersRead(ctx context.Context) (*data.Timers, error)
	TimersClear(ctx context.Context) error
}

type client struct {
	sync.RWMutex
	config struct {
		protocol   string
		address    string
		port       string
		timeout    int64
		username   string
		password   string
		sslCaFile  string
		sslCrtFile string
		sslKeyFile string
	}
	address string
	utilities.Logger
	*http.Client
}

func NewClient(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Client
} {
	c := &client{
		Client: &http.Client{},
		Logger: utilities.NewNopLogger(),
	}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			c.Logger = p
		}
	}
	return c
}

func (c *client) doRequest(ctx context.Context, uri, method string, item any) (*http.Response, []byte, error) {
	var contentType string
	var body io.Reader

	switch d := item.(type) {
	case url.Values:
		switch method {
		default:
			uri = uri + "?" + d.Encode()
		case http.MethodPut, http.MethodPost, http.MethodPatch:
			body = strings.NewReader(d.Encode())
			contentType = "application/x-www-form-urlencoded"
		}
	}
	request, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return nil, nil, err
	}
	if contentType != "" {
		request.Header.Add("Content-Type", contentType)
	}
	if correlationId := internal.CorrelationIdFromCtx(ctx); correlationId != "" {
		request.Header.Add(internal.HeaderCorrelationId, correlationId)
	}
	response, err := c.Do(request)
	if err != nil {
		return nil, nil, err
	}
	bytes, err := io.ReadAll(response.Body)
	defer response.Body.Close()
	if err != nil {
		return nil, nil, err
	}
	return response, bytes, nil
}

func (c *client) doJson(ctx context.Context, uri, method string, item any) ([]byte, error) {
	response, bytes, err := c.doRequest(ctx, uri, method, nil)
	if err != nil {
		return nil, err
	}
	switch response.StatusCode {
	default:
		var e struct {
			Error string `json:"error"`
		}

		if err := json.Unmarshal(bytes, &e); err != nil || e.Error == "" {
			return nil, errors.Errorf("status code: %d; %s",
				response.StatusCode, string(bytes))
		}
		return nil, errors.New(e.Error)
	case http.StatusSeeOther:
		return nil, errors.New("not signed in")
	case http.StatusNoContent:
		return nil, nil
	case http.StatusOK:
		if item != nil {
			if err := json.Unmarshal(bytes, item); err != nil {
				return nil, err
			}
		}
		return bytes, nil
	}
}

// signin posts the credentials to the signin form; success is a redirect
// while a failure re-renders the form
func (c *client) signin(ctx context.Context) error {
	response, _, err := c.doRequest(ctx, c.address+data.RouteSignin, http.MethodPost, url.Values{
		data.FieldUsername: {c.config.username},
		data.FieldPassword: {c.config.password},
	})
	if err != nil {
		return err
	}
	if response.StatusCode != http.StatusSeeOther {
		return errors.Errorf("unable to sign in as %q: status code %d",
			c.config.username, response.StatusCode)
	}
	return nil
}

func (c *client) Configure(envs map[string]string) error {
	c.config.protocol = "http"
	c.config.address = "localhost"
	c.config.port = "8080"
	c.config.timeout = 10
	if address, ok := envs["CLIENT_ADDRESS"]; ok {
		c.config.address = address
	}
	if port, ok := envs["CLIENT_PORT"]; ok {
		c.config.port = port
	}
	if protocol, ok := envs["CLIENT_PROTOCOL"]; ok {
		c.config.protocol = protocol
	}
	if timeout, ok := envs["CLIENT_TIMEOUT"]; ok {
		i, err := strconv.ParseInt(timeout, 10, 64)
		if err != nil {
			return err
		}
		c.config.timeout = i
	}
	if username, ok := envs["CLIENT_USERNAME"]; ok {
		c.config.username = username
	}
	if password, ok := envs["CLIENT_PASSWORD"]; ok {
		c.config.password = password
	}
	if sslCaFile, ok := envs["SSL_CA_FILE"]; ok {
		c.config.sslCaFile = sslCaFile
	}
	if sslKeyFile, ok := envs["SSL_KEY_FILE"]; ok {
		c.config.sslKeyFile = sslKeyFile
	}
	if sslCrtFile, ok := envs["SSL_CRT_FILE"]; ok {
		c.config.sslCrtFile = sslCrtFile
	}
	return nil
}

func (c *client) Open(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	switch c.config.protocol {
	default:
		return errors.Errorf("unsupported protocol: %s", c.config.protocol)
	case "http", "https":
		c.address = fmt.Sprintf("%s://%s", c.config.protocol,
			net.JoinHostPort(c.config.address, c.config.port))
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	c.Client.Jar = jar
	c.Client.Timeout = time.Duration(c.config.timeout) * time.Second
	c.Client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	transport, err := getTransport(c.config.sslCaFile, c.config.sslCrtFile,
		c.config.sslKeyFile)
	if err != nil {
		return err
	}
	c.Client.Transport = transport
	if err := c.signin(ctx); err != nil {
		return err
	}
	c.Debug(ctx, "client: signed in to %s as %q", c.address, c.config.username)
	return nil
}

func (c *client) Close(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	if c.address == "" {
		return nil
	}
	if _, _, err := c.doRequest(ctx, c.address+data.RouteSignout, http.MethodPost, url.Values{}); err != nil {
		c.Error(ctx, "error while signing out: %s", err)
	}
	return nil
}

func (c *client) Version(ctx context.Context) (map[string]string, error) {
	version := make(map[string]string)
	if _, err := c.doJson(ctx, c.address+data.RouteVersion, http.MethodGet, &version); err != nil {
		return nil, err
	}
	return version, nil
}

func (c *client) CacheClear(ctx context.Context) error {
	_, err := c.doJson(ctx, c.address+data.RouteCache, http.MethodDelete, nil)
	return err
}

func (c *client) CacheCountersRead(ctx context.Context) (*data.CacheCounters, error) {
	response := &data.CacheCounters{}
	if _, err := c.doJson(ctx, c.address+data.RouteCacheCounters, http.MethodGet, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) CacheCountersClear(ctx context.Context) error {
	_, err := c.doJson(ctx, c.address+data.RouteCacheCounters, http.MethodDelete, nil)
	return err
}

func (c *client) TimersRead(ctx context.Context) (*data.Timers, error) {
	response := &data.Timers{}
	if _, err := c.doJson(ctx, c.address+data.RouteTimers, http.MethodGet, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) TimersClear(ctx context.Context) error {
	_, err := c.doJson(ctx, c.address+data.RouteTimers, http.MethodDelete, nil)
	return err
}
