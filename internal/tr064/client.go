// Package tr064 implements the subset of the TR-064 (CWMP LAN-side) SOAP
// protocol needed to read and switch the WLAN of an AVM FRITZ!Box.
package tr064

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/wlantray/fritz-wlan/internal/constants"
	internalhttp "github.com/wlantray/fritz-wlan/internal/http"
	"github.com/wlantray/fritz-wlan/internal/logging"
)

// Options configures a Client.
type Options struct {
	// Address is the router IP or hostname. A leading scheme and a trailing
	// path are tolerated ("http://fritz.box/" works).
	Address  string
	Username string
	Password string

	// Port overrides constants.TR064Port (or TR064TLSPort with UseTLS).
	Port   int
	UseTLS bool

	// BaseURL, when set, replaces Address/Port/UseTLS entirely.
	BaseURL string

	// HTTPClient defaults to internal/http.NewRouterClient.
	HTTPClient *nethttp.Client
	Logger     *logging.Logger
}

// Client is a TR-064 client for one router. It is safe for concurrent use.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *nethttp.Client
	logger     *logging.Logger

	mu          sync.Mutex
	description *Description
	descErr     error
	challenge   *challenge
	nonceCount  int
}

// New creates a client. No network traffic happens until the first call.
func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		host := normalizeHost(opts.Address)
		if host == "" {
			return nil, ErrEmptyAddress
		}
		scheme, port := "http", constants.TR064Port
		if opts.UseTLS {
			scheme, port = "https", constants.TR064TLSPort
		}
		if opts.Port > 0 {
			port = opts.Port
		}
		baseURL = scheme + "://" + net.JoinHostPort(host, strconv.Itoa(port))
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = internalhttp.NewRouterClient(internalhttp.ClientOptions{
			Retries:          constants.RouterRetries,
			AcceptSelfSigned: opts.UseTLS,
			Logger:           opts.Logger,
		})
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Client{
		baseURL:    baseURL,
		username:   opts.Username,
		password:   opts.Password,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// BaseURL returns the scheme, host and port requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// normalizeHost strips scheme, path and surrounding whitespace from a
// user-entered address. IPv6 literals may be given with or without brackets.
func normalizeHost(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}
	if strings.Contains(address, "://") {
		if u, err := url.Parse(address); err == nil {
			return u.Hostname()
		}
	}
	if i := strings.IndexByte(address, '/'); i >= 0 {
		address = address[:i]
	}
	return strings.TrimSuffix(strings.TrimPrefix(address, "["), "]")
}

// Describe returns the device description, fetching it on first use.
// A failed fetch is remembered so callers fall back without retrying
// discovery on every call.
func (c *Client) Describe(ctx context.Context) (*Description, error) {
	c.mu.Lock()
	if c.description != nil || c.descErr != nil {
		desc, err := c.description, c.descErr
		c.mu.Unlock()
		return desc, err
	}
	c.mu.Unlock()

	desc, err := c.fetchDescription(ctx)
	if err != nil && ctx.Err() != nil {
		return nil, err
	}

	c.mu.Lock()
	c.description, c.descErr = desc, err
	c.mu.Unlock()
	return desc, err
}

// ControlURL resolves the control path for a service.
func (c *Client) ControlURL(ctx context.Context, service string) (string, error) {
	serviceType := ServiceType(service)

	desc, err := c.Describe(ctx)
	if err == nil {
		if s, ok := desc.Service(serviceType); ok && s.ControlURL != "" {
			return s.ControlURL, nil
		}
		return "", fmt.Errorf("%w: %s", ErrServiceNotFound, service)
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	if fallback := fallbackControlURL(serviceType); fallback != "" {
		c.logger.Warn().Err(err).Str("service", service).Str("control_url", fallback).
			Msg("Device description unavailable, using default control URL")
		return fallback, nil
	}
	return "", err
}

// Call invokes action on service and returns its output arguments.
//
// service may be a short name ("WLANConfiguration:1") or a full URN.
// SOAP faults are returned as *FaultError; rejected credentials as
// ErrUnauthorized.
func (c *Client) Call(ctx context.Context, service, action string, args ...Arg) (Arguments, error) {
	controlURL, err := c.ControlURL(ctx, service)
	if err != nil {
		return nil, err
	}

	serviceType := ServiceType(service)
	body, err := buildEnvelope(serviceType, action, args)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Str("service", service).Str("action", action).Str("url", c.baseURL+controlURL).Msg("TR-064 call")

	resp, err := c.post(ctx, controlURL, serviceType, action, body, c.currentAuthorization(controlURL))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == nethttp.StatusUnauthorized {
		authHeader := resp.Header.Get("WWW-Authenticate")
		drain(resp)

		if c.username == "" && c.password == "" {
			return nil, ErrUnauthorized
		}
		ch, perr := parseChallenge(authHeader)
		if perr != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, perr)
		}
		c.setChallenge(ch)

		resp, err = c.post(ctx, controlURL, serviceType, action, body, c.currentAuthorization(controlURL))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == nethttp.StatusUnauthorized {
			drain(resp)
			c.setChallenge(nil)
			return nil, ErrUnauthorized
		}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case nethttp.StatusOK, nethttp.StatusInternalServerError:
		// 500 carries the SOAP fault
	default:
		return nil, fmt.Errorf("%s %s: unexpected HTTP status %d", service, action, resp.StatusCode)
	}

	out, err := parseEnvelope(resp.Body, action)
	if err != nil {
		var fault *FaultError
		if resp.StatusCode == nethttp.StatusInternalServerError && !errors.As(err, &fault) {
			return nil, fmt.Errorf("%s %s: HTTP 500: %w", service, action, err)
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, controlURL, serviceType, action string, body []byte, authorization string) (*nethttp.Response, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, c.baseURL+controlURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	req.Header.Set("SOAPACTION", fmt.Sprintf(`"%s#%s"`, serviceType, action))
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	return resp, nil
}

func (c *Client) setChallenge(ch *challenge) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.challenge = ch
	c.nonceCount = 0
}

// currentAuthorization answers the cached challenge, or returns "" before
// the router has sent one.
func (c *Client) currentAuthorization(uri string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.challenge == nil {
		return ""
	}
	c.nonceCount++
	return c.challenge.authorization(c.username, c.password, nethttp.MethodPost, uri, c.nonceCount, newCnonce())
}

func drain(resp *nethttp.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
