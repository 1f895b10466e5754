// Package http builds the HTTP client used to talk to the router.
package http

import (
	"crypto/tls"
	"net"
	nethttp "net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/wlantray/fritz-wlan/internal/constants"
	"github.com/wlantray/fritz-wlan/internal/logging"
)

// ClientOptions configures NewRouterClient.
type ClientOptions struct {
	// Timeout bounds each attempt. Zero selects constants.RouterTimeout.
	Timeout time.Duration

	// Retries is the number of transport-level retries (0 = single attempt).
	Retries int

	// AcceptSelfSigned disables certificate verification (the FRITZ!Box
	// certificate is self-signed).
	AcceptSelfSigned bool

	// Logger receives retry warnings. Nil discards them.
	Logger *logging.Logger
}

// NewTransport returns the base transport for router requests.
func NewTransport(acceptSelfSigned bool) *nethttp.Transport {
	return &nethttp.Transport{
		Proxy: nil, // the router is on the local network
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: acceptSelfSigned, //nolint:gosec // router certificate is self-signed
		},
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout: constants.HTTPTLSHandshakeTimeout,
	}
}

// NewRouterClient creates an HTTP client with retry logic for TR-064 calls.
//
// Retries cover connection failures and 502/503/504 only. A plain 500
// carries a SOAP fault and is never retried.
func NewRouterClient(opts ClientOptions) *nethttp.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = constants.RouterTimeout
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &nethttp.Client{
		Transport: NewTransport(opts.AcceptSelfSigned),
		Timeout:   timeout,
	}
	retryClient.RetryMax = retries
	retryClient.RetryWaitMin = constants.RouterRetryWaitMin
	retryClient.RetryWaitMax = constants.RouterRetryWaitMax
	retryClient.CheckRetry = RouterRetryPolicy
	retryClient.Logger = newRetryLogger(opts.Logger)

	return retryClient.StandardClient()
}
