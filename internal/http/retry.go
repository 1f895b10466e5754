package http

import (
	"context"
	"errors"
	"net"
	nethttp "net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/wlantray/fritz-wlan/internal/logging"
)

// ErrorType represents different classes of router errors
type ErrorType int

const (
	// ErrorTypeSuccess indicates operation succeeded
	ErrorTypeSuccess ErrorType = iota
	// ErrorTypeCredential indicates authentication/authorization failure (401, action not authorized)
	ErrorTypeCredential
	// ErrorTypeNetwork indicates network/connection issues (timeouts, connection refused, no route)
	ErrorTypeNetwork
	// ErrorTypeRetryable indicates a busy router (502, 503, 504)
	ErrorTypeRetryable
	// ErrorTypeFatal indicates everything else (SOAP faults, malformed responses)
	ErrorTypeFatal
)

// RouterRetryPolicy decides whether retryablehttp should try again.
//
// TR-064 reports SOAP faults (invalid action, invalid arguments, action not
// authorized) with HTTP 500, so 500 is final. Only connection failures and
// gateway/unavailable statuses are retried.
func RouterRetryPolicy(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		// Delegates certificate, redirect and scheme errors to the library's policy.
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	switch resp.StatusCode {
	case nethttp.StatusBadGateway, nethttp.StatusServiceUnavailable, nethttp.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}

// ClassifyError determines the error class for logging and user hints.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeSuccess
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeNetwork
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "not authorized") ||
		strings.Contains(errStr, "authentication failed") {
		return ErrorTypeCredential
	}

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no route to host") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "eof") {
		return ErrorTypeNetwork
	}

	if strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "giving up after") {
		return ErrorTypeRetryable
	}

	return ErrorTypeFatal
}

// ErrorTypeName returns a human-readable name for an ErrorType
func ErrorTypeName(errType ErrorType) string {
	switch errType {
	case ErrorTypeSuccess:
		return "success"
	case ErrorTypeCredential:
		return "credential"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeRetryable:
		return "retryable"
	case ErrorTypeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Hint returns a short suggestion for the user, or "" when there is none.
func Hint(errType ErrorType) string {
	switch errType {
	case ErrorTypeCredential:
		return "check username and password in Settings"
	case ErrorTypeNetwork:
		return "check the router address and that TR-064 access is enabled"
	case ErrorTypeRetryable:
		return "the router is busy, try again shortly"
	default:
		return ""
	}
}

// retryLogger implements the retryablehttp.LeveledLogger interface on top of zerolog
type retryLogger struct {
	logger *logging.Logger
}

func newRetryLogger(logger *logging.Logger) retryablehttp.LeveledLogger {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &retryLogger{logger: logger}
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// Only log errors and warnings, not all info
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}
