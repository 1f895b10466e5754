package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// TestRouterRetryPolicy_StatusCodes verifies which responses are retried.
func TestRouterRetryPolicy_StatusCodes(t *testing.T) {
	tests := []struct {
		status int
		retry  bool
	}{
		{nethttp.StatusOK, false},
		{nethttp.StatusUnauthorized, false},
		{nethttp.StatusInternalServerError, false}, // SOAP fault
		{nethttp.StatusBadGateway, true},
		{nethttp.StatusServiceUnavailable, true},
		{nethttp.StatusGatewayTimeout, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			retry, err := RouterRetryPolicy(context.Background(), &nethttp.Response{StatusCode: tt.status}, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if retry != tt.retry {
				t.Errorf("status %d: expected retry=%v, got %v", tt.status, tt.retry, retry)
			}
		})
	}
}

// TestRouterRetryPolicy_CancelledContext verifies cancellation stops retries.
func TestRouterRetryPolicy_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	retry, err := RouterRetryPolicy(ctx, nil, errors.New("connection refused"))
	if retry {
		t.Error("expected no retry after cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// TestRouterRetryPolicy_ConnectionError verifies transport errors are retried.
func TestRouterRetryPolicy_ConnectionError(t *testing.T) {
	retry, _ := RouterRetryPolicy(context.Background(), nil, errors.New("dial tcp 192.168.178.1:49000: connect: connection refused"))
	if !retry {
		t.Error("expected connection errors to be retried")
	}
}

// TestNewRouterClient_RetriesUnavailable verifies a 503 is retried until success.
func TestNewRouterClient_RetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != "<soap/>" {
			t.Errorf("request body not replayed on retry: %q", body)
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(nethttp.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(nethttp.StatusOK)
	}))
	defer server.Close()

	client := NewRouterClient(ClientOptions{Timeout: 2 * time.Second, Retries: 2})
	req, _ := nethttp.NewRequest(nethttp.MethodPost, server.URL, strings.NewReader("<soap/>"))
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

// TestNewRouterClient_DoesNotRetrySOAPFault verifies 500 responses are returned as-is.
func TestNewRouterClient_DoesNotRetrySOAPFault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		calls.Add(1)
		w.WriteHeader(nethttp.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewRouterClient(ClientOptions{Timeout: 2 * time.Second, Retries: 3})
	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != nethttp.StatusInternalServerError {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call (no retry on SOAP fault), got %d", calls.Load())
	}
}

// TestClassifyError verifies router error classification.
func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorType
	}{
		{nil, ErrorTypeSuccess},
		{errors.New("tr064: unauthorized"), ErrorTypeCredential},
		{errors.New("UPnPError 606: Action Not Authorized"), ErrorTypeCredential},
		{errors.New("dial tcp 10.0.0.1:49000: connect: connection refused"), ErrorTypeNetwork},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), ErrorTypeNetwork},
		{errors.New("POST http://fritz.box giving up after 3 attempt(s)"), ErrorTypeRetryable},
		{errors.New("UPnPError 402: Invalid Args"), ErrorTypeFatal},
	}

	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.want {
			t.Errorf("ClassifyError(%v) = %s, want %s", tt.err, ErrorTypeName(got), ErrorTypeName(tt.want))
		}
	}
}

func TestHint(t *testing.T) {
	if Hint(ErrorTypeCredential) == "" {
		t.Error("expected a hint for credential errors")
	}
	if Hint(ErrorTypeFatal) != "" {
		t.Error("expected no hint for fatal errors")
	}
}
