package clients

import (
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/failsafe-go/failsafe-go"
	fsCircuitbreaker "github.com/failsafe-go/failsafe-go/circuitbreaker"
	fsRatelimiter "github.com/failsafe-go/failsafe-go/ratelimiter"
)

//nolint:bodyclose // test responses have no body
func TestNewHTTPRetryPolicy_NormalizesConfigToBoundRetries(t *testing.T) {
	cfg := HTTPExecutorConfig{
		MaxRetries: -3,
		BaseDelay:  0,
		MaxDelay:   0,
	}
	policy := NewHTTPRetryPolicy(cfg)

	var attempts int32
	_, err := failsafe.With(policy).Get(func() (*http.Response, error) {
		atomic.AddInt32(&attempts, 1)
		return nil, errors.New("network partition")
	})
	if err == nil {
		t.Fatal("expected request to fail")
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Fatalf("expected bounded single attempt with negative retries, got %d", got)
	}
}

//nolint:bodyclose // test responses have no body
func TestNewHTTPRetryPolicy_RetriesUpToConfiguredLimit(t *testing.T) {
	cfg := HTTPExecutorConfig{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Millisecond,
		ShouldRetry: func(_ *http.Response, err error) bool {
			return err != nil
		},
	}
	policy := NewHTTPRetryPolicy(cfg)

	var attempts int32
	_, err := failsafe.With(policy).Get(func() (*http.Response, error) {
		count := atomic.AddInt32(&attempts, 1)
		if count < 3 {
			return nil, errors.New("dns lag")
		}
		return &http.Response{StatusCode: http.StatusOK}, nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Fatalf("expected exactly 3 attempts (1 + 2 retries), got %d", got)
	}
}

//nolint:bodyclose // test responses have no body
func TestDefaultShouldRetry_Classification(t *testing.T) {
	cases := []struct {
		name      string
		resp      *http.Response
		err       error
		retryable bool
	}{
		{"network error", nil, errors.New("connection reset"), true},
		{"server error", &http.Response{StatusCode: http.StatusBadGateway}, nil, true},
		{"rate limited", &http.Response{StatusCode: http.StatusTooManyRequests}, nil, true},
		{"not found", &http.Response{StatusCode: http.StatusNotFound}, nil, false},
		{"validation rejection", &http.Response{StatusCode: http.StatusUnprocessableEntity}, nil, false},
		{"success", &http.Response{StatusCode: http.StatusOK}, nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DefaultShouldRetry(tc.resp, tc.err); got != tc.retryable {
				t.Fatalf("expected retryable=%v, got %v", tc.retryable, got)
			}
		})
	}
}

//nolint:bodyclose // test responses have no body
func TestDefaultPolicies_StartClosedAndPassRequests(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())
	if cb.State() != StateClosed {
		t.Fatalf("expected default breaker to start closed, got %s", cb.State())
	}

	cfg := DefaultHTTPExecutorConfig()
	cfg.CircuitBreaker = cb
	cfg.RateLimiter = NewHTTPRateLimiter(DefaultRateLimiterConfig())
	executor := NewHTTPExecutor(cfg)

	resp, err := executor.Get(func() (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

//nolint:bodyclose // test responses have no body
func TestNewHTTPExecutor_OpensCircuitAfterSustainedServerErrors(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "flaky-upstream",
		MinRequests:  4,
		FailureRatio: 0.5,
		Timeout:      time.Minute,
	})
	executor := NewHTTPExecutor(HTTPExecutorConfig{
		BaseDelay:      time.Millisecond,
		MaxDelay:       time.Millisecond,
		CircuitBreaker: cb,
		ShouldRetry:    func(_ *http.Response, _ error) bool { return false },
	})

	if cb.State() != StateClosed {
		t.Fatalf("expected new breaker to start closed, got %s", cb.State())
	}

	var attempts int32
	for i := 0; i < 4; i++ {
		_, _ = executor.Get(func() (*http.Response, error) {
			atomic.AddInt32(&attempts, 1)
			return &http.Response{StatusCode: http.StatusServiceUnavailable}, nil
		})
	}
	if !cb.IsOpen() {
		t.Fatalf("expected circuit to open after sustained server errors, state %s", cb.State())
	}

	_, err := executor.Get(func() (*http.Response, error) {
		atomic.AddInt32(&attempts, 1)
		return &http.Response{StatusCode: http.StatusOK}, nil
	})
	if !errors.Is(err, fsCircuitbreaker.ErrOpen) {
		t.Fatalf("expected open-circuit fail-fast, got %v", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 4 {
		t.Fatalf("expected open circuit to short-circuit the request, got %d attempts", got)
	}
}

//nolint:bodyclose // test responses have no body
func TestNewHTTPExecutor_RecoversThroughHalfOpen(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "recovering-upstream",
		MinRequests:  2,
		FailureRatio: 1.0,
		Timeout:      25 * time.Millisecond,
		OnStateChange: func(_ string, _, to CircuitBreakerState) {
			transitions = append(transitions, to.String())
		},
	})
	executor := NewHTTPExecutor(HTTPExecutorConfig{
		BaseDelay:      time.Millisecond,
		MaxDelay:       time.Millisecond,
		CircuitBreaker: cb,
		ShouldRetry:    func(_ *http.Response, _ error) bool { return false },
	})

	for i := 0; i < 2; i++ {
		_, _ = executor.Get(func() (*http.Response, error) {
			return nil, errors.New("connection refused")
		})
	}
	if !cb.IsOpen() {
		t.Fatalf("expected circuit to open, state %s", cb.State())
	}

	time.Sleep(50 * time.Millisecond)

	resp, err := executor.Get(func() (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK}, nil
	})
	if err != nil {
		t.Fatalf("expected trial request to pass after delay, got %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cb.State() != StateClosed {
		t.Fatalf("expected circuit to close after successful trial, got %s", cb.State())
	}

	want := []string{"open", "half-open", "closed"}
	if len(transitions) != len(want) {
		t.Fatalf("expected transitions %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("expected transitions %v, got %v", want, transitions)
		}
	}
}

//nolint:bodyclose // test responses have no body
func TestCircuitBreaker_CallRejectsWhenOpen(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "direct",
		MinRequests:  2,
		FailureRatio: 1.0,
		Timeout:      time.Minute,
	})
	if cb.Name() != "direct" {
		t.Fatalf("expected breaker name to round-trip, got %q", cb.Name())
	}

	for i := 0; i < 2; i++ {
		_, _ = cb.Call(func() (*http.Response, error) {
			return nil, errors.New("unreachable host")
		})
	}
	if !cb.IsOpen() {
		t.Fatalf("expected circuit to open, state %s", cb.State())
	}

	var attempts int32
	_, err := cb.Call(func() (*http.Response, error) {
		atomic.AddInt32(&attempts, 1)
		return &http.Response{StatusCode: http.StatusOK}, nil
	})
	if !errors.Is(err, fsCircuitbreaker.ErrOpen) {
		t.Fatalf("expected open-circuit rejection, got %v", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 0 {
		t.Fatalf("expected rejected call to never execute, got %d attempts", got)
	}
}

//nolint:bodyclose // test responses have no body
func TestNewHTTPExecutor_ThrottlesBeyondRateLimit(t *testing.T) {
	executor := NewHTTPExecutor(HTTPExecutorConfig{
		BaseDelay:   time.Millisecond,
		MaxDelay:    time.Millisecond,
		RateLimiter: NewHTTPRateLimiter(RateLimiterConfig{MaxExecutions: 2, Period: time.Hour}),
		ShouldRetry: func(_ *http.Response, _ error) bool { return false },
	})

	var attempts int32
	ok := func() (*http.Response, error) {
		atomic.AddInt32(&attempts, 1)
		return &http.Response{StatusCode: http.StatusOK}, nil
	}

	for i := 0; i < 2; i++ {
		if _, err := executor.Get(ok); err != nil {
			t.Fatalf("expected request %d within budget to pass, got %v", i+1, err)
		}
	}

	_, err := executor.Get(ok)
	if !errors.Is(err, fsRatelimiter.ErrExceeded) {
		t.Fatalf("expected throttled request beyond budget, got %v", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Fatalf("expected throttled request to never execute, got %d attempts", got)
	}
}

//nolint:bodyclose // test responses have no body
func TestNewHTTPExecutor_DoesNotRetryClientErrors(t *testing.T) {
	cfg := DefaultHTTPExecutorConfig()
	cfg.BaseDelay = time.Millisecond
	cfg.MaxDelay = time.Millisecond
	executor := NewHTTPExecutor(cfg)

	var attempts int32
	resp, err := executor.Get(func() (*http.Response, error) {
		atomic.AddInt32(&attempts, 1)
		return &http.Response{StatusCode: http.StatusNotFound}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 passthrough, got %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Fatalf("expected no retries for 404, got %d attempts", got)
	}
}
