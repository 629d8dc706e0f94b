package geocode

import (
	"errors"
	"log"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker rejects lookups
var ErrCircuitOpen = errors.New("geocoding circuit open")

// CircuitBreaker stops calling the geocoding API after repeated failures
type CircuitBreaker struct {
	failureThreshold int
	resetTimeout     time.Duration

	failures            int
	totalRequests       int
	consecutiveFailures int
	isOpen              bool
	lastFailureTime     time.Time

	now   func() time.Time
	mutex sync.Mutex
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		now:              time.Now,
	}
}

// RecordSuccess records a successful request
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.totalRequests++
	cb.consecutiveFailures = 0
}

// RecordFailure records a failed request. Quota and auth errors (429, 403)
// open the breaker at once.
func (cb *CircuitBreaker) RecordFailure(statusCode int) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures++
	cb.consecutiveFailures++
	cb.totalRequests++
	cb.lastFailureTime = cb.now()

	if statusCode == 429 || statusCode == 403 {
		cb.open("geocoding API returned %d", statusCode)
		return
	}
	if cb.consecutiveFailures >= cb.failureThreshold {
		cb.open("%d consecutive failures", cb.consecutiveFailures)
		return
	}

	// Check failure rate after 20 requests
	if cb.totalRequests >= 20 {
		failureRate := float64(cb.failures) / float64(cb.totalRequests)
		if failureRate >= 0.40 {
			cb.open("failure rate %.1f%% (%d/%d)", failureRate*100, cb.failures, cb.totalRequests)
		}
	}
}

func (cb *CircuitBreaker) open(format string, args ...any) {
	if cb.isOpen {
		return
	}
	cb.isOpen = true
	log.Printf("Geocode: circuit breaker open: "+format+", retrying after %v", append(args, cb.resetTimeout)...)
}

// CanProceed checks if requests are allowed
func (cb *CircuitBreaker) CanProceed() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if !cb.isOpen {
		return true
	}

	// Check if reset timeout has passed
	if cb.now().Sub(cb.lastFailureTime) > cb.resetTimeout {
		log.Printf("Geocode: circuit breaker half-open after %v", cb.resetTimeout)
		cb.isOpen = false
		cb.failures = 0
		cb.totalRequests = 0
		cb.consecutiveFailures = 0
		return true
	}

	return false
}

// BreakerStatus is a point-in-time view of the breaker
type BreakerStatus struct {
	Open     bool `json:"open"`
	Failures int  `json:"failures"`
	Total    int  `json:"total"`
}

// Status returns current circuit breaker status
func (cb *CircuitBreaker) Status() BreakerStatus {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return BreakerStatus{Open: cb.isOpen, Failures: cb.failures, Total: cb.totalRequests}
}
