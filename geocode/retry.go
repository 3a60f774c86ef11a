// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"errors"
	"strings"
	"time"
)

// RetryPolicy bounds how transient failures are retried.
type RetryPolicy struct {
	// MaxAttempts is the number of calls made for one query, first included
	MaxAttempts int

	// BaseDelay is the wait before the second call, doubled afterwards
	BaseDelay time.Duration

	// MaxDelay caps the wait, including provider requested ones
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns 3 attempts with 1s, 2s backoff capped at 8s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    8 * time.Second,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}

	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}

	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}

	return p
}

// backoff returns the wait after the n-th failed call (n >= 1). A larger
// Retry-After is honoured while it stays within MaxDelay.
func (p RetryPolicy) backoff(n int, err error) time.Duration {
	d := p.BaseDelay
	for i := 1; i < n && d < p.MaxDelay; i++ {
		d *= 2
	}

	d = min(d, p.MaxDelay)

	var geoErr *GeocodingError
	if errors.As(err, &geoErr) && geoErr.RetryAfter > d && geoErr.RetryAfter <= p.MaxDelay {
		d = geoErr.RetryAfter
	}

	return d
}

type retryState int

const (
	stateAttempting retryState = iota
	stateSimplified
	stateResolved
	stateFailed
)

func (s retryState) String() string {
	switch s {
	case stateAttempting:
		return "attempting"
	case stateSimplified:
		return "simplified"
	case stateResolved:
		return "resolved"
	default:
		return "failed"
	}
}

// retryMachine decides, after every call, whether to retry, simplify the
// query or stop. It knows nothing about providers or time.
type retryMachine struct {
	policy   RetryPolicy
	state    retryState
	query    string
	attempts int // calls for the current query
	lastErr  error
}

func newRetryMachine(policy RetryPolicy, query string) *retryMachine {
	return &retryMachine{policy: policy.withDefaults(), query: query}
}

func (m *retryMachine) done() bool {
	return m.state == stateResolved || m.state == stateFailed
}

// observe records the result of a call on the current query and returns the
// wait before the next one.
func (m *retryMachine) observe(err error) time.Duration {
	m.attempts++

	if err == nil {
		m.state = stateResolved
		m.lastErr = nil

		return 0
	}

	m.lastErr = err

	switch {
	case IsNotFoundError(err):
		if m.state == stateAttempting {
			if simpler, ok := simplify(m.query); ok {
				m.query = simpler
				m.state = stateSimplified
				m.attempts = 0

				return 0
			}
		}

		m.state = stateFailed
	case IsTransient(err) && m.attempts < m.policy.MaxAttempts:
		return m.policy.backoff(m.attempts, err)
	default:
		m.state = stateFailed
	}

	return 0
}

// abort stops the machine, for instance when the wait is interrupted.
func (m *retryMachine) abort(err error) {
	m.state = stateFailed
	if err != nil {
		m.lastErr = err
	}
}

// simplify keeps the tail of a long query, where the city and postal code
// usually are: the last 4 tokens, or the last 3 of a 4 token query.
func simplify(query string) (string, bool) {
	tokens := strings.Fields(query)

	switch {
	case len(tokens) <= 3:
		return "", false
	case len(tokens) == 4:
		return strings.Join(tokens[1:], " "), true
	default:
		return strings.Join(tokens[len(tokens)-4:], " "), true
	}
}
