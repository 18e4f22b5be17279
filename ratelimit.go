// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package direct

import (
	"errors"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a remote host exceeds its call rate.
var ErrRateLimited = errors.New("direct: rate limit exceeded")

const limiterIdleTTL = 10 * time.Minute

// hostLimiter applies a token bucket per remote host and evicts idle
// buckets. A nil *hostLimiter allows everything.
type hostLimiter struct {
	limit rate.Limit
	burst int

	mu     sync.Mutex
	byHost map[string]*bucket
	hits   uint64
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newHostLimiter returns nil unless rps and burst are both positive.
func newHostLimiter(rps float64, burst int) *hostLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	return &hostLimiter{
		limit:  rate.Limit(rps),
		burst:  burst,
		byHost: make(map[string]*bucket),
	}
}

// allow reports whether remoteAddr may make one more call at now.
func (l *hostLimiter) allow(remoteAddr string, now time.Time) bool {
	if l == nil {
		return true
	}
	host := remoteHost(remoteAddr)

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.byHost[host]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byHost[host] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-limiterIdleTTL)
		for h, v := range l.byHost {
			if v.lastSeen.Before(cutoff) {
				delete(l.byHost, h)
			}
		}
	}
	return allowed
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
