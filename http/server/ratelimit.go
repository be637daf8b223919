package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/gclaussn/go-planning/http/common"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"
)

// maxLimiters bounds the number of tracked remote addresses. When exceeded, all limiters are reset.
const maxLimiters = 10000

func newRateLimiter(r rate.Limit, burst int, logger hclog.Logger) *rateLimiter {
	return &rateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
		logger:   logger,
	}
}

// rateLimiter limits requests per remote address.
type rateLimiter struct {
	mutex    sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	logger   hclog.Logger
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= maxLimiters {
			l.limiters = make(map[string]*rate.Limiter)
		}

		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[key] = limiter
	}

	return limiter
}

func (l *rateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			key = r.RemoteAddr
		}

		if !l.getLimiter(key).Allow() {
			l.logger.Warn("rate limit exceeded", "remoteAddr", key, "method", r.Method, "uri", r.RequestURI)

			retryAfter := 1
			if l.rate > 0 {
				retryAfter = int(math.Ceil(1 / float64(l.rate)))
			}

			w.Header().Set(common.HeaderRetryAfter, strconv.Itoa(retryAfter))
			encodeJSONProblemResponseBody(w, r, l.logger, common.Problem{
				Status: http.StatusTooManyRequests,
				Type:   common.ProblemTooManyRequests,
				Title:  "too many requests",
				Detail: "rate limit exceeded, try again later",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
