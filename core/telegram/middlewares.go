package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/m3rciful/promobot/core/config"
	"github.com/m3rciful/promobot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares builds the shared middleware chain for bots: recover
// first, then the optional rate limiter, then request logging and the
// outgoing-message counters.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited func(tele.Context) error) []Middleware {
	mws := []Middleware{{Name: "recover", Use: middleware.RecoverMiddleware}}

	if opts, ok := rateLimitOptions(cfg, onLimited); ok {
		mws = append(mws, Middleware{Name: "rate_limit", Use: middleware.RateLimitMiddleware(opts)})
	}

	return append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
}

// rateLimitOptions maps the rate_limit config section to middleware options.
// A zero or missing interval disables the limiter.
func rateLimitOptions(cfg *coreconfig.Config, onLimited func(tele.Context) error) (middleware.RateLimitOptions, bool) {
	if cfg == nil {
		return middleware.RateLimitOptions{}, false
	}
	interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond
	if interval <= 0 {
		return middleware.RateLimitOptions{}, false
	}
	return middleware.RateLimitOptions{
		Interval:        interval,
		Exclude:         stringSet(cfg.RateLimit.ExcludeUpdates, strings.ToLower),
		ExcludeCommands: stringSet(cfg.RateLimit.ExcludeCommands, nil),
		OnLimited:       onLimited,
	}, true
}

func stringSet(values []string, norm func(string) string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if norm != nil {
			v = norm(v)
		}
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}
