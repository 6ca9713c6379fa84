package logger

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultThrottleInterval = 5 * time.Minute

// LogThrottler demotes repeated warnings to debug. Each key gets one WARN per
// interval; instances do not share state.
type LogThrottler struct {
	log      *zap.Logger
	limiters sync.Map // string -> *rate.Limiter
	interval time.Duration
}

// NewLogThrottler creates a throttler. A zero interval means five minutes.
func NewLogThrottler(log *zap.Logger, interval time.Duration) *LogThrottler {
	if interval <= 0 {
		interval = defaultThrottleInterval
	}
	return &LogThrottler{log: log, interval: interval}
}

// Warn logs at WARN if key has not warned within the interval, DEBUG otherwise.
func (t *LogThrottler) Warn(key string, msg string, fields ...zap.Field) {
	if t.limiter(key).Allow() {
		t.log.Warn(msg, fields...)
		return
	}
	t.log.Debug(msg, fields...)
}

func (t *LogThrottler) limiter(key string) *rate.Limiter {
	if l, ok := t.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}
	l, _ := t.limiters.LoadOrStore(key, rate.NewLimiter(rate.Every(t.interval), 1))
	return l.(*rate.Limiter)
}
