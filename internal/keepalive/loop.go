package keepalive

import (
	"context"
	"time"

	"github.com/psantana5/gpu-keepalive/internal/observe"
	"github.com/psantana5/gpu-keepalive/pkg/logging"
)

// DefaultInterval is the wait between the end of one query and the start of the next
const DefaultInterval = 60 * time.Second

// Config configures the keepalive loop
type Config struct {
	// Interval is the sleep after every query
	Interval time.Duration

	// QueryTimeout bounds each query. Zero means no timeout: a wedged
	// query stalls the loop until it returns.
	QueryTimeout time.Duration

	Querier Querier
	Metrics *Metrics
	Logger  *logging.Logger

	// OnQuery is called after every query with its timing (optional)
	OnQuery func(t *observe.Timing, err error)
}

// Loop keeps a GPU awake by querying it forever
type Loop struct {
	config Config
	logger *logging.Logger
	now    func() time.Time
	after  func(time.Duration) <-chan time.Time
}

// NewLoop creates a keepalive loop, filling in defaults
func NewLoop(config Config) *Loop {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.Querier == nil {
		config.Querier = NewExecQuery(DefaultCommand, nil)
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.NewLogger(logging.INFO, false)
	}

	return &Loop{
		config: config,
		logger: logger,
		now:    time.Now,
		after:  time.After,
	}
}

// Run queries, sleeps Interval, and repeats. It returns only when ctx is
// cancelled; query failures never stop it.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("Keepalive loop started", map[string]interface{}{
		"interval":      l.config.Interval.String(),
		"query_timeout": l.config.QueryTimeout.String(),
	})

	var iteration int64
	for {
		iteration++
		l.runOnce(ctx, iteration)

		select {
		case <-ctx.Done():
			l.logger.Info("Keepalive loop stopped", map[string]interface{}{"iterations": iteration})
			return ctx.Err()
		case <-l.after(l.config.Interval):
		}
	}
}

func (l *Loop) runOnce(ctx context.Context, iteration int64) {
	queryCtx := ctx
	if l.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, l.config.QueryTimeout)
		defer cancel()
	}

	timing := observe.NewTiming(l.now())
	err := l.config.Querier.Query(queryCtx)
	timing.Complete(l.now())

	l.config.Metrics.observe(err, timing.Duration(), timing.CompletedAt)

	fields := map[string]interface{}{
		"iteration": iteration,
		"took":      timing.Duration().String(),
	}
	if err != nil {
		fields["error"] = err.Error()
		l.logger.Debug("GPU query failed", fields)
	} else {
		l.logger.Debug("GPU query ok", fields)
	}

	if l.config.OnQuery != nil {
		l.config.OnQuery(timing, err)
	}
}
