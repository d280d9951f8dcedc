package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/buildpeek/buildpeek/internal/config"
	"github.com/buildpeek/buildpeek/internal/domain"
	"github.com/buildpeek/buildpeek/internal/domain/event"
	"github.com/buildpeek/buildpeek/internal/domain/vo"
	"github.com/buildpeek/buildpeek/internal/fetcher"
	"github.com/buildpeek/buildpeek/internal/port"
	"github.com/buildpeek/buildpeek/internal/util/ratelimiter"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config contains controller configuration
type Config struct {
	// Limits returns the fetch ceilings to capture at the start of each
	// attempt. Live config reloads only affect later attempts.
	Limits func() config.Limits

	// ProgressLogInterval throttles progress log lines
	ProgressLogInterval time.Duration
}

// State is a snapshot of the controller exposed to its caller
type State struct {
	Loading         bool
	Lines           []string
	Err             error
	BytesDownloaded int64
}

// attempt is the bookkeeping for one in-flight fetch. Its byte counter is
// owned by the attempt's goroutine; the controller state carries a copy
// updated under the controller mutex.
type attempt struct {
	id     string
	url    string
	ctx    context.Context
	cancel context.CancelFunc
	bytes  int64
	once   sync.Once
}

// Controller owns one fetch attempt per distinct URL. Setting a new URL
// cancels and discards any in-flight attempt for the previous URL before
// starting the next; no two attempts ever share accumulation state. It maps
// fetch outcomes to warnings and telemetry and guarantees the loading flag
// drops exactly once per attempt, including cancellation and teardown.
type Controller struct {
	cfg      *Config
	fetcher  *fetcher.Fetcher
	attempts port.AttemptRepository
	events   port.EventSink
	notifier port.Notifier
	logger   *zap.Logger
	throttle *ratelimiter.Limiter

	mu      sync.Mutex
	current *attempt
	state   State
	closed  bool
	wg      sync.WaitGroup
}

// New creates a new Controller
func New(
	cfg *Config,
	f *fetcher.Fetcher,
	attempts port.AttemptRepository,
	events port.EventSink,
	notifier port.Notifier,
	logger *zap.Logger,
) *Controller {
	interval := cfg.ProgressLogInterval
	if interval == 0 {
		interval = 2 * time.Second
	}
	return &Controller{
		cfg:      cfg,
		fetcher:  f,
		attempts: attempts,
		events:   events,
		notifier: notifier,
		logger:   logger,
		throttle: ratelimiter.New(interval),
	}
}

// SetURL starts an attempt for the given URL in the background. A repeated
// URL is a no-op; a changed URL cancels the in-flight attempt first.
func (c *Controller) SetURL(url string) {
	c.mu.Lock()
	if c.closed || (c.current != nil && c.current.url == url) {
		c.mu.Unlock()
		return
	}
	a := c.begin(url, context.Background())
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.run(a)
	}()
}

// Download runs one attempt to completion and returns its result. It obeys
// the same supersede rule as SetURL: any in-flight attempt is canceled
// before this one begins.
func (c *Controller) Download(ctx context.Context, url string) (*domain.FetchResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, domain.NewCanceledError(context.Canceled)
	}
	a := c.begin(url, ctx)
	c.wg.Add(1)
	c.mu.Unlock()

	defer c.wg.Done()
	return c.run(a)
}

// begin cancels the current attempt and installs a fresh one. Caller holds
// the mutex.
func (c *Controller) begin(url string, parent context.Context) *attempt {
	if c.current != nil && c.current.cancel != nil {
		c.current.cancel()
	}

	ctx, cancel := context.WithCancel(parent)
	a := &attempt{
		id:     uuid.NewString(),
		url:    url,
		ctx:    ctx,
		cancel: cancel,
	}
	c.current = a
	c.state = State{Loading: true}
	c.throttle.Reset()
	return a
}

// State returns a snapshot of the controller state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close cancels any in-flight attempt and waits for it to finish
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.current != nil && c.current.cancel != nil {
		c.current.cancel()
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// run executes one attempt end to end
func (c *Controller) run(a *attempt) (*domain.FetchResult, error) {
	start := time.Now()
	record := &domain.Attempt{
		ID:        a.id,
		URL:       a.url,
		StartedAt: start,
	}
	if err := c.attempts.CreateAttempt(record); err != nil {
		c.logger.Warn("failed to record attempt", zap.String("url", a.url), zap.Error(err))
	}
	c.events.Report(event.NewFetchStarted(a.id, a.url))

	limits := c.cfg.Limits()
	res, err := c.fetcher.Fetch(a.ctx, fetcher.Request{
		URL:             a.url,
		ByteLimit:       limits.ByteLimit,
		LineLengthLimit: limits.LineLengthLimit,
		OnProgress: func(n int) {
			c.onProgress(a, n)
		},
	})
	elapsed := time.Since(start)

	switch {
	case err != nil && domain.IsCanceled(err):
		record.BytesDownloaded = a.bytes
		record.MarkCanceled()
		c.logger.Debug("fetch attempt canceled",
			zap.String("attempt_id", a.id), zap.String("url", a.url))
		// Abandonment is not surfaced as a user-facing error.
		c.finish(a, State{Loading: false, BytesDownloaded: a.bytes})

	case err != nil:
		record.BytesDownloaded = a.bytes
		record.MarkFailed(err.Error())
		c.events.Report(event.NewFetchFailed(a.id, a.url, err.Error()))
		c.logger.Error("fetch attempt failed",
			zap.String("attempt_id", a.id), zap.String("url", a.url), zap.Error(err))
		c.finish(a, State{Loading: false, Err: err, BytesDownloaded: a.bytes})

	default:
		record.MarkSucceeded(res)
		c.reportTruncation(a, res, elapsed, limits.LineLengthLimit)
		c.logger.Info("fetch attempt completed",
			zap.String("attempt_id", a.id),
			zap.String("url", a.url),
			zap.Int("lines", len(res.Lines)),
			zap.String("bytes", vo.MustByteSize(res.BytesRead).String()),
			zap.Bool("truncated", res.Truncated),
			zap.Duration("elapsed", elapsed))
		c.finish(a, State{Loading: false, Lines: res.Lines, BytesDownloaded: res.BytesRead})
	}

	// Cleanup phase: the finished event fires for every attempt, whatever
	// the outcome.
	c.events.Report(event.NewFetchFinished(a.id, a.url, record.Status, record.BytesDownloaded, record.Duration()))
	if ferr := c.attempts.FinishAttempt(record); ferr != nil {
		c.logger.Warn("failed to finalize attempt record",
			zap.String("attempt_id", a.id), zap.Error(ferr))
	}

	return res, err
}

// onProgress accumulates chunk deltas into the attempt's byte counter and
// mirrors the total into the exposed state.
func (c *Controller) onProgress(a *attempt, n int) {
	a.bytes += int64(n)

	c.mu.Lock()
	if c.current == a {
		c.state.BytesDownloaded = a.bytes
	}
	c.mu.Unlock()

	if c.throttle.Allow() {
		c.logger.Debug("download progress",
			zap.String("attempt_id", a.id),
			zap.String("bytes", vo.MustByteSize(a.bytes).String()))
		if err := c.attempts.UpdateAttemptProgress(a.id, a.bytes); err != nil {
			c.logger.Warn("failed to update attempt progress",
				zap.String("attempt_id", a.id), zap.Error(err))
		}
	}
}

// reportTruncation surfaces per-reason warnings and telemetry for a partial
// result. The two kinds are independent: a byte-limited run with trimmed
// lines fires both.
func (c *Controller) reportTruncation(a *attempt, res *domain.FetchResult, elapsed time.Duration, lineLimit int) {
	if res.TruncationReason == domain.TruncationByteLimit {
		detail := fmt.Sprintf("download stopped after %s; showing the partial log", vo.MustByteSize(res.BytesRead))
		c.notify(domain.TruncationByteLimit, detail)
		c.events.Report(event.NewFetchIncomplete(
			a.id, a.url, domain.TruncationByteLimit, res.BytesRead, res.TrimmedLineCount, elapsed))
	}
	if res.TrimmedLineCount > 0 {
		detail := fmt.Sprintf("%d line(s) longer than %d characters were shortened", res.TrimmedLineCount, lineLimit)
		c.notify(domain.TruncationLineLength, detail)
		c.events.Report(event.NewFetchIncomplete(
			a.id, a.url, domain.TruncationLineLength, res.BytesRead, res.TrimmedLineCount, elapsed))
	}
}

// notify forwards a warning to the notifier, shielding the attempt from
// notifier panics.
func (c *Controller) notify(reason domain.TruncationReason, detail string) {
	if c.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("notifier panicked", zap.Any("panic", r))
		}
	}()
	c.notifier.NotifyIncomplete(reason, detail)
}

// finish applies the attempt's terminal state if it is still the active
// attempt. The loading flag drops exactly once per attempt.
func (c *Controller) finish(a *attempt, s State) {
	a.once.Do(func() {
		c.mu.Lock()
		if c.current == a {
			c.state = s
		}
		c.mu.Unlock()
	})
}
