package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/climate-alert-service/internal/domain"
	"github.com/couchcryptid/climate-alert-service/internal/observability"
)

// Extractor reads the next raw message from the source topic.
type Extractor interface {
	Extract(ctx context.Context) (domain.RawEvent, error)
}

// Scorer produces a risk assessment for one observation.
type Scorer interface {
	Score(ctx context.Context, obs domain.Observation) (domain.RiskAssessment, error)
}

// Loader records a scored observation: persistence, sink topic, or both.
type Loader interface {
	Load(ctx context.Context, obs domain.Observation, a domain.RiskAssessment) error
}

// AlertTrigger inspects each scored observation and may create an alert.
// Trigger failures are logged but never stall the pipeline.
type AlertTrigger interface {
	Consider(ctx context.Context, obs domain.Observation, a domain.RiskAssessment) error
}

// Pipeline orchestrates the extract-score-load loop.
type Pipeline struct {
	extractor Extractor
	scorer    Scorer
	loader    Loader
	trigger   AlertTrigger // nil disables auto-alerts
	seen      *seenSet
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline with the given stages and observability. Pass a
// nil trigger when auto-alerts are disabled.
func New(e Extractor, s Scorer, l Loader, trigger AlertTrigger, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor: e,
		scorer:    s,
		loader:    l,
		trigger:   trigger,
		seen:      newSeenSet(seenCapacity),
		logger:    logger,
		metrics:   metrics,
	}
}

// Ready reports whether the pipeline has processed at least one message.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// CheckReadiness returns nil if the pipeline has processed at least one message,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any messages yet")
	}
	return nil
}

// Run executes the scoring loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started")
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processOne(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processOne runs one extract-score-load cycle. Returns false if the
// pipeline should stop.
func (p *Pipeline) processOne(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	raw, err := p.extractor.Extract(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}
	p.metrics.ObservationsConsumed.Inc()

	obs, err := domain.ParseObservation(raw)
	if err != nil {
		// Malformed messages are committed so they are not redelivered.
		p.logger.Warn("skipping unparseable message",
			"error", err,
			"topic", raw.Topic,
			"partition", raw.Partition,
			"offset", raw.Offset,
		)
		p.metrics.ParseErrors.Inc()
		p.commitOffset(ctx, raw)
		return true
	}

	if p.seen.contains(obs.ID) {
		p.metrics.DuplicatesSkipped.Inc()
		p.commitOffset(ctx, raw)
		return true
	}

	start := time.Now()
	assessment, err := p.scorer.Score(ctx, obs)
	if err != nil {
		// The scorer rejects only malformed observations; treat like a
		// parse failure rather than retrying forever.
		p.logger.Warn("skipping unscorable observation", "error", err, "observation_id", obs.ID)
		p.metrics.ParseErrors.Inc()
		p.commitOffset(ctx, raw)
		return true
	}
	p.metrics.ScoreDuration.Observe(time.Since(start).Seconds())

	if err := p.loader.Load(ctx, obs, assessment); err != nil {
		// No commit and no seen entry: the message is redelivered and the
		// deterministic observation ID keeps the retry idempotent.
		p.logger.Error("load failed", "error", err, "observation_id", obs.ID)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}
	p.metrics.AssessmentsPublished.Inc()
	p.seen.add(obs.ID)
	*backoff = 200 * time.Millisecond

	if p.trigger != nil {
		if err := p.trigger.Consider(ctx, obs, assessment); err != nil {
			p.logger.Error("auto-alert trigger failed", "error", err, "observation_id", obs.ID)
		}
	}

	p.commitOffset(ctx, raw)
	p.ready.Store(true)
	return true
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
