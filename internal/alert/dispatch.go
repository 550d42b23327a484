package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/climate-alert-service/internal/domain"
	"github.com/couchcryptid/climate-alert-service/internal/geo"
	"github.com/couchcryptid/climate-alert-service/internal/observability"
)

// Channel delivers one message to one recipient address. Implementations
// are independent, possibly flaky remote providers; a Send error fails only
// that single attempt.
type Channel interface {
	Name() domain.ChannelName
	Send(ctx context.Context, address string, msg Message) error
}

// Dispatcher fans an alert out to every affected recipient across the
// available channels. A dispatch pass never fails: partial and even total
// send failure is reported in the aggregate result, not as an error.
type Dispatcher struct {
	channels       []Channel // tried in priority order per recipient
	webhook        Channel   // nil disables webhook broadcast
	webhookTargets []string
	maxConcurrent  int
	sendTimeout    time.Duration
	logger         *slog.Logger
	metrics        *observability.Metrics
}

// NewDispatcher builds a dispatcher over the given channels. channels are
// attempted in the order given (push before email before SMS); webhook may
// be nil when no broadcast endpoints are configured.
func NewDispatcher(channels []Channel, webhook Channel, webhookTargets []string, maxConcurrent int, sendTimeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Dispatcher {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Dispatcher{
		channels:       channels,
		webhook:        webhook,
		webhookTargets: webhookTargets,
		maxConcurrent:  maxConcurrent,
		sendTimeout:    sendTimeout,
		logger:         logger,
		metrics:        metrics,
	}
}

// Dispatch runs one complete pass for the alert: geospatial matching over
// the candidates, union with the unconditional government/responder set,
// then bounded-concurrency channel attempts per recipient. The result is
// commutative over recipients; ordering between sends is not guaranteed.
func (d *Dispatcher) Dispatch(ctx context.Context, alert domain.EmergencyAlert, candidates []domain.Recipient) domain.DispatchResult {
	return d.run(ctx, alert, candidates, kindNew)
}

// DispatchUpdate runs a pass with the status-specific update message.
func (d *Dispatcher) DispatchUpdate(ctx context.Context, alert domain.EmergencyAlert, candidates []domain.Recipient) domain.DispatchResult {
	return d.run(ctx, alert, candidates, kindUpdate)
}

func (d *Dispatcher) run(ctx context.Context, alert domain.EmergencyAlert, candidates []domain.Recipient, kind updateKind) domain.DispatchResult {
	start := time.Now()
	selected := selectRecipients(alert, candidates)

	agg := &aggregator{result: domain.DispatchResult{AlertID: alert.ID, Recipients: len(selected)}}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.maxConcurrent)

	for _, recipient := range selected {
		msg := messageFor(alert, recipient, kind)
		for _, ch := range d.channels {
			address, ok := eligible(ch.Name(), alert, recipient)
			if !ok {
				continue
			}
			g.Go(func() error {
				d.attempt(gctx, ch, address, msg, recipient.ID, agg)
				return nil
			})
		}
	}

	if d.webhook != nil && kind == kindNew {
		payload := webhookMessage(alert)
		for _, target := range d.webhookTargets {
			g.Go(func() error {
				d.attempt(gctx, d.webhook, target, payload, "webhook", agg)
				return nil
			})
		}
	}

	g.Wait() //nolint:errcheck // attempts never return errors; failures are aggregated

	d.metrics.DispatchPasses.Inc()
	d.metrics.DispatchDuration.Observe(time.Since(start).Seconds())

	result := agg.finalize()
	d.logger.Info("dispatch pass complete",
		"alert_id", alert.ID,
		"recipients", result.Recipients,
		"attempts", result.Attempts,
		"sent", result.NotificationsSent,
		"channels", result.ChannelsUsed,
		"errors", len(result.Errors),
	)
	return result
}

// attempt performs one channel send with its own timeout and records the
// outcome. A failure here never affects other attempts.
func (d *Dispatcher) attempt(ctx context.Context, ch Channel, address string, msg Message, recipientID string, agg *aggregator) {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	err := ch.Send(sendCtx, address, msg)
	if err != nil {
		d.metrics.NotificationsSent.WithLabelValues(string(ch.Name()), "error").Inc()
		agg.recordFailure(ch.Name(), fmt.Sprintf("%s to %s: %v", ch.Name(), recipientID, err))
		return
	}
	d.metrics.NotificationsSent.WithLabelValues(string(ch.Name()), "success").Inc()
	agg.recordSuccess(ch.Name())
}

// selectRecipients unions the geospatially matched set with every
// government and responder recipient, deduplicated by ID. Priority roles
// receive alerts unconditionally, located or not.
func selectRecipients(alert domain.EmergencyAlert, candidates []domain.Recipient) []domain.Recipient {
	matched := geo.Match(alert, candidates)

	seen := make(map[string]bool, len(matched))
	for _, r := range matched {
		seen[r.ID] = true
	}

	selected := matched
	for _, r := range candidates {
		if r.Role.Priority() && !seen[r.ID] {
			seen[r.ID] = true
			selected = append(selected, r)
		}
	}
	return selected
}

// eligible resolves the channel address for a recipient and whether the
// channel applies. SMS escalation is reserved for critical alerts.
func eligible(ch domain.ChannelName, alert domain.EmergencyAlert, r domain.Recipient) (string, bool) {
	switch ch {
	case domain.ChannelPush:
		return r.PushToken, r.PushToken != ""
	case domain.ChannelEmail:
		return r.Email, r.Email != ""
	case domain.ChannelSMS:
		if !alert.Severity.AtLeast(domain.SeverityCritical) {
			return "", false
		}
		return r.Phone, r.Phone != ""
	default:
		return "", false
	}
}

// webhookMessage serializes the full alert for external endpoint broadcast.
func webhookMessage(a domain.EmergencyAlert) Message {
	payload, err := json.Marshal(a)
	if err != nil {
		// EmergencyAlert contains only marshalable fields.
		payload = []byte(fmt.Sprintf(`{"id":%q}`, a.ID))
	}
	return Message{
		Title: a.ID,
		Body:  string(payload),
	}
}

// aggregator collects attempt outcomes from concurrent sends.
type aggregator struct {
	mu     sync.Mutex
	result domain.DispatchResult
	used   map[domain.ChannelName]bool
}

func (a *aggregator) recordSuccess(ch domain.ChannelName) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result.Attempts++
	a.result.NotificationsSent++
	if a.used == nil {
		a.used = make(map[domain.ChannelName]bool)
	}
	a.used[ch] = true
}

func (a *aggregator) recordFailure(ch domain.ChannelName, desc string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result.Attempts++
	a.result.Errors = append(a.result.Errors, desc)
}

// finalize sorts the distinct channel and error lists so the aggregate is
// deterministic regardless of send interleaving.
func (a *aggregator) finalize() domain.DispatchResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	for ch := range a.used {
		a.result.ChannelsUsed = append(a.result.ChannelsUsed, ch)
	}
	sort.Slice(a.result.ChannelsUsed, func(i, j int) bool {
		return a.result.ChannelsUsed[i] < a.result.ChannelsUsed[j]
	})
	sort.Strings(a.result.Errors)
	return a.result
}
