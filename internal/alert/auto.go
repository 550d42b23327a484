package alert

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/climate-alert-service/internal/domain"
)

// autoCooldown suppresses repeated auto-alerts for the same source and risk
// category. Stations report every few minutes; without the cooldown a
// sustained heat wave would create an alert per reading.
const autoCooldown = 30 * time.Minute

var categoryLabels = map[domain.RiskCategory]string{
	domain.RiskFlood:    "Flood",
	domain.RiskDrought:  "Drought",
	domain.RiskStorm:    "Storm",
	domain.RiskHeatWave: "Heat Wave",
	domain.RiskColdWave: "Cold Wave",
	domain.RiskWildfire: "Wildfire",
}

// AutoTrigger creates emergency alerts from scored observations whose
// overall risk crosses the configured threshold. A zero threshold disables
// it entirely.
type AutoTrigger struct {
	service   *Service
	threshold float64
	logger    *slog.Logger

	mu       sync.Mutex
	lastSeen map[string]time.Time // source|category -> last alert time
}

// NewAutoTrigger wires automatic alert creation to the lifecycle.
func NewAutoTrigger(service *Service, threshold float64, logger *slog.Logger) *AutoTrigger {
	return &AutoTrigger{
		service:   service,
		threshold: threshold,
		logger:    logger,
		lastSeen:  map[string]time.Time{},
	}
}

// Consider creates an alert for the assessment's peak risk category when the
// overall risk reaches the threshold. Observations without station
// coordinates are skipped: an alert that cannot be geospatially matched to
// recipients is noise.
func (t *AutoTrigger) Consider(ctx context.Context, obs domain.Observation, a domain.RiskAssessment) error {
	if t.threshold <= 0 || a.Overall < t.threshold {
		return nil
	}
	if obs.Latitude == nil || obs.Longitude == nil {
		t.logger.Warn("auto-alert skipped, observation has no coordinates",
			"observation_id", obs.ID, "source", obs.Source, "overall", a.Overall)
		return nil
	}

	category, peak := a.PeakCategory()
	if !t.claim(obs.Source, category) {
		return nil
	}

	severity := severityForScore(peak)
	expires := domain.Now().Add(6 * time.Hour)
	draft := domain.AlertDraft{
		Title: fmt.Sprintf("%s Risk Alert", categoryLabels[category]),
		Description: fmt.Sprintf(
			"Automated alert: elevated %s risk detected near station %s (overall risk %.2f).",
			categoryLabels[category], obs.Source, a.Overall),
		Severity:    severity,
		Latitude:    *obs.Latitude,
		Longitude:   *obs.Longitude,
		RiskType:    string(category),
		RiskScore:   domain.Float(peak),
		Probability: domain.Float(a.Confidence),
		ExpiresAt:   &expires,
		Issuer:      "Automated Risk Monitor",
	}

	created, err := t.service.CreateAlert(ctx, draft)
	if err != nil {
		t.release(obs.Source, category)
		return fmt.Errorf("auto-alert for %s: %w", obs.ID, err)
	}
	t.logger.Info("auto-alert created",
		"alert_id", created.ID, "source", obs.Source,
		"category", category, "overall", a.Overall)
	return nil
}

// claim reserves the cooldown slot for one source and category.
func (t *AutoTrigger) claim(source string, category domain.RiskCategory) bool {
	key := source + "|" + string(category)
	now := domain.Now()

	t.mu.Lock()
	defer t.mu.Unlock()
	if last, ok := t.lastSeen[key]; ok && now.Sub(last) < autoCooldown {
		return false
	}
	t.lastSeen[key] = now
	return true
}

func (t *AutoTrigger) release(source string, category domain.RiskCategory) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.lastSeen, source+"|"+string(category))
}

func severityForScore(score float64) domain.Severity {
	switch {
	case score >= 0.9:
		return domain.SeverityCritical
	case score >= 0.7:
		return domain.SeverityHigh
	case score >= 0.5:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}
