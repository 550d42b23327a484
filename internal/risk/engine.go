package risk

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/climate-alert-service/internal/domain"
	"github.com/couchcryptid/climate-alert-service/internal/observability"
)

// Thresholds for explanation and recommendation generation.
const (
	notableThreshold   = 0.5 // category appears in primary factors
	highSeverityBand   = 0.8 // factor severity flips from moderate to high
	recommendThreshold = 0.7 // category earns action recommendations
)

// Predictor is the learned-model collaborator. Implementations return one
// score per risk category in domain.RiskCategories order, or an error when
// the model is unavailable.
type Predictor interface {
	Predict(ctx context.Context, features []float64) ([]float64, error)
}

// Scorer is one fallback tier of the engine. A tier either produces a full
// category score vector with its confidence, or fails so the next tier runs.
type Scorer interface {
	Method() domain.ScoringMethod
	Score(ctx context.Context, obs domain.Observation) (scores [6]float64, confidence float64, err error)
}

// Engine turns observations into risk assessments through an ordered tier
// chain: learned model, rule-based heuristic, fixed default. The engine is
// side-effect-free and safe for concurrent use.
type Engine struct {
	tiers   []Scorer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewEngine builds the tier chain. predictor may be nil, in which case the
// model tier is omitted and scoring starts at the rule tier.
func NewEngine(predictor Predictor, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	var tiers []Scorer
	if predictor != nil {
		tiers = append(tiers, &modelScorer{predictor: predictor})
	}
	tiers = append(tiers, ruleScorer{}, defaultScorer{})

	return &Engine{
		tiers:   tiers,
		logger:  logger,
		metrics: metrics,
	}
}

// Score produces a RiskAssessment for the observation. Tier failures degrade
// to the next tier and are never surfaced; the final default tier cannot
// fail, so the only error path is a malformed observation.
func (e *Engine) Score(ctx context.Context, obs domain.Observation) (domain.RiskAssessment, error) {
	if obs.Source == "" || obs.Timestamp.IsZero() {
		return domain.RiskAssessment{}, fmt.Errorf("score observation %q: missing source or timestamp", obs.ID)
	}

	for _, tier := range e.tiers {
		scores, confidence, err := tier.Score(ctx, obs)
		if err != nil {
			e.logger.Warn("scoring tier failed, falling back",
				"method", tier.Method(),
				"observation_id", obs.ID,
				"error", err,
			)
			e.metrics.TierFallbacks.WithLabelValues(string(tier.Method())).Inc()
			continue
		}
		e.metrics.ObservationsScored.WithLabelValues(string(tier.Method())).Inc()
		return e.assemble(obs, scores, confidence, tier.Method()), nil
	}

	// Unreachable while the default tier is last in the chain.
	return domain.RiskAssessment{}, fmt.Errorf("score observation %q: all tiers failed", obs.ID)
}

// assemble builds the immutable assessment from a tier's score vector.
func (e *Engine) assemble(obs domain.Observation, scores [6]float64, confidence float64, method domain.ScoringMethod) domain.RiskAssessment {
	a := domain.RiskAssessment{
		ObservationID: obs.ID,
		FloodRisk:     scores[0],
		DroughtRisk:   scores[1],
		StormRisk:     scores[2],
		HeatWaveRisk:  scores[3],
		ColdWaveRisk:  scores[4],
		WildfireRisk:  scores[5],
		Overall:       mean(scores),
		Confidence:    confidence,
		Method:        method,
		ScoredAt:      domain.Now(),
	}
	a.Explanation = explain(a)
	a.Recommendations = recommend(a)
	return a
}

// explain lists every category above the notable threshold with its severity
// band, and grades overall confidence by the peak score.
func explain(a domain.RiskAssessment) domain.Explanation {
	exp := domain.Explanation{ConfidenceLevel: "medium"}
	if a.Peak() > recommendThreshold {
		exp.ConfidenceLevel = "high"
	}

	for _, cat := range domain.RiskCategories {
		score := a.Score(cat)
		if score <= notableThreshold {
			continue
		}
		severity := "moderate"
		if score > highSeverityBand {
			severity = "high"
		}
		exp.PrimaryFactors = append(exp.PrimaryFactors, domain.Factor{
			Category: cat,
			Score:    score,
			Severity: severity,
		})
	}
	return exp
}

func mean(scores [6]float64) float64 {
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
