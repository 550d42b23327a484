package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/climate-alert-service/internal/domain"
	"github.com/couchcryptid/climate-alert-service/internal/jobs"
	"github.com/couchcryptid/climate-alert-service/internal/observability"
)

// Sentinel errors for the lifecycle state machine and lookups.
var (
	// ErrAlertNotFound reports an operation addressing an unknown alert ID.
	ErrAlertNotFound = errors.New("alert not found")
	// ErrTerminalStatus reports a status change attempted on a resolved or
	// cancelled alert, which the state machine forbids.
	ErrTerminalStatus = errors.New("alert status is terminal")
)

// AlertStore is the durable record of alerts. Create and Update failures
// are critical-path: they surface to the caller and the operation is not
// considered complete.
type AlertStore interface {
	CreateAlert(ctx context.Context, a domain.EmergencyAlert) error
	GetAlert(ctx context.Context, id string) (domain.EmergencyAlert, error)
	// UpdateAlert applies only the non-nil patch fields under the store's
	// isolation guarantees and returns the updated record. Implementations
	// must re-check the status transition inside the same transaction and
	// return ErrTerminalStatus on a forbidden one, so concurrent updates
	// cannot race an alert out of a terminal state.
	UpdateAlert(ctx context.Context, id string, patch domain.AlertPatch) (domain.EmergencyAlert, error)
	SetProof(ctx context.Context, id string, proof domain.Proof) error
}

// RecipientStore lists the registered notification targets.
type RecipientStore interface {
	ListRecipients(ctx context.Context) ([]domain.Recipient, error)
}

// Anchorer submits an alert to the external tamper-evident ledger. Failures
// are retried out-of-band and never block the alert itself.
type Anchorer interface {
	Submit(ctx context.Context, a domain.EmergencyAlert) (domain.Proof, error)
}

// JobSubmitter schedules background work. Satisfied by *jobs.Runner.
type JobSubmitter interface {
	Submit(ctx context.Context, job jobs.Job)
}

// Service drives emergency alerts through their lifecycle: creation,
// partial updates through the status state machine, and the background
// anchoring and dispatch passes both trigger.
type Service struct {
	alerts     AlertStore
	recipients RecipientStore
	dispatcher *Dispatcher
	anchorer   Anchorer
	runner     JobSubmitter
	logger     *slog.Logger
	metrics    *observability.Metrics

	// bgCtx scopes background jobs to the process, not the request: a
	// creation call returning must not cancel its dispatch pass.
	bgCtx context.Context
}

// NewService wires the lifecycle. anchorer may be nil when no ledger is
// configured; anchoring is then skipped entirely.
func NewService(bgCtx context.Context, alerts AlertStore, recipients RecipientStore, dispatcher *Dispatcher, anchorer Anchorer, runner JobSubmitter, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		alerts:     alerts,
		recipients: recipients,
		dispatcher: dispatcher,
		anchorer:   anchorer,
		runner:     runner,
		logger:     logger,
		metrics:    metrics,
		bgCtx:      bgCtx,
	}
}

// CreateAlert validates the draft, assigns identity, durably records the
// alert as active, and returns it. Proof anchoring and the notification
// dispatch pass run as background jobs; their failures are observed through
// logs and metrics, never through this call.
func (s *Service) CreateAlert(ctx context.Context, draft domain.AlertDraft) (domain.EmergencyAlert, error) {
	if err := validateDraft(draft); err != nil {
		return domain.EmergencyAlert{}, fmt.Errorf("create alert: %w", err)
	}

	now := domain.Now()
	a := domain.EmergencyAlert{
		ID:           NewAlertID(now),
		Title:        draft.Title,
		Description:  draft.Description,
		Severity:     draft.Severity,
		Status:       domain.StatusActive,
		Latitude:     draft.Latitude,
		Longitude:    draft.Longitude,
		RadiusKm:     draft.RadiusKm,
		LocationName: draft.LocationName,
		RiskType:     draft.RiskType,
		RiskScore:    draft.RiskScore,
		Probability:  draft.Probability,
		StartTime:    draft.StartTime,
		EndTime:      draft.EndTime,
		IssuedAt:     now,
		ExpiresAt:    draft.ExpiresAt,
		Issuer:       draft.Issuer,
		ContactInfo:  draft.ContactInfo,
	}

	if err := s.alerts.CreateAlert(ctx, a); err != nil {
		return domain.EmergencyAlert{}, fmt.Errorf("create alert: %w", err)
	}

	s.metrics.AlertsCreated.WithLabelValues(string(a.Severity)).Inc()
	s.logger.Info("alert created", "alert_id", a.ID, "severity", a.Severity)

	s.submitAnchor(a)
	s.submitDispatch(a, kindNew)

	return a, nil
}

// GetAlert returns the alert by ID.
func (s *Service) GetAlert(ctx context.Context, id string) (domain.EmergencyAlert, error) {
	a, err := s.alerts.GetAlert(ctx, id)
	if err != nil {
		return domain.EmergencyAlert{}, fmt.Errorf("get alert %s: %w", id, err)
	}
	return a, nil
}

// UpdateAlert applies the non-nil patch fields. A status change out of a
// terminal state is rejected with ErrTerminalStatus; any other field may
// still be corrected on a terminal alert. A status change triggers an
// update dispatch pass with the status-specific notice and a fresh
// anchoring of the updated record.
func (s *Service) UpdateAlert(ctx context.Context, id string, patch domain.AlertPatch) (domain.EmergencyAlert, error) {
	current, err := s.alerts.GetAlert(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAlertNotFound) {
			s.metrics.AlertUpdates.WithLabelValues("not_found").Inc()
		}
		return domain.EmergencyAlert{}, fmt.Errorf("update alert %s: %w", id, err)
	}

	if patch.Status != nil && !current.Status.CanTransition(*patch.Status) {
		s.metrics.AlertUpdates.WithLabelValues("rejected").Inc()
		return domain.EmergencyAlert{}, fmt.Errorf("update alert %s: %s -> %s: %w",
			id, current.Status, *patch.Status, ErrTerminalStatus)
	}

	updated, err := s.alerts.UpdateAlert(ctx, id, patch)
	if err != nil {
		if errors.Is(err, ErrTerminalStatus) {
			s.metrics.AlertUpdates.WithLabelValues("rejected").Inc()
		}
		return domain.EmergencyAlert{}, fmt.Errorf("update alert %s: %w", id, err)
	}

	s.metrics.AlertUpdates.WithLabelValues("applied").Inc()
	s.logger.Info("alert updated", "alert_id", id, "status", updated.Status)

	if patch.Status != nil && *patch.Status != current.Status {
		s.submitAnchor(updated)
		s.submitDispatch(updated, kindUpdate)
	}

	return updated, nil
}

// submitDispatch schedules one dispatch pass as a background job. The
// recipient list is read inside the job so a retry sees current data.
func (s *Service) submitDispatch(a domain.EmergencyAlert, kind updateKind) {
	s.runner.Submit(s.bgCtx, jobs.Job{
		Name: "dispatch",
		Run: func(ctx context.Context) error {
			candidates, err := s.recipients.ListRecipients(ctx)
			if err != nil {
				return fmt.Errorf("list recipients for %s: %w", a.ID, err)
			}
			// The pass itself never fails; partial failure is data.
			if kind == kindUpdate {
				s.dispatcher.DispatchUpdate(ctx, a, candidates)
			} else {
				s.dispatcher.Dispatch(ctx, a, candidates)
			}
			return nil
		},
	})
}

// submitAnchor schedules best-effort proof anchoring. Until it succeeds the
// proof reference stays pending; exhausted retries leave it that way and
// the alert is unaffected.
func (s *Service) submitAnchor(a domain.EmergencyAlert) {
	if s.anchorer == nil {
		return
	}
	s.runner.Submit(s.bgCtx, jobs.Job{
		Name: "anchor",
		Run: func(ctx context.Context) error {
			proof, err := s.anchorer.Submit(ctx, a)
			if err != nil {
				s.metrics.AnchorRequests.WithLabelValues("error").Inc()
				return fmt.Errorf("anchor alert %s: %w", a.ID, err)
			}
			if err := s.alerts.SetProof(ctx, a.ID, proof); err != nil {
				return fmt.Errorf("record proof for %s: %w", a.ID, err)
			}
			s.metrics.AnchorRequests.WithLabelValues("success").Inc()
			s.logger.Info("alert anchored", "alert_id", a.ID, "reference", proof.Reference)
			return nil
		},
	})
}

// NewAlertID produces a human-diagnosable unique ID: the issue date plus an
// uppercased UUID segment, e.g. ALERT-20260426-9F3A1B2C.
func NewAlertID(now time.Time) string {
	suffix := strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
	return fmt.Sprintf("ALERT-%s-%s", now.UTC().Format("20060102"), suffix)
}

func validateDraft(draft domain.AlertDraft) error {
	if draft.Title == "" {
		return errors.New("title is required")
	}
	if draft.Description == "" {
		return errors.New("description is required")
	}
	if _, err := domain.ParseSeverity(string(draft.Severity)); err != nil {
		return err
	}
	if draft.Latitude < -90 || draft.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", draft.Latitude)
	}
	if draft.Longitude < -180 || draft.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", draft.Longitude)
	}
	if draft.RadiusKm != nil && *draft.RadiusKm < 0 {
		return fmt.Errorf("radius %v must be non-negative", *draft.RadiusKm)
	}
	return nil
}
