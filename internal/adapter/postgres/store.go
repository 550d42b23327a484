package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/climate-alert-service/internal/alert"
	"github.com/couchcryptid/climate-alert-service/internal/domain"
)

// Store is the Postgres adapter for alerts, recipients, and scored
// observation history. It implements alert.AlertStore, alert.RecipientStore,
// and pipeline.Loader.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

const alertColumns = `id, title, description, severity, status,
	latitude, longitude, radius_km, location_name,
	risk_type, risk_score, probability,
	start_time, end_time, issued_at, expires_at,
	issuer, contact_info, proof_hash, proof_reference, proof_status`

func (s *Store) CreateAlert(ctx context.Context, a domain.EmergencyAlert) error {
	var proofHash, proofRef, proofStatus *string
	if a.Proof != nil {
		proofHash = &a.Proof.Hash
		proofRef = &a.Proof.Reference
		st := string(a.Proof.Status)
		proofStatus = &st
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO alerts (`+alertColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		a.ID, a.Title, a.Description, string(a.Severity), string(a.Status),
		a.Latitude, a.Longitude, a.RadiusKm, emptyToNull(a.LocationName),
		emptyToNull(a.RiskType), a.RiskScore, a.Probability,
		a.StartTime, a.EndTime, a.IssuedAt, a.ExpiresAt,
		emptyToNull(a.Issuer), emptyToNull(a.ContactInfo), proofHash, proofRef, proofStatus,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (s *Store) GetAlert(ctx context.Context, id string) (domain.EmergencyAlert, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id)
	a, err := scanAlert(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.EmergencyAlert{}, alert.ErrAlertNotFound
	}
	if err != nil {
		return domain.EmergencyAlert{}, fmt.Errorf("select alert: %w", err)
	}
	return a, nil
}

// UpdateAlert applies the non-nil patch fields inside one transaction. The
// current status is read with FOR UPDATE and the transition re-checked
// there, so two concurrent status changes serialize and the loser sees the
// terminal state.
func (s *Store) UpdateAlert(ctx context.Context, id string, patch domain.AlertPatch) (domain.EmergencyAlert, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.EmergencyAlert{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM alerts WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.EmergencyAlert{}, alert.ErrAlertNotFound
	}
	if err != nil {
		return domain.EmergencyAlert{}, fmt.Errorf("lock alert: %w", err)
	}

	if patch.Status != nil && !domain.AlertStatus(status).CanTransition(*patch.Status) {
		return domain.EmergencyAlert{}, fmt.Errorf("%s -> %s: %w", status, *patch.Status, alert.ErrTerminalStatus)
	}

	setClause, args := buildAlertPatch(patch)
	if setClause != "" {
		args = append(args, id)
		_, err = tx.Exec(ctx,
			fmt.Sprintf(`UPDATE alerts SET %s WHERE id = $%d`, setClause, len(args)),
			args...)
		if err != nil {
			return domain.EmergencyAlert{}, fmt.Errorf("update alert: %w", err)
		}
	}

	row := tx.QueryRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id)
	updated, err := scanAlert(row)
	if err != nil {
		return domain.EmergencyAlert{}, fmt.Errorf("reload alert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.EmergencyAlert{}, fmt.Errorf("commit update: %w", err)
	}
	return updated, nil
}

func (s *Store) SetProof(ctx context.Context, id string, proof domain.Proof) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE alerts SET proof_hash = $1, proof_reference = $2, proof_status = $3 WHERE id = $4`,
		proof.Hash, emptyToNull(proof.Reference), string(proof.Status), id)
	if err != nil {
		return fmt.Errorf("set proof: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return alert.ErrAlertNotFound
	}
	return nil
}

func (s *Store) ListRecipients(ctx context.Context) ([]domain.Recipient, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, role, latitude, longitude,
		        COALESCE(notification_radius_km, 0),
		        COALESCE(push_token, ''), COALESCE(email, ''), COALESCE(phone, '')
		 FROM recipients`)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	var result []domain.Recipient
	for rows.Next() {
		var r domain.Recipient
		var role string
		if err := rows.Scan(&r.ID, &role, &r.Latitude, &r.Longitude,
			&r.NotificationRadiusKm, &r.PushToken, &r.Email, &r.Phone); err != nil {
			return nil, err
		}
		r.Role = domain.Role(role)
		result = append(result, r)
	}
	return result, rows.Err()
}

// Load persists one scored observation and its assessment. Both inserts are
// keyed by the deterministic observation ID with ON CONFLICT DO NOTHING, so
// a replayed message is a no-op.
func (s *Store) Load(ctx context.Context, obs domain.Observation, a domain.RiskAssessment) error {
	batch := &pgx.Batch{}
	batch.Queue(
		`INSERT INTO observations (
			id, source, observed_at, latitude, longitude,
			temperature, humidity, pressure, wind_speed, precipitation,
			visibility, cloud_cover, uv_index, pm25, pm10
		)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (id) DO NOTHING`,
		obs.ID, obs.Source, obs.Timestamp, obs.Latitude, obs.Longitude,
		obs.Temperature, obs.Humidity, obs.Pressure, obs.WindSpeed, obs.Precipitation,
		obs.Visibility, obs.CloudCover, obs.UVIndex, obs.PM25, obs.PM10,
	)
	batch.Queue(
		`INSERT INTO assessments (
			observation_id, flood_risk, drought_risk, storm_risk,
			heat_wave_risk, cold_wave_risk, wildfire_risk,
			overall, confidence, method, scored_at
		)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (observation_id) DO NOTHING`,
		a.ObservationID, a.FloodRisk, a.DroughtRisk, a.StormRisk,
		a.HeatWaveRisk, a.ColdWaveRisk, a.WildfireRisk,
		a.Overall, a.Confidence, string(a.Method), a.ScoredAt,
	)
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < 2; i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert scored observation: %w", err)
		}
	}
	return nil
}

// buildAlertPatch renders the non-nil patch fields into a SET clause with
// positional args starting at $1.
func buildAlertPatch(patch domain.AlertPatch) (string, []any) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Severity != nil {
		add("severity", string(*patch.Severity))
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.RadiusKm != nil {
		add("radius_km", *patch.RadiusKm)
	}
	if patch.LocationName != nil {
		add("location_name", *patch.LocationName)
	}
	if patch.EndTime != nil {
		add("end_time", *patch.EndTime)
	}
	if patch.ExpiresAt != nil {
		add("expires_at", *patch.ExpiresAt)
	}
	if patch.ContactInfo != nil {
		add("contact_info", *patch.ContactInfo)
	}
	return strings.Join(sets, ", "), args
}

func scanAlert(row pgx.Row) (domain.EmergencyAlert, error) {
	var a domain.EmergencyAlert
	var severity, status string
	var locationName, riskType, issuer, contactInfo *string
	var proofHash, proofRef, proofStatus *string

	err := row.Scan(
		&a.ID, &a.Title, &a.Description, &severity, &status,
		&a.Latitude, &a.Longitude, &a.RadiusKm, &locationName,
		&riskType, &a.RiskScore, &a.Probability,
		&a.StartTime, &a.EndTime, &a.IssuedAt, &a.ExpiresAt,
		&issuer, &contactInfo, &proofHash, &proofRef, &proofStatus,
	)
	if err != nil {
		return domain.EmergencyAlert{}, err
	}

	a.Severity = domain.Severity(severity)
	a.Status = domain.AlertStatus(status)
	a.LocationName = fromNull(locationName)
	a.RiskType = fromNull(riskType)
	a.Issuer = fromNull(issuer)
	a.ContactInfo = fromNull(contactInfo)
	if proofHash != nil {
		a.Proof = &domain.Proof{
			Hash:      *proofHash,
			Reference: fromNull(proofRef),
			Status:    domain.ProofStatus(fromNull(proofStatus)),
		}
	}
	return a, nil
}

func emptyToNull(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func fromNull(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
