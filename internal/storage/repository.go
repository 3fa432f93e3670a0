package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository struct {
	Store *Store
}

func NewRepository(store *Store) *Repository {
	return &Repository{Store: store}
}

// GetCooldown returns the last dispatch time for the composite key.
// A nil source is its own stable key, distinct from every named source.
func (r *Repository) GetCooldown(ctx context.Context, tenantID, alertType string, source *string) (time.Time, error) {
	row := r.Store.Pool.QueryRow(ctx, `
		SELECT last_sent_at FROM alert_cooldowns
		WHERE tenant_id=$1 AND alert_type=$2 AND source IS NOT DISTINCT FROM $3`,
		tenantID, alertType, source)
	var ts time.Time
	if err := row.Scan(&ts); err != nil {
		return time.Time{}, ErrNotFound
	}
	return ts, nil
}

func (r *Repository) UpsertCooldown(ctx context.Context, tenantID, alertType string, source *string, sentAt time.Time) error {
	_, err := r.Store.Pool.Exec(ctx, `
		INSERT INTO alert_cooldowns (tenant_id, alert_type, source, last_sent_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (tenant_id, alert_type, source)
		DO UPDATE SET last_sent_at=EXCLUDED.last_sent_at`,
		tenantID, alertType, source, sentAt)
	return err
}

func (r *Repository) InsertAlertEvent(ctx context.Context, rec AlertEventRecord) (string, error) {
	id := uuid.NewString()
	_, err := r.Store.Pool.Exec(ctx, `
		INSERT INTO alert_events (id, tenant_id, alert_type, severity, source, event_id, payload, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		id, rec.TenantID, rec.AlertType, rec.Severity, rec.Source, rec.EventID, rec.Payload, rec.CreatedAt)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) UpdateAlertEventPayload(ctx context.Context, id string, payload []byte) error {
	_, err := r.Store.Pool.Exec(ctx, `UPDATE alert_events SET payload=$1 WHERE id=$2`, payload, id)
	return err
}

// TenantThreshold returns the tenant's configured anomaly threshold.
// ErrNotFound means the tenant has no override and the default applies.
func (r *Repository) TenantThreshold(ctx context.Context, tenantID string) (float64, error) {
	row := r.Store.Pool.QueryRow(ctx, `SELECT anomaly_threshold FROM tenant_settings WHERE tenant_id=$1`, tenantID)
	var threshold float64
	if err := row.Scan(&threshold); err != nil {
		return 0, ErrNotFound
	}
	return threshold, nil
}
