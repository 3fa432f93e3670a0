package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"loglens-backend/internal/jobqueue"
	"loglens-backend/internal/model"
	"loglens-backend/internal/notify"
	"loglens-backend/internal/resilience"
	"loglens-backend/internal/storage"
)

// The email channel is primary: its failure fails the whole delivery
// job and triggers a job-level retry, while other channels are
// best-effort per send.
const primaryClass = "smtp"

// Store is the persistence collaborator for cooldown state and the
// alert-event audit trail.
type Store interface {
	GetCooldown(ctx context.Context, tenantID, alertType string, source *string) (time.Time, error)
	UpsertCooldown(ctx context.Context, tenantID, alertType string, source *string, sentAt time.Time) error
	InsertAlertEvent(ctx context.Context, rec storage.AlertEventRecord) (string, error)
	UpdateAlertEventPayload(ctx context.Context, id string, payload []byte) error
	TenantThreshold(ctx context.Context, tenantID string) (float64, error)
}

// AssistClient fetches AI remediation guidance.
type AssistClient interface {
	Playbook(ctx context.Context, ev model.Event) (model.Proposal, error)
}

type Config struct {
	CooldownWindow   time.Duration
	DefaultThreshold float64
	SendAttempts     int
	SendInitialDelay time.Duration
	SendTimeout      time.Duration
	AssistTimeout    time.Duration
	JobMaxAttempts   int
	JobInitialDelay  time.Duration
	JobBackoffFactor float64
}

func (c Config) withDefaults() Config {
	if c.CooldownWindow <= 0 {
		c.CooldownWindow = 5 * time.Minute
	}
	if c.DefaultThreshold <= 0 {
		c.DefaultThreshold = 0.7
	}
	if c.SendAttempts < 1 {
		c.SendAttempts = 2
	}
	if c.SendInitialDelay <= 0 {
		c.SendInitialDelay = 200 * time.Millisecond
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 10 * time.Second
	}
	if c.AssistTimeout <= 0 {
		c.AssistTimeout = 15 * time.Second
	}
	if c.JobMaxAttempts < 1 {
		c.JobMaxAttempts = 3
	}
	if c.JobInitialDelay <= 0 {
		c.JobInitialDelay = 250 * time.Millisecond
	}
	if c.JobBackoffFactor <= 0 {
		c.JobBackoffFactor = 2
	}
	return c
}

// Engine decides alert-worthiness for incoming events, suppresses
// duplicates within the cooldown window, records the audit trail and
// hands delivery work to the job queue.
type Engine struct {
	store    Store
	queue    *jobqueue.Queue
	targets  []notify.Target
	assist   AssistClient
	breakers *resilience.Breakers
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

func New(store Store, queue *jobqueue.Queue, targets []notify.Target, assist AssistClient, breakers *resilience.Breakers, cfg Config, logger *slog.Logger) *Engine {
	return &Engine{
		store:    store,
		queue:    queue,
		targets:  targets,
		assist:   assist,
		breakers: breakers,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		now:      time.Now,
	}
}

// Evaluate runs the single-pass decision for one ingested event. Events
// that are neither fatal nor above the tenant's anomaly threshold leave
// no trace. Alert-worthy events always get an audit record; a
// notification job is enqueued only when the cooldown window for
// (tenant, alert type, source) has elapsed. Two near-simultaneous
// events for the same key can both pass the check before either updates
// the cooldown; that duplicate is accepted.
func (e *Engine) Evaluate(ctx context.Context, ev model.Event) error {
	threshold := e.cfg.DefaultThreshold
	if t, err := e.store.TenantThreshold(ctx, ev.TenantID); err == nil {
		threshold = t
	}
	isFatal := ev.Severity == model.SeverityFatal
	isHighAnomaly := ev.Score() >= threshold
	if !isFatal && !isHighAnomaly {
		return nil
	}

	alertType := model.AlertHighAnomaly
	severity := model.AlertSeverityHigh
	if isFatal {
		alertType = model.AlertFatal
		severity = model.AlertSeverityCritical
	}

	now := e.now()
	canSend := true
	if last, err := e.store.GetCooldown(ctx, ev.TenantID, string(alertType), ev.Source); err == nil {
		canSend = now.Sub(last) >= e.cfg.CooldownWindow
	}

	payload := model.AlertPayload{Kind: alertType, Event: ev, Suppressed: !canSend}
	if alertType == model.AlertHighAnomaly {
		score := ev.Score()
		payload.Threshold = &threshold
		payload.Score = &score
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	recordID, err := e.store.InsertAlertEvent(ctx, storage.AlertEventRecord{
		TenantID:  ev.TenantID,
		AlertType: string(alertType),
		Severity:  string(severity),
		Source:    ev.Source,
		EventID:   ev.ID,
		Payload:   data,
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("insert alert event: %w", err)
	}

	if !canSend {
		e.logger.Info("alert suppressed by cooldown",
			slog.String("tenant", ev.TenantID),
			slog.String("alertType", string(alertType)),
			slog.String("record", recordID))
		return nil
	}

	e.queue.Enqueue(recordID, func(jobCtx context.Context) error {
		return e.deliver(jobCtx, recordID, severity, payload)
	}, jobqueue.RetryPolicy{
		MaxAttempts:   e.cfg.JobMaxAttempts,
		InitialDelay:  e.cfg.JobInitialDelay,
		BackoffFactor: e.cfg.JobBackoffFactor,
	})
	return nil
}

// deliver is the body of one notification job. The per-target sends are
// independent fan-out; only a failure on the primary (email) channel
// fails the job. Cooldown state is updated once the job completes.
func (e *Engine) deliver(ctx context.Context, recordID string, severity model.AlertSeverity, payload model.AlertPayload) error {
	payload.Proposal = e.fetchProposal(ctx, recordID, payload)
	msg := buildMessage(severity, payload)

	var primaryErr error
	for _, target := range e.targets {
		err := resilience.Do(ctx, e.breakers, resilience.Options{
			Attempts:      e.cfg.SendAttempts,
			InitialDelay:  e.cfg.SendInitialDelay,
			BackoffFactor: 2,
			Timeout:       e.cfg.SendTimeout,
			BreakerKey:    target.Adapter.Class(),
		}, func(ctx context.Context) error {
			return target.Adapter.Send(ctx, target.Destination, msg)
		})
		if err == nil {
			continue
		}
		if target.Adapter.Class() == primaryClass {
			primaryErr = err
			continue
		}
		e.logger.Warn("notification send failed",
			slog.String("class", target.Adapter.Class()),
			slog.String("record", recordID),
			slog.String("error", err.Error()))
	}
	if primaryErr != nil {
		return fmt.Errorf("email delivery: %w", primaryErr)
	}

	if err := e.store.UpsertCooldown(ctx, payload.Event.TenantID, string(payload.Kind), payload.Event.Source, e.now()); err != nil {
		return fmt.Errorf("upsert cooldown: %w", err)
	}
	return nil
}

// fetchProposal asks the assist service for guidance and attaches it to
// the audit record. Failures only omit the guidance.
func (e *Engine) fetchProposal(ctx context.Context, recordID string, payload model.AlertPayload) *model.Proposal {
	if e.assist == nil {
		return nil
	}
	var proposal model.Proposal
	err := resilience.Do(ctx, e.breakers, resilience.Options{
		Attempts:   1,
		Timeout:    e.cfg.AssistTimeout,
		BreakerKey: "assist",
	}, func(ctx context.Context) error {
		p, err := e.assist.Playbook(ctx, payload.Event)
		if err != nil {
			return err
		}
		proposal = p
		return nil
	})
	if err != nil {
		e.logger.Warn("remediation guidance unavailable",
			slog.String("record", recordID),
			slog.String("error", err.Error()))
		return nil
	}
	payload.Proposal = &proposal
	data, err := json.Marshal(payload)
	if err != nil {
		return &proposal
	}
	if err := e.store.UpdateAlertEventPayload(ctx, recordID, data); err != nil {
		e.logger.Warn("failed to attach proposal to audit record",
			slog.String("record", recordID),
			slog.String("error", err.Error()))
	}
	return &proposal
}

func buildMessage(severity model.AlertSeverity, payload model.AlertPayload) notify.Message {
	ev := payload.Event
	source := "unknown"
	if ev.Source != nil {
		source = *ev.Source
	}
	subject := fmt.Sprintf("[%s] %s alert from %s", severity, payload.Kind, source)

	var b strings.Builder
	fmt.Fprintf(&b, "Tenant: %s\n", ev.TenantID)
	fmt.Fprintf(&b, "Severity: %s\n", ev.Severity)
	fmt.Fprintf(&b, "Source: %s\n", source)
	fmt.Fprintf(&b, "Time: %s\n", ev.Timestamp.UTC().Format(time.RFC3339))
	if payload.Score != nil && payload.Threshold != nil {
		fmt.Fprintf(&b, "Anomaly score: %.2f (threshold %.2f)\n", *payload.Score, *payload.Threshold)
	}
	fmt.Fprintf(&b, "\n%s\n", ev.Message)
	if p := payload.Proposal; p != nil {
		fmt.Fprintf(&b, "\nSuggested remediation: %s\n%s\n", p.Title, p.Summary)
		for i, step := range p.TriageSteps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
	}

	return notify.Message{
		TenantID:  ev.TenantID,
		AlertType: string(payload.Kind),
		Severity:  string(severity),
		Subject:   subject,
		Body:      b.String(),
	}
}
