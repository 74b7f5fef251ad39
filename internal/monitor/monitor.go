package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sentinel/internal/logger"
	"sentinel/internal/metrics"
	"sentinel/internal/notify"
	"sentinel/internal/rules"
	"sentinel/internal/store"
	"sentinel/internal/whitelist"
	"sentinel/pkg/models"
)

// Config controls evaluation and notification.
type Config struct {
	SelfReferences     []string
	DefaultDestination string
	MaxSamples         int
}

// Monitor evaluates interaction writes against the owner's whitelist. It
// holds no per-invocation state and is safe for concurrent use.
type Monitor struct {
	users    store.UserReader
	alerts   store.AlertWriter
	notifier notify.Notifier
	engine   rules.Engine
	metrics  *metrics.Metrics
	cfg      Config
	now      func() time.Time
}

// New creates a monitor. notifier, engine and m may be nil.
func New(users store.UserReader, alerts store.AlertWriter, notifier notify.Notifier, engine rules.Engine, m *metrics.Metrics, cfg Config) *Monitor {
	if cfg.SelfReferences == nil {
		cfg.SelfReferences = whitelist.DefaultSelfReferences
	}
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = notify.DefaultMaxSamples
	}
	return &Monitor{
		users:    users,
		alerts:   alerts,
		notifier: notifier,
		engine:   engine,
		metrics:  m,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Handle evaluates one change event. It returns the persisted alert, or nil
// when no alert was raised. Only store failures are returned as errors;
// missing users, empty participants, deletions and notification failures
// are logged.
func (m *Monitor) Handle(ctx context.Context, ev models.ChangeEvent) (*models.Alert, error) {
	start := time.Now()
	log := logger.With("user", ev.UserID, "interaction", ev.InteractionID)

	alert, outcome, err := m.handle(ctx, ev, log)
	m.metrics.ObserveEvaluation(outcome, time.Since(start))
	return alert, err
}

func (m *Monitor) handle(ctx context.Context, ev models.ChangeEvent, log logger.Fields) (*models.Alert, string, error) {
	if ev.After == nil {
		log.Debugf("Interaction removed; nothing to evaluate")
		return nil, metrics.OutcomeDeleted, nil
	}

	user, err := m.users.GetUser(ctx, ev.UserID)
	if errors.Is(err, store.ErrUserNotFound) {
		log.Warnf("User record not found; skipping evaluation")
		return nil, metrics.OutcomeUserNotFound, nil
	}
	if err != nil {
		return nil, metrics.OutcomeError, fmt.Errorf("load user %s: %w", ev.UserID, err)
	}
	if user.ID == "" {
		user.ID = ev.UserID
	}

	interaction := *ev.After
	interaction.ID = ev.InteractionID
	interaction.UserID = ev.UserID
	if strings.TrimSpace(interaction.Participants) == "" || len(whitelist.SplitParticipants(interaction.Participants)) == 0 {
		log.Warnf("Interaction has no participants; skipping evaluation")
		return nil, metrics.OutcomeNoParticipants, nil
	}

	alert := Evaluate(&interaction, user, m.cfg.SelfReferences, m.now())
	if alert == nil {
		log.Infof("All participants whitelisted")
		return nil, metrics.OutcomeClean, nil
	}
	if m.engine != nil {
		alert.RuleTags = m.engine.Apply(&interaction)
	}

	if err := m.alerts.WriteAlert(ctx, alert); err != nil {
		return nil, metrics.OutcomeError, fmt.Errorf("write alert for %s/%s: %w", ev.UserID, ev.InteractionID, err)
	}
	log.With("alert", alert.AlertID).Warnf("Non-whitelisted participants: %s", strings.Join(alert.NonWhitelisted, ", "))

	m.dispatch(ctx, user, alert, log)
	return alert, metrics.OutcomeAlert, nil
}

func (m *Monitor) dispatch(ctx context.Context, user *models.User, alert *models.Alert, log logger.Fields) {
	if m.notifier == nil {
		return
	}
	dest := user.NotifyTo
	if dest == "" {
		dest = m.cfg.DefaultDestination
	}
	if err := m.notifier.Send(ctx, dest, notify.Format(alert, m.cfg.MaxSamples)); err != nil {
		m.metrics.ObserveNotification(false)
		log.With("alert", alert.AlertID).Errorf("Failed to send notification: %v", err)
		return
	}
	m.metrics.ObserveNotification(true)
}
