package main

import (
	"errors"
	"fmt"
	"strings"

	"sentinel/config"
	inputredis "sentinel/internal/input/redis"
	"sentinel/internal/logger"
	"sentinel/internal/metrics"
	"sentinel/internal/monitor"
	"sentinel/internal/notify"
	"sentinel/internal/output/alertclickhouse"
	"sentinel/internal/output/alertjson"
	"sentinel/internal/rules"
	"sentinel/internal/store"
	"sentinel/internal/store/filestore"
	"sentinel/internal/store/redisstore"
	"sentinel/internal/store/sqlitestore"
)

// backend is the store selected by store.mode. interactions, lister,
// userWriter and alertStore are nil for the read-only file store.
type backend struct {
	users        store.UserReader
	interactions store.InteractionWriter
	lister       store.AlertLister
	userWriter   store.UserWriter
	alertStore   store.AlertWriter
	close        func() error
}

func openBackend(cfg *config.SentinelConfig) (*backend, error) {
	switch cfg.Store.Mode {
	case "redis":
		s, err := redisstore.New(redisstore.Config{
			Addr:      cfg.Store.Redis.Addr,
			Password:  cfg.Store.Redis.Password,
			DB:        cfg.Store.Redis.DB,
			KeyPrefix: cfg.Store.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		logger.Infof("Store mode: redis (%s, prefix=%s)", cfg.Store.Redis.Addr, cfg.Store.Redis.KeyPrefix)
		return &backend{users: s, interactions: s, lister: s, userWriter: s, alertStore: s, close: s.Close}, nil
	case "sqlite":
		s, err := sqlitestore.New(cfg.Store.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Infof("Store mode: sqlite (%s)", cfg.Store.SQLite.Path)
		return &backend{users: s, interactions: s, lister: s, userWriter: s, alertStore: s, close: s.Close}, nil
	case "file":
		u, err := filestore.NewUsers(cfg.Store.File.UsersPath)
		if err != nil {
			return nil, fmt.Errorf("open users file: %w", err)
		}
		logger.Infof("Store mode: file (%s)", cfg.Store.File.UsersPath)
		return &backend{users: u, close: func() error { return nil }}, nil
	default:
		return nil, fmt.Errorf("unknown store mode: %s", cfg.Store.Mode)
	}
}

// alertSink wraps an alert writer owned by the backend so closing the sink
// leaves the backend open.
type alertSink struct {
	store.AlertWriter
}

func (alertSink) Close() error { return nil }

func buildAlertWriter(cfg *config.SentinelConfig, b *backend) (store.AlertWriter, error) {
	out := cfg.Alerts.Output
	switch out.Mode {
	case "store":
		if b.alertStore == nil {
			return nil, errors.New("alert output mode store requires a writable store")
		}
		logger.Infof("Alert output mode: store (%s)", cfg.Store.Mode)
		return alertSink{b.alertStore}, nil
	case "file":
		w, err := alertjson.NewWriter(out.File.Path)
		if err != nil {
			return nil, fmt.Errorf("create alert file writer: %w", err)
		}
		logger.Infof("Alert output mode: file (%s)", out.File.Path)
		return w, nil
	case "clickhouse":
		w, err := alertclickhouse.NewWriter(alertclickhouse.Config{
			URL:      out.ClickHouse.URL,
			Database: out.ClickHouse.Database,
			Table:    out.ClickHouse.Table,
			Username: out.ClickHouse.Username,
			Password: out.ClickHouse.Password,
			Timeout:  out.ClickHouse.Timeout,
			Headers:  out.ClickHouse.Headers,
		})
		if err != nil {
			return nil, fmt.Errorf("create alert ClickHouse writer: %w", err)
		}
		logger.Infof("Alert output mode: clickhouse (%s/%s.%s)", out.ClickHouse.URL, out.ClickHouse.Database, out.ClickHouse.Table)
		return w, nil
	default:
		return nil, fmt.Errorf("unknown alert output mode: %s", out.Mode)
	}
}

func buildNotifier(cfg *config.SentinelConfig) (notify.Notifier, error) {
	n := cfg.Notify
	switch n.Mode {
	case "log":
		logger.Infof("Notify mode: log")
		return notify.LogNotifier{}, nil
	case "feishu":
		f, err := notify.NewFeishu(notify.FeishuConfig{AppID: n.Feishu.AppID, AppSecret: n.Feishu.AppSecret})
		if err != nil {
			return nil, err
		}
		logger.Infof("Notify mode: feishu (default chat=%s)", n.DefaultDestination)
		return f, nil
	case "webhook":
		w, err := notify.NewWebhook(notify.WebhookConfig{URL: n.Webhook.URL, Timeout: n.Webhook.Timeout, Headers: n.Webhook.Headers})
		if err != nil {
			return nil, err
		}
		logger.Infof("Notify mode: webhook (%s)", n.Webhook.URL)
		return w, nil
	default:
		return nil, fmt.Errorf("unknown notify mode: %s", n.Mode)
	}
}

func buildEngine(cfg *config.SentinelConfig) (rules.Engine, error) {
	if !cfg.Rules.Enabled {
		return nil, nil
	}
	if strings.TrimSpace(cfg.Rules.Path) == "" {
		logger.Warnf("Rules enabled but rules.path is empty; rule tagging disabled")
		return nil, nil
	}
	engine, stats, err := rules.NewSigmaEngine(cfg.Rules.Path)
	if err != nil {
		return nil, fmt.Errorf("load Sigma rules from %s: %w", cfg.Rules.Path, err)
	}
	logger.Infof("Sigma rules loaded: loaded=%d skipped_complex=%d skipped_datasource=%d skipped_invalid=%d files=%d",
		stats.Loaded,
		stats.SkippedComplex,
		stats.SkippedDatasource,
		stats.SkippedInvalid,
		stats.TotalFiles,
	)
	if stats.Loaded == 0 {
		logger.Warnf("No compatible Sigma rules loaded; rule tagging is effectively disabled")
	}
	return engine, nil
}

func newQueue(cfg *config.SentinelConfig) (*inputredis.Queue, error) {
	r := cfg.Input.Redis
	return inputredis.NewQueue(inputredis.Config{
		Addr:          r.Addr,
		Password:      r.Password,
		DB:            r.DB,
		Key:           r.Key,
		DeadLetterKey: r.DeadLetterKey,
		BlockTimeout:  r.BlockTimeout,
	})
}

// service is a fully wired monitor with everything it owns. lister is nil
// unless alerts are persisted in the backend store.
type service struct {
	backend *backend
	alerts  store.AlertWriter
	lister  store.AlertLister
	monitor *monitor.Monitor
	metrics *metrics.Metrics
}

func buildService(cfg *config.SentinelConfig) (*service, error) {
	b, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}

	alerts, err := buildAlertWriter(cfg, b)
	if err != nil {
		b.close()
		return nil, err
	}

	notifier, err := buildNotifier(cfg)
	if err != nil {
		alerts.Close()
		b.close()
		return nil, err
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		alerts.Close()
		b.close()
		return nil, err
	}

	m := metrics.New()
	mon := monitor.New(b.users, alerts, notifier, engine, m, monitor.Config{
		SelfReferences:     cfg.SelfReferences,
		DefaultDestination: cfg.Notify.DefaultDestination,
		MaxSamples:         cfg.Notify.MaxSamples,
	})

	svc := &service{backend: b, alerts: alerts, monitor: mon, metrics: m}
	if cfg.Alerts.Output.Mode == "store" {
		svc.lister = b.lister
	}
	return svc, nil
}

func (s *service) Close() error {
	var errs []error
	if err := s.alerts.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.backend.close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
