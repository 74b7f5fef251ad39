package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"sentinel/config"
	"sentinel/internal/api"
	"sentinel/pkg/models"
)

func TestBuildServiceFileMode(t *testing.T) {
	dir := t.TempDir()
	users := filepath.Join(dir, "users.yml")
	if err := os.WriteFile(users, []byte("users:\n  - id: u1\n    whitelist: [\"Mom\"]\n"), 0o644); err != nil {
		t.Fatalf("write users: %v", err)
	}

	cfg := &config.Config{}
	cfg.Sentinel.Store.Mode = "file"
	cfg.Sentinel.Store.File.UsersPath = users
	cfg.Sentinel.Alerts.Output.File.Path = filepath.Join(dir, "alerts.jsonl")
	config.ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	svc, err := buildService(&cfg.Sentinel)
	if err != nil {
		t.Fatalf("buildService: %v", err)
	}
	if svc.backend.interactions != nil || svc.backend.lister != nil {
		t.Fatalf("file backend should be read-only")
	}

	alert, err := svc.monitor.Handle(context.Background(), models.ChangeEvent{
		UserID:        "u1",
		InteractionID: "i1",
		After:         &models.Interaction{Participants: "Mom, Stranger"},
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if alert == nil || alert.NonWhitelisted[0] != "Stranger" {
		t.Fatalf("unexpected alert: %+v", alert)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(cfg.Sentinel.Alerts.Output.File.Path)
	if err != nil {
		t.Fatalf("read alerts: %v", err)
	}
	if !strings.Contains(string(data), `"interaction_id":"i1"`) {
		t.Fatalf("alert not written: %s", data)
	}
}

func TestBuildServiceSQLiteUsersImport(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Sentinel.Store.Mode = "sqlite"
	cfg.Sentinel.Store.SQLite.Path = filepath.Join(dir, "sentinel.db")
	config.ApplyDefaults(cfg)

	svc, err := buildService(&cfg.Sentinel)
	if err != nil {
		t.Fatalf("buildService: %v", err)
	}
	defer svc.Close()

	ctx := context.Background()
	if err := svc.backend.userWriter.PutUser(ctx, &models.User{ID: "u1", Whitelist: []string{"Mom"}}); err != nil {
		t.Fatalf("put user: %v", err)
	}
	if _, err := svc.monitor.Handle(ctx, models.ChangeEvent{UserID: "u1", InteractionID: "i1", After: &models.Interaction{Participants: "Eve"}}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if svc.lister == nil {
		t.Fatalf("store alert output should enable listing")
	}
	alerts, err := svc.lister.ListAlerts(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 1 || alerts[0].InteractionID != "i1" {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
}

func TestAlertListingOnlyWhenAlertsLiveInStore(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Sentinel.Store.Mode = "sqlite"
	cfg.Sentinel.Store.SQLite.Path = filepath.Join(dir, "sentinel.db")
	cfg.Sentinel.Alerts.Output.Mode = "file"
	cfg.Sentinel.Alerts.Output.File.Path = filepath.Join(dir, "alerts.jsonl")
	config.ApplyDefaults(cfg)

	svc, err := buildService(&cfg.Sentinel)
	if err != nil {
		t.Fatalf("buildService: %v", err)
	}
	defer svc.Close()

	if svc.lister != nil {
		t.Fatalf("alert listing must be disabled when alerts go to %s", cfg.Sentinel.Alerts.Output.Mode)
	}
	if svc.backend.lister == nil {
		t.Fatalf("sqlite backend should still support listing")
	}

	h := &api.Handler{Monitor: svc.monitor, Interactions: svc.backend.interactions, Alerts: svc.lister}
	gin.SetMode(gin.TestMode)
	req := httptest.NewRequest(http.MethodGet, "/v1/users/u1/alerts", nil)
	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, req)
	if w.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 for file alert output, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBuildNotifierRejectsUnknownMode(t *testing.T) {
	cfg := &config.SentinelConfig{}
	cfg.Notify.Mode = "smoke-signal"
	if _, err := buildNotifier(cfg); err == nil {
		t.Fatalf("expected error")
	}
}
