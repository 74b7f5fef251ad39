package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"sentinel/internal/store"
	"sentinel/pkg/models"
)

func openTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := New(Config{Addr: mr.Addr(), KeyPrefix: "test"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestKeyLayout(t *testing.T) {
	s := &Store{prefix: "sentinel"}

	if got := s.userKey("u1"); got != "sentinel:users:u1" {
		t.Fatalf("unexpected user key: %s", got)
	}
	if got := s.interactionKey("u1", "i9"); got != "sentinel:users:u1:interactions:i9" {
		t.Fatalf("unexpected interaction key: %s", got)
	}
	if got := s.alertsKey("u1"); got != "sentinel:users:u1:alerts" {
		t.Fatalf("unexpected alerts key: %s", got)
	}
}

func TestCloseNilStore(t *testing.T) {
	var s *Store
	if err := s.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
}

func TestGetUserMissingIsNotFound(t *testing.T) {
	s, _ := openTestStore(t)
	if _, err := s.GetUser(context.Background(), "ghost"); !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRoundTrip(t *testing.T) {
	s, mr := openTestStore(t)
	ctx := context.Background()

	if err := s.PutUser(ctx, &models.User{ID: "u1", Whitelist: []string{"Mom", "Dad"}, NotifyTo: "oc_1"}); err != nil {
		t.Fatalf("put user: %v", err)
	}
	if !mr.Exists("test:users:u1") {
		t.Fatalf("user key not written")
	}

	u, err := s.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.ID != "u1" || len(u.Whitelist) != 2 || u.Whitelist[1] != "Dad" || u.NotifyTo != "oc_1" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestGetUserFillsMissingID(t *testing.T) {
	s, mr := openTestStore(t)
	mr.Set("test:users:u2", `{"whitelist":["Alice"]}`)

	u, err := s.GetUser(context.Background(), "u2")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.ID != "u2" || u.Whitelist[0] != "Alice" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestGetUserCorruptRecord(t *testing.T) {
	s, mr := openTestStore(t)
	mr.Set("test:users:u3", `{not json`)

	_, err := s.GetUser(context.Background(), "u3")
	if err == nil || errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestPutInteraction(t *testing.T) {
	s, mr := openTestStore(t)
	rec := &models.Interaction{ID: "i1", UserID: "u1", ConversationType: models.ConversationGroup, Group: "Family", Participants: "Mom, Eve"}
	if err := s.PutInteraction(context.Background(), rec); err != nil {
		t.Fatalf("put interaction: %v", err)
	}
	got, err := mr.Get("test:users:u1:interactions:i1")
	if err != nil {
		t.Fatalf("read interaction key: %v", err)
	}
	if got != `{"conversationType":"group","participants":"Mom, Eve","group":"Family"}` {
		t.Fatalf("unexpected interaction body: %s", got)
	}
}

func TestAlertsAppendAndListOldestFirst(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for i, id := range []string{"a1", "a2", "a3"} {
		alert := &models.Alert{
			AlertID:        id,
			AlertType:      models.AlertTypeNonWhitelisted,
			UserID:         "u1",
			InteractionID:  "i" + id,
			NonWhitelisted: []string{"Eve"},
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.WriteAlert(ctx, alert); err != nil {
			t.Fatalf("write alert %s: %v", id, err)
		}
	}

	all, err := s.ListAlerts(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(all) != 3 || all[0].AlertID != "a1" || all[2].AlertID != "a3" {
		t.Fatalf("unexpected alert order: %+v", all)
	}
	if !all[1].CreatedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected created_at: %v", all[1].CreatedAt)
	}

	latest, err := s.ListAlerts(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("list latest alerts: %v", err)
	}
	if len(latest) != 2 || latest[0].AlertID != "a2" || latest[1].AlertID != "a3" {
		t.Fatalf("unexpected latest alerts: %+v", latest)
	}

	none, err := s.ListAlerts(ctx, "nobody", 10)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no alerts, got %+v err=%v", none, err)
	}
}

func TestWriteAlertFailsWhenRedisDown(t *testing.T) {
	s, mr := openTestStore(t)
	mr.Close()
	if err := s.WriteAlert(context.Background(), &models.Alert{AlertID: "a1", UserID: "u1"}); err == nil {
		t.Fatalf("expected error when redis is unavailable")
	}
}
