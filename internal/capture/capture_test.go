package capture

import (
	"context"
	"reflect"
	"testing"
	"time"

	"sentinel/internal/transform/change"
	"sentinel/pkg/models"
)

func TestIsConversationScreen(t *testing.T) {
	cases := []struct {
		pkg, class, target string
		want               bool
	}{
		{"com.whatsapp", "com.whatsapp.Conversation", "", true},
		{"com.whatsapp", "com.whatsapp.HomeActivity", "", false},
		{"com.other", "com.whatsapp.Conversation", "", false},
		{"com.whatsapp.w4b", "com.whatsapp.Conversation", "com.whatsapp.w4b", true},
	}
	for _, tc := range cases {
		if got := IsConversationScreen(tc.pkg, tc.class, tc.target); got != tc.want {
			t.Fatalf("IsConversationScreen(%q, %q, %q)=%v want %v", tc.pkg, tc.class, tc.target, got, tc.want)
		}
	}
}

func TestBuildIndividual(t *testing.T) {
	now := time.Date(2024, 3, 5, 9, 7, 0, 0, time.UTC)
	rec := Build(Snapshot{Individual: true, Texts: []string{"", "Bob", " ", "hi", "bye"}, DeviceID: "d1"}, now)

	if rec.ConversationType != models.ConversationIndividual {
		t.Fatalf("unexpected type %v", rec.ConversationType)
	}
	if rec.Participants != "Bob" || rec.Group != "" {
		t.Fatalf("unexpected participants/group: %q %q", rec.Participants, rec.Group)
	}
	if !reflect.DeepEqual(rec.Sample, []string{"hi", "bye"}) {
		t.Fatalf("unexpected sample: %v", rec.Sample)
	}
	if rec.Timestamp != "05/03/2024 09:07" || rec.CreatedAt != now.UnixMilli() {
		t.Fatalf("unexpected timestamps: %q %d", rec.Timestamp, rec.CreatedAt)
	}
	if rec.DeviceID != "d1" {
		t.Fatalf("unexpected device: %q", rec.DeviceID)
	}
}

func TestBuildGroup(t *testing.T) {
	rec := Build(Snapshot{Texts: []string{"Family", "Alice, Bob, You", "hello"}}, time.Now())
	if rec.ConversationType != models.ConversationGroup {
		t.Fatalf("unexpected type %v", rec.ConversationType)
	}
	if rec.Group != "Family" || rec.Participants != "Alice, Bob, You" {
		t.Fatalf("unexpected group/participants: %q %q", rec.Group, rec.Participants)
	}
	if !reflect.DeepEqual(rec.Sample, []string{"hello"}) {
		t.Fatalf("unexpected sample: %v", rec.Sample)
	}

	short := Build(Snapshot{Texts: []string{"Family"}}, time.Now())
	if short.Participants != "" || short.Sample != nil {
		t.Fatalf("expected no participants, got %+v", short)
	}
}

type memStore struct{ recs []*models.Interaction }

func (m *memStore) PutInteraction(ctx context.Context, rec *models.Interaction) error {
	m.recs = append(m.recs, rec)
	return nil
}

type memQueue struct{ payloads [][]byte }

func (m *memQueue) Push(ctx context.Context, payload []byte) error {
	m.payloads = append(m.payloads, payload)
	return nil
}

func TestPublisherStoresAndEnqueues(t *testing.T) {
	st := &memStore{}
	q := &memQueue{}
	p := NewPublisher(st, q)
	p.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }

	rec, err := p.Publish(context.Background(), "u1", Snapshot{Individual: true, Texts: []string{"Stranger", "hey"}})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if rec.ID == "" || rec.UserID != "u1" {
		t.Fatalf("unexpected ids: %+v", rec)
	}
	if len(st.recs) != 1 || st.recs[0] != rec {
		t.Fatalf("record not stored")
	}
	if len(q.payloads) != 1 {
		t.Fatalf("expected 1 queued event, got %d", len(q.payloads))
	}

	ev, err := change.Parse(q.payloads[0])
	if err != nil {
		t.Fatalf("parse queued event: %v", err)
	}
	if ev.UserID != "u1" || ev.InteractionID != rec.ID || ev.After == nil || ev.After.Participants != "Stranger" {
		t.Fatalf("unexpected queued event: %+v", ev)
	}
}

func TestPublisherRequiresUser(t *testing.T) {
	if _, err := NewPublisher(nil, nil).Publish(context.Background(), "", Snapshot{}); err == nil {
		t.Fatalf("expected error for empty user id")
	}
}
