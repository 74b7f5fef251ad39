package capture

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"sentinel/internal/logger"
	"sentinel/internal/store"
	"sentinel/internal/transform/change"
	"sentinel/pkg/models"
)

// Enqueuer accepts encoded change events.
type Enqueuer interface {
	Push(ctx context.Context, payload []byte) error
}

// Publisher stores captured interactions and announces them on the change
// feed.
type Publisher struct {
	store store.InteractionWriter
	queue Enqueuer
	now   func() time.Time
}

// NewPublisher creates a publisher. Either side may be nil.
func NewPublisher(st store.InteractionWriter, queue Enqueuer) *Publisher {
	return &Publisher{store: st, queue: queue, now: time.Now}
}

// Publish builds the record for a snapshot and hands it to the store and
// the change feed. Records without participants are still published.
func (p *Publisher) Publish(ctx context.Context, userID string, s Snapshot) (*models.Interaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	rec := Build(s, p.now())
	rec.ID = newInteractionID()
	rec.UserID = userID

	if p.store != nil {
		if err := p.store.PutInteraction(ctx, rec); err != nil {
			return nil, fmt.Errorf("store interaction: %w", err)
		}
	}

	if p.queue != nil {
		payload, err := change.Encode(&models.ChangeEvent{
			UserID:        userID,
			InteractionID: rec.ID,
			After:         rec,
		})
		if err != nil {
			return nil, fmt.Errorf("encode change event: %w", err)
		}
		if err := p.queue.Push(ctx, payload); err != nil {
			return nil, fmt.Errorf("enqueue change event: %w", err)
		}
	}

	logger.With("user", userID, "interaction", rec.ID).Debugf("Interaction published: type=%s", rec.ConversationType)
	return rec, nil
}

func newInteractionID() string {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
