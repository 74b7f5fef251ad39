package pipeline

import (
	"context"

	"sentinel/pkg/models"
)

// Source yields raw change-event payloads.
type Source interface {
	Pop(ctx context.Context) ([]byte, error)
	DeadLetter(ctx context.Context, payload []byte) error
	Close() error
}

// Handler evaluates one decoded change event.
type Handler interface {
	Handle(ctx context.Context, ev models.ChangeEvent) (*models.Alert, error)
}
