package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"sentinel/internal/store"
	"sentinel/pkg/models"
)

// Config configures Redis access for the interaction store.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Store keeps user records, interactions and per-user alert lists in Redis.
//
//	{prefix}:users:{user}                       user JSON
//	{prefix}:users:{user}:interactions:{id}     interaction JSON
//	{prefix}:users:{user}:alerts                alert JSON list, append-only
type Store struct {
	client *redis.Client
	prefix string
}

// New constructs a Redis-backed store and checks connectivity.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		cfg.KeyPrefix = "sentinel"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis store: %w", err)
	}

	return &Store{client: client, prefix: strings.TrimSpace(cfg.KeyPrefix)}, nil
}

// GetUser loads a user record.
func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	raw, err := s.client.Get(ctx, s.userKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read user %s: %w", userID, err)
	}
	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", userID, err)
	}
	if user.ID == "" {
		user.ID = userID
	}
	return &user, nil
}

// PutUser creates or replaces a user record.
func (s *Store) PutUser(ctx context.Context, user *models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.client.Set(ctx, s.userKey(user.ID), raw, 0).Err(); err != nil {
		return fmt.Errorf("write user %s: %w", user.ID, err)
	}
	return nil
}

// PutInteraction writes an interaction record.
func (s *Store) PutInteraction(ctx context.Context, interaction *models.Interaction) error {
	raw, err := json.Marshal(interaction)
	if err != nil {
		return fmt.Errorf("encode interaction: %w", err)
	}
	key := s.interactionKey(interaction.UserID, interaction.ID)
	if err := s.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("write interaction %s: %w", key, err)
	}
	return nil
}

// WriteAlert appends an alert to the user's alert list.
func (s *Store) WriteAlert(ctx context.Context, alert *models.Alert) error {
	raw, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	if err := s.client.RPush(ctx, s.alertsKey(alert.UserID), raw).Err(); err != nil {
		return fmt.Errorf("append alert %s: %w", alert.AlertID, err)
	}
	return nil
}

// ListAlerts returns up to limit of the most recent alerts, oldest first.
func (s *Store) ListAlerts(ctx context.Context, userID string, limit int) ([]*models.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.client.LRange(ctx, s.alertsKey(userID), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read alerts for %s: %w", userID, err)
	}
	out := make([]*models.Alert, 0, len(rows))
	for _, row := range rows {
		var a models.Alert
		if err := json.Unmarshal([]byte(row), &a); err != nil {
			continue
		}
		out = append(out, &a)
	}
	return out, nil
}

// Close closes Redis resources.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Store) userKey(userID string) string {
	return s.prefix + ":users:" + userID
}

func (s *Store) interactionKey(userID, interactionID string) string {
	return s.userKey(userID) + ":interactions:" + interactionID
}

func (s *Store) alertsKey(userID string) string {
	return s.userKey(userID) + ":alerts"
}
