package alertclickhouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sentinel/pkg/models"
)

// Config configures the ClickHouse HTTP writer.
type Config struct {
	URL      string
	Database string
	Table    string
	Username string
	Password string
	Timeout  time.Duration
	Headers  map[string]string
}

// Writer inserts alerts into ClickHouse via HTTP JSONEachRow.
type Writer struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
}

// row is the flattened table layout. created_at is DateTime64(3).
type row struct {
	AlertID          string   `json:"alert_id"`
	AlertType        string   `json:"alert_type"`
	UserID           string   `json:"user_id"`
	InteractionID    string   `json:"interaction_id"`
	ConversationType string   `json:"conversation_type"`
	GroupLabel       string   `json:"group_label"`
	NonWhitelisted   []string `json:"non_whitelisted"`
	Participants     []string `json:"participants"`
	Whitelist        []string `json:"whitelist"`
	RuleIDs          []string `json:"rule_ids"`
	CreatedAt        int64    `json:"created_at"`
}

// NewWriter creates a ClickHouse HTTP writer.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("clickhouse URL is empty")
	}
	if cfg.Database == "" {
		cfg.Database = "default"
	}
	if cfg.Table == "" {
		cfg.Table = "sentinel_alerts"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	q := fmt.Sprintf("INSERT INTO %s.%s FORMAT JSONEachRow", quoteIdent(cfg.Database), quoteIdent(cfg.Table))
	endpoint := strings.TrimRight(cfg.URL, "/") + "/?query=" + url.QueryEscape(q)

	headers := map[string]string{}
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	if cfg.Username != "" {
		headers["X-ClickHouse-User"] = cfg.Username
	}
	if cfg.Password != "" {
		headers["X-ClickHouse-Key"] = cfg.Password
	}

	return &Writer{
		endpoint: endpoint,
		headers:  headers,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// WriteAlert inserts one alert row.
func (w *Writer) WriteAlert(ctx context.Context, alert *models.Alert) error {
	r := row{
		AlertID:          alert.AlertID,
		AlertType:        alert.AlertType,
		UserID:           alert.UserID,
		InteractionID:    alert.InteractionID,
		ConversationType: alert.ConversationType.String(),
		GroupLabel:       alert.Group,
		NonWhitelisted:   nonNil(alert.NonWhitelisted),
		Participants:     nonNil(alert.Participants),
		Whitelist:        nonNil(alert.Whitelist),
		RuleIDs:          []string{},
		CreatedAt:        alert.CreatedAt.UnixMilli(),
	}
	for _, tag := range alert.RuleTags {
		r.RuleIDs = append(r.RuleIDs, tag.ID)
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(r); err != nil {
		return fmt.Errorf("failed to marshal alert row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("clickhouse request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("clickhouse request failed with status %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	return nil
}

// Close releases resources.
func (w *Writer) Close() error {
	return nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func quoteIdent(v string) string {
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "`", "")
	return "`" + v + "`"
}
