package models

import "time"

// AlertTypeNonWhitelisted tags every alert raised by the whitelist monitor.
const AlertTypeNonWhitelisted = "non_whitelisted_participant"

// Alert is the durable evidence of a non-whitelisted participant.
type Alert struct {
	AlertID          string           `json:"alert_id"`
	AlertType        string           `json:"alert_type"`
	UserID           string           `json:"user_id"`
	InteractionID    string           `json:"interaction_id"`
	ConversationType ConversationType `json:"conversation_type,omitempty"`
	Group            string           `json:"group,omitempty"`
	NonWhitelisted   []string         `json:"non_whitelisted"`
	Participants     []string         `json:"participants"`
	Whitelist        []string         `json:"whitelist"`
	Sample           []string         `json:"sample,omitempty"`
	RuleTags         []RuleTag        `json:"rule_tags,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// RuleTag represents a content rule match annotation.
type RuleTag struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Severity string `json:"severity,omitempty"`
}
