package models

// Interaction is one captured conversation snapshot. ID and UserID come from
// the store path, not the document body.
type Interaction struct {
	ID               string           `json:"-"`
	UserID           string           `json:"-"`
	ConversationType ConversationType `json:"conversationType,omitempty"`
	Participants     string           `json:"participants,omitempty"`
	Group            string           `json:"group,omitempty"`
	Sample           []string         `json:"sample,omitempty"`
	Timestamp        string           `json:"timestamp,omitempty"`
	CreatedAt        int64            `json:"createdAt,omitempty"`
	DeviceID         string           `json:"deviceId,omitempty"`
	AppVersion       string           `json:"appVersion,omitempty"`
}

// GroupLabel returns the group label for group conversations only.
func (i *Interaction) GroupLabel() string {
	if i == nil || i.ConversationType != ConversationGroup {
		return ""
	}
	return i.Group
}
