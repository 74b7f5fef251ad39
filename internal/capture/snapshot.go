// Package capture turns on-device conversation screen snapshots into
// interaction records and publishes them to the monitor's change feed.
package capture

import (
	"strings"
	"time"

	"sentinel/pkg/models"
)

// DefaultTargetPackage is the messaging app package watched by the agent.
const DefaultTargetPackage = "com.whatsapp"

// TimestampLayout is the display layout of Interaction.Timestamp.
const TimestampLayout = "02/01/2006 15:04"

const conversationActivity = "com.whatsapp.Conversation"

// Snapshot is the text extracted from one conversation screen.
type Snapshot struct {
	Package       string   `json:"package"`
	ActivityClass string   `json:"activityClass"`
	Texts         []string `json:"texts"`
	Individual    bool     `json:"individual"`
	DeviceID      string   `json:"deviceId,omitempty"`
	AppVersion    string   `json:"appVersion,omitempty"`
}

// IsConversationScreen reports whether a window change belongs to a
// conversation screen of the target package.
func IsConversationScreen(pkg, activityClass, targetPackage string) bool {
	if targetPackage == "" {
		targetPackage = DefaultTargetPackage
	}
	return pkg == targetPackage && strings.Contains(activityClass, conversationActivity)
}

// Build maps snapshot texts onto an interaction record. Individual chats
// carry the participant first; group chats carry the group label and then
// the participant list. Everything after that is sample text.
func Build(s Snapshot, now time.Time) *models.Interaction {
	texts := make([]string, 0, len(s.Texts))
	for _, t := range s.Texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		texts = append(texts, t)
	}

	rec := &models.Interaction{
		Timestamp:  now.Format(TimestampLayout),
		CreatedAt:  now.UnixMilli(),
		DeviceID:   s.DeviceID,
		AppVersion: s.AppVersion,
	}

	if s.Individual {
		rec.ConversationType = models.ConversationIndividual
		if len(texts) > 0 {
			rec.Participants = texts[0]
			rec.Sample = tail(texts, 1)
		}
		return rec
	}

	rec.ConversationType = models.ConversationGroup
	if len(texts) > 0 {
		rec.Group = texts[0]
	}
	if len(texts) > 1 {
		rec.Participants = texts[1]
		rec.Sample = tail(texts, 2)
	}
	return rec
}

func tail(v []string, from int) []string {
	if len(v) <= from {
		return nil
	}
	return append([]string(nil), v[from:]...)
}
