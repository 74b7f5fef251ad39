package monitor

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"sentinel/internal/whitelist"
	"sentinel/pkg/models"
)

// Evaluate returns the alert for an interaction, or nil when every
// participant is whitelisted for the user.
func Evaluate(interaction *models.Interaction, user *models.User, selfRefs []string, now time.Time) *models.Alert {
	if interaction == nil || user == nil {
		return nil
	}
	res := whitelist.Evaluate(interaction.Participants, user.Whitelist, selfRefs)
	if !res.Alerting() {
		return nil
	}

	return &models.Alert{
		AlertID:          newAlertID(interaction.ID),
		AlertType:        models.AlertTypeNonWhitelisted,
		UserID:           user.ID,
		InteractionID:    interaction.ID,
		ConversationType: interaction.ConversationType,
		Group:            interaction.GroupLabel(),
		NonWhitelisted:   res.NonWhitelisted,
		Participants:     res.Participants,
		Whitelist:        append([]string{}, user.Whitelist...),
		Sample:           append([]string(nil), interaction.Sample...),
		CreatedAt:        now.UTC(),
	}
}

func newAlertID(interactionID string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return interactionID + "-" + time.Now().Format("20060102150405")
	}
	return interactionID + "-" + hex.EncodeToString(buf)
}
