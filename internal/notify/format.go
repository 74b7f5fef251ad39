package notify

import (
	"fmt"
	"strings"
	"time"

	"sentinel/pkg/models"
)

// DefaultMaxSamples bounds the sample preview in a notification.
const DefaultMaxSamples = 5

// Format renders an alert as a plain-text operator message. At most
// maxSamples sample lines are enumerated; the rest are counted.
func Format(alert *models.Alert, maxSamples int) string {
	if maxSamples < 0 {
		maxSamples = 0
	}

	var b strings.Builder
	b.WriteString("Security alert: non-whitelisted participant\n")
	fmt.Fprintf(&b, "Time: %s\n", alert.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Interaction: %s\n", alert.InteractionID)

	kind := alert.ConversationType.String()
	if kind == "" {
		kind = "unknown"
	}
	fmt.Fprintf(&b, "Conversation: %s\n", kind)
	if alert.ConversationType == models.ConversationGroup && alert.Group != "" {
		fmt.Fprintf(&b, "Group: %s\n", alert.Group)
	}

	b.WriteString("\nNot whitelisted:\n")
	for _, name := range alert.NonWhitelisted {
		fmt.Fprintf(&b, "  - %s\n", name)
	}
	b.WriteString("\nParticipants:\n")
	for _, name := range alert.Participants {
		fmt.Fprintf(&b, "  - %s\n", name)
	}

	if len(alert.RuleTags) > 0 {
		b.WriteString("\nMatched rules:\n")
		for _, tag := range alert.RuleTags {
			fmt.Fprintf(&b, "  - [%s] %s\n", tag.Severity, tag.Name)
		}
	}

	if len(alert.Sample) > 0 {
		b.WriteString("\nSample:\n")
		shown := alert.Sample
		if len(shown) > maxSamples {
			shown = shown[:maxSamples]
		}
		for _, line := range shown {
			fmt.Fprintf(&b, "  > %s\n", line)
		}
		if rest := len(alert.Sample) - len(shown); rest > 0 {
			fmt.Fprintf(&b, "  ... and %d more\n", rest)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
