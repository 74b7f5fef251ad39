package change

import (
	"encoding/json"
	"fmt"
	"strings"

	"sentinel/pkg/models"
)

// Parse decodes a change-event payload. Two shapes are accepted:
//
//	{"user_id": "...", "interaction_id": "...", "after": {...} | null}
//	{"params": {"userId": "...", "interactionId": "..."}, "data": {"after": {...} | null}}
func Parse(data []byte) (*models.ChangeEvent, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	ev := &models.ChangeEvent{
		UserID:        getString(raw, "user_id", "params.userId", "params.user_id"),
		InteractionID: getString(raw, "interaction_id", "params.interactionId", "params.interaction_id"),
	}
	if ev.UserID == "" || ev.InteractionID == "" {
		return nil, fmt.Errorf("change event missing user or interaction id")
	}

	for _, path := range []string{"after", "data.after"} {
		v, ok := getPath(raw, path)
		if !ok {
			continue
		}
		if doc, ok := v.(map[string]interface{}); ok {
			ev.After = decodeInteraction(doc)
		}
		break
	}
	if ev.After != nil {
		ev.After.ID = ev.InteractionID
		ev.After.UserID = ev.UserID
	}
	return ev, nil
}

// Encode renders a change event in the flat shape.
func Encode(ev *models.ChangeEvent) ([]byte, error) {
	return json.Marshal(ev)
}

func decodeInteraction(doc map[string]interface{}) *models.Interaction {
	return &models.Interaction{
		ConversationType: models.ParseConversationType(getString(doc, "conversationType")),
		Participants:     getString(doc, "participants"),
		Group:            getString(doc, "group"),
		Sample:           getStrings(doc, "sample"),
		Timestamp:        getString(doc, "timestamp"),
		CreatedAt:        getInt64(doc, "createdAt"),
		DeviceID:         getString(doc, "deviceId"),
		AppVersion:       getString(doc, "appVersion"),
	}
}

func stringify(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case fmt.Stringer:
		return val.String(), true
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val)), true
		}
		return fmt.Sprintf("%f", val), true
	case bool:
		if val {
			return "true", true
		}
		return "false", true
	}
	return "", false
}

func getString(root map[string]interface{}, paths ...string) string {
	for _, path := range paths {
		if v, ok := getPath(root, path); ok {
			if s, ok := stringify(v); ok {
				return s
			}
		}
	}
	return ""
}

func getStrings(root map[string]interface{}, path string) []string {
	v, ok := getPath(root, path)
	if !ok {
		return nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := stringify(item); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func getInt64(root map[string]interface{}, path string) int64 {
	v, ok := getPath(root, path)
	if !ok {
		return 0
	}
	switch val := v.(type) {
	case float64:
		return int64(val)
	case string:
		var parsed int64
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return 0
}

func getPath(root map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var current interface{} = root
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, ok := m[part]
		if !ok {
			return nil, false
		}
		current = v
	}
	return current, true
}
