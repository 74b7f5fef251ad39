package models

// ChangeEvent is one write notification for an interaction record. After is
// nil when the record was deleted.
type ChangeEvent struct {
	UserID        string       `json:"user_id"`
	InteractionID string       `json:"interaction_id"`
	After         *Interaction `json:"after"`
}
