package rules

import "sentinel/pkg/models"

// Engine applies content rules to interactions.
type Engine interface {
	Apply(interaction *models.Interaction) []models.RuleTag
}

// NoopEngine returns no tags.
type NoopEngine struct{}

// Apply returns an empty tag list.
func (n *NoopEngine) Apply(interaction *models.Interaction) []models.RuleTag {
	return nil
}
