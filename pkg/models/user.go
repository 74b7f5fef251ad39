package models

// User is the owning operator record read by the monitor.
type User struct {
	ID        string   `json:"id" yaml:"id"`
	Whitelist []string `json:"whitelist" yaml:"whitelist"`
	NotifyTo  string   `json:"notifyTo,omitempty" yaml:"notify_to"`
}
