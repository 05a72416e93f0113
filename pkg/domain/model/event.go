package model

import "time"

// InstanceState represents an EC2 instance lifecycle state carried by a
// state-change notification
type InstanceState string

const (
	StateRunning      InstanceState = "running"
	StateShuttingDown InstanceState = "shutting-down"
	StateStopping     InstanceState = "stopping"
)

// StateChangeEvent represents an EC2 Instance State-change Notification
// delivered through EventBridge
type StateChangeEvent struct {
	Account    string
	Region     string
	InstanceID string
	State      InstanceState
	ReceivedAt time.Time
}

// StateChangeDetail is the detail payload of an EC2 state-change
// notification
type StateChangeDetail struct {
	InstanceID string `json:"instance-id"`
	State      string `json:"state"`
}

// Actionable reports whether the event's state requires record changes.
// Running instances get registered, instances on the way down get
// unregistered, anything else is ignored.
func (e *StateChangeEvent) Actionable() bool {
	switch e.State {
	case StateRunning, StateShuttingDown, StateStopping:
		return true
	default:
		return false
	}
}

// Deregistering reports whether the event indicates the instance is going
// away and its records should be removed
func (e *StateChangeEvent) Deregistering() bool {
	return e.State == StateShuttingDown || e.State == StateStopping
}
