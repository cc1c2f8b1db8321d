package core

import (
	"time"
)

// Flow represents the internal structure of a parsed trendwatch document.
// It contains the configuration and all processors in their execution order.
type Flow struct {
	ID        string             `json:"id" yaml:"id"`
	Name      string             `json:"name" yaml:"name"`
	Version   string             `json:"version,omitempty" yaml:"version,omitempty"`
	CreatedAt time.Time          `json:"created_at" yaml:"created_at"`
	Status    FlowStatus         `json:"status" yaml:"status"`
	Triggers  []TriggerProcessor `json:"-" yaml:"-"`
	Sources   []SourceProcessor  `json:"-" yaml:"-"`
	Quality   []QualityProcessor `json:"-" yaml:"-"`
	Outputs   []OutputProcessor  `json:"-" yaml:"-"`
}

// FlowStatus represents the current state of a flow
type FlowStatus string

const (
	FlowStatusWaiting   FlowStatus = "waiting"
	FlowStatusRunning   FlowStatus = "running"
	FlowStatusCompleted FlowStatus = "completed"
	FlowStatusFailed    FlowStatus = "failed"
)

// Run represents a single execution of a Flow
type Run struct {
	ID          string         `json:"id" yaml:"id"`
	FlowID      string         `json:"flow_id" yaml:"flow_id"`
	StartedAt   time.Time      `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Status      RunStatus      `json:"status" yaml:"status"`
	Blocks      []*RepoBlock   `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	Errors      []ProcessError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// RunStatus represents the current state of a run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)
