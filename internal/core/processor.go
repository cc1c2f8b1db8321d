package core

import (
	"context"
	"time"
)

type ProcessorType string

var TriggerProcessorType ProcessorType = "trigger_processor"
var SourceProcessorType ProcessorType = "source_processor"
var QualityProcessorType ProcessorType = "quality_processor"
var OutputProcessorType ProcessorType = "output_processor"

// Processor is the base interface that all processors must implement
type Processor interface {
	// Name returns the processor name
	Name() string
	// Validate checks if the processor configuration is valid
	Validate() error
}

// TriggerEvent represents a trigger firing
type TriggerEvent struct {
	FlowID    string
	Timestamp time.Time
}

// TriggerProcessor defines when processing runs
type TriggerProcessor interface {
	Processor
	// Start begins the trigger and returns a channel of trigger events.
	// The processor manages its own lifecycle and sends events when triggered.
	Start(ctx context.Context, flowID string) (<-chan TriggerEvent, error)
	// Stop gracefully shuts down the trigger
	Stop() error
}

// SourceProcessor fetches and ingests data, creating blocks. Implementations
// are responsible for emitting only blocks whose identifier has not been seen
// before, either in prior runs or earlier in the same fetch.
type SourceProcessor interface {
	Processor
	// Fetch retrieves data from the source and creates blocks
	Fetch(ctx context.Context) ([]*RepoBlock, error)
}

// QualityProcessor filters and evaluates content
type QualityProcessor interface {
	Processor
	// Evaluate processes blocks and determines quality.
	// Returns the surviving blocks with Quality populated.
	Evaluate(ctx context.Context, blocks []*RepoBlock) ([]*RepoBlock, error)
}

// OutputProcessor delivers results
type OutputProcessor interface {
	Processor
	// Deliver sends the processed blocks to the configured output
	Deliver(ctx context.Context, blocks []*RepoBlock) error
}
