package core

import "time"

// RepoBlock contains the data and metadata of one trending repository as it
// flows through the pipeline. URL is the canonical identifier: two blocks refer
// to the same repository iff their URLs are byte-identical.
type RepoBlock struct {
	FlowID      string         `json:"flow_id" yaml:"flow_id"`
	URL         string         `json:"url" yaml:"url"`
	Developer   string         `json:"developer" yaml:"developer"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Language    string         `json:"language" yaml:"language"`
	Stars       int            `json:"stars" yaml:"stars"`
	StarsToday  int            `json:"stars_today" yaml:"stars_today"`
	Forks       int            `json:"forks" yaml:"forks"`
	Period      string         `json:"period,omitempty" yaml:"period,omitempty"`
	FetchedAt   time.Time      `json:"fetched_at" yaml:"fetched_at"`
	Quality     *QualityResult `json:"quality,omitempty" yaml:"quality,omitempty"`
	Errors      []ProcessError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// FullName returns the "developer/name" form, or just the name when the
// developer segment is unknown.
func (b *RepoBlock) FullName() string {
	if b.Developer == "" {
		return b.Name
	}
	return b.Developer + "/" + b.Name
}

// QualityResult represents the output of quality assessment processors
type QualityResult struct {
	ProcessorName string    `json:"processor_name" yaml:"processor_name"`
	Result        string    `json:"result" yaml:"result"` // "pass", "drop"
	Reason        string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	ProcessedAt   time.Time `json:"processed_at" yaml:"processed_at"`
}

// ProcessError tracks errors that occur during processing
type ProcessError struct {
	ProcessorName string    `json:"processor_name" yaml:"processor_name"`
	Stage         string    `json:"stage" yaml:"stage"` // "trigger", "source", "quality", "output"
	Error         string    `json:"error" yaml:"error"`
	OccurredAt    time.Time `json:"occurred_at" yaml:"occurred_at"`
}
