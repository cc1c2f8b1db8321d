package config

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/bakkerme/trendwatch/internal/core"
)

// TrendwatchDocument represents the top-level structure of a trendwatch.yaml file
type TrendwatchDocument struct {
	Workflow Workflow `yaml:"workflow"`
}

// Workflow contains the complete workflow configuration
type Workflow struct {
	Name    string          `yaml:"name"`
	Version string          `yaml:"version,omitempty"`
	Trigger []TriggerConfig `yaml:"trigger"`
	State   StateConfig     `yaml:"state,omitempty"`
	Sources []SourceConfig  `yaml:"sources"`
	Quality []QualityConfig `yaml:"quality,omitempty"`
	Output  []OutputConfig  `yaml:"output,omitempty"`
}

// TriggerConfig wraps different trigger types
type TriggerConfig struct {
	Cron *CronTrigger `yaml:"cron,omitempty"`
}

// CronTrigger defines a scheduled trigger
type CronTrigger struct {
	Schedule string `yaml:"schedule"`
	Timezone string `yaml:"timezone,omitempty"`
}

// StateConfig defines where seen-repository state is kept. Relative file
// names resolve against the state directory, never the working directory.
type StateConfig struct {
	Dir           string       `yaml:"dir,omitempty"` // overrides TRENDWATCH_STATE_DIR
	Store         string       `yaml:"store,omitempty"` // "file" (default) or "sqlite"
	HistoryFile   string       `yaml:"history_file,omitempty"`
	BlocklistFile string       `yaml:"blocklist_file,omitempty"`
	SQLite        *SQLiteState `yaml:"sqlite,omitempty"`
}

// SQLiteState configures the sqlite seen-store backend
type SQLiteState struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table,omitempty"`
	TTL   string `yaml:"ttl,omitempty"` // extended duration, e.g. "30d"
}

// ParsedTTL returns the configured retention as a duration, 0 meaning forever.
func (s *SQLiteState) ParsedTTL() (time.Duration, error) {
	if s == nil || s.TTL == "" {
		return 0, nil
	}
	return parseDurationExtended(s.TTL)
}

// SourceConfig wraps different source types
type SourceConfig struct {
	Trending *TrendingSource `yaml:"trending,omitempty"`
}

// TrendingSource defines one trending-listing source. Languages fans out to
// one listing fetch per entry; empty means the unfiltered listing.
type TrendingSource struct {
	Period         string   `yaml:"period,omitempty"` // daily, weekly, monthly
	Languages      []string `yaml:"languages,omitempty"`
	SpokenLanguage string   `yaml:"spoken_language,omitempty"`
	Limit          int      `yaml:"limit,omitempty"`
}

// QualityConfig wraps different quality processor types
type QualityConfig struct {
	QualityRule *QualityRule `yaml:"quality_rule,omitempty"`
}

// QualityRule defines rule-based quality filtering
type QualityRule struct {
	Name       string `yaml:"name"`
	Rule       string `yaml:"rule"`
	ActionType string `yaml:"actionType"`
	Result     string `yaml:"result"`
}

// OutputConfig wraps different output types
type OutputConfig struct {
	CSV   *CSVOutput   `yaml:"csv,omitempty"`
	JSON  *JSONOutput  `yaml:"json,omitempty"`
	Email *EmailOutput `yaml:"email,omitempty"`
}

// CSVOutput defines the full-metadata CSV export
type CSVOutput struct {
	Path string `yaml:"path"`
}

// JSONOutput defines the full-metadata JSON export
type JSONOutput struct {
	Path   string `yaml:"path"`
	Indent int    `yaml:"indent,omitempty"`
}

// EmailOutput defines email digest delivery configuration
type EmailOutput struct {
	To           string `yaml:"to"`
	From         string `yaml:"from,omitempty"`
	Subject      string `yaml:"subject"`
	SMTPHost     string `yaml:"smtp_host,omitempty"`
	SMTPPort     int    `yaml:"smtp_port,omitempty"`
	SMTPUser     string `yaml:"smtp_user,omitempty"`
	SMTPPassword string `yaml:"smtp_password,omitempty"`
	TLSMode      string `yaml:"tls_mode,omitempty"`
}

// ProcessorFactory constructs concrete processor implementations for a parsed document.
type ProcessorFactory interface {
	NewCronTrigger(config *CronTrigger) (core.TriggerProcessor, error)
	NewTrendingSource(config *TrendingSource) (core.SourceProcessor, error)
	NewQualityRule(config *QualityRule) (core.QualityProcessor, error)
	NewCSVOutput(config *CSVOutput) (core.OutputProcessor, error)
	NewJSONOutput(config *JSONOutput) (core.OutputProcessor, error)
	NewEmailOutput(config *EmailOutput) (core.OutputProcessor, error)
}

// Validate performs validation on the trendwatch document
func (d *TrendwatchDocument) Validate() error {
	if d.Workflow.Name == "" {
		return fmt.Errorf("workflow name is required")
	}

	if len(d.Workflow.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}

	switch d.Workflow.State.Store {
	case "", "file", "sqlite":
	default:
		return fmt.Errorf("state store must be 'file' or 'sqlite'")
	}
	if d.Workflow.State.Store == "sqlite" {
		if d.Workflow.State.SQLite == nil || d.Workflow.State.SQLite.DSN == "" {
			return fmt.Errorf("state sqlite dsn is required")
		}
		if _, err := d.Workflow.State.SQLite.ParsedTTL(); err != nil {
			return fmt.Errorf("state sqlite ttl: %w", err)
		}
	}

	for i, trigger := range d.Workflow.Trigger {
		if trigger.Cron == nil {
			return fmt.Errorf("trigger %d: unsupported trigger type", i)
		}
		if trigger.Cron.Schedule == "" {
			return fmt.Errorf("trigger %d: cron schedule is required", i)
		}
		if trigger.Cron.Timezone != "" {
			if _, err := time.LoadLocation(trigger.Cron.Timezone); err != nil {
				return fmt.Errorf("trigger %d: invalid timezone: %w", i, err)
			}
		}
	}

	for i, source := range d.Workflow.Sources {
		if source.Trending == nil {
			return fmt.Errorf("source %d: unsupported source type", i)
		}
		switch source.Trending.Period {
		case "", "daily", "weekly", "monthly":
		default:
			return fmt.Errorf("source %d: period must be daily, weekly or monthly", i)
		}
		if source.Trending.Limit < 0 {
			return fmt.Errorf("source %d: limit must be >= 0", i)
		}
	}

	for i, quality := range d.Workflow.Quality {
		if quality.QualityRule == nil {
			return fmt.Errorf("quality %d: unsupported quality type", i)
		}
		if quality.QualityRule.Name == "" || quality.QualityRule.Rule == "" {
			return fmt.Errorf("quality %d: rule name and expression are required", i)
		}
		if quality.QualityRule.ActionType != "pass_drop" {
			return fmt.Errorf("quality %d: actionType must be 'pass_drop'", i)
		}
		if quality.QualityRule.Result != "pass" && quality.QualityRule.Result != "drop" {
			return fmt.Errorf("quality %d: result must be 'pass' or 'drop'", i)
		}
	}

	for i, output := range d.Workflow.Output {
		count := 0
		if output.CSV != nil {
			count++
			if output.CSV.Path == "" {
				return fmt.Errorf("output %d: csv path is required", i)
			}
		}
		if output.JSON != nil {
			count++
			if output.JSON.Path == "" {
				return fmt.Errorf("output %d: json path is required", i)
			}
			if output.JSON.Indent < 0 {
				return fmt.Errorf("output %d: json indent must be >= 0", i)
			}
		}
		if output.Email != nil {
			count++
			if output.Email.To == "" || output.Email.Subject == "" {
				return fmt.Errorf("output %d: email to and subject are required", i)
			}
			if _, err := mail.ParseAddress(output.Email.To); err != nil {
				return fmt.Errorf("output %d: invalid to address", i)
			}
			if output.Email.From != "" { // From is optional, but if provided must be valid
				if _, err := mail.ParseAddress(output.Email.From); err != nil {
					return fmt.Errorf("output %d: invalid from address", i)
				}
			}
		}
		if count == 0 {
			return fmt.Errorf("output %d: unsupported output type", i)
		}
	}

	return nil
}

// ParseToFlowWithFactory converts the document into a core.Flow structure.
// When factory is nil, the flow is created without concrete processors, which
// is useful for validating a document in isolation.
func (d *TrendwatchDocument) ParseToFlowWithFactory(factory ProcessorFactory) (*core.Flow, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	flow := &core.Flow{
		Name:      d.Workflow.Name,
		Version:   d.Workflow.Version,
		CreatedAt: time.Now(),
		Status:    core.FlowStatusWaiting,
	}
	if flow.Version == "" {
		flow.Version = "1.0"
	}

	for _, trigger := range d.Workflow.Trigger {
		if trigger.Cron == nil {
			continue
		}
		var processor core.TriggerProcessor
		if factory != nil {
			var err error
			processor, err = factory.NewCronTrigger(trigger.Cron)
			if err != nil {
				return nil, err
			}
		}
		flow.Triggers = append(flow.Triggers, processor)
	}

	for _, source := range d.Workflow.Sources {
		if source.Trending == nil {
			continue
		}
		var processor core.SourceProcessor
		if factory != nil {
			var err error
			processor, err = factory.NewTrendingSource(source.Trending)
			if err != nil {
				return nil, err
			}
		}
		flow.Sources = append(flow.Sources, processor)
	}

	for _, quality := range d.Workflow.Quality {
		if quality.QualityRule == nil {
			continue
		}
		var processor core.QualityProcessor
		if factory != nil {
			var err error
			processor, err = factory.NewQualityRule(quality.QualityRule)
			if err != nil {
				return nil, err
			}
		}
		flow.Quality = append(flow.Quality, processor)
	}

	for _, output := range d.Workflow.Output {
		if factory == nil {
			if output.CSV != nil || output.JSON != nil || output.Email != nil {
				flow.Outputs = append(flow.Outputs, nil)
			}
			continue
		}
		if output.CSV != nil {
			processor, err := factory.NewCSVOutput(output.CSV)
			if err != nil {
				return nil, err
			}
			flow.Outputs = append(flow.Outputs, processor)
		}
		if output.JSON != nil {
			processor, err := factory.NewJSONOutput(output.JSON)
			if err != nil {
				return nil, err
			}
			flow.Outputs = append(flow.Outputs, processor)
		}
		if output.Email != nil {
			processor, err := factory.NewEmailOutput(output.Email)
			if err != nil {
				return nil, err
			}
			flow.Outputs = append(flow.Outputs, processor)
		}
	}

	return flow, nil
}
