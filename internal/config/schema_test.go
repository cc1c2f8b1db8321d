package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParseExampleWorkflow(t *testing.T) {
	data := []byte(`
workflow:
  name: "GitHub Trending"
  trigger:
    - cron:
        schedule: "0 9 * * *"
        timezone: "UTC"
  state:
    dir: "/var/lib/trendwatch"
    history_file: "trending_urls.csv"
    blocklist_file: "blocklist.csv"
  sources:
    - trending:
        period: daily
        languages: ["go", "rust"]
        limit: 25
  quality:
    - quality_rule:
        name: "min-stars"
        rule: "stars_today >= 50"
        actionType: "pass_drop"
        result: "pass"
  output:
    - csv:
        path: "export.csv"
    - email:
        to: "dev@example.com"
        from: "trendwatch@example.com"
        subject: "Daily trending digest"
`)

	var doc TrendwatchDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Failed to unmarshal YAML: %v", err)
	}
	if err := doc.Validate(); err != nil {
		t.Fatalf("Document validation failed: %v", err)
	}
	flow, err := doc.ParseToFlowWithFactory(nil)
	if err != nil {
		t.Fatalf("Failed to parse document: %v", err)
	}

	if flow.Name != "GitHub Trending" {
		t.Errorf("unexpected flow name %q", flow.Name)
	}
	if len(flow.Triggers) != 1 {
		t.Errorf("expected 1 trigger, got %d", len(flow.Triggers))
	}
	if len(flow.Sources) != 1 {
		t.Errorf("expected 1 source, got %d", len(flow.Sources))
	}
	if len(flow.Quality) != 1 {
		t.Errorf("expected 1 quality processor, got %d", len(flow.Quality))
	}
	if len(flow.Outputs) != 2 {
		t.Errorf("expected 2 outputs, got %d", len(flow.Outputs))
	}

	source := doc.Workflow.Sources[0].Trending
	if source == nil {
		t.Fatal("expected trending source config")
	}
	if len(source.Languages) != 2 || source.Limit != 25 {
		t.Errorf("unexpected source config %+v", source)
	}
}

func TestValidateRejectsMissingName(t *testing.T) {
	doc := TrendwatchDocument{
		Workflow: Workflow{
			Sources: []SourceConfig{{Trending: &TrendingSource{}}},
		},
	}
	if err := doc.Validate(); err == nil {
		t.Fatal("expected an error for a missing workflow name")
	}
}

func TestValidateRejectsMissingSources(t *testing.T) {
	doc := TrendwatchDocument{Workflow: Workflow{Name: "x"}}
	if err := doc.Validate(); err == nil {
		t.Fatal("expected an error for a workflow without sources")
	}
}

func TestValidateRejectsInvalidPeriod(t *testing.T) {
	doc := TrendwatchDocument{
		Workflow: Workflow{
			Name:    "x",
			Sources: []SourceConfig{{Trending: &TrendingSource{Period: "hourly"}}},
		},
	}
	if err := doc.Validate(); err == nil {
		t.Fatal("expected an error for an invalid period")
	}
}

func TestValidateRejectsSQLiteWithoutDSN(t *testing.T) {
	doc := TrendwatchDocument{
		Workflow: Workflow{
			Name:    "x",
			State:   StateConfig{Store: "sqlite"},
			Sources: []SourceConfig{{Trending: &TrendingSource{}}},
		},
	}
	if err := doc.Validate(); err == nil {
		t.Fatal("expected an error for sqlite state without a dsn")
	}
}

func TestValidateRejectsInvalidEmailAddress(t *testing.T) {
	doc := TrendwatchDocument{
		Workflow: Workflow{
			Name:    "x",
			Sources: []SourceConfig{{Trending: &TrendingSource{}}},
			Output: []OutputConfig{
				{Email: &EmailOutput{To: "not-an-address", Subject: "digest"}},
			},
		},
	}
	if err := doc.Validate(); err == nil {
		t.Fatal("expected an error for an invalid to address")
	}
}

func TestValidateRejectsBadQualityResult(t *testing.T) {
	doc := TrendwatchDocument{
		Workflow: Workflow{
			Name:    "x",
			Sources: []SourceConfig{{Trending: &TrendingSource{}}},
			Quality: []QualityConfig{
				{QualityRule: &QualityRule{Name: "r", Rule: "stars > 1", ActionType: "pass_drop", Result: "keep"}},
			},
		},
	}
	if err := doc.Validate(); err == nil {
		t.Fatal("expected an error for an unknown quality result")
	}
}

func TestSQLiteStateParsedTTL(t *testing.T) {
	state := &SQLiteState{TTL: "30d"}
	ttl, err := state.ParsedTTL()
	if err != nil {
		t.Fatalf("ParsedTTL failed: %v", err)
	}
	if ttl != 30*24*time.Hour {
		t.Errorf("unexpected ttl %v", ttl)
	}

	var nilState *SQLiteState
	ttl, err = nilState.ParsedTTL()
	if err != nil || ttl != 0 {
		t.Errorf("expected nil state to mean no ttl, got %v / %v", ttl, err)
	}
}
