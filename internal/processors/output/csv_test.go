package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bakkerme/trendwatch/internal/config"
	"github.com/bakkerme/trendwatch/internal/core"
)

func sampleBlocks() []*core.RepoBlock {
	fetched := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []*core.RepoBlock{
		{
			URL:         "https://github.com/mozilla/pdf.js",
			Developer:   "mozilla",
			Name:        "pdf.js",
			Description: "PDF Reader in JavaScript",
			Language:    "JavaScript",
			Stars:       12345,
			StarsToday:  321,
			Forks:       2100,
			Period:      "daily",
			FetchedAt:   fetched,
		},
		{
			URL:       "https://github.com/golang/go",
			Developer: "golang",
			Name:      "go",
			Period:    "daily",
			FetchedAt: fetched,
		},
	}
}

func TestCSVProcessorWritesSnapshot(t *testing.T) {
	dir := t.TempDir()
	processor, err := NewCSVProcessor(&config.CSVOutput{Path: "export.csv"}, dir)
	if err != nil {
		t.Fatalf("failed to init csv processor: %v", err)
	}

	if err := processor.Deliver(context.Background(), sampleBlocks()); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "export.csv"))
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if !bytes.HasPrefix(data, utf8BOM) {
		t.Fatal("expected csv export to start with BOM")
	}

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse export: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}
	if records[0][0] != "developer" || records[0][2] != "url" {
		t.Errorf("unexpected header %v", records[0])
	}
	if records[1][2] != "https://github.com/mozilla/pdf.js" {
		t.Errorf("unexpected first row url %q", records[1][2])
	}
	if records[1][9] != "2025-06-01T12:00:00Z" {
		t.Errorf("unexpected fetched_at %q", records[1][9])
	}
}

func TestCSVProcessorRewritesSnapshotEachDelivery(t *testing.T) {
	dir := t.TempDir()
	processor, err := NewCSVProcessor(&config.CSVOutput{Path: "export.csv"}, dir)
	if err != nil {
		t.Fatalf("failed to init csv processor: %v", err)
	}

	blocks := sampleBlocks()
	if err := processor.Deliver(context.Background(), blocks); err != nil {
		t.Fatalf("first deliver failed: %v", err)
	}
	if err := processor.Deliver(context.Background(), blocks[:1]); err != nil {
		t.Fatalf("second deliver failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "export.csv"))
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse export: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected rewritten snapshot with header plus 1 row, got %d records", len(records))
	}
}

func TestCSVProcessorSkipsEmptyDelivery(t *testing.T) {
	dir := t.TempDir()
	processor, err := NewCSVProcessor(&config.CSVOutput{Path: "export.csv"}, dir)
	if err != nil {
		t.Fatalf("failed to init csv processor: %v", err)
	}

	if err := processor.Deliver(context.Background(), nil); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "export.csv")); !os.IsNotExist(err) {
		t.Fatal("expected no file for an empty delivery")
	}
}

func TestResolvePath(t *testing.T) {
	if got := resolvePath("/state", "export.csv"); got != filepath.Join("/state", "export.csv") {
		t.Errorf("unexpected resolved path %q", got)
	}
	if got := resolvePath("/state", "/tmp/export.csv"); got != "/tmp/export.csv" {
		t.Errorf("absolute path should be untouched, got %q", got)
	}
}
