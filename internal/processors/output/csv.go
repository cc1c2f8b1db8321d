package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bakkerme/trendwatch/internal/config"
	"github.com/bakkerme/trendwatch/internal/core"
)

// utf8BOM prefixes the CSV export so spreadsheet tools detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{
	"developer", "name", "url", "description", "language",
	"stars", "stars_today", "forks", "period", "fetched_at",
}

// CSVProcessor writes the full metadata of each delivered block to a CSV
// file. The file is a snapshot of the current run and is rewritten every
// delivery; the durable cross-run record is the seen-store history file.
type CSVProcessor struct {
	name    string
	config  config.CSVOutput
	baseDir string
}

func NewCSVProcessor(cfg *config.CSVOutput, baseDir string) (*CSVProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("csv output config is required")
	}
	return &CSVProcessor{
		name:    "csv",
		config:  *cfg,
		baseDir: baseDir,
	}, nil
}

func (p *CSVProcessor) Name() string {
	return p.name
}

func (p *CSVProcessor) Validate() error {
	if p.config.Path == "" {
		return fmt.Errorf("csv output path is required")
	}
	return nil
}

func (p *CSVProcessor) Deliver(ctx context.Context, blocks []*core.RepoBlock) error {
	if err := p.Validate(); err != nil {
		return err
	}
	logger := core.LoggerFromContext(ctx)
	if len(blocks) == 0 {
		logger.Info("csv output: nothing to export")
		return nil
	}

	path := resolvePath(p.baseDir, p.config.Path)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(utf8BOM); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	for _, block := range blocks {
		record := []string{
			block.Developer,
			block.Name,
			block.URL,
			block.Description,
			block.Language,
			strconv.Itoa(block.Stars),
			strconv.Itoa(block.StarsToday),
			strconv.Itoa(block.Forks),
			block.Period,
			block.FetchedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			_ = f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	logger.Info("csv export written", "path", path, "rows", len(blocks))
	return nil
}

// resolvePath anchors relative output paths to the fixed base directory so
// exports land in the same place regardless of invocation context.
func resolvePath(baseDir, path string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}
