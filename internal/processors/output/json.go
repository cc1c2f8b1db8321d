package output

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/bakkerme/trendwatch/internal/config"
	"github.com/bakkerme/trendwatch/internal/core"
)

// JSONProcessor writes the delivered blocks to a pretty-printed JSON file,
// rewritten every delivery.
type JSONProcessor struct {
	name    string
	config  config.JSONOutput
	baseDir string
}

func NewJSONProcessor(cfg *config.JSONOutput, baseDir string) (*JSONProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("json output config is required")
	}
	return &JSONProcessor{
		name:    "json",
		config:  *cfg,
		baseDir: baseDir,
	}, nil
}

func (p *JSONProcessor) Name() string {
	return p.name
}

func (p *JSONProcessor) Validate() error {
	if p.config.Path == "" {
		return fmt.Errorf("json output path is required")
	}
	return nil
}

func (p *JSONProcessor) Deliver(ctx context.Context, blocks []*core.RepoBlock) error {
	if err := p.Validate(); err != nil {
		return err
	}
	logger := core.LoggerFromContext(ctx)
	if len(blocks) == 0 {
		logger.Info("json output: nothing to export")
		return nil
	}

	indent := p.config.Indent
	if indent <= 0 {
		indent = 4
	}
	data, err := json.MarshalIndent(blocks, "", strings.Repeat(" ", indent))
	if err != nil {
		return fmt.Errorf("marshal blocks: %w", err)
	}
	data = append(data, '\n')

	path := resolvePath(p.baseDir, p.config.Path)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	logger.Info("json export written", "path", path, "rows", len(blocks))
	return nil
}
