package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bakkerme/trendwatch/internal/config"
	"github.com/bakkerme/trendwatch/internal/dedupe"
	"github.com/bakkerme/trendwatch/internal/observability/otelx"
	"github.com/bakkerme/trendwatch/internal/runner"
	"github.com/bakkerme/trendwatch/internal/runner/factory"
)

func main() {
	env := config.LoadEnv()

	configPath := flag.String("config", env.ConfigPath, "path to trendwatch document")
	flowID := flag.String("flow-id", env.FlowID, "flow identifier")
	runOnce := flag.Bool("run-once", env.RunOnce, "run once and exit")
	allowPartial := flag.Bool("allow-partial", env.AllowPartialSourceErrors, "continue if a source fails")
	blockURL := flag.String("block", "", "add a repository url to the blocklist and exit")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))

	doc, err := loadDocument(*configPath)
	if err != nil {
		log.Fatalf("failed to load document: %v", err)
	}

	stateDir := doc.Workflow.State.Dir
	if stateDir == "" {
		stateDir = env.StateDir
	}

	if *blockURL != "" {
		if err := blockRepository(logger, doc.Workflow.State, stateDir, *blockURL); err != nil {
			log.Fatalf("failed to blocklist url: %v", err)
		}
		return
	}

	store, err := newSeenStore(logger, doc.Workflow.State, stateDir)
	if err != nil {
		log.Fatalf("failed to open seen store: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := otelx.Init(ctx, logger, env.OTel)
	if err != nil {
		log.Fatalf("failed to initialize otel: %v", err)
	}
	if otelShutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	procFactory := factory.NewFromEnvConfig(logger, env, store)
	procFactory.StateDir = stateDir
	flow, err := doc.ParseToFlowWithFactory(procFactory)
	if err != nil {
		log.Fatalf("failed to parse flow: %v", err)
	}
	flow.ID = *flowID

	flowRunner := runner.NewWithConfig(logger, runner.Config{AllowPartialSourceErrors: *allowPartial})

	if *runOnce {
		if _, err := flowRunner.RunOnce(ctx, flow); err != nil {
			log.Fatalf("run failed: %v", err)
		}
		return
	}

	if err := flowRunner.Start(ctx, flow); err != nil {
		log.Fatalf("failed to start runner: %v", err)
	}

	<-ctx.Done()
	time.Sleep(200 * time.Millisecond)
}

func loadDocument(path string) (*config.TrendwatchDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc config.TrendwatchDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse trendwatch document: %w", err)
	}
	return &doc, nil
}

// newSeenStore builds the configured seen-store backend. The file store is
// the default; sqlite is opt-in per document.
func newSeenStore(logger *slog.Logger, state config.StateConfig, stateDir string) (dedupe.SeenStore, error) {
	if state.Store == "sqlite" {
		ttl, err := state.SQLite.ParsedTTL()
		if err != nil {
			return nil, err
		}
		return dedupe.NewSQLiteStore(state.SQLite.DSN, state.SQLite.Table, ttl)
	}
	return dedupe.NewFileStore(stateDir, state.HistoryFile, state.BlocklistFile, logger)
}

// blockRepository suppresses one repository url from all future runs. With
// the file store this appends to the blocklist file; with sqlite it marks
// the url seen directly.
func blockRepository(logger *slog.Logger, state config.StateConfig, stateDir, url string) error {
	ctx := context.Background()
	if state.Store == "sqlite" {
		ttl, err := state.SQLite.ParsedTTL()
		if err != nil {
			return err
		}
		store, err := dedupe.NewSQLiteStore(state.SQLite.DSN, state.SQLite.Table, ttl)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.MarkSeen(ctx, url); err != nil {
			return err
		}
		logger.Info("url marked seen in sqlite store", "url", url)
		return nil
	}

	store, err := dedupe.NewFileStore(stateDir, state.HistoryFile, state.BlocklistFile, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Block(ctx, url)
}
