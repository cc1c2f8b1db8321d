package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bakkerme/trendwatch/internal/core"
)

const tracerName = "github.com/bakkerme/trendwatch/internal/runner"

type Config struct {
	// AllowPartialSourceErrors keeps the run alive when one source fails,
	// as long as at least one source succeeds.
	AllowPartialSourceErrors bool
}

type Runner struct {
	logger *slog.Logger
	config Config
}

func New(logger *slog.Logger) *Runner {
	return NewWithConfig(logger, Config{})
}

func NewWithConfig(logger *slog.Logger, config Config) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger, config: config}
}

// Start begins every trigger in the flow and runs the pipeline on each
// trigger event until the context is cancelled.
func (r *Runner) Start(ctx context.Context, flow *core.Flow) error {
	if flow == nil {
		return fmt.Errorf("flow is required")
	}
	for _, trigger := range flow.Triggers {
		if trigger == nil {
			continue
		}
		events, err := trigger.Start(ctx, flow.ID)
		if err != nil {
			return err
		}
		go r.listen(ctx, flow, events)
	}
	return nil
}

// RunOnce executes one full pass of the flow: sources, quality, outputs,
// strictly in sequence. Output failures are logged and recorded on the run
// but do not abort delivery to the remaining outputs.
func (r *Runner) RunOnce(ctx context.Context, flow *core.Flow) (*core.Run, error) {
	if flow == nil {
		return nil, fmt.Errorf("flow is required")
	}
	run := &core.Run{
		ID:        fmt.Sprintf("run-%d", time.Now().UnixNano()),
		FlowID:    flow.ID,
		StartedAt: time.Now().UTC(),
		Status:    core.RunStatusRunning,
	}

	logger := r.logger.With("flow_id", flow.ID, "run_id", run.ID)
	ctx = core.WithLogger(ctx, logger)
	ctx = core.WithFlowID(ctx, flow.ID)
	ctx = core.WithRunID(ctx, run.ID)

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.String("flow.id", flow.ID),
		attribute.String("run.id", run.ID),
	))
	defer span.End()

	blocks := []*core.RepoBlock{}
	sourcesSucceeded := 0
	for _, source := range flow.Sources {
		if source == nil {
			continue
		}
		sourceCtx, sourceSpan := tracer.Start(ctx, "source."+source.Name())
		fetched, err := source.Fetch(sourceCtx)
		sourceSpan.End()
		if err != nil {
			if r.config.AllowPartialSourceErrors {
				logger.Error("source failed, continuing", "source", source.Name(), "error", err)
				run.Errors = append(run.Errors, core.ProcessError{
					ProcessorName: source.Name(),
					Stage:         "source",
					Error:         err.Error(),
					OccurredAt:    time.Now().UTC(),
				})
				continue
			}
			run.Status = core.RunStatusFailed
			return run, err
		}
		sourcesSucceeded++
		blocks = append(blocks, fetched...)
	}
	if len(flow.Sources) > 0 && sourcesSucceeded == 0 && r.config.AllowPartialSourceErrors {
		run.Status = core.RunStatusFailed
		return run, fmt.Errorf("all sources failed")
	}

	for _, processor := range flow.Quality {
		if processor == nil {
			continue
		}
		next, err := processor.Evaluate(ctx, blocks)
		if err != nil {
			run.Status = core.RunStatusFailed
			return run, err
		}
		blocks = next
	}

	for _, output := range flow.Outputs {
		if output == nil {
			continue
		}
		outputCtx, outputSpan := tracer.Start(ctx, "output."+output.Name())
		err := output.Deliver(outputCtx, blocks)
		outputSpan.End()
		if err != nil {
			// One broken output should not cost the others their delivery.
			logger.Error("output delivery failed", "output", output.Name(), "error", err)
			run.Errors = append(run.Errors, core.ProcessError{
				ProcessorName: output.Name(),
				Stage:         "output",
				Error:         err.Error(),
				OccurredAt:    time.Now().UTC(),
			})
		}
	}

	completedAt := time.Now().UTC()
	run.CompletedAt = &completedAt
	run.Status = core.RunStatusCompleted
	run.Blocks = blocks
	return run, nil
}

func (r *Runner) listen(ctx context.Context, flow *core.Flow, events <-chan core.TriggerEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			r.logger.Info("trigger event", "flow_id", event.FlowID, "time", event.Timestamp)
			if _, err := r.RunOnce(ctx, flow); err != nil {
				r.logger.Error("flow run failed", "error", err)
			}
		}
	}
}
