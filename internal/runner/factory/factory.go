package factory

import (
	"log/slog"

	"github.com/bakkerme/trendwatch/internal/config"
	"github.com/bakkerme/trendwatch/internal/core"
	"github.com/bakkerme/trendwatch/internal/dedupe"
	"github.com/bakkerme/trendwatch/internal/outputs/email"
	"github.com/bakkerme/trendwatch/internal/outputs/email/smtp"
	"github.com/bakkerme/trendwatch/internal/processors/output"
	"github.com/bakkerme/trendwatch/internal/processors/quality"
	"github.com/bakkerme/trendwatch/internal/processors/source"
	"github.com/bakkerme/trendwatch/internal/processors/trigger"
	"github.com/bakkerme/trendwatch/internal/sources/trending"
	trendingimpl "github.com/bakkerme/trendwatch/internal/sources/trending/impl"
)

type Factory struct {
	Logger          *slog.Logger
	SeenStore       dedupe.SeenStore
	TrendingFetcher trending.Fetcher
	SMTPDefaults    config.SMTPEnvConfig
	StateDir        string
	EmailSender     email.Sender
}

func NewFromEnvConfig(logger *slog.Logger, env config.EnvConfig, store dedupe.SeenStore) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		Logger:          logger,
		SeenStore:       store,
		TrendingFetcher: trendingimpl.NewFetcher(env.Trending.HTTPTimeout, env.Trending.BaseURL, env.Trending.UserAgent, env.Trending.AcceptLanguage),
		SMTPDefaults:    env.SMTP,
		StateDir:        env.StateDir,
		// Leave EmailSender nil so the output processor can build it from
		// the merged YAML config + env defaults.
		EmailSender: nil,
	}
}

func (f *Factory) NewCronTrigger(cfg *config.CronTrigger) (core.TriggerProcessor, error) {
	return trigger.NewCronProcessor(cfg.Schedule, cfg.Timezone), nil
}

func (f *Factory) NewTrendingSource(cfg *config.TrendingSource) (core.SourceProcessor, error) {
	return source.NewTrendingProcessor(cfg, f.TrendingFetcher, f.SeenStore)
}

func (f *Factory) NewQualityRule(cfg *config.QualityRule) (core.QualityProcessor, error) {
	return quality.NewRuleProcessor(cfg)
}

func (f *Factory) NewCSVOutput(cfg *config.CSVOutput) (core.OutputProcessor, error) {
	return output.NewCSVProcessor(cfg, f.StateDir)
}

func (f *Factory) NewJSONOutput(cfg *config.JSONOutput) (core.OutputProcessor, error) {
	return output.NewJSONProcessor(cfg, f.StateDir)
}

func (f *Factory) NewEmailOutput(cfg *config.EmailOutput) (core.OutputProcessor, error) {
	merged := f.mergeEmailConfig(cfg)
	sender := f.EmailSender
	if sender == nil {
		if err := smtp.ValidateConfig(merged.SMTPHost, merged.SMTPPort); err != nil {
			return nil, err
		}
		sender = smtp.NewSender(
			merged.SMTPHost,
			merged.SMTPPort,
			merged.SMTPUser,
			merged.SMTPPassword,
			merged.TLSMode,
			f.SMTPDefaults.InsecureSkipVerify,
		)
	}
	return output.NewEmailProcessor(merged, sender)
}

// mergeEmailConfig fills per-flow config gaps from the env SMTP defaults.
func (f *Factory) mergeEmailConfig(cfg *config.EmailOutput) *config.EmailOutput {
	merged := *cfg
	if merged.SMTPHost == "" {
		merged.SMTPHost = f.SMTPDefaults.Host
	}
	if merged.SMTPPort == 0 {
		merged.SMTPPort = f.SMTPDefaults.Port
	}
	if merged.SMTPUser == "" {
		merged.SMTPUser = f.SMTPDefaults.User
	}
	if merged.SMTPPassword == "" {
		merged.SMTPPassword = f.SMTPDefaults.Password
	}
	if merged.TLSMode == "" {
		merged.TLSMode = f.SMTPDefaults.TLSMode
	}
	if merged.From == "" {
		merged.From = f.SMTPDefaults.User
	}
	return &merged
}
