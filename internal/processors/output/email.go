package output

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/bakkerme/trendwatch/internal/config"
	"github.com/bakkerme/trendwatch/internal/core"
	"github.com/bakkerme/trendwatch/internal/outputs/email"
)

// digestTemplate renders the run's new repositories as a markdown digest,
// which is converted to HTML for the email body.
const digestTemplate = `# {{len .Blocks}} new trending {{if eq (len .Blocks) 1}}repository{{else}}repositories{{end}}

{{range .Blocks}}## [{{.FullName}}]({{.URL}})

{{if .Description}}{{.Description}}{{else}}_No description._{{end}}

{{if .Language}}**{{.Language}}** · {{end}}{{.Stars}} stars ({{.StarsToday}} today) · {{.Forks}} forks

{{end}}`

type EmailProcessor struct {
	name      string
	config    config.EmailOutput
	sender    email.Sender
	template  *template.Template
	converter goldmark.Markdown
}

func NewEmailProcessor(cfg *config.EmailOutput, sender email.Sender) (*EmailProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("email config is required")
	}
	tmpl, err := template.New("digest").Parse(digestTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse digest template: %w", err)
	}
	return &EmailProcessor{
		name:     "email",
		config:   *cfg,
		sender:   sender,
		template: tmpl,
		converter: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}, nil
}

func (p *EmailProcessor) Name() string {
	return p.name
}

func (p *EmailProcessor) Validate() error {
	if p.sender == nil {
		return fmt.Errorf("email sender is required")
	}
	if p.config.To == "" || p.config.Subject == "" {
		return fmt.Errorf("email to and subject are required")
	}
	return nil
}

func (p *EmailProcessor) Deliver(ctx context.Context, blocks []*core.RepoBlock) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("email processor validation failed: %w", err)
	}
	logger := core.LoggerFromContext(ctx)
	if len(blocks) == 0 {
		logger.Info("email output: nothing new, skipping digest")
		return nil
	}

	body, err := p.renderDigest(blocks)
	if err != nil {
		return fmt.Errorf("render digest failed: %w", err)
	}
	if err := p.sender.Send(ctx, email.Message{
		From:    p.config.From,
		To:      p.config.To,
		Subject: p.config.Subject,
		Body:    body,
	}); err != nil {
		return err
	}
	logger.Info("digest email sent", "to", p.config.To, "repositories", len(blocks))
	return nil
}

func (p *EmailProcessor) renderDigest(blocks []*core.RepoBlock) (string, error) {
	var markdown strings.Builder
	data := struct {
		Blocks []*core.RepoBlock
	}{Blocks: blocks}
	if err := p.template.Execute(&markdown, data); err != nil {
		return "", fmt.Errorf("execute digest template: %w", err)
	}

	var html bytes.Buffer
	if err := p.converter.Convert([]byte(markdown.String()), &html); err != nil {
		return "", fmt.Errorf("convert digest markdown: %w", err)
	}
	return html.String(), nil
}
