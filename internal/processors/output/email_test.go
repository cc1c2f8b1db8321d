package output

import (
	"context"
	"strings"
	"testing"

	"github.com/bakkerme/trendwatch/internal/config"
	emailmock "github.com/bakkerme/trendwatch/internal/outputs/email/mock"
)

func TestEmailProcessorSendsRenderedDigest(t *testing.T) {
	sender := &emailmock.Sender{}
	cfg := &config.EmailOutput{
		To:      "dev@example.com",
		From:    "trendwatch@example.com",
		Subject: "Trending digest",
	}
	processor, err := NewEmailProcessor(cfg, sender)
	if err != nil {
		t.Fatalf("failed to init email processor: %v", err)
	}

	if err := processor.Deliver(context.Background(), sampleBlocks()); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if len(sender.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sender.Messages))
	}

	msg := sender.Messages[0]
	if msg.To != "dev@example.com" || msg.Subject != "Trending digest" {
		t.Errorf("unexpected envelope %q / %q", msg.To, msg.Subject)
	}
	if !strings.Contains(msg.Body, "2 new trending repositories") {
		t.Errorf("expected digest heading in body, got %q", msg.Body)
	}
	if !strings.Contains(msg.Body, `href="https://github.com/mozilla/pdf.js"`) {
		t.Errorf("expected repository link in body, got %q", msg.Body)
	}
	if !strings.Contains(msg.Body, "PDF Reader in JavaScript") {
		t.Errorf("expected description in body, got %q", msg.Body)
	}
}

func TestEmailProcessorSkipsEmptyDelivery(t *testing.T) {
	sender := &emailmock.Sender{}
	cfg := &config.EmailOutput{
		To:      "dev@example.com",
		Subject: "Trending digest",
	}
	processor, err := NewEmailProcessor(cfg, sender)
	if err != nil {
		t.Fatalf("failed to init email processor: %v", err)
	}

	if err := processor.Deliver(context.Background(), nil); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if len(sender.Messages) != 0 {
		t.Fatalf("expected no messages, got %d", len(sender.Messages))
	}
}

func TestEmailProcessorValidateRequiresRecipient(t *testing.T) {
	processor, err := NewEmailProcessor(&config.EmailOutput{Subject: "x"}, &emailmock.Sender{})
	if err != nil {
		t.Fatalf("failed to init email processor: %v", err)
	}
	if err := processor.Validate(); err == nil {
		t.Fatal("expected validation to fail without a recipient")
	}
}
