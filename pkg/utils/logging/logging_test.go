package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
)

func TestPayloadRedaction(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelInfo, logging.FormatJSON)

	logger.Info("memory added", "payload", "Jack lives in London", "memory_id", "m-1")

	out := buf.String()
	gt.Bool(t, strings.Contains(out, "Jack lives in London")).False()
	gt.Bool(t, strings.Contains(out, "m-1")).True()
}

func TestContextLogger(t *testing.T) {
	t.Run("From falls back to default", func(t *testing.T) {
		gt.Value(t, logging.From(context.Background())).Equal(logging.Default())
	})

	t.Run("With carries the logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.New(&buf, slog.LevelDebug, logging.FormatJSON)
		ctx := logging.With(context.Background(), logger)
		gt.Value(t, logging.From(ctx)).Equal(logger)
	})
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelWarn, logging.FormatJSON)

	logger.Info("suppressed")
	logger.Warn("emitted")

	out := buf.String()
	gt.Bool(t, strings.Contains(out, "suppressed")).False()
	gt.Bool(t, strings.Contains(out, "emitted")).True()
}
