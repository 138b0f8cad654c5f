package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/searchcrawl"
)

// Ensure LoggingFieldExtractor implements searchcrawl.FieldExtractor.
var _ searchcrawl.FieldExtractor = (*LoggingFieldExtractor)(nil)

// LoggingFieldExtractor wraps a FieldExtractor with logging.
type LoggingFieldExtractor struct {
	next   searchcrawl.FieldExtractor
	logger *slog.Logger
}

// NewLoggingFieldExtractor creates a new LoggingFieldExtractor.
func NewLoggingFieldExtractor(next searchcrawl.FieldExtractor, logger *slog.Logger) *LoggingFieldExtractor {
	return &LoggingFieldExtractor{next: next, logger: logger}
}

// ExtractFields delegates to the wrapped extractor and logs the call.
func (e *LoggingFieldExtractor) ExtractFields(ctx context.Context, req *searchcrawl.ExtractRequest, pages []*searchcrawl.ScrapeResult) (fields map[string]any, err error) {
	defer func(begin time.Time) {
		e.logger.Info("extract fields",
			"model", req.Model,
			"pages", len(pages),
			"fields", len(fields),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.ExtractFields(ctx, req, pages)
}
