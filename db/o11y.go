package db

import (
	"context"
	"fmt"

	"github.com/circleci/sample-app/o11y"
)

// Recommendations for naming here are taken from
// https://github.com/open-telemetry/opentelemetry-specification/blob/7ae3d066c95c716ef3086228ef955d84ba03ac88/specification/trace/semantic_conventions/database.md

// Span starts a span for a query, recording the db.query timing metric when it ends.
func Span(ctx context.Context, entity, queryName string) (context.Context, o11y.Span) {
	ctx, span := o11y.StartSpan(ctx, fmt.Sprintf("db: %s.%s", entity, queryName))
	span.RecordMetric(o11y.Timing("db.query", "db.entity", "db.query_name", "result"))
	span.AddRawField("db.system", "postgresql")
	span.AddRawField("db.entity", entity)
	span.AddRawField("db.query_name", queryName)
	return ctx, span
}

// EndSpan ends a span started with Span, classifying any error.
//
//	ctx, span := db.Span(ctx, "users", "list")
//	defer db.EndSpan(span, &err)
func EndSpan(span o11y.Span, err *error) {
	if err != nil && *err != nil {
		span.AddRawField("db.error_class", ErrorClass(*err))
	}
	o11y.End(span, err)
}
