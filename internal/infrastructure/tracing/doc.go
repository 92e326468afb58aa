/*
Package tracing provides lightweight request tracing over zap.

# Overview

Each HTTP request gets a span; tool calls and console executions open child
spans. Finished spans are logged by a background collector. Trace context
travels in the X-Trace-ID and X-Span-ID headers, so a replctl invocation and
the server log lines it caused share one trace ID.

# Usage

	tracer := tracing.New("replbridge", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "console.execute")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
*/
package tracing
