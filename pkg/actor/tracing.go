package actor

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the package-wide OpenTelemetry tracer. The teacher's go.mod
// already carries the otel SDK and three exporters as a transitive
// requirement of its own observability story but never calls into them
// directly (see DESIGN.md); corenet gives it an actual call site, one
// span per callback invocation, since that is the one place in the
// scheduler where "how long did this take and on whose behalf" is
// worth correlating across a trace.
var tracer = otel.Tracer("github.com/fluxorio/corenet/pkg/actor")

// tracedInvoke wraps invoke with a span carrying the handle, module name, and
// message type as attributes. SetTracerProvider (called by cmd/corenetd
// against whichever exporter the operator configured) determines where
// spans end up; with no provider configured this is a documented no-op
// via otel's default noop tracer.
func (c *Context) tracedInvoke(msg *Message) {
	_, span := tracer.Start(context.Background(), "actor.dispatch",
		trace.WithAttributes(
			attribute.String("handle", c.handle.String()),
			attribute.String("module", c.moduleName),
			attribute.Int64("type", int64(msg.Type)),
		),
	)
	defer span.End()
	c.invoke(msg)
}
