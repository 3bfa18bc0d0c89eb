package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"solarshare/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// untracedPaths are polled by orchestrators and scrapers every few seconds.
var untracedPaths = map[string]bool{
	"/health":       true,
	"/health/live":  true,
	"/health/ready": true,
	"/metrics":      true,
}

// resourceRoutes maps an API prefix to the attribute carrying the numeric id
// that follows it.
var resourceRoutes = []struct {
	prefix string
	key    attribute.Key
}{
	{"/api/communities/", observability.AttrCommunityID},
	{"/api/quote-requests/", observability.AttrQuoteRequestID},
	{"/api/ws/voting/", observability.AttrQuoteRequestID},
	{"/api/projects/", observability.AttrProjectID},
}

// TracingMiddleware opens a server span per request, named after the matched
// route template ("POST /api/quote-requests/:id/votes").
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if untracedPaths[c.Path()] {
			return c.Next()
		}

		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))
		attrs := []attribute.KeyValue{
			semconv.HTTPRequestMethodKey.String(c.Method()),
			semconv.URLPath(c.Path()),
			semconv.ClientAddress(c.IP()),
			semconv.UserAgentOriginal(c.Get(fiber.HeaderUserAgent)),
		}
		if kv, ok := resourceAttr(c.Path()); ok {
			attrs = append(attrs, kv)
		}
		ctx, span := observability.Tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Set("X-Trace-ID", traceID)
		if rid := c.Locals("requestid"); rid != nil {
			span.SetAttributes(attribute.String("solarshare.request_id", fmt.Sprint(rid)))
		}
		c.SetUserContext(ctx)

		err := c.Next()

		// The route is only known once the router has matched it.
		if route := c.Route(); route != nil && route.Path != "" && route.Path != "/" {
			span.SetName(c.Method() + " " + route.Path)
			span.SetAttributes(semconv.HTTPRoute(route.Path))
		}
		status := c.Response().StatusCode()
		span.SetAttributes(semconv.HTTPResponseStatusCode(status))
		if uid := c.Locals("userID"); uid != nil {
			span.SetAttributes(attribute.String("solarshare.user_id", fmt.Sprint(uid)))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
		return err
	}
}

// resourceAttr extracts the community, quote request or project id from path.
func resourceAttr(path string) (attribute.KeyValue, bool) {
	for _, r := range resourceRoutes {
		rest, ok := strings.CutPrefix(path, r.prefix)
		if !ok {
			continue
		}
		seg, _, _ := strings.Cut(rest, "/")
		id, err := strconv.ParseUint(seg, 10, 64)
		if err != nil {
			return attribute.KeyValue{}, false
		}
		return r.key.Int64(int64(id)), true
	}
	return attribute.KeyValue{}, false
}
