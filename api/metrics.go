package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"study-planner/observability"
)

const (
	tracerName       = "study-planner/api"
	requestSpanName  = "study-planner.api.request"
	observabilityMsg = "observability.event"
	attrPrefix       = "study.api."
	metricsKey       = "request_metrics"
)

type requestMetrics struct {
	logger *log.Logger
	span   trace.Span
	start  time.Time

	method string
	route  string

	decodeDuration     time.Duration
	storeDuration      time.Duration
	activitiesReturned int
	idempotencyKey     bool
	replayed           bool
	errorStage         string
}

func newRequestMetrics(ctx context.Context, logger *log.Logger, method, route string) (*requestMetrics, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, requestSpanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
		),
	)
	return &requestMetrics{
		logger:             logger,
		span:               span,
		start:              time.Now(),
		method:             method,
		route:              route,
		activitiesReturned: -1,
	}, ctx
}

// RequestMetrics opens one span per request and logs an observability event when it ends.
func RequestMetrics(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m, ctx := newRequestMetrics(c.Request().Context(), logger, c.Request().Method, c.Path())
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set(metricsKey, m)

			err := next(c)
			status := statusFor(c, err)
			if err != nil && status < http.StatusInternalServerError {
				m.SetErrorStage("http")
				m.Log(status, nil)
				return err
			}
			m.Log(status, err)
			return err
		}
	}
}

func statusFor(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

func metricsFrom(c echo.Context) *requestMetrics {
	m, _ := c.Get(metricsKey).(*requestMetrics)
	return m
}

func (m *requestMetrics) ObserveDecode(d time.Duration) {
	if m == nil || d <= 0 {
		return
	}
	m.decodeDuration = d
}

func (m *requestMetrics) ObserveStore(d time.Duration) {
	if m == nil || d <= 0 {
		return
	}
	m.storeDuration = d
}

func (m *requestMetrics) SetActivitiesReturned(count int) {
	if m == nil {
		return
	}
	if count < 0 {
		count = 0
	}
	m.activitiesReturned = count
}

func (m *requestMetrics) SetIdempotencyKey(provided, replayed bool) {
	if m == nil {
		return
	}
	m.idempotencyKey = provided
	m.replayed = replayed
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if m == nil || stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *requestMetrics) attributes(status int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", m.method),
		attribute.String("http.route", m.route),
		attribute.Int("http.status_code", status),
		attribute.Float64(attrPrefix+"total_ms", durationToMillis(time.Since(m.start))),
	}
	if m.activitiesReturned >= 0 {
		attrs = append(attrs, attribute.Int(attrPrefix+"activities_returned", m.activitiesReturned))
	}
	if m.idempotencyKey {
		attrs = append(attrs,
			attribute.Bool(attrPrefix+"idempotency_key_provided", true),
			attribute.Bool(attrPrefix+"replayed", m.replayed),
		)
	}
	if m.decodeDuration > 0 {
		attrs = append(attrs, attribute.Float64(attrPrefix+"decode_ms", durationToMillis(m.decodeDuration)))
	}
	if m.storeDuration > 0 {
		attrs = append(attrs, attribute.Float64(attrPrefix+"store_ms", durationToMillis(m.storeDuration)))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String(attrPrefix+"error_stage", m.errorStage))
	}
	return attrs
}

// Log ends the span and writes the observability event for the request.
func (m *requestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	severityText, severityNumber := severityForStatus(status, err)
	attrs := m.attributes(status)

	eventAttrs := append([]attribute.KeyValue{
		attribute.String("event.name", observability.RequestEventName),
		attribute.String("event.domain", observability.RequestEventDomain),
		attribute.String("severity_text", severityText),
		attribute.Int("severity_number", severityNumber),
	}, attrs...)
	if err != nil {
		eventAttrs = append(eventAttrs, attribute.String("error.message", err.Error()))
	}

	if m.span != nil {
		m.span.SetAttributes(attrs...)
		m.span.AddEvent(observabilityMsg, trace.WithAttributes(eventAttrs...))
		switch {
		case err != nil:
			m.span.SetStatus(codes.Error, err.Error())
		case status >= http.StatusInternalServerError:
			m.span.SetStatus(codes.Error, http.StatusText(status))
		default:
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	attrMap := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		attrMap[string(kv.Key)] = kv.Value.AsInterface()
	}
	fields := log.Fields{
		"event.name":      observability.RequestEventName,
		"event.domain":    observability.RequestEventDomain,
		"severity_text":   severityText,
		"severity_number": severityNumber,
		"attributes":      attrMap,
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.IsValid() {
			fields["trace_id"] = sc.TraceID().String()
			fields["span_id"] = sc.SpanID().String()
		}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	m.logger.WithFields(fields).Log(levelForSeverity(severityNumber), observabilityMsg)
}

func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

func levelForSeverity(n int) log.Level {
	switch {
	case n >= 17:
		return log.ErrorLevel
	case n >= 13:
		return log.WarnLevel
	default:
		return log.InfoLevel
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
