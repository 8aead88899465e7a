package observability

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// Request events are written by the API request middleware as JSON log lines.
const (
	RequestEventName   = "api.request"
	RequestEventDomain = "study-planner"
)

const (
	attrRoute          = "http.route"
	attrStatusCode     = "http.status_code"
	attrTotalMillis    = "study.api.total_ms"
	attrDecodeMillis   = "study.api.decode_ms"
	attrStoreMillis    = "study.api.store_ms"
	attrActivities     = "study.api.activities_returned"
	attrIdempotencyKey = "study.api.idempotency_key_provided"
	attrReplayed       = "study.api.replayed"
	attrErrorStage     = "study.api.error_stage"
)

type logRecord struct {
	EventName    string         `json:"event.name"`
	EventDomain  string         `json:"event.domain"`
	SeverityText string         `json:"severity_text"`
	Attributes   map[string]any `json:"attributes"`
}

type numericStats struct {
	Count  int
	Sum    float64
	Min    float64
	Max    float64
	values []float64
}

func (n *numericStats) add(v float64) {
	if n.Count == 0 || v < n.Min {
		n.Min = v
	}
	if v > n.Max {
		n.Max = v
	}
	n.Count++
	n.Sum += v
	n.values = append(n.values, v)
}

// NumericSummary describes the distribution of one attribute.
type NumericSummary struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
}

func (n *numericStats) summary() NumericSummary {
	if n == nil || n.Count == 0 {
		return NumericSummary{}
	}
	sorted := append([]float64(nil), n.values...)
	sort.Float64s(sorted)
	return NumericSummary{
		Count: n.Count,
		Min:   n.Min,
		Max:   n.Max,
		Avg:   n.Sum / float64(n.Count),
		P50:   percentile(sorted, 50),
		P95:   percentile(sorted, 95),
	}
}

// percentile uses the nearest-rank method on an ascending slice.
func percentile(sorted []float64, p float64) float64 {
	rank := int(math.Ceil(p * float64(len(sorted)) / 100))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

// EventSummary aggregates request events read from service logs.
type EventSummary struct {
	TotalEvents        int                       `json:"total_events"`
	SeverityCounts     map[string]int            `json:"severity_counts"`
	StatusCounts       map[string]int            `json:"status_counts"`
	RouteCounts        map[string]int            `json:"route_counts"`
	DurationMs         map[string]NumericSummary `json:"duration_ms"`
	ActivitiesReturned NumericSummary            `json:"activities_returned"`
	IdempotencyKeys    int                       `json:"idempotency_keys"`
	Replays            int                       `json:"replays"`
	ErrorStages        map[string]int            `json:"error_stages,omitempty"`
	SkippedLines       int                       `json:"skipped_lines"`
}

// EventCollector folds observability.event log lines into an EventSummary.
type EventCollector struct {
	count      int
	severity   map[string]int
	status     map[int]int
	routes     map[string]int
	durations  map[string]*numericStats
	activities numericStats
	keys       int
	replays    int
	stages     map[string]int
	skipped    int
}

func NewEventCollector() *EventCollector {
	return &EventCollector{
		severity:  make(map[string]int),
		status:    make(map[int]int),
		routes:    make(map[string]int),
		durations: make(map[string]*numericStats),
		stages:    make(map[string]int),
	}
}

// Ingest consumes one log line. Lines that are not JSON are counted as
// skipped; other events are ignored.
func (c *EventCollector) Ingest(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	var rec logRecord
	if err := sonic.UnmarshalString(trimmed, &rec); err != nil {
		c.skipped++
		return
	}
	if rec.EventName != RequestEventName || rec.EventDomain != RequestEventDomain {
		return
	}

	c.count++
	severity := strings.ToUpper(strings.TrimSpace(rec.SeverityText))
	if severity == "" {
		severity = "UNSPECIFIED"
	}
	c.severity[severity]++

	attrs := rec.Attributes
	if attrs == nil {
		return
	}
	if status, ok := asFloat(attrs[attrStatusCode]); ok {
		c.status[int(status)]++
	}
	if route, ok := attrs[attrRoute].(string); ok && route != "" {
		c.routes[route]++
	}
	for key, attr := range map[string]string{"total": attrTotalMillis, "decode": attrDecodeMillis, "store": attrStoreMillis} {
		if v, ok := asFloat(attrs[attr]); ok {
			c.addDuration(key, v)
		}
	}
	if v, ok := asFloat(attrs[attrActivities]); ok {
		c.activities.add(v)
	}
	if b, _ := attrs[attrIdempotencyKey].(bool); b {
		c.keys++
	}
	if b, _ := attrs[attrReplayed].(bool); b {
		c.replays++
	}
	if stage, ok := attrs[attrErrorStage].(string); ok && stage != "" {
		c.stages[stage]++
	}
}

func (c *EventCollector) addDuration(key string, v float64) {
	stat, ok := c.durations[key]
	if !ok {
		stat = &numericStats{}
		c.durations[key] = stat
	}
	stat.add(v)
}

// Summary returns the aggregate of everything ingested so far.
func (c *EventCollector) Summary() EventSummary {
	out := EventSummary{
		TotalEvents:        c.count,
		SeverityCounts:     make(map[string]int, len(c.severity)),
		StatusCounts:       make(map[string]int, len(c.status)),
		RouteCounts:        make(map[string]int, len(c.routes)),
		DurationMs:         make(map[string]NumericSummary, len(c.durations)),
		ActivitiesReturned: c.activities.summary(),
		IdempotencyKeys:    c.keys,
		Replays:            c.replays,
		SkippedLines:       c.skipped,
	}
	for k, v := range c.severity {
		out.SeverityCounts[k] = v
	}
	for k, v := range c.status {
		out.StatusCounts[strconv.Itoa(k)] = v
	}
	for k, v := range c.routes {
		out.RouteCounts[k] = v
	}
	for k, v := range c.durations {
		out.DurationMs[k] = v.summary()
	}
	if len(c.stages) > 0 {
		out.ErrorStages = make(map[string]int, len(c.stages))
		for k, v := range c.stages {
			out.ErrorStages[k] = v
		}
	}
	return out
}

// ShortString renders a one-line digest, routes sorted by name.
func (s EventSummary) ShortString() string {
	total := s.DurationMs["total"]
	parts := []string{
		"total=" + strconv.Itoa(s.TotalEvents),
		"info=" + strconv.Itoa(s.SeverityCounts["INFO"]),
		"warn=" + strconv.Itoa(s.SeverityCounts["WARN"]),
		"error=" + strconv.Itoa(s.SeverityCounts["ERROR"]),
		"avg_total_ms=" + formatFloat(total.Avg),
		"max_total_ms=" + formatFloat(total.Max),
		"p95_total_ms=" + formatFloat(total.P95),
	}
	routes := make([]string, 0, len(s.RouteCounts))
	for r := range s.RouteCounts {
		routes = append(routes, r)
	}
	sort.Strings(routes)
	for _, r := range routes {
		parts = append(parts, r+"="+strconv.Itoa(s.RouteCounts[r]))
	}
	return strings.Join(parts, " ")
}

func formatFloat(v float64) string {
	if v == 0 || math.IsNaN(v) {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
