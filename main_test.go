package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRedisOptionsURL(t *testing.T) {
	opts := redisOptions("redis://:pw@localhost:6380/2")
	if opts.Addr != "localhost:6380" || opts.Password != "pw" || opts.DB != 2 {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestRedisOptionsConnectionString(t *testing.T) {
	opts := redisOptions("cache.example.net:6380,password=secret,ssl=True,abortConnect=False")
	if opts.Addr != "cache.example.net:6380" || opts.Password != "secret" {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if opts.TLSConfig == nil {
		t.Fatalf("expected tls to be enabled")
	}
}

func TestRunStats(t *testing.T) {
	logs := strings.Join([]string{
		`{"event.name":"api.request","event.domain":"study-planner","severity_text":"INFO","attributes":{"http.route":"/api/home","http.status_code":200,"study.api.total_ms":2}}`,
		`{"level":"info","msg":"listening"}`,
		`{"event.name":"api.request","event.domain":"study-planner","severity_text":"ERROR","attributes":{"http.route":"/api/activities","http.status_code":500,"study.api.total_ms":4}}`,
	}, "\n")

	var out bytes.Buffer
	if err := runStats(strings.NewReader(logs), &out, false); err != nil {
		t.Fatalf("run stats: %v", err)
	}
	want := "total=2 info=1 warn=0 error=1 avg_total_ms=3.00 max_total_ms=4.00 p95_total_ms=4.00 /api/activities=1 /api/home=1\n"
	if out.String() != want {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	if err := runStats(strings.NewReader(logs), &out, true); err != nil {
		t.Fatalf("run stats json: %v", err)
	}
	if !strings.Contains(out.String(), `"total_events": 2`) {
		t.Fatalf("unexpected json output %s", out.String())
	}
}
