package rnp

import (
	"net"
	"testing"
	"time"

	influx "github.com/influxdata/influxdb1-client/v2"
)

// mockInfluxClient stubs the wire calls so Process/Done can be exercised
// without a live InfluxDB instance, the same substitution
// scraper_test.go's MockIfdbClient makes for InfluxDbWriter.
type mockInfluxClient struct {
	influx.Client
	writes []influx.BatchPoints
	closed bool
}

func (m *mockInfluxClient) Write(bp influx.BatchPoints) error {
	m.writes = append(m.writes, bp)
	return nil
}

func (m *mockInfluxClient) Close() error {
	m.closed = true
	return nil
}

func newTestInfluxProcessor(t *testing.T, flushEvery int, extraTags Tags) (*InfluxDBProcessor, *mockInfluxClient) {
	t.Helper()
	mock := &mockInfluxClient{}
	p := &InfluxDBProcessor{client: mock, db: "rnp_test", measurement: "rnp_probe", flushEvery: flushEvery, extraTags: extraTags}
	if err := p.resetBatchLocked(); err != nil {
		t.Fatalf("resetBatchLocked() error = %v", err)
	}
	return p, mock
}

func TestInfluxDBProcessorMergesExtraTags(t *testing.T) {
	p, mock := newTestInfluxProcessor(t, 100, Tags{"env": "staging"})

	target := mustTCPAddr(t, "1.2.3.4:443")
	source := mustTCPAddr(t, "5.6.7.8:8080")
	p.Process(&PingResult{Protocol: "TCP", Target: target, Source: source, WorkerID: 2, RTT: 5 * time.Millisecond, PingTime: time.Now()})

	if p.pending != 1 {
		t.Fatalf("pending = %d, want 1", p.pending)
	}

	p.Done()

	if len(mock.writes) != 1 {
		t.Fatalf("expected exactly one flush on Done(), got %d", len(mock.writes))
	}
	points := mock.writes[0].Points()
	if len(points) != 1 {
		t.Fatalf("expected exactly one buffered point, got %d", len(points))
	}
	tags := points[0].Tags()
	if tags["env"] != "staging" {
		t.Errorf("expected merged extra tag env=staging, got %q", tags["env"])
	}
	if tags["target_ip"] != "1.2.3.4" {
		t.Errorf("expected target_ip tag, got %q", tags["target_ip"])
	}
	if !mock.closed {
		t.Error("expected Done() to close the underlying client")
	}
}

func TestInfluxDBProcessorAutoFlushesAtThreshold(t *testing.T) {
	p, mock := newTestInfluxProcessor(t, 2, nil)

	target := &net.TCPAddr{IP: net.ParseIP("1.2.3.4"), Port: 443}
	source := &net.TCPAddr{IP: net.ParseIP("5.6.7.8"), Port: 8080}

	for i := 0; i < 3; i++ {
		p.Process(&PingResult{Protocol: "TCP", Target: target, Source: source, RTT: time.Millisecond, PingTime: time.Now()})
	}

	if len(mock.writes) != 1 {
		t.Fatalf("expected one auto-flush after crossing the threshold, got %d", len(mock.writes))
	}
	if p.pending != 1 {
		t.Errorf("expected pending to reset to the 1 point issued after the flush, got %d", p.pending)
	}
}
