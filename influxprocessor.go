package rnp

import (
	"fmt"
	"sync"

	influx "github.com/influxdata/influxdb1-client/v2"
)

// InfluxDBProcessor batches each PingResult into an InfluxDB line-protocol
// point and flushes every flushEvery points or at Done(). Adapted from
// scraper.go's InfluxDbWriter (Batch/BatchWrite over the same client
// library) and influx.go's tag/field construction — now driven by the
// live per-probe stream instead of periodic Summary snapshots. Ports are
// deliberately left out of the tag set, the same cardinality concern
// influx.go's FromPD comments on for its own tags.
type InfluxDBProcessor struct {
	client      influx.Client
	db          string
	measurement string
	flushEvery  int
	extraTags   Tags

	mu      sync.Mutex
	batch   influx.BatchPoints
	pending int
}

// NewInfluxDBProcessor dials addr (e.g. "http://localhost:8086") and
// prepares to write into db. extraTags, if non-nil, is merged into every
// point's tag set — static run annotations such as "env" or "dc", as
// loaded into FileConfig.Tags.
func NewInfluxDBProcessor(addr, db string, flushEvery int, extraTags Tags) (*InfluxDBProcessor, error) {
	client, err := influx.NewHTTPClient(influx.HTTPConfig{Addr: addr})
	if err != nil {
		return nil, fmt.Errorf("failed to create influxdb client: %w", err)
	}

	p := &InfluxDBProcessor{client: client, db: db, measurement: "rnp_probe", flushEvery: flushEvery, extraTags: extraTags}
	if err := p.resetBatchLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *InfluxDBProcessor) resetBatchLocked() error {
	bp, err := influx.NewBatchPoints(influx.BatchPointsConfig{Database: p.db})
	if err != nil {
		return err
	}
	p.batch = bp
	return nil
}

func (p *InfluxDBProcessor) Process(r *PingResult) {
	tags := map[string]string{
		"protocol":  r.Protocol,
		"target_ip": r.Target.IP.String(),
		"source_ip": r.Source.IP.String(),
		"worker_id": fmt.Sprintf("%d", r.WorkerID),
	}
	for k, v := range p.extraTags {
		tags[k] = v
	}
	fields := map[string]interface{}{
		"rtt_ms":               rttMillis(r.RTT),
		"is_timed_out":         r.IsTimedOut,
		"is_preparation_error": r.IsPreparationError(),
	}

	point, err := influx.NewPoint(p.measurement, tags, fields, r.PingTime)
	if err != nil {
		HandleMinorError(err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.batch.AddPoint(point)
	p.pending++
	if p.pending >= p.flushEvery {
		p.flushLocked()
	}
}

func (p *InfluxDBProcessor) flushLocked() {
	if p.pending == 0 {
		return
	}
	if err := p.client.Write(p.batch); err != nil {
		HandleMinorError(err)
	}
	p.pending = 0
	if err := p.resetBatchLocked(); err != nil {
		HandleMinorError(err)
	}
}

func (p *InfluxDBProcessor) Done() {
	p.mu.Lock()
	p.flushLocked()
	p.mu.Unlock()
	HandleMinorError(p.client.Close())
}
