package rnp

import (
	"fmt"
	"net"
	"time"

	"gopkg.in/yaml.v2"
)

// RunConfig is the top-level, immutable run configuration (spec.md §3):
// worker count, warmup count, total probe budget, and the source port
// range the picker walks.
type RunConfig struct {
	Workers int
	Warmup  int
	Total   int64 // negative means unbounded

	SrcPortMin uint16
	SrcPortMax uint16

	// GlobalRateLimit, probes/sec across all workers combined; 0 disables
	// it. SPEC_FULL.md §3 domain-stack addition, wired via golang.org/x/time/rate.
	GlobalRateLimit float64
}

// WorkerConfig is the immutable per-worker configuration every spawned
// PingWorker shares read-only (spec.md §3).
type WorkerConfig struct {
	Target           *net.TCPAddr
	SourceIP         net.IP
	Protocol         string
	PingInterval     time.Duration
	PingClientConfig *PingClientConfig
}

// FileConfig is the YAML-serializable run description, the direct
// generalization of CollectorConfig's file format: an embedded sensible
// default plus `gopkg.in/yaml.v2` unmarshalling, overridden at the CLI by
// individual flags.
type FileConfig struct {
	Target   string `yaml:"target"`
	SourceIP string `yaml:"source_ip"`
	Protocol string `yaml:"protocol"`

	Workers int   `yaml:"workers"`
	Warmup  int   `yaml:"warmup"`
	Count   int64 `yaml:"count"`

	IntervalMs int64 `yaml:"interval_ms"`
	TimeoutMs  int64 `yaml:"timeout_ms"`

	SrcPortMin uint16 `yaml:"src_port_min"`
	SrcPortMax uint16 `yaml:"src_port_max"`

	TTL             *int `yaml:"ttl"`
	CheckDisconnect bool `yaml:"check_disconnect"`

	GlobalRateLimit float64   `yaml:"global_rate_limit"`
	Buckets         []float64 `yaml:"buckets"`

	// Tags are attached to every point an InfluxDBProcessor writes: static
	// key/value annotations that apply to the whole run.
	Tags Tags `yaml:"tags"`
}

// defaultRunConfigYAML is a sensible default configuration.
var defaultRunConfigYAML = `
target:             127.0.0.1:80
source_ip:          0.0.0.0
protocol:           TCP
workers:            4
warmup:             2
count:              -1
interval_ms:        1000
timeout_ms:         1000
src_port_min:       40000
src_port_max:       65000
check_disconnect:   false
global_rate_limit:  0
buckets:            [0.1, 0.5, 1.0, 10.0, 50.0, 100.0]
`

// NewDefaultFileConfig provides the embedded default run config.
func NewDefaultFileConfig() (*FileConfig, error) {
	return NewFileConfig([]byte(defaultRunConfigYAML))
}

// NewFileConfig parses data, a YAML-encoded FileConfig.
func NewFileConfig(data []byte) (*FileConfig, error) {
	fc := &FileConfig{}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("failed to parse run config: %s", err)
	}
	return fc, nil
}

// Resolve converts fc into the immutable RunConfig/WorkerConfig pair the
// scheduler consumes, plus the bucket separators for the latency
// aggregator.
func (fc *FileConfig) Resolve() (*RunConfig, *WorkerConfig, []float64, error) {
	target, err := net.ResolveTCPAddr("tcp", fc.Target)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid target %q: %w", fc.Target, err)
	}

	sourceIP := net.ParseIP(fc.SourceIP)
	if sourceIP == nil {
		return nil, nil, nil, fmt.Errorf("invalid source ip %q", fc.SourceIP)
	}

	if fc.SrcPortMin > fc.SrcPortMax {
		return nil, nil, nil, fmt.Errorf("invalid source port range [%d, %d]", fc.SrcPortMin, fc.SrcPortMax)
	}

	run := &RunConfig{
		Workers:         fc.Workers,
		Warmup:          fc.Warmup,
		Total:           fc.Count,
		SrcPortMin:      fc.SrcPortMin,
		SrcPortMax:      fc.SrcPortMax,
		GlobalRateLimit: fc.GlobalRateLimit,
	}

	worker := &WorkerConfig{
		Target:       target,
		SourceIP:     sourceIP,
		Protocol:     fc.Protocol,
		PingInterval: time.Duration(fc.IntervalMs) * time.Millisecond,
		PingClientConfig: &PingClientConfig{
			WaitTimeout:     time.Duration(fc.TimeoutMs) * time.Millisecond,
			TimeToLive:      fc.TTL,
			CheckDisconnect: fc.CheckDisconnect,
		},
	}

	return run, worker, fc.Buckets, nil
}
