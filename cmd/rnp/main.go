// Command rnp probes a single TCP target with rotating source ports and
// reports reachability and round-trip time.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/nikking/rnp"
	"golang.org/x/sys/unix"
)

var (
	flagWorkers         = flag.Int("workers", 4, "number of concurrent probe workers")
	flagWarmup          = flag.Int("warmup", 2, "count of initial probes excluded from final stats")
	flagCount           = flag.Int64("count", -1, "total probe budget; negative means unbounded until stop")
	flagInterval        = flag.Int64("interval", 1000, "ping interval between probes per worker, in milliseconds")
	flagTimeout         = flag.Int64("timeout", 1000, "wait timeout per probe, in milliseconds")
	flagSourceIP        = flag.String("source-ip", "0.0.0.0", "bind address for outgoing probes")
	flagSrcPortMin      = flag.Int("src-port-min", 40000, "inclusive lower bound of the source port range")
	flagSrcPortMax      = flag.Int("src-port-max", 65000, "inclusive upper bound of the source port range")
	flagTTL             = flag.Int("ttl", 0, "IP TTL on the probe socket; 0 leaves the OS default")
	flagCheckDisconnect = flag.Bool("check-disconnect", false, "verify orderly shutdown after connect")
	flagLogJSON         = flag.String("log-json", "", "path to write JSON-line records to, in addition to the console")
	flagLogCSV          = flag.String("log-csv", "", "path to write CSV records to, in addition to the console")
	flagBuckets         = flag.String("buckets", "0.1,0.5,1.0,10.0,50.0,100.0", "comma-separated millisecond separators for the latency bucket aggregator")
	flagConfig          = flag.String("config", "", "path to a YAML run config; flags above override its values")
	flagDedupeWindow    = flag.Int64("dedupe-window", 0, "console de-duplication window in milliseconds; 0 disables it")
	flagInfluxDBAddr    = flag.String("influxdb-addr", "", "InfluxDB HTTP address; enables the InfluxDB sink when set")
	flagInfluxDBDB      = flag.String("influxdb-db", "rnp", "InfluxDB database name")
)

func main() {
	flag.Parse()

	target := flag.Arg(0)
	if target == "" {
		fmt.Fprintln(os.Stderr, "usage: rnp <target-ip:port> [options]")
		os.Exit(2)
	}

	fc, err := loadFileConfig()
	rnp.HandleFatalError(err)
	applyFlagOverrides(fc, target)

	runConfig, workerConfig, buckets, err := fc.Resolve()
	rnp.HandleFatalError(err)

	processors, err := buildProcessors(buckets, fc.Tags)
	rnp.HandleFatalError(err)

	stop := rnp.NewStopSignal()
	installSignalHandler(stop)

	log.Printf("rnp run %s: probing %s from %s, workers=%d warmup=%d count=%d\n",
		rnp.NewRunID(), workerConfig.Target, workerConfig.SourceIP, runConfig.Workers, runConfig.Warmup, runConfig.Total)

	scheduler := rnp.NewScheduler(runConfig, workerConfig, processors, stop)
	rnp.HandleFatalError(scheduler.Run())
}

func loadFileConfig() (*rnp.FileConfig, error) {
	if *flagConfig == "" {
		return rnp.NewDefaultFileConfig()
	}
	data, err := os.ReadFile(*flagConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", *flagConfig, err)
	}
	return rnp.NewFileConfig(data)
}

func applyFlagOverrides(fc *rnp.FileConfig, target string) {
	fc.Target = target
	fc.Protocol = "TCP"
	fc.SourceIP = *flagSourceIP
	fc.Workers = *flagWorkers
	fc.Warmup = *flagWarmup
	fc.Count = *flagCount
	fc.IntervalMs = *flagInterval
	fc.TimeoutMs = *flagTimeout
	fc.SrcPortMin = uint16(*flagSrcPortMin)
	fc.SrcPortMax = uint16(*flagSrcPortMax)
	fc.CheckDisconnect = *flagCheckDisconnect

	if *flagTTL > 0 {
		ttl := *flagTTL
		fc.TTL = &ttl
	}

	if buckets, err := parseBuckets(*flagBuckets); err == nil {
		fc.Buckets = buckets
	}
}

func parseBuckets(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	buckets := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid buckets value %q: %w", raw, err)
		}
		buckets = append(buckets, v)
	}
	return buckets, nil
}

func buildProcessors(buckets []float64, tags rnp.Tags) ([]rnp.Processor, error) {
	processors := []rnp.Processor{
		rnp.NewConsoleProcessor(os.Stdout, time.Duration(*flagDedupeWindow)*time.Millisecond),
	}

	if *flagLogJSON != "" {
		f, err := os.Create(*flagLogJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to create JSON log %s: %w", *flagLogJSON, err)
		}
		processors = append(processors, rnp.NewJSONProcessor(f))
	}

	if *flagLogCSV != "" {
		f, err := os.Create(*flagLogCSV)
		if err != nil {
			return nil, fmt.Errorf("failed to create CSV log %s: %w", *flagLogCSV, err)
		}
		processors = append(processors, rnp.NewCSVProcessor(f))
	}

	if *flagInfluxDBAddr != "" {
		influxProcessor, err := rnp.NewInfluxDBProcessor(*flagInfluxDBAddr, *flagInfluxDBDB, 20, tags)
		if err != nil {
			return nil, err
		}
		processors = append(processors, influxProcessor)
	}

	processors = append(processors, rnp.NewLatencyBucketProcessor(os.Stdout, buckets))

	return processors, nil
}

// installSignalHandler matches cmd/collector/main.go's signal loop, minus
// the SIGHUP-triggered config reload — there is no daemon mode to reload.
func installSignalHandler(stop *rnp.StopSignal) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGINT, unix.SIGTERM)
	go func() {
		<-sigCh
		log.Println("received interrupt, stopping")
		stop.Set()
	}()
}
