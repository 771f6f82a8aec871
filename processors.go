package rnp

import (
	"fmt"
	"io"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Processor is the result-pipeline contract spec.md §4.5 describes: called
// once per arriving result, in arrival order, then once more after the
// result channel closes.
type Processor interface {
	Process(r *PingResult)
	Done()
}

// ConsoleProcessor prints one line per result, the four exact shapes
// spec.md §4.5.1 specifies. Optionally de-duplicates runs of identical
// failure/timeout lines within a TTL window, the console-hygiene nicety
// SPEC_FULL.md §5.4 adds — grounded on port.go's gocache-keyed transient
// state, repurposed here from in-flight-probe tracking to repeated-line
// suppression.
type ConsoleProcessor struct {
	w      io.Writer
	dedupe *gocache.Cache
}

// NewConsoleProcessor builds a console processor. A zero dedupeWindow
// disables de-duplication — every line is printed.
func NewConsoleProcessor(w io.Writer, dedupeWindow time.Duration) *ConsoleProcessor {
	p := &ConsoleProcessor{w: w}
	if dedupeWindow > 0 {
		p.dedupe = gocache.New(dedupeWindow, dedupeWindow/2)
	}
	return p
}

func (p *ConsoleProcessor) Process(r *PingResult) {
	line := r.FormatConsole()

	if p.dedupe != nil && (r.Err != nil || r.IsTimedOut) {
		if count, found := p.dedupe.Get(line); found {
			p.dedupe.SetDefault(line, count.(int)+1)
			return
		}
		p.dedupe.SetDefault(line, 1)
	}

	fmt.Fprintln(p.w, line)
}

// Done flushes any still-suppressed repeat counts still held in the
// dedupe cache when the run ends.
func (p *ConsoleProcessor) Done() {
	if p.dedupe == nil {
		return
	}
	for line, item := range p.dedupe.Items() {
		count, ok := item.Object.(int)
		if ok && count > 1 {
			fmt.Fprintf(p.w, "%s (repeated %d times)\n", line, count-1)
		}
	}
}

// JSONProcessor writes one JSON-line record per result (spec.md §6).
type JSONProcessor struct {
	w io.Writer
}

func NewJSONProcessor(w io.Writer) *JSONProcessor {
	return &JSONProcessor{w: w}
}

func (p *JSONProcessor) Process(r *PingResult) {
	fmt.Fprintln(p.w, r.FormatJSON())
}

func (p *JSONProcessor) Done() {
	if c, ok := p.w.(io.Closer); ok {
		HandleMinorError(c.Close())
	}
}

// CSVProcessor writes one CSV record per result, no header (spec.md §6).
type CSVProcessor struct {
	w io.Writer
}

func NewCSVProcessor(w io.Writer) *CSVProcessor {
	return &CSVProcessor{w: w}
}

func (p *CSVProcessor) Process(r *PingResult) {
	fmt.Fprintln(p.w, r.FormatCSV())
}

func (p *CSVProcessor) Done() {
	if c, ok := p.w.(io.Closer); ok {
		HandleMinorError(c.Close())
	}
}
