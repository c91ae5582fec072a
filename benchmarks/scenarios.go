// Package benchmarks provides an end-to-end scenario harness for the
// HBM3-PIM simulator: a named trace plus the expected observable outcome,
// run against a real memsystem and reported the way a calibration run
// would be. Harness shape grounded on the teacher's timing_harness.go
// (Benchmark/Harness/Result, RunAll, Print*); the scenarios themselves are
// this system's own, drawn from spec.md's end-to-end scenario list.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/hbm3pim/memsystem"
	"github.com/sarchlab/hbm3pim/request"
	"github.com/sarchlab/hbm3pim/simconfig"
	"github.com/sarchlab/hbm3pim/trace"
)

// Result holds the outcome of running a single scenario.
type Result struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	Cycles        uint64 `json:"cycles"`
	RequestsSent  uint64 `json:"requests_sent"`
	RowHits       uint64 `json:"row_hits"`
	RowMisses     uint64 `json:"row_misses"`
	RowConflicts  uint64 `json:"row_conflicts"`
	Drained       bool   `json:"drained"`

	WallTime time.Duration `json:"wall_time_ns"`
}

// Scenario is a named trace to replay against a configured memory system.
type Scenario struct {
	Name        string
	Description string
	Config      *simconfig.Config
	Trace       []trace.Entry
	MaxTicks    uint64
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Output is where Print* writes results (default: os.Stdout).
	Output io.Writer

	// Verbose enables per-tick diagnostic output (currently unused, kept
	// for parity with the reporting options callers expect).
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{Output: os.Stdout}
}

// Harness runs scenarios and reports results.
type Harness struct {
	config    HarnessConfig
	scenarios []Scenario
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{config: config}
}

// AddScenario adds one scenario to the harness.
func (h *Harness) AddScenario(s Scenario) {
	h.scenarios = append(h.scenarios, s)
}

// AddScenarios adds several scenarios to the harness.
func (h *Harness) AddScenarios(scenarios []Scenario) {
	h.scenarios = append(h.scenarios, scenarios...)
}

// RunAll executes every scenario and returns its result.
func (h *Harness) RunAll() ([]Result, error) {
	results := make([]Result, 0, len(h.scenarios))
	for _, s := range h.scenarios {
		r, err := h.runScenario(s)
		if err != nil {
			return nil, fmt.Errorf("benchmarks: scenario %q: %w", s.Name, err)
		}
		results = append(results, r)
	}
	return results, nil
}

func (h *Harness) runScenario(s Scenario) (Result, error) {
	cfg := s.Config
	if cfg == nil {
		cfg = simconfig.Default()
	}
	dev, err := cfg.BuildDevice()
	if err != nil {
		return Result{}, err
	}
	m, err := cfg.BuildMapper(dev.Org)
	if err != nil {
		return Result{}, err
	}
	sys := memsystem.New(dev, m, cfg.ClockRatio)

	maxTicks := s.MaxTicks
	if maxTicks == 0 {
		maxTicks = 100_000
	}

	driver := trace.NewDriver(sys, s.Trace, uint64(len(s.Trace)))

	start := time.Now()
	var ticks uint64
	for ticks < maxTicks {
		if err := driver.Tick(); err != nil {
			return Result{}, err
		}
		if err := sys.Tick(); err != nil {
			return Result{}, err
		}
		ticks++
		if driver.IsFinished() && !sys.IsPending() {
			break
		}
	}
	wallTime := time.Since(start)

	var rowHits, rowMisses, rowConflicts uint64
	for _, c := range sys.Controllers {
		rowHits += c.Stats.RowHits
		rowMisses += c.Stats.RowMisses
		rowConflicts += c.Stats.RowConflicts
	}

	return Result{
		Name:         s.Name,
		Description:  s.Description,
		Cycles:       sys.Stats.Cycles,
		RequestsSent: driver.SentCount(),
		RowHits:      rowHits,
		RowMisses:    rowMisses,
		RowConflicts: rowConflicts,
		Drained:      driver.IsFinished() && !sys.IsPending(),
		WallTime:     wallTime,
	}, nil
}

// PrintResults outputs scenario results in a human-readable format.
func (h *Harness) PrintResults(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output, "=== HBM3-PIM Scenario Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Scenario: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Drained:      %v\n", r.Drained)
		_, _ = fmt.Fprintf(h.config.Output, "  Cycles:       %d\n", r.Cycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Requests:     %d\n", r.RequestsSent)
		_, _ = fmt.Fprintf(h.config.Output, "  Row hits:     %d\n", r.RowHits)
		_, _ = fmt.Fprintf(h.config.Output, "  Row misses:   %d\n", r.RowMisses)
		_, _ = fmt.Fprintf(h.config.Output, "  Row conflicts:%d\n", r.RowConflicts)
		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time:    %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs scenario results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output, "name,cycles,requests,row_hits,row_misses,row_conflicts,drained")
	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%d,%d,%v\n",
			r.Name, r.Cycles, r.RequestsSent, r.RowHits, r.RowMisses, r.RowConflicts, r.Drained)
	}
}

// Report is the complete JSON output format for a benchmark run.
type Report struct {
	Timestamp string   `json:"timestamp"`
	Results   []Result `json:"results"`
}

// PrintJSON outputs scenario results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []Result, timestamp string) error {
	report := Report{Timestamp: timestamp, Results: results}
	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// DefaultScenarios builds the spec's end-to-end scenario list against the
// HBM3_6.4Gbps preset.
func DefaultScenarios() []Scenario {
	cfg := simconfig.Default()
	cfg.Timing = "HBM3_6.4Gbps"

	return []Scenario{
		{
			Name:        "single-read-cold-bank",
			Description: "a lone read to a closed bank: ACT then RD",
			Config:      cfg,
			Trace:       []trace.Entry{{Type: request.Read, Addr: 0x0}},
		},
		{
			Name:        "read-row-hit",
			Description: "a second read to the same open row needs no ACT",
			Config:      cfg,
			Trace: []trace.Entry{
				{Type: request.Read, Addr: 0x0},
				{Type: request.Read, Addr: 0x40},
			},
		},
		{
			Name:        "write-after-read-row-conflict",
			Description: "a write to a different row of the same bank forces PRE then ACT",
			Config:      cfg,
			Trace: []trace.Entry{
				{Type: request.Read, Addr: 0x0},
				{Type: request.Write, Addr: 0x40000},
			},
		},
		{
			Name:        "pim-mac-all-bank",
			Description: "an all-bank MAC issues ACTAB then MACAB to every bank",
			Config:      cfg,
			Trace:       []trace.Entry{{Type: request.PIMMACAllBank, Addr: 0x0}},
		},
		{
			Name:        "barrier-ordering",
			Description: "a PIM MAC and a barrier in the PIM buffer, then a read; the barrier orders only the PIM buffer, so the read is not held behind it",
			Config:      cfg,
			Trace: []trace.Entry{
				{Type: request.PIMMACSameBank, Addr: 0x0},
				{Type: request.PIMBarrier, Addr: 0},
				{Type: request.Read, Addr: 0x0},
			},
		},
		{
			Name:        "write-mode-watermark",
			Description: "filling the write buffer past the high watermark flips the controller to write mode",
			Config:      cfg,
			Trace:       writeModeWatermarkTrace(),
		},
	}
}

func writeModeWatermarkTrace() []trace.Entry {
	var entries []trace.Entry
	for i := 0; i < 64; i++ {
		entries = append(entries, trace.Entry{Type: request.Write, Addr: uint64(i) * 0x40000})
	}
	entries = append(entries, trace.Entry{Type: request.Read, Addr: 0x1000000})
	return entries
}
