// Package main provides the entry point for the HBM3-PIM simulator.
// hbm3pim replays a load/store/PIM instruction trace against a
// cycle-accurate HBM3-PIM device model and reports timing statistics.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/hbm3pim/controller"
	"github.com/sarchlab/hbm3pim/memsystem"
	"github.com/sarchlab/hbm3pim/simconfig"
	"github.com/sarchlab/hbm3pim/trace"
)

var (
	configPath = flag.String("config", "", "Path to simulation configuration JSON file")
	tracePath  = flag.String("trace", "", "Path to the load/store/PIM trace file")
	verbose    = flag.Bool("v", false, "Verbose output")
	jsonOut    = flag.Bool("json", false, "Print the statistics report as JSON instead of plain text")
	maxTicks   = flag.Uint64("max-ticks", 10_000_000, "Safety bound on simulated cycles")
)

func main() {
	flag.Parse()

	if *tracePath == "" {
		fmt.Fprintf(os.Stderr, "Usage: hbm3pim -trace <trace-file> [options]\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := simconfig.Default()
	if *configPath != "" {
		var err error
		cfg, err = simconfig.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	entries, err := trace.Load(*tracePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading trace: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Config: %s\n", *configPath)
		fmt.Printf("Organization: %s\n", cfg.Organization)
		fmt.Printf("Timing: %s\n", cfg.Timing)
		fmt.Printf("Mapper: %s\n", cfg.Mapper)
		fmt.Printf("Trace: %s (%d lines)\n", *tracePath, len(entries))
	}

	exitCode := run(cfg, entries)
	os.Exit(exitCode)
}

func run(cfg *simconfig.Config, entries []trace.Entry) int {
	dev, err := cfg.BuildDevice()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building device: %v\n", err)
		return 1
	}
	m, err := cfg.BuildMapper(dev.Org)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building mapper: %v\n", err)
		return 1
	}
	sys := memsystem.New(dev, m, cfg.ClockRatio)
	for _, c := range sys.Controllers {
		c.WrLowWatermark = cfg.WrLowWatermark
		c.WrHighWatermark = cfg.WrHighWatermark
		c.SetBufferCapacities(cfg.ReadBufferSize, cfg.WriteBufferSize, cfg.PIMBufferSize)
	}

	driver := trace.NewDriver(sys, entries, uint64(len(entries)))

	var ticks uint64
	for ticks < *maxTicks {
		if err := driver.Tick(); err != nil {
			fmt.Fprintf(os.Stderr, "Error driving trace: %v\n", err)
			return 1
		}
		if err := sys.Tick(); err != nil {
			fmt.Fprintf(os.Stderr, "Error ticking memory system: %v\n", err)
			return 1
		}
		ticks++
		if driver.IsFinished() && !sys.IsPending() {
			break
		}
	}

	if *jsonOut {
		if err := printReportJSON(sys); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
			return 1
		}
	} else {
		printReport(sys, ticks)
	}

	if driver.IsFinished() && !sys.IsPending() {
		return 0
	}
	fmt.Fprintf(os.Stderr, "Simulation did not drain within %d ticks\n", *maxTicks)
	return 1
}

// report is the JSON output format for the end-of-run statistics.
type report struct {
	Stats        memsystem.Stats  `json:"stats"`
	ChannelStats []controller.Stats `json:"channel_stats"`
}

func printReportJSON(sys *memsystem.MemorySystem) error {
	r := report{Stats: sys.Stats}
	for _, c := range sys.Controllers {
		r.ChannelStats = append(r.ChannelStats, c.Stats)
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

func printReport(sys *memsystem.MemorySystem, ticks uint64) {
	stats := sys.Stats
	tCKNs := sys.TCKNs()

	fmt.Printf("\n")
	fmt.Printf("Total cycles: %d\n", stats.Cycles)
	fmt.Printf("Elapsed time: %.2f ns\n", float64(stats.Cycles)*tCKNs)
	fmt.Printf("\n")
	fmt.Printf("Request counts:\n")
	fmt.Printf("  Read:                      %d\n", stats.Read)
	fmt.Printf("  Write:                     %d\n", stats.Write)
	fmt.Printf("  PIM MAC (all-bank):        %d\n", stats.PIMMACAllBank)
	fmt.Printf("  PIM MAC (same-bank):       %d\n", stats.PIMMACSameBank)
	fmt.Printf("  PIM MAC (per-bank):        %d\n", stats.PIMMACPerBank)
	fmt.Printf("  PIM write-to-GEMV buffer:  %d\n", stats.PIMWriteToGEMVBuffer)
	fmt.Printf("  PIM move-to-softmax buffer:%d\n", stats.PIMMoveToSoftmaxBuffer)
	fmt.Printf("  PIM move-to-GEMV buffer:   %d\n", stats.PIMMoveToGEMVBuffer)
	fmt.Printf("  PIM softmax:               %d\n", stats.PIMSoftmax)
	fmt.Printf("  PIM set-model:             %d\n", stats.PIMSetModel)
	fmt.Printf("  PIM set-head:              %d\n", stats.PIMSetHead)
	fmt.Printf("  Other:                     %d\n", stats.Other)
	fmt.Printf("\n")
	fmt.Printf("Row-buffer outcomes (per channel):\n")
	for i, c := range sys.Controllers {
		total := c.Stats.RowHits + c.Stats.RowMisses + c.Stats.RowConflicts
		hitRate := 0.0
		if total > 0 {
			hitRate = 100.0 * float64(c.Stats.RowHits) / float64(total)
		}
		fmt.Printf("  Channel %d: hits=%d misses=%d conflicts=%d (%.1f%% hit rate)\n",
			i, c.Stats.RowHits, c.Stats.RowMisses, c.Stats.RowConflicts, hitRate)
	}
}
