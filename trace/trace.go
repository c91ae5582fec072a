// Package trace loads a line-oriented load/store/PIM instruction trace and
// replays it cyclically against a memory system, admitting as many requests
// as the controllers will accept each tick and retrying the rest next tick.
// Grounded on pim_loadstore_trace.cpp.
package trace

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/hbm3pim/memsystem"
	"github.com/sarchlab/hbm3pim/request"
)

// Entry is one parsed trace line: a request type and target address.
type Entry struct {
	Type request.Type
	Addr uint64
}

var opNames = map[string]request.Type{
	"LD":            request.Read,
	"ST":            request.Write,
	"PIM_MAC_AB":    request.PIMMACAllBank,
	"PIM_MAC_SB":    request.PIMMACSameBank,
	"PIM_MAC_PB":    request.PIMMACPerBank,
	"PIM_WR_GB":     request.PIMWriteToGEMVBuffer,
	"PIM_MV_SB":     request.PIMMoveToSoftmaxBuffer,
	"PIM_MV_GB":     request.PIMMoveToGEMVBuffer,
	"PIM_SFM":       request.PIMSoftmax,
	"PIM_SET_MODEL": request.PIMSetModel,
	"PIM_SET_HEAD":  request.PIMSetHead,
	"PIM_BARRIER":   request.PIMBarrier,
}

// Load reads a trace file, one "<OP> <addr>" line per request. addr may be
// decimal or 0x/0X-prefixed hex.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("trace: cannot open %s: %w", path, err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) != 2 {
			return nil, fmt.Errorf("trace: %s:%d: expected 2 fields, got %d", path, lineNo, len(tokens))
		}

		typ, ok := opNames[tokens[0]]
		if !ok {
			return nil, fmt.Errorf("trace: %s:%d: unknown opcode %q", path, lineNo, tokens[0])
		}

		addr, err := parseAddr(tokens[1])
		if err != nil {
			return nil, fmt.Errorf("trace: %s:%d: bad address %q: %w", path, lineNo, tokens[1], err)
		}

		entries = append(entries, Entry{Type: typ, Addr: addr})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("trace: %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("trace: %s: no entries", path)
	}
	return entries, nil
}

func parseAddr(tok string) (uint64, error) {
	if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X") {
		return strconv.ParseUint(tok[2:], 16, 64)
	}
	return strconv.ParseUint(tok, 10, 64)
}

// Driver replays a trace cyclically against a memory system: on each Tick it
// keeps admitting entries, wrapping back to the start of the trace, until a
// send is refused (the target buffer is full) or enough requests have been
// admitted to satisfy Length.
type Driver struct {
	System *memsystem.MemorySystem
	Trace  []Entry

	Length      uint64
	currIdx     int
	sentCount   uint64
	OnCompleted func(*request.Request)
}

// NewDriver builds a Driver that replays trace against sys until Length
// requests have been admitted (0 means loop forever until stopped
// externally).
func NewDriver(sys *memsystem.MemorySystem, trace []Entry, length uint64) *Driver {
	return &Driver{System: sys, Trace: trace, Length: length}
}

// Tick admits as many trace entries as the controllers will accept,
// advancing cyclically through the trace, until one is refused or the
// driver is finished.
func (d *Driver) Tick() error {
	if d.IsFinished() {
		return nil
	}
	for !d.IsFinished() {
		e := d.Trace[d.currIdx]
		sent, err := d.System.Send(e.Type, e.Addr, d.OnCompleted)
		if err != nil {
			return err
		}
		if !sent {
			return nil
		}
		d.currIdx = (d.currIdx + 1) % len(d.Trace)
		d.sentCount++
	}
	return nil
}

// IsFinished reports whether the driver has admitted its target number of
// requests. With Length == 0 it never finishes on its own.
func (d *Driver) IsFinished() bool {
	return d.Length > 0 && d.sentCount >= d.Length
}

// SentCount returns the number of trace entries admitted so far.
func (d *Driver) SentCount() uint64 {
	return d.sentCount
}
