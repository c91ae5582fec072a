// Package request defines the Request type shared by the address mapper,
// scheduler, controller, and memory system packages. It sits below all of
// them, the same way the Ramulator reference keeps its request definition
// in a single base header beneath dram/, addr_mapper/, and dram_controller/.
package request

import "github.com/sarchlab/hbm3pim/dram"

// Type identifies the kind of access a Request represents.
type Type int

const (
	Read Type = iota
	Write
	AllBankRefresh
	PerBankRefresh
	PIMMACAllBank
	PIMMACSameBank
	PIMMACPerBank
	PIMWriteToGEMVBuffer
	PIMMoveToSoftmaxBuffer
	PIMMoveToGEMVBuffer
	PIMSoftmax
	PIMSetModel
	PIMSetHead
	PIMBarrier

	NumTypes
)

var typeNames = [NumTypes]string{
	Read: "read", Write: "write",
	AllBankRefresh: "all-bank-refresh", PerBankRefresh: "per-bank-refresh",
	PIMMACAllBank:          "pim-mac-all-bank",
	PIMMACSameBank:         "pim-mac-same-bank",
	PIMMACPerBank:          "pim-mac-per-bank",
	PIMWriteToGEMVBuffer:   "pim-write-to-gemv-buffer",
	PIMMoveToSoftmaxBuffer: "pim-move-to-softmax-buffer",
	PIMMoveToGEMVBuffer:    "pim-move-to-gemv-buffer",
	PIMSoftmax:             "pim-softmax",
	PIMSetModel:            "pim-set-model",
	PIMSetHead:             "pim-set-head",
	PIMBarrier:             "pim-barrier",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "unknown"
	}
	return typeNames[t]
}

// Command translates a request type to the device command that serves it.
// PIMBarrier has no device command: it is consumed entirely by the
// scheduler's ordering logic.
func (t Type) Command() dram.Command {
	switch t {
	case Read:
		return dram.RD
	case Write:
		return dram.WR
	case AllBankRefresh:
		return dram.REFab
	case PerBankRefresh:
		return dram.REFsb
	case PIMMACAllBank:
		return dram.MACAB
	case PIMMACSameBank:
		return dram.MACSB
	case PIMMACPerBank:
		return dram.MACPB
	case PIMWriteToGEMVBuffer:
		return dram.WRGB
	case PIMMoveToSoftmaxBuffer:
		return dram.MVSB
	case PIMMoveToGEMVBuffer:
		return dram.MVGB
	case PIMSoftmax:
		return dram.SFM
	case PIMSetModel:
		return dram.SETM
	case PIMSetHead:
		return dram.SETH
	}
	return -1
}

// Request is one in-flight memory or PIM operation as it travels through
// the address mapper, controller buffers, and device.
type Request struct {
	ID        uint64
	Type      Type
	Addr      uint64
	AddrVec   dram.AddrVec
	ArriveAt  uint64
	DepartAt  uint64
	IsPending bool

	// FinalCommand is the device command that actually serves Type (e.g.
	// RD for a Read). Command is the scheduler's current best guess at
	// what to issue next toward that goal — a prerequisite such as ACT or
	// PRE when the target bank isn't ready for FinalCommand yet. The
	// scheduler recomputes Command every time it is asked for the best
	// request (GetPreqCommand may change its answer as other requests
	// open or close banks).
	FinalCommand dram.Command
	Command      dram.Command

	// Callback runs when a read completes (its data reaches the
	// requester); the controller never calls it for other request types.
	// Nil for requests the caller does not need to observe completion of.
	Callback func(*Request)
}

// New builds a Request of the given type targeting addr/addrVec, with
// Command initialized to FinalCommand (no prerequisite known yet).
func New(id uint64, typ Type, addr uint64, addrVec dram.AddrVec, arriveAt uint64) *Request {
	cmd := typ.Command()
	return &Request{
		ID: id, Type: typ, Addr: addr, AddrVec: addrVec, ArriveAt: arriveAt,
		FinalCommand: cmd, Command: cmd,
	}
}

// IsPIMRequest reports whether a request is any of the PIM request types (not a
// plain read, write, or refresh).
func (r *Request) IsPIMRequest() bool {
	return r.Type >= PIMMACAllBank
}

// IsAccess reports whether a request's command touches the data path
// (distinguishes it from refreshes and the barrier pseudo-request, which
// never reach IssueCommand as a device command).
func (r *Request) IsAccess() bool {
	switch r.Type {
	case AllBankRefresh, PerBankRefresh, PIMBarrier:
		return false
	default:
		return true
	}
}
