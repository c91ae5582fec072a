// Package scheduler selects which queued request a channel controller
// should try to issue next, favoring row-buffer hits and open/close
// commands around a PIM barrier while still guaranteeing forward progress
// via FCFS fallback. Grounded on pim_scheduler.cpp.
package scheduler

import (
	"github.com/sarchlab/hbm3pim/dram"
	"github.com/sarchlab/hbm3pim/request"
)

// Scheduler implements the PIM scheduling policy against a single device.
type Scheduler struct {
	Device *dram.Device

	rowHitList []dram.AddrVec
}

// New returns a Scheduler bound to dev.
func New(dev *dram.Device) *Scheduler {
	return &Scheduler{Device: dev}
}

func bankAddrVec(r *request.Request) dram.AddrVec {
	return r.AddrVec.BankPrefix()
}

func (s *Scheduler) hasRowHit(prefix dram.AddrVec) bool {
	for _, p := range s.rowHitList {
		if p.Equal(prefix) {
			return true
		}
	}
	return false
}

// compare picks the better of two candidate requests: a ready request
// beats a not-ready one, except that a ready req2 which is not itself a
// row-buffer hit loses to req1 when some queued request has a row hit in
// req2's bank (issuing req2 would cost that hit); ties fall back to
// first-come-first-served by arrival cycle.
func (s *Scheduler) compare(req1, req2 *request.Request) (*request.Request, error) {
	ready1, err := s.Device.CheckReady(req1.Command, req1.AddrVec)
	if err != nil {
		return nil, err
	}
	ready2, err := s.Device.CheckReady(req2.Command, req2.AddrVec)
	if err != nil {
		return nil, err
	}

	if ready1 != ready2 {
		if ready1 {
			return req1, nil
		}
		hit2, err := s.Device.CheckRowBufferHit(req2.Command, req2.AddrVec)
		if err != nil {
			return nil, err
		}
		if !hit2 && s.hasRowHit(bankAddrVec(req2)) {
			return req1, nil
		}
		return req2, nil
	}

	if req1.ArriveAt <= req2.ArriveAt {
		return req1, nil
	}
	return req2, nil
}

// GetBestRequest resolves each queued request's prerequisite command,
// records which banks currently have a row-buffer hit available, drops a
// barrier once it reaches the front of the buffer, and returns the best
// remaining candidate. Once a later barrier is seen, only opening/closing
// commands past it are allowed to compete with the candidate — access
// commands must wait for the barrier. Returns nil, nil if the buffer is
// empty (after barrier consumption).
func (s *Scheduler) GetBestRequest(buf *request.Buffer) (*request.Request, error) {
	if buf.Len() == 0 {
		return nil, nil
	}

	for _, r := range buf.All() {
		cmd, err := s.Device.GetPreqCommand(r.FinalCommand, r.AddrVec)
		if err != nil {
			return nil, err
		}
		r.Command = cmd
	}

	s.rowHitList = s.rowHitList[:0]
	for _, r := range buf.All() {
		hit, err := s.Device.CheckRowBufferHit(r.Command, r.AddrVec)
		if err != nil {
			return nil, err
		}
		if hit {
			s.rowHitList = append(s.rowHitList, bankAddrVec(r))
		}
	}

	items := buf.All()
	if items[0].Type == request.PIMBarrier {
		buf.RemoveFront()
		items = buf.All()
		if len(items) == 0 {
			return nil, nil
		}
	}

	candidate := items[0]
	barrier := false
	for _, next := range items[1:] {
		if next.Type == request.PIMBarrier {
			barrier = true
			continue
		}
		meta := next.Command.Meta()
		if !barrier || meta.IsOpening || meta.IsClosing {
			best, err := s.compare(candidate, next)
			if err != nil {
				return nil, err
			}
			candidate = best
		}
	}
	return candidate, nil
}
