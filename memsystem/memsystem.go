// Package memsystem ties the address mapper, per-channel controllers, and
// device together into the top-level simulated memory system: it fans a
// request out to the controller owning its mapped channel, advances the
// device and every controller each cycle in a fixed order, and accumulates
// per-request-type counters. Grounded on PIM_DRAM_system.cpp.
package memsystem

import (
	"fmt"

	"github.com/sarchlab/hbm3pim/controller"
	"github.com/sarchlab/hbm3pim/dram"
	"github.com/sarchlab/hbm3pim/mapper"
	"github.com/sarchlab/hbm3pim/request"
	"github.com/sarchlab/hbm3pim/scheduler"
)

// Stats accumulates per-request-type counters across the system's
// lifetime: one field per read, write, and counted PIM type, Other for
// every remaining type except the uncounted barrier, plus the cycle count.
type Stats struct {
	Cycles uint64

	Read                   uint64
	Write                  uint64
	PIMMACAllBank          uint64
	PIMMACSameBank         uint64
	PIMMACPerBank          uint64
	PIMWriteToGEMVBuffer   uint64
	PIMMoveToSoftmaxBuffer uint64
	PIMMoveToGEMVBuffer    uint64
	PIMSoftmax             uint64
	PIMSetModel            uint64
	PIMSetHead             uint64
	Other                  uint64
}

// MemorySystem is the simulation's top-level driver.
type MemorySystem struct {
	Device      *dram.Device
	Mapper      mapper.Mapper
	Controllers []*controller.Controller
	ClockRatio  uint

	Stats Stats

	clk      uint64
	nextReqID uint64
}

// New builds a memory system with one controller per channel in org.
func New(dev *dram.Device, m mapper.Mapper, clockRatio uint) *MemorySystem {
	ms := &MemorySystem{Device: dev, Mapper: m, ClockRatio: clockRatio}
	for range dev.Channels {
		sch := scheduler.New(dev)
		ms.Controllers = append(ms.Controllers, controller.New(dev, sch))
	}
	return ms
}

// Send maps addr to a channel/request and enqueues it on that channel's
// controller, incrementing the matching per-type counter on success.
func (m *MemorySystem) Send(typ request.Type, addr uint64, callback func(*request.Request)) (bool, error) {
	m.nextReqID++
	addrVec := m.Mapper.Apply(addr)
	req := request.New(m.nextReqID, typ, addr, addrVec, m.clk)
	req.Callback = callback

	ch := addrVec[dram.Channel]
	if ch < 0 || ch >= len(m.Controllers) {
		return false, fmt.Errorf("memsystem: mapped channel %d out of range", ch)
	}

	ok := m.Controllers[ch].Send(req)
	if ok {
		m.countRequest(typ)
	}
	return ok, nil
}

// SendPriority enqueues a maintenance request (refresh) directly into the
// channel's priority buffer, bypassing per-type counting: the reference
// counts only ordinary `send` traffic.
func (m *MemorySystem) SendPriority(typ request.Type, addr uint64) (bool, error) {
	m.nextReqID++
	addrVec := m.Mapper.Apply(addr)
	req := request.New(m.nextReqID, typ, addr, addrVec, m.clk)

	ch := addrVec[dram.Channel]
	if ch < 0 || ch >= len(m.Controllers) {
		return false, fmt.Errorf("memsystem: mapped channel %d out of range", ch)
	}
	return m.Controllers[ch].PrioritySend(req), nil
}

func (m *MemorySystem) countRequest(typ request.Type) {
	switch typ {
	case request.Read:
		m.Stats.Read++
	case request.Write:
		m.Stats.Write++
	case request.PIMMACAllBank:
		m.Stats.PIMMACAllBank++
	case request.PIMMACSameBank:
		m.Stats.PIMMACSameBank++
	case request.PIMMACPerBank:
		m.Stats.PIMMACPerBank++
	case request.PIMWriteToGEMVBuffer:
		m.Stats.PIMWriteToGEMVBuffer++
	case request.PIMMoveToSoftmaxBuffer:
		m.Stats.PIMMoveToSoftmaxBuffer++
	case request.PIMMoveToGEMVBuffer:
		m.Stats.PIMMoveToGEMVBuffer++
	case request.PIMSoftmax:
		m.Stats.PIMSoftmax++
	case request.PIMSetModel:
		m.Stats.PIMSetModel++
	case request.PIMSetHead:
		m.Stats.PIMSetHead++
	case request.PIMBarrier:
		// not counted, matching the reference's empty PIM_BARRIER case
	default:
		m.Stats.Other++
	}
}

// Tick advances the device, then every controller, then the memory-system
// clock, in that fixed order.
func (m *MemorySystem) Tick() error {
	m.Device.Tick()
	for _, c := range m.Controllers {
		if err := c.Tick(); err != nil {
			return err
		}
	}
	m.clk++
	m.Stats.Cycles = m.clk
	return nil
}

// IsPending reports whether any controller still has outstanding work.
func (m *MemorySystem) IsPending() bool {
	for _, c := range m.Controllers {
		if c.IsPending() {
			return true
		}
	}
	return false
}

// TCKNs returns the device's cycle time in nanoseconds.
func (m *MemorySystem) TCKNs() float64 {
	return float64(m.Device.Timing.TCKPs) / 1000.0
}
