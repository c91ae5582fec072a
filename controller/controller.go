// Package controller implements a single-channel memory controller: five
// priority-ordered request buffers, a scheduler-driven primary command
// slot, and a dual-issue secondary slot for a resource-disjoint row/column
// command pair. Grounded on hbm3_pim_controller.cpp.
package controller

import (
	"github.com/sarchlab/hbm3pim/dram"
	"github.com/sarchlab/hbm3pim/request"
	"github.com/sarchlab/hbm3pim/scheduler"
)

// Stats accumulates row-buffer outcome counters for reporting.
type Stats struct {
	RowHits      uint64
	RowMisses    uint64
	RowConflicts uint64
}

// Controller drives one channel's worth of buffers and bank scheduling
// against a single device channel.
type Controller struct {
	Device    *dram.Device
	Scheduler *scheduler.Scheduler

	active   *request.Buffer
	priority *request.Buffer
	read     *request.Buffer
	write    *request.Buffer
	pim      *request.Buffer
	pending  []*request.Request

	WrLowWatermark  float64
	WrHighWatermark float64
	isWriteMode     bool
	isPIM           bool

	clk   uint64
	Stats Stats
}

// New builds a Controller bound to dev and sch. priorityCap matches the
// reference's m_priority_buffer.max_size = 512*3 + 32, sized for a burst
// of maintenance traffic across a channel's banks.
func New(dev *dram.Device, sch *scheduler.Scheduler) *Controller {
	return &Controller{
		Device:          dev,
		Scheduler:       sch,
		active:          request.NewBuffer(0),
		priority:        request.NewBuffer(512*3 + 32),
		read:            request.NewBuffer(64),
		write:           request.NewBuffer(64),
		pim:             request.NewBuffer(64),
		WrLowWatermark:  0.2,
		WrHighWatermark: 0.8,
	}
}

// SetBufferCapacities overrides the default read/write/PIM buffer sizes.
func (c *Controller) SetBufferCapacities(read, write, pim int) {
	c.read = request.NewBuffer(read)
	c.write = request.NewBuffer(write)
	c.pim = request.NewBuffer(pim)
}

// Send enqueues req into the buffer matching its type, forwarding reads
// that target an address already pending in the write buffer instead of
// re-reading it from the device. It panics on a type that is not a read,
// write, or PIM request.
func (c *Controller) Send(req *request.Request) bool {
	if req.Type == request.Read {
		for _, w := range c.write.All() {
			if w.Addr == req.Addr {
				req.DepartAt = c.clk + 1
				c.pending = append(c.pending, req)
				return true
			}
		}
	}

	req.ArriveAt = c.clk
	var buf *request.Buffer
	switch req.Type {
	case request.Read:
		buf = c.read
	case request.Write:
		buf = c.write
	case request.PIMMACAllBank, request.PIMMACSameBank, request.PIMMACPerBank,
		request.PIMWriteToGEMVBuffer, request.PIMMoveToSoftmaxBuffer,
		request.PIMMoveToGEMVBuffer, request.PIMSoftmax, request.PIMSetModel,
		request.PIMSetHead, request.PIMBarrier:
		buf = c.pim
	default:
		panic("controller: invalid request type " + req.Type.String())
	}

	if !buf.PushBack(req) {
		return false
	}
	c.classifyRowBuffer(req)
	return true
}

// classifyRowBuffer records whether req's target row was already open,
// closed, or held a different row at the moment the request arrived.
func (c *Controller) classifyRowBuffer(req *request.Request) {
	if !req.IsAccess() {
		return
	}
	preq, err := c.Device.GetPreqCommand(req.FinalCommand, req.AddrVec)
	if err != nil {
		return
	}
	switch {
	case preq == req.FinalCommand:
		c.Stats.RowHits++
	case preq.Meta().IsOpening:
		c.Stats.RowMisses++
	default:
		c.Stats.RowConflicts++
	}
}

// PrioritySend enqueues a maintenance request (refresh) into the priority
// buffer, bypassing the read/write/PIM queues entirely.
func (c *Controller) PrioritySend(req *request.Request) bool {
	return c.priority.PushBack(req)
}

// IsPending reports whether any buffer, or the completion queue, still
// holds work.
func (c *Controller) IsPending() bool {
	return c.active.Len() > 0 || c.priority.Len() > 0 || c.read.Len() > 0 ||
		c.write.Len() > 0 || c.pim.Len() > 0 || len(c.pending) > 0
}

// Tick advances the controller by one cycle: it completes the reads at the
// head of the completion queue whose latency has elapsed, picks a primary request to issue, and attempts a
// resource-disjoint secondary issue alongside it.
func (c *Controller) Tick() error {
	c.clk++
	c.serveCompletedReads()

	primary, primaryBuf, err := c.scheduleRequest()
	if err != nil {
		return err
	}
	if primary != nil {
		if err := c.issueAndSettle(primary, primaryBuf); err != nil {
			return err
		}

		secondary, secondaryBuf, err := c.scheduleSecRequest(primary.Command)
		if err != nil {
			return err
		}
		if secondary != nil {
			if err := c.issueAndSettle(secondary, secondaryBuf); err != nil {
				return err
			}
		}
	}
	return nil
}

// issueAndSettle issues req's current command and either retires the
// request (its final command was reached) or promotes it to the active
// buffer (an opening command was issued toward a still-pending access).
func (c *Controller) issueAndSettle(req *request.Request, buf *request.Buffer) error {
	if err := c.Device.IssueCommand(req.Command, req.AddrVec); err != nil {
		return err
	}

	if req.Command == req.FinalCommand {
		if req.Type == request.Read {
			req.DepartAt = c.clk + uint64(c.Device.Timing.ReadLatency)
			c.pending = append(c.pending, req)
		}
		buf.Remove(req)
		return nil
	}

	if !c.isPIM && req.Command.Meta().IsOpening {
		c.active.PushBack(req)
		buf.Remove(req)
	}
	return nil
}

// serveCompletedReads pops requests off the head of the completion queue
// while the head's departure cycle has elapsed, running each callback.
func (c *Controller) serveCompletedReads() {
	for len(c.pending) > 0 && c.pending[0].DepartAt <= c.clk {
		req := c.pending[0]
		if req.Callback != nil {
			req.Callback(req)
		}
		c.pending = c.pending[1:]
	}
}

// setWriteMode implements the watermark hysteresis: switch to write mode
// once the write buffer crosses the high watermark (or reads have nothing
// to serve), switch back once it drains below the low watermark and reads
// are waiting again.
func (c *Controller) setWriteMode() {
	writeCap := float64(c.write.Cap())
	if !c.isWriteMode {
		if float64(c.write.Len()) > c.WrHighWatermark*writeCap || c.read.Len() == 0 {
			c.isWriteMode = true
		}
	} else {
		if float64(c.write.Len()) < c.WrLowWatermark*writeCap && c.read.Len() != 0 {
			c.isWriteMode = false
		}
	}
}

// scheduleRequest picks the primary command to issue this cycle: the
// active buffer first (finish what's already open), then the priority
// buffer, then PIM, then read/write by watermark — and vetoes the pick if
// it would close a row another active-buffer request still needs open.
func (c *Controller) scheduleRequest() (*request.Request, *request.Buffer, error) {
	req, buf, err := c.pickFromActive()
	if err != nil || req != nil {
		return req, buf, err
	}

	req, buf, stall, err := c.pickFromPriority()
	if err != nil {
		return nil, nil, err
	}
	if stall {
		return nil, nil, nil
	}
	if req != nil {
		return c.vetoIfClosingActive(req, buf)
	}

	c.isPIM = false
	req, buf, err = c.pickBest(c.pim)
	if err != nil {
		return nil, nil, err
	}
	if req != nil {
		c.isPIM = true
		return c.vetoIfClosingActive(req, buf)
	}

	c.setWriteMode()
	rwBuf := c.read
	if c.isWriteMode {
		rwBuf = c.write
	}
	req, buf, err = c.pickBest(rwBuf)
	if err != nil {
		return nil, nil, err
	}
	if req == nil {
		return nil, nil, nil
	}
	return c.vetoIfClosingActive(req, buf)
}

// scheduleSecRequest mirrors scheduleRequest but additionally requires the
// candidate's command to occupy the opposite resource (row vs. column)
// from firstCmd, so the two can issue in the same cycle.
func (c *Controller) scheduleSecRequest(firstCmd dram.Command) (*request.Request, *request.Buffer, error) {
	req, buf, err := c.pickFromActive()
	if err != nil {
		return nil, nil, err
	}
	if req != nil && dram.OppositeResourceType(firstCmd, req.Command) {
		return c.vetoIfClosingActive(req, buf)
	}

	req, buf, stall, err := c.pickFromPriority()
	if err != nil {
		return nil, nil, err
	}
	if stall {
		return nil, nil, nil
	}
	if req != nil && dram.OppositeResourceType(firstCmd, req.Command) {
		return c.vetoIfClosingActive(req, buf)
	}

	c.isPIM = false
	req, buf, err = c.pickBest(c.pim)
	if err != nil {
		return nil, nil, err
	}
	if req != nil && dram.OppositeResourceType(firstCmd, req.Command) {
		c.isPIM = true
		return c.vetoIfClosingActive(req, buf)
	}

	c.setWriteMode()
	rwBuf := c.read
	if c.isWriteMode {
		rwBuf = c.write
	}
	req, buf, err = c.pickBest(rwBuf)
	if err != nil {
		return nil, nil, err
	}
	if req != nil && dram.OppositeResourceType(firstCmd, req.Command) {
		return c.vetoIfClosingActive(req, buf)
	}
	return nil, nil, nil
}

func (c *Controller) pickFromActive() (*request.Request, *request.Buffer, error) {
	req, err := c.Scheduler.GetBestRequest(c.active)
	if err != nil || req == nil {
		return nil, nil, err
	}
	ready, err := c.Device.CheckReady(req.Command, req.AddrVec)
	if err != nil || !ready {
		return nil, nil, err
	}
	return req, c.active, nil
}

// pickFromPriority returns the priority buffer's head once it is ready to
// issue. A non-empty priority buffer whose head is not yet ready stalls the
// entire cycle rather than falling through to PIM/read/write — matching the
// reference's "if (!request_found && priority_buffer.size() != 0) return
// false", which never lets ordinary traffic jump ahead of pending
// maintenance (refresh) commands.
func (c *Controller) pickFromPriority() (req *request.Request, buf *request.Buffer, stall bool, err error) {
	if c.priority.Len() == 0 {
		return nil, nil, false, nil
	}
	head := c.priority.Front()
	cmd, err := c.Device.GetPreqCommand(head.FinalCommand, head.AddrVec)
	if err != nil {
		return nil, nil, false, err
	}
	head.Command = cmd
	ready, err := c.Device.CheckReady(cmd, head.AddrVec)
	if err != nil {
		return nil, nil, false, err
	}
	if !ready {
		return nil, nil, true, nil
	}
	return head, c.priority, false, nil
}

func (c *Controller) pickBest(buf *request.Buffer) (*request.Request, *request.Buffer, error) {
	req, err := c.Scheduler.GetBestRequest(buf)
	if err != nil || req == nil {
		return nil, nil, err
	}
	ready, err := c.Device.CheckReady(req.Command, req.AddrVec)
	if err != nil || !ready {
		return nil, nil, err
	}
	return req, buf, nil
}

// vetoIfClosingActive drops a candidate that would close a bank another
// request in the active buffer is still using, matching the reference's
// check against rowgroup collisions (addr_vec prefix up to, excluding,
// row).
func (c *Controller) vetoIfClosingActive(req *request.Request, buf *request.Buffer) (*request.Request, *request.Buffer, error) {
	if !req.Command.Meta().IsClosing {
		return req, buf, nil
	}
	prefix := req.AddrVec.BankPrefix()
	for _, other := range c.active.All() {
		if other.AddrVec.BankPrefix().Equal(prefix) {
			return nil, nil, nil
		}
	}
	return req, buf, nil
}
