package controller_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hbm3pim/controller"
	"github.com/sarchlab/hbm3pim/dram"
	"github.com/sarchlab/hbm3pim/request"
	"github.com/sarchlab/hbm3pim/scheduler"
)

func TestController(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Controller Suite")
}

func newTestController() (*controller.Controller, *dram.Device) {
	org, err := dram.LookupOrg("HBM3_8Gb_2R")
	Expect(err).NotTo(HaveOccurred())
	timing, err := dram.LookupTiming("HBM3_4.8Gbps")
	Expect(err).NotTo(HaveOccurred())
	timing, err = dram.DeriveTiming(timing, org)
	Expect(err).NotTo(HaveOccurred())
	dev, err := dram.NewDevice(org, timing)
	Expect(err).NotTo(HaveOccurred())
	sch := scheduler.New(dev)
	return controller.New(dev, sch), dev
}

func addr(ba, ro int) dram.AddrVec {
	v := dram.NewAddrVec()
	v[dram.Channel] = 0
	v[dram.PseudoChannel] = 0
	v[dram.Rank] = 0
	v[dram.BankGroup] = 0
	v[dram.Bank] = ba
	v[dram.Row] = ro
	v[dram.Column] = 0
	return v
}

var _ = Describe("Controller", func() {
	It("reports not pending when every buffer is empty", func() {
		c, _ := newTestController()
		Expect(c.IsPending()).To(BeFalse())
	})

	It("accepts a read and eventually completes it via callback", func() {
		c, dev := newTestController()
		done := false
		r := request.New(1, request.Read, 0, addr(0, 5), 0)
		r.Callback = func(*request.Request) { done = true }

		Expect(c.Send(r)).To(BeTrue())
		Expect(c.IsPending()).To(BeTrue())

		for i := 0; i < 500 && !done; i++ {
			dev.Tick()
			Expect(c.Tick()).To(Succeed())
		}
		Expect(done).To(BeTrue())
	})

	It("forwards a read to a pending write on the same address", func() {
		c, _ := newTestController()
		w := request.New(1, request.Write, 0x40, addr(0, 5), 0)
		Expect(c.Send(w)).To(BeTrue())

		done := false
		r := request.New(2, request.Read, 0x40, addr(0, 5), 0)
		r.Callback = func(*request.Request) { done = true }
		Expect(c.Send(r)).To(BeTrue())

		Expect(c.Tick()).To(Succeed())
		Expect(c.Tick()).To(Succeed())
		Expect(done).To(BeTrue())
	})

	It("accepts a priority refresh request", func() {
		c, _ := newTestController()
		r := request.New(1, request.AllBankRefresh, 0, dram.NewAddrVec(), 0)
		Expect(c.PrioritySend(r)).To(BeTrue())
		Expect(c.IsPending()).To(BeTrue())
	})

	It("stalls the whole cycle when the priority head is not ready, instead of falling through", func() {
		c, dev := newTestController()

		// Open bank 0 directly so the priority head's prerequisite
		// (PRE, since REFsb needs the bank closed) is not yet ready:
		// tRAS hasn't elapsed since the ACT.
		Expect(dev.IssueCommand(dram.ACT, addr(0, 5))).To(Succeed())

		ref := request.New(1, request.PerBankRefresh, 0, addr(0, 5), 0)
		Expect(c.PrioritySend(ref)).To(BeTrue())

		r := request.New(2, request.Read, 0, addr(1, 0), 0)
		Expect(c.Send(r)).To(BeTrue())

		Expect(c.Tick()).To(Succeed())

		// The read's bank must still be closed: a stalled priority
		// head blocks ordinary traffic from being scheduled at all
		// this cycle, even though bank 1 itself is free.
		preq, err := dev.GetPreqCommand(dram.RD, addr(1, 0))
		Expect(err).NotTo(HaveOccurred())
		Expect(preq).To(Equal(dram.ACT))
	})
})
