package scheduler_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hbm3pim/dram"
	"github.com/sarchlab/hbm3pim/request"
	"github.com/sarchlab/hbm3pim/scheduler"
)

func TestScheduler(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Scheduler Suite")
}

func newTestDevice() *dram.Device {
	org, err := dram.LookupOrg("HBM3_8Gb_2R")
	Expect(err).NotTo(HaveOccurred())
	timing, err := dram.LookupTiming("HBM3_4.8Gbps")
	Expect(err).NotTo(HaveOccurred())
	timing, err = dram.DeriveTiming(timing, org)
	Expect(err).NotTo(HaveOccurred())
	dev, err := dram.NewDevice(org, timing)
	Expect(err).NotTo(HaveOccurred())
	return dev
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

var _ = Describe("Scheduler", func() {
	var (
		dev *dram.Device
		sch *scheduler.Scheduler
	)

	BeforeEach(func() {
		dev = newTestDevice()
		sch = scheduler.New(dev)
	})

	It("returns nil on an empty buffer", func() {
		buf := request.NewBuffer(0)
		best, err := sch.GetBestRequest(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(best).To(BeNil())
	})

	It("picks the only request and resolves it to its ACT prerequisite", func() {
		buf := request.NewBuffer(0)
		r := request.New(1, request.Read, 0, addr(0, 5), 0)
		buf.PushBack(r)

		best, err := sch.GetBestRequest(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(best).To(Equal(r))
		Expect(best.Command).To(Equal(dram.ACT))
	})

	It("consumes a barrier at the front of the buffer", func() {
		buf := request.NewBuffer(0)
		barrier := request.New(1, request.PIMBarrier, 0, dram.NewAddrVec(), 0)
		read := request.New(2, request.Read, 0, addr(0, 5), 1)
		buf.PushBack(barrier)
		buf.PushBack(read)

		best, err := sch.GetBestRequest(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(best).To(Equal(read))
		Expect(buf.Len()).To(Equal(1))
	})

	It("prefers a ready request over a not-ready one with no cached row hit", func() {
		buf := request.NewBuffer(0)
		// Bank 0 holds row 9, so the request for row 7 needs a PRE that
		// nRAS still blocks; bank 1 is closed and its ACT is ready once
		// nRRDL has elapsed.
		Expect(dev.IssueCommand(dram.ACT, addr(0, 9))).To(Succeed())
		for i := 0; i < dev.Timing.NRRDL; i++ {
			dev.Tick()
		}

		ready := request.New(1, request.Read, 0, addr(1, 3), 5)
		notReady := request.New(2, request.Read, 0, addr(0, 7), 0)
		buf.PushBack(notReady)
		buf.PushBack(ready)

		best, err := sch.GetBestRequest(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(best).To(Equal(ready))
	})

	It("falls back to FCFS when both candidates are equally (not) ready", func() {
		buf := request.NewBuffer(0)
		first := request.New(1, request.Read, 0, addr(0, 5), 0)
		second := request.New(2, request.Read, 0, addr(1, 5), 1)
		buf.PushBack(second)
		buf.PushBack(first)

		best, err := sch.GetBestRequest(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(best).To(Equal(first))
	})
})
