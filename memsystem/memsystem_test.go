package memsystem_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hbm3pim/dram"
	"github.com/sarchlab/hbm3pim/mapper"
	"github.com/sarchlab/hbm3pim/memsystem"
	"github.com/sarchlab/hbm3pim/request"
)

func TestMemsystem(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Memsystem Suite")
}

func newTestSystem() *memsystem.MemorySystem {
	org, err := dram.LookupOrg("HBM3_8Gb_2R")
	Expect(err).NotTo(HaveOccurred())
	timing, err := dram.LookupTiming("HBM3_4.8Gbps")
	Expect(err).NotTo(HaveOccurred())
	timing, err = dram.DeriveTiming(timing, org)
	Expect(err).NotTo(HaveOccurred())
	dev, err := dram.NewDevice(org, timing)
	Expect(err).NotTo(HaveOccurred())
	m := mapper.NewLinear(org, 32)
	return memsystem.New(dev, m, 1)
}

var _ = Describe("MemorySystem", func() {
	It("is not pending when idle", func() {
		ms := newTestSystem()
		Expect(ms.IsPending()).To(BeFalse())
	})

	It("counts a successful send by request type", func() {
		ms := newTestSystem()
		ok, err := ms.Send(request.Read, 0x1000, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(ms.Stats.Read).To(Equal(uint64(1)))
		Expect(ms.IsPending()).To(BeTrue())
	})

	It("completes a read through enough ticks", func() {
		ms := newTestSystem()
		done := false
		ok, err := ms.Send(request.Read, 0x2000, func(*request.Request) { done = true })
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		for i := 0; i < 1000 && !done; i++ {
			Expect(ms.Tick()).To(Succeed())
		}
		Expect(done).To(BeTrue())
		Expect(ms.IsPending()).To(BeFalse())
	})

	It("reports tCK in nanoseconds", func() {
		ms := newTestSystem()
		Expect(ms.TCKNs()).To(BeNumerically(">", 0))
	})
})
