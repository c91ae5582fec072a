package trace_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hbm3pim/dram"
	"github.com/sarchlab/hbm3pim/mapper"
	"github.com/sarchlab/hbm3pim/memsystem"
	"github.com/sarchlab/hbm3pim/request"
	"github.com/sarchlab/hbm3pim/trace"
)

func TestTrace(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Trace Suite")
}

func writeTrace(t GinkgoTInterface, contents string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.trace")
	Expect(os.WriteFile(path, []byte(contents), 0o644)).To(Succeed())
	return path
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

var _ = Describe("Load", func() {
	It("parses LD/ST lines with decimal and hex addresses", func() {
		path := writeTrace(GinkgoT(), "LD 0x1000\nST 4096\n")
		entries, err := trace.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Type).To(Equal(request.Read))
		Expect(entries[0].Addr).To(Equal(uint64(0x1000)))
		Expect(entries[1].Type).To(Equal(request.Write))
		Expect(entries[1].Addr).To(Equal(uint64(4096)))
	})

	It("parses every PIM opcode", func() {
		path := writeTrace(GinkgoT(), "PIM_MAC_AB 0\nPIM_MAC_SB 0\nPIM_MAC_PB 0\n"+
			"PIM_WR_GB 0\nPIM_MV_SB 0\nPIM_MV_GB 0\nPIM_SFM 0\n"+
			"PIM_SET_MODEL 0\nPIM_SET_HEAD 0\nPIM_BARRIER 0\n")
		entries, err := trace.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(10))
		Expect(entries[9].Type).To(Equal(request.PIMBarrier))
	})

	It("rejects an unknown opcode", func() {
		path := writeTrace(GinkgoT(), "FOO 0\n")
		_, err := trace.Load(path)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a malformed line", func() {
		path := writeTrace(GinkgoT(), "LD\n")
		_, err := trace.Load(path)
		Expect(err).To(HaveOccurred())
	})

	It("errors on a missing file", func() {
		_, err := trace.Load("/no/such/file.trace")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Driver", func() {
	It("admits entries and reports completion through callbacks", func() {
		path := writeTrace(GinkgoT(), "LD 0x1000\nST 0x2000\n")
		entries, err := trace.Load(path)
		Expect(err).NotTo(HaveOccurred())

		sys := newTestSystem()
		completed := 0
		d := trace.NewDriver(sys, entries, 2)
		d.OnCompleted = func(*request.Request) { completed++ }

		for i := 0; i < 1000 && !d.IsFinished(); i++ {
			Expect(d.Tick()).To(Succeed())
			Expect(sys.Tick()).To(Succeed())
		}
		Expect(d.IsFinished()).To(BeTrue())
		Expect(d.SentCount()).To(Equal(uint64(2)))

		for i := 0; i < 1000 && sys.IsPending(); i++ {
			Expect(sys.Tick()).To(Succeed())
		}
		Expect(completed).To(Equal(1)) // writes carry no completion callback
	})

	It("wraps cyclically past the end of the trace", func() {
		path := writeTrace(GinkgoT(), "LD 0x1000\n")
		entries, err := trace.Load(path)
		Expect(err).NotTo(HaveOccurred())

		sys := newTestSystem()
		d := trace.NewDriver(sys, entries, 3)
		for i := 0; i < 2000 && !d.IsFinished(); i++ {
			Expect(d.Tick()).To(Succeed())
			Expect(sys.Tick()).To(Succeed())
		}
		Expect(d.SentCount()).To(Equal(uint64(3)))
	})
})
