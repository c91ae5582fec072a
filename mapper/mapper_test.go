package mapper_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hbm3pim/dram"
	"github.com/sarchlab/hbm3pim/mapper"
)

func TestMapper(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Mapper Suite")
}

var _ = Describe("Linear", func() {
	It("round-trips distinct addresses to distinct vectors within range", func() {
		org, err := dram.LookupOrg("HBM3_8Gb_2R")
		Expect(err).NotTo(HaveOccurred())

		m := mapper.NewLinear(org, 32)
		seen := map[string]uint64{}
		for i := uint64(0); i < 64; i++ {
			addr := i * 1024
			v := m.Apply(addr)
			for level := dram.Channel; level < dram.NumLevels; level++ {
				Expect(v[level]).To(BeNumerically(">=", 0))
			}
			key := addrVecKey(v)
			if prior, ok := seen[key]; ok {
				Expect(prior).To(Equal(addr), "two distinct addresses mapped to the same vector")
			}
			seen[key] = addr
		}
	})
})

var _ = Describe("Custom", func() {
	It("places channel in the lowest-order bits", func() {
		org, err := dram.LookupOrg("HBM3_8Gb_2R")
		Expect(err).NotTo(HaveOccurred())
		// Every preset has a single channel (zero address bits); widen it
		// so the channel owns the first bit above the 32-byte transfer.
		org.Count[dram.Channel] = 2

		m := mapper.NewCustom(org, 32)
		v0 := m.Apply(0)
		v1 := m.Apply(1 << 5)
		Expect(v0[dram.Channel]).NotTo(Equal(v1[dram.Channel]))
	})
})

func addrVecKey(v dram.AddrVec) string {
	key := ""
	for _, x := range v {
		key += string(rune(x)) + ","
	}
	return key
}
