package simconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hbm3pim/simconfig"
)

func TestSimConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SimConfig Suite")
}

var _ = Describe("Config", func() {
	It("has valid defaults", func() {
		cfg := simconfig.Default()
		Expect(cfg.Validate()).To(Succeed())
	})

	It("rejects an unknown organization", func() {
		cfg := simconfig.Default()
		cfg.Organization = "not-a-real-preset"
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("rejects an unknown timing preset", func() {
		cfg := simconfig.Default()
		cfg.Timing = "not-a-real-preset"
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("rejects an unknown mapper kind", func() {
		cfg := simconfig.Default()
		cfg.Mapper = "radix"
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("rejects inverted watermarks", func() {
		cfg := simconfig.Default()
		cfg.WrLowWatermark = 0.9
		cfg.WrHighWatermark = 0.1
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("round-trips through Save and Load", func() {
		cfg := simconfig.Default()
		cfg.ClockRatio = 4
		path := filepath.Join(GinkgoT().TempDir(), "cfg.json")
		Expect(cfg.Save(path)).To(Succeed())

		loaded, err := simconfig.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.ClockRatio).To(Equal(uint(4)))
		Expect(loaded.Organization).To(Equal(cfg.Organization))
	})

	It("fills defaults for fields absent from the file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "partial.json")
		Expect(os.WriteFile(path, []byte(`{"clock_ratio": 2}`), 0o644)).To(Succeed())

		cfg, err := simconfig.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.ClockRatio).To(Equal(uint(2)))
		Expect(cfg.Organization).To(Equal(simconfig.Default().Organization))
	})

	It("clones independently of the original", func() {
		cfg := simconfig.Default()
		clone := cfg.Clone()
		clone.ClockRatio = 99
		Expect(cfg.ClockRatio).NotTo(Equal(uint(99)))
	})

	It("builds a device from the configured presets", func() {
		cfg := simconfig.Default()
		dev, err := cfg.BuildDevice()
		Expect(err).NotTo(HaveOccurred())
		Expect(dev).NotTo(BeNil())
	})

	It("builds a mapper matching the configured kind", func() {
		cfg := simconfig.Default()
		dev, err := cfg.BuildDevice()
		Expect(err).NotTo(HaveOccurred())
		m, err := cfg.BuildMapper(dev.Org)
		Expect(err).NotTo(HaveOccurred())
		Expect(m).NotTo(BeNil())
	})
})
