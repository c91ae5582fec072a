package benchmarks_test

import (
	"bytes"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hbm3pim/benchmarks"
)

func TestBenchmarks(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Benchmarks Suite")
}

var _ = Describe("DefaultScenarios", func() {
	It("returns the six end-to-end scenarios named in the spec", func() {
		scenarios := benchmarks.DefaultScenarios()
		Expect(scenarios).To(HaveLen(6))

		names := map[string]bool{}
		for _, s := range scenarios {
			names[s.Name] = true
			Expect(s.Trace).NotTo(BeEmpty())
		}
		Expect(names).To(HaveKey("single-read-cold-bank"))
		Expect(names).To(HaveKey("read-row-hit"))
		Expect(names).To(HaveKey("write-after-read-row-conflict"))
		Expect(names).To(HaveKey("pim-mac-all-bank"))
		Expect(names).To(HaveKey("barrier-ordering"))
		Expect(names).To(HaveKey("write-mode-watermark"))
	})
})

var _ = Describe("Harness", func() {
	It("drains every default scenario to completion", func() {
		var buf bytes.Buffer
		h := benchmarks.NewHarness(benchmarks.HarnessConfig{Output: &buf})
		h.AddScenarios(benchmarks.DefaultScenarios())

		results, err := h.RunAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(6))
		for _, r := range results {
			Expect(r.Drained).To(BeTrue(), "scenario %s did not drain", r.Name)
			Expect(r.Cycles).To(BeNumerically(">", 0))
		}
	})

	It("reports a row-buffer hit on the second access of the row-hit scenario", func() {
		h := benchmarks.NewHarness(benchmarks.DefaultConfig())
		scenarios := benchmarks.DefaultScenarios()
		var rowHit benchmarks.Scenario
		for _, s := range scenarios {
			if s.Name == "read-row-hit" {
				rowHit = s
			}
		}
		h.AddScenario(rowHit)

		results, err := h.RunAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].RowHits).To(BeNumerically(">=", 1))
	})

	It("prints human-readable and CSV reports without error", func() {
		var buf bytes.Buffer
		h := benchmarks.NewHarness(benchmarks.HarnessConfig{Output: &buf})
		h.AddScenario(benchmarks.DefaultScenarios()[0])
		results, err := h.RunAll()
		Expect(err).NotTo(HaveOccurred())

		h.PrintResults(results)
		Expect(buf.String()).To(ContainSubstring("single-read-cold-bank"))

		buf.Reset()
		h.PrintCSV(results)
		Expect(buf.String()).To(ContainSubstring("single-read-cold-bank"))

		buf.Reset()
		Expect(h.PrintJSON(results, "2026-08-01T00:00:00Z")).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("single-read-cold-bank"))
	})
})
