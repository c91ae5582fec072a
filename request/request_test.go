package request_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hbm3pim/dram"
	"github.com/sarchlab/hbm3pim/request"
)

func TestRequest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Request Suite")
}

var _ = Describe("Type", func() {
	It("maps every access type to its device command", func() {
		cases := map[request.Type]dram.Command{
			request.Read:                   dram.RD,
			request.Write:                  dram.WR,
			request.AllBankRefresh:         dram.REFab,
			request.PerBankRefresh:         dram.REFsb,
			request.PIMMACAllBank:          dram.MACAB,
			request.PIMMACSameBank:         dram.MACSB,
			request.PIMMACPerBank:          dram.MACPB,
			request.PIMWriteToGEMVBuffer:   dram.WRGB,
			request.PIMMoveToSoftmaxBuffer: dram.MVSB,
			request.PIMMoveToGEMVBuffer:    dram.MVGB,
			request.PIMSoftmax:             dram.SFM,
			request.PIMSetModel:            dram.SETM,
			request.PIMSetHead:             dram.SETH,
		}
		for typ, cmd := range cases {
			Expect(typ.Command()).To(Equal(cmd), "type %v", typ)
		}
	})

	It("has no device command for a barrier", func() {
		Expect(request.PIMBarrier.Command()).To(Equal(dram.Command(-1)))
	})

	It("stringifies every defined type", func() {
		for t := request.Read; t < request.NumTypes; t++ {
			Expect(t.String()).NotTo(Equal("unknown"))
		}
	})

	It("reports unknown for an out-of-range type", func() {
		Expect(request.Type(999).String()).To(Equal("unknown"))
	})
})

var _ = Describe("Request", func() {
	It("initializes Command and FinalCommand to the same value", func() {
		r := request.New(1, request.Read, 0x100, dram.NewAddrVec(), 0)
		Expect(r.Command).To(Equal(dram.RD))
		Expect(r.FinalCommand).To(Equal(dram.RD))
	})

	It("classifies PIM types as PIM requests", func() {
		r := request.New(1, request.PIMMACAllBank, 0, dram.NewAddrVec(), 0)
		Expect(r.IsPIMRequest()).To(BeTrue())

		r2 := request.New(2, request.Read, 0, dram.NewAddrVec(), 0)
		Expect(r2.IsPIMRequest()).To(BeFalse())
	})

	It("excludes refreshes and barriers from IsAccess", func() {
		for _, typ := range []request.Type{request.AllBankRefresh, request.PerBankRefresh, request.PIMBarrier} {
			r := request.New(1, typ, 0, dram.NewAddrVec(), 0)
			Expect(r.IsAccess()).To(BeFalse(), "type %v", typ)
		}
		r := request.New(2, request.Write, 0, dram.NewAddrVec(), 0)
		Expect(r.IsAccess()).To(BeTrue())
	})
})
