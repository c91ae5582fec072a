// Package mapper translates a flat byte address into a dram.AddrVec,
// slicing address bits off the bottom of the address in an order that
// determines which hierarchy levels neighboring addresses share.
package mapper

import "github.com/sarchlab/hbm3pim/dram"

// Mapper assigns a hierarchy address to a flat byte address.
type Mapper interface {
	Apply(addr uint64) dram.AddrVec
}

// base holds the address-bit-width derivation shared by every mapping
// scheme: how many bits each level needs, and how many low bits are
// consumed by the internal prefetch burst before any level-bit slicing
// starts.
type base struct {
	addrBits  [dram.NumLevels]int
	txOffset  int
}

func newBase(org dram.Organization, channelWidthBits int) base {
	var b base
	for level := dram.Level(0); level < dram.NumLevels; level++ {
		b.addrBits[level] = log2Ceil(org.Count[level])
	}
	const internalPrefetchSize = 8
	txBytes := internalPrefetchSize * channelWidthBits / 8
	b.txOffset = log2Ceil(txBytes)
	return b
}

// sliceLowerBits returns the low n bits of *addr and shifts addr right by
// n, matching the reference's slice_lower_bits helper.
func sliceLowerBits(addr *uint64, n int) int {
	mask := uint64(1)<<n - 1
	v := *addr & mask
	*addr >>= n
	return int(v)
}

func log2Ceil(n int) int {
	if n <= 1 {
		return 0
	}
	bits := 0
	for (1 << bits) < n {
		bits++
	}
	return bits
}

// Linear maps addresses column-first: the lowest bits above the transfer
// offset select the column, and successive levels going up the hierarchy
// consume the next chunk of bits, with channel occupying the highest bits.
// Grounded on HBM3BaseMap.
type Linear struct {
	base
}

// NewLinear builds a Linear mapper for the given organization and
// per-pseudochannel width in bits.
func NewLinear(org dram.Organization, channelWidthBits int) *Linear {
	return &Linear{base: newBase(org, channelWidthBits)}
}

func (m *Linear) Apply(addr uint64) dram.AddrVec {
	v := dram.NewAddrVec()
	a := addr >> m.txOffset
	for level := dram.Column; level >= dram.Channel; level-- {
		v[level] = sliceLowerBits(&a, m.addrBits[level])
	}
	return v
}

// Custom maps addresses in the fixed JEDEC-inspired order Channel,
// PseudoChannel, BankGroup, Column, Rank, Bank, Row (low bits to high),
// matching the device's own "Ro Ba Ra Co BG Pch Ch" naming (high bits to
// low). Grounded on HBM3CustomMap.
type Custom struct {
	base
}

// NewCustom builds a Custom mapper for the given organization and
// per-pseudochannel width in bits.
func NewCustom(org dram.Organization, channelWidthBits int) *Custom {
	return &Custom{base: newBase(org, channelWidthBits)}
}

func (m *Custom) Apply(addr uint64) dram.AddrVec {
	v := dram.NewAddrVec()
	a := addr >> m.txOffset
	order := []dram.Level{dram.Channel, dram.PseudoChannel, dram.BankGroup, dram.Column, dram.Rank, dram.Bank, dram.Row}
	for _, level := range order {
		v[level] = sliceLowerBits(&a, m.addrBits[level])
	}
	return v
}
