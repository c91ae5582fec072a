// Package dram implements the HBM3-PIM device timing model: the hierarchy
// of channel/pseudo-channel/rank/bank-group/bank/row/column nodes, the DRAM
// and PIM command alphabet, and the timing-constraint graph that determines
// when a command becomes legal to issue.
package dram

// Level identifies one level of the DRAM hierarchy.
type Level int

// Levels in hierarchy order, outermost (channel) to innermost (column).
const (
	Channel Level = iota
	PseudoChannel
	Rank
	BankGroup
	Bank
	Row
	Column

	// NumLevels is the number of levels in the hierarchy.
	NumLevels
)

func (l Level) String() string {
	switch l {
	case Channel:
		return "channel"
	case PseudoChannel:
		return "pseudochannel"
	case Rank:
		return "rank"
	case BankGroup:
		return "bankgroup"
	case Bank:
		return "bank"
	case Row:
		return "row"
	case Column:
		return "column"
	default:
		return "unknown"
	}
}

// AddrVec is a hierarchy address: one index per level, indexed by Level.
type AddrVec []int

// NewAddrVec returns an AddrVec of the correct length with every index
// initialized to -1 (unset).
func NewAddrVec() AddrVec {
	v := make(AddrVec, NumLevels)
	for i := range v {
		v[i] = -1
	}
	return v
}

// BankPrefix returns the portion of the address vector up to (and
// including) the bank level, i.e. everything that identifies a physical
// bank regardless of which row is open. Two requests sharing a bank prefix
// target the same bank.
func (v AddrVec) BankPrefix() AddrVec {
	return v[:Row]
}

// Equal reports whether two address vector prefixes name the same node.
func (v AddrVec) Equal(other AddrVec) bool {
	if len(v) != len(other) {
		return false
	}
	for i := range v {
		if v[i] != other[i] {
			return false
		}
	}
	return true
}
