package dram

import "fmt"

// Device is one HBM3-PIM die: a set of identical channel trees driven by a
// shared timing-constraint graph. It exposes the same four operations the
// Ramulator reference exposes on IDRAM: IssueCommand, GetPreqCommand,
// CheckReady, CheckRowBufferHit.
type Device struct {
	Org    Organization
	Timing TimingConfig

	Channels []*Node
	graph    graphIndex
	clk      uint64
}

// NewDevice builds a device's full node tree and indexes its timing graph.
// Timing must already be derived (DeriveTiming) against org.
func NewDevice(org Organization, timing TimingConfig) (*Device, error) {
	if err := org.Validate(); err != nil {
		return nil, err
	}
	if err := timing.Validate(); err != nil {
		return nil, err
	}

	d := &Device{Org: org, Timing: timing}
	numCh := org.Count[Channel]
	d.Channels = make([]*Node, numCh)
	for i := 0; i < numCh; i++ {
		ch := newNode(Channel, i, nil)
		buildTree(ch, org.Count)
		d.Channels[i] = ch
	}
	d.graph = indexGraph(BuildGraph(timing))
	return d, nil
}

// Tick advances the device's internal clock by one cycle.
func (d *Device) Tick() {
	d.clk++
}

func (d *Device) channelOf(addrVec AddrVec) (*Node, error) {
	id := addrVec[Channel]
	if id < 0 || id >= len(d.Channels) {
		return nil, fmt.Errorf("dram: channel index %d out of range", id)
	}
	return d.Channels[id], nil
}

// nodeAt resolves the node at the given level implied by addrVec, starting
// from the channel root.
func (d *Device) nodeAt(level Level, addrVec AddrVec) (*Node, error) {
	n, err := d.channelOf(addrVec)
	if err != nil {
		return nil, err
	}
	for n.Level < level {
		n = n.child(addrVec)
	}
	return n, nil
}

// IssueCommand applies cmd's effects at addrVec: it raises future-ready
// times per the timing graph (updateTiming) and transitions bank
// open/closed state (updateState). Matches issue_command.
func (d *Device) IssueCommand(cmd Command, addrVec AddrVec) error {
	if err := d.updateTiming(cmd, addrVec); err != nil {
		return err
	}
	return d.updateState(cmd, addrVec)
}

// updateTiming walks every edge in the graph keyed by (level, cmd),
// resolves the node at that level, and raises the future-ready time of
// each following command there, honoring windowed constraints (nFAW).
func (d *Device) updateTiming(cmd Command, addrVec AddrVec) error {
	for level, byCmd := range d.graph {
		edges, ok := byCmd[cmd]
		if !ok {
			continue
		}
		node, err := d.nodeAt(level, addrVec)
		if err != nil {
			return err
		}
		for _, e := range edges {
			var readyTick uint64
			if e.Window > 0 {
				node.pushWindow(cmd, d.clk, e.Window)
				tick, ok := node.windowReady(cmd, e.Window, e.Latency)
				if !ok {
					continue
				}
				readyTick = tick
			} else {
				readyTick = d.clk + uint64(e.Latency)
			}
			for _, f := range e.Following {
				node.raiseReady(f, readyTick)
			}
		}
	}
	return d.broadcastTiming(cmd, addrVec)
}

// broadcastTiming extends updateTiming to sibling banks that a PIM
// multi-bank command also touches simultaneously: Same-Bank commands
// touch the bank at the same index in every bank group of the rank;
// Per-Bank commands touch the same (bankgroup, bank) position in every
// pseudo channel. Grounded on the reference's BankGroup-level action
// comment "we call update_timing for the banks in other BGs/pCHs here".
func (d *Device) broadcastTiming(cmd Command, addrVec AddrVec) error {
	var siblings []*Node
	var err error
	switch cmd {
	case ACTSB, MACSB, PRESB:
		siblings, err = d.sameBankSiblings(addrVec)
	case ACTPB, MACPB, PREPB:
		siblings, err = d.perBankSiblings(addrVec)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	edges := d.graph[Bank][cmd]
	for _, sib := range siblings {
		for _, e := range edges {
			readyTick := d.clk + uint64(e.Latency)
			for _, f := range e.Following {
				sib.raiseReady(f, readyTick)
			}
		}
	}
	return nil
}

// sameBankSiblings returns every bank sharing addrVec's bank index across
// all bank groups of the same rank+pseudochannel+channel, addrVec's own
// bank included.
func (d *Device) sameBankSiblings(addrVec AddrVec) ([]*Node, error) {
	rank, err := d.nodeAt(Rank, addrVec)
	if err != nil {
		return nil, err
	}
	target := addrVec[Bank]
	var out []*Node
	for _, bg := range rank.Children {
		for _, bank := range bg.Children {
			if bank.ID == target {
				out = append(out, bank)
			}
		}
	}
	return out, nil
}

// perBankSiblings returns every bank at addrVec's (bankgroup, bank)
// position in the other pseudo channels of the same channel.
func (d *Device) perBankSiblings(addrVec AddrVec) ([]*Node, error) {
	ch, err := d.channelOf(addrVec)
	if err != nil {
		return nil, err
	}
	bgID, bankID := addrVec[BankGroup], addrVec[Bank]
	var out []*Node
	for _, pch := range ch.Children {
		if pch.ID == addrVec[PseudoChannel] {
			continue
		}
		for _, rank := range pch.Children {
			if rank.ID != addrVec[Rank] {
				continue
			}
			for _, bg := range rank.Children {
				if bg.ID != bgID {
					continue
				}
				for _, bank := range bg.Children {
					if bank.ID == bankID {
						out = append(out, bank)
					}
				}
			}
		}
	}
	return out, nil
}

// updateState transitions bank open/closed state. ACT-family commands open
// rows, PRE-family commands close them; every other command is state-
// neutral per the reference's set_actions wiring (commands with no
// registered action function do nothing here).
func (d *Device) updateState(cmd Command, addrVec AddrVec) error {
	switch cmd {
	case ACT:
		bank, err := d.nodeAt(Bank, addrVec)
		if err != nil {
			return err
		}
		bank.State = StateOpened
		bank.OpenRow = addrVec[Row]
	case PRE:
		bank, err := d.nodeAt(Bank, addrVec)
		if err != nil {
			return err
		}
		bank.State = StateClosed
		bank.OpenRow = -1
	case PREA:
		ch, err := d.channelOf(addrVec)
		if err != nil {
			return err
		}
		for _, bank := range ch.descendants(Bank) {
			bank.State = StateClosed
			bank.OpenRow = -1
		}
	case ACTAB:
		ch, err := d.channelOf(addrVec)
		if err != nil {
			return err
		}
		for _, bank := range ch.descendants(Bank) {
			bank.State = StateOpened
			bank.OpenRow = addrVec[Row]
		}
	case ACTSB, PRESB:
		siblings, err := d.sameBankSiblings(addrVec)
		if err != nil {
			return err
		}
		opened := cmd == ACTSB
		for _, bank := range siblings {
			setBankState(bank, opened, addrVec[Row])
		}
	case ACTPB, PREPB:
		siblings, err := d.perBankSiblings(addrVec)
		if err != nil {
			return err
		}
		// perBankSiblings excludes addrVec's own pseudochannel; also update it.
		own, err := d.nodeAt(Bank, addrVec)
		if err != nil {
			return err
		}
		opened := cmd == ACTPB
		setBankState(own, opened, addrVec[Row])
		for _, bank := range siblings {
			setBankState(bank, opened, addrVec[Row])
		}
	}
	return nil
}

func setBankState(bank *Node, opened bool, row int) {
	if opened {
		bank.State = StateOpened
		bank.OpenRow = row
	} else {
		bank.State = StateClosed
		bank.OpenRow = -1
	}
}

// CheckReady reports whether cmd may legally be issued at addrVec this
// cycle: its future-ready time at every level the graph constrains it at
// must have already elapsed.
func (d *Device) CheckReady(cmd Command, addrVec AddrVec) (bool, error) {
	for level := range d.graph {
		node, err := d.nodeAt(level, addrVec)
		if err != nil {
			return false, err
		}
		if d.clk < node.ready(cmd) {
			return false, nil
		}
	}
	return d.checkPreq(cmd, addrVec)
}

// checkPreq enforces the structural prerequisites the reference wires up
// in set_preqs: row-buffer state, not timing.
func (d *Device) checkPreq(cmd Command, addrVec AddrVec) (bool, error) {
	switch cmd {
	case REFab:
		ch, err := d.channelOf(addrVec)
		if err != nil {
			return false, err
		}
		for _, bank := range ch.descendants(Bank) {
			if bank.State != StateClosed {
				return false, nil
			}
		}
	case REFsb:
		bank, err := d.nodeAt(Bank, addrVec)
		if err != nil {
			return false, err
		}
		return bank.State == StateClosed, nil
	case RD, WR:
		bank, err := d.nodeAt(Bank, addrVec)
		if err != nil {
			return false, err
		}
		return bank.State == StateOpened && bank.OpenRow == addrVec[Row], nil
	case MACAB:
		ch, err := d.channelOf(addrVec)
		if err != nil {
			return false, err
		}
		for _, bank := range ch.descendants(Bank) {
			if bank.State != StateOpened || bank.OpenRow != addrVec[Row] {
				return false, nil
			}
		}
	case MACSB:
		siblings, err := d.sameBankSiblings(addrVec)
		if err != nil {
			return false, err
		}
		for _, bank := range siblings {
			if bank.State != StateOpened || bank.OpenRow != addrVec[Row] {
				return false, nil
			}
		}
	case MACPB:
		own, err := d.nodeAt(Bank, addrVec)
		if err != nil {
			return false, err
		}
		if own.State != StateOpened || own.OpenRow != addrVec[Row] {
			return false, nil
		}
		siblings, err := d.perBankSiblings(addrVec)
		if err != nil {
			return false, err
		}
		for _, bank := range siblings {
			if bank.State != StateOpened || bank.OpenRow != addrVec[Row] {
				return false, nil
			}
		}
	}
	return true, nil
}

// bankRowState classifies a set of banks against a target row: allClosed
// reports whether every bank is closed, and rowConflict reports whether any
// open bank holds a row other than row.
func bankRowState(banks []*Node, row int) (allClosed, rowConflict bool) {
	allClosed = true
	for _, bank := range banks {
		if bank.State != StateClosed {
			allClosed = false
			if bank.OpenRow != row {
				rowConflict = true
			}
		}
	}
	return allClosed, rowConflict
}

// GetPreqCommand returns the command that must be issued before cmd can
// become ready, or cmd itself if no prerequisite command is missing.
func (d *Device) GetPreqCommand(cmd Command, addrVec AddrVec) (Command, error) {
	switch cmd {
	case REFsb, RD, WR:
		bank, err := d.nodeAt(Bank, addrVec)
		if err != nil {
			return cmd, err
		}
		if cmd == REFsb {
			if bank.State != StateClosed {
				return PRE, nil
			}
			return cmd, nil
		}
		if bank.State == StateClosed {
			return ACT, nil
		}
		if bank.OpenRow != addrVec[Row] {
			return PRE, nil
		}
		return cmd, nil
	case REFab:
		ch, err := d.channelOf(addrVec)
		if err != nil {
			return cmd, err
		}
		for _, bank := range ch.descendants(Bank) {
			if bank.State != StateClosed {
				return PREA, nil
			}
		}
		return cmd, nil
	case MACAB:
		ch, err := d.channelOf(addrVec)
		if err != nil {
			return cmd, err
		}
		allClosed, rowConflict := bankRowState(ch.descendants(Bank), addrVec[Row])
		if allClosed {
			return ACTAB, nil
		}
		if rowConflict {
			return PREA, nil
		}
		return cmd, nil
	case MACSB:
		siblings, err := d.sameBankSiblings(addrVec)
		if err != nil {
			return cmd, err
		}
		allClosed, rowConflict := bankRowState(siblings, addrVec[Row])
		if allClosed {
			return ACTSB, nil
		}
		if rowConflict {
			return PRESB, nil
		}
		return cmd, nil
	case MACPB:
		own, err := d.nodeAt(Bank, addrVec)
		if err != nil {
			return cmd, err
		}
		siblings, err := d.perBankSiblings(addrVec)
		if err != nil {
			return cmd, err
		}
		banks := append([]*Node{own}, siblings...)
		allClosed, rowConflict := bankRowState(banks, addrVec[Row])
		if allClosed {
			return ACTPB, nil
		}
		if rowConflict {
			return PREPB, nil
		}
		return cmd, nil
	}
	return cmd, nil
}

// CheckRowBufferHit reports whether an access command's target row is
// already open, i.e. whether issuing it would be a row-buffer hit rather
// than requiring an ACT first.
func (d *Device) CheckRowBufferHit(cmd Command, addrVec AddrVec) (bool, error) {
	switch cmd {
	case RD, WR, MACAB, MACSB, MACPB:
		bank, err := d.nodeAt(Bank, addrVec)
		if err != nil {
			return false, err
		}
		return bank.State == StateOpened && bank.OpenRow == addrVec[Row], nil
	}
	return false, nil
}
