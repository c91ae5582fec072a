package dram

// Edge is one entry of the timing-constraint graph: issuing Preceding at a
// node of Level raises Following's future-ready time at that same node by
// Latency cycles. Window > 0 makes the constraint apply to the Window-th
// prior occurrence of Preceding instead of the most recent one (nFAW's
// 4-activation window).
type Edge struct {
	Level     Level
	Preceding []Command
	Following []Command
	Latency   int
	Window    int
}

// BuildGraph reproduces populate_timingcons verbatim: every edge of the
// Ramulator HBM3-PIM timing-constraint graph, PIM commands first, then the
// DRAM defaults, with latencies resolved against t.
func BuildGraph(t TimingConfig) []Edge {
	return []Edge{
		// --- PIM-MAC-All-Bank ---
		{Level: Channel, Preceding: cs(ACTAB), Following: cs(ACTAB, ACT, PRE, PREA, REFab, REFsb), Latency: 2},
		{Level: Channel, Preceding: cs(MACAB), Following: cs(MACAB), Latency: t.NCCDAB},
		{Level: Channel, Preceding: cs(ACTAB), Following: cs(ACTAB), Latency: t.NRC},
		{Level: Channel, Preceding: cs(ACTAB), Following: cs(MACAB), Latency: t.NRCDRD},
		{Level: Channel, Preceding: cs(ACTAB), Following: cs(PREA), Latency: t.NRAS},
		{Level: Channel, Preceding: cs(MACAB), Following: cs(PREA), Latency: t.NRTPL},
		{Level: Channel, Preceding: cs(PREA), Following: cs(ACTAB), Latency: t.NRP},
		{Level: PseudoChannel, Preceding: cs(ACTAB), Following: cs(REFab), Latency: t.NRC},
		{Level: PseudoChannel, Preceding: cs(PREA), Following: cs(REFab), Latency: t.NRP},
		{Level: PseudoChannel, Preceding: cs(REFab), Following: cs(ACTAB), Latency: t.NRFC},

		// --- PIM-MAC-Same-Bank ---
		{Level: Channel, Preceding: cs(ACTSB), Following: cs(ACTSB, ACT, PRE, PREA, PRESB, REFab, REFsb), Latency: 2},
		{Level: Channel, Preceding: cs(MACSB), Following: cs(MACSB), Latency: t.NCCDSB},
		{Level: Bank, Preceding: cs(ACTSB), Following: cs(ACTSB), Latency: t.NRC},
		{Level: Bank, Preceding: cs(ACTSB), Following: cs(MACSB), Latency: t.NRCDRD},
		{Level: Bank, Preceding: cs(ACTSB), Following: cs(PRESB), Latency: t.NRAS},
		{Level: Bank, Preceding: cs(MACSB), Following: cs(PRESB), Latency: t.NRTPL},
		{Level: Bank, Preceding: cs(PRESB), Following: cs(ACTSB), Latency: t.NRP},
		{Level: PseudoChannel, Preceding: cs(ACTSB), Following: cs(REFab), Latency: t.NRC},
		{Level: PseudoChannel, Preceding: cs(PRESB), Following: cs(REFab), Latency: t.NRP},
		{Level: PseudoChannel, Preceding: cs(REFab), Following: cs(ACTSB), Latency: t.NRFC},

		// --- PIM-MAC-Per-Bank (broadcast to pCHs) ---
		{Level: Channel, Preceding: cs(ACTPB), Following: cs(ACTPB, ACT, PRE, PREA, PREPB, REFab, REFsb), Latency: 2},
		{Level: Channel, Preceding: cs(MACPB), Following: cs(MACPB), Latency: t.NBL},
		{Level: Rank, Preceding: cs(MACPB), Following: cs(MACPB), Latency: t.NCCDS},
		{Level: BankGroup, Preceding: cs(MACPB), Following: cs(MACPB), Latency: t.NCCDL},
		{Level: Bank, Preceding: cs(ACTPB), Following: cs(ACTPB), Latency: t.NRC},
		{Level: Bank, Preceding: cs(ACTPB), Following: cs(MACPB), Latency: t.NRCDRD},
		{Level: Bank, Preceding: cs(ACTPB), Following: cs(PREPB), Latency: t.NRAS},
		{Level: Bank, Preceding: cs(MACPB), Following: cs(PREPB), Latency: t.NRTPL},
		{Level: Bank, Preceding: cs(PREPB), Following: cs(ACTPB), Latency: t.NRP},
		{Level: PseudoChannel, Preceding: cs(ACTPB), Following: cs(REFab), Latency: t.NRC},
		{Level: PseudoChannel, Preceding: cs(PREPB), Following: cs(REFab), Latency: t.NRP},
		{Level: PseudoChannel, Preceding: cs(REFab), Following: cs(ACTPB), Latency: t.NRFC},

		// --- Data movement (distinct data path from MAC*, so these only
		// contend with each other and with RD/WR) ---
		{Level: PseudoChannel, Preceding: cs(WRGB, MVSB, MVGB, SFM, RD, WR), Following: cs(WRGB, MVSB, MVGB, SFM, RD, WR), Latency: t.NBL},
		{Level: Rank, Preceding: cs(WRGB, MVSB, MVGB, SFM, RD, WR), Following: cs(WRGB, MVSB, MVGB, SFM, RD, WR), Latency: t.NCCDS},
		{Level: BankGroup, Preceding: cs(WRGB, MVSB, MVGB, SFM, RD, WR), Following: cs(WRGB, MVSB, MVGB, SFM, RD, WR), Latency: t.NCCDL},

		// --- DRAM default: Channel ---
		{Level: Channel, Preceding: cs(ACT), Following: cs(ACT, PRE, PREA, PRESB, REFab, REFsb), Latency: 2},

		// --- DRAM default: Pseudo Channel ---
		{Level: PseudoChannel, Preceding: cs(RD), Following: cs(RD), Latency: t.NBL},
		{Level: PseudoChannel, Preceding: cs(WR), Following: cs(WR), Latency: t.NBL},
		{Level: PseudoChannel, Preceding: cs(RD), Following: cs(PREA), Latency: t.NRTPS},
		{Level: PseudoChannel, Preceding: cs(WR), Following: cs(PREA), Latency: t.NCWL + t.NBL + t.NWR},
		{Level: PseudoChannel, Preceding: cs(ACT), Following: cs(PREA), Latency: t.NRAS},
		{Level: PseudoChannel, Preceding: cs(PREA), Following: cs(ACT), Latency: t.NRP},
		{Level: PseudoChannel, Preceding: cs(ACT), Following: cs(REFab), Latency: t.NRC},
		{Level: PseudoChannel, Preceding: cs(PRE, PREA), Following: cs(REFab), Latency: t.NRP},
		{Level: PseudoChannel, Preceding: cs(REFab), Following: cs(ACT, REFsb), Latency: t.NRFC},

		// --- DRAM default: Rank ---
		{Level: Rank, Preceding: cs(ACT), Following: cs(ACT), Latency: t.NRRDS},
		{Level: Rank, Preceding: cs(ACT), Following: cs(ACT), Latency: t.NFAW, Window: 4},
		{Level: Rank, Preceding: cs(ACT), Following: cs(REFsb), Latency: t.NRRDS + 1},
		{Level: Rank, Preceding: cs(REFsb), Following: cs(REFsb), Latency: t.NRREFD},
		{Level: Rank, Preceding: cs(REFsb), Following: cs(ACT), Latency: t.NRREFD - 1},
		{Level: Rank, Preceding: cs(RD), Following: cs(RD), Latency: t.NCCDS},
		{Level: Rank, Preceding: cs(WR), Following: cs(WR), Latency: t.NCCDS},
		{Level: Rank, Preceding: cs(RD), Following: cs(WR), Latency: t.NCL + t.NBL + 2 - t.NCWL},
		{Level: Rank, Preceding: cs(WR), Following: cs(RD), Latency: t.NCWL + t.NBL + t.NWTRS},
		{Level: Rank, Preceding: cs(ACT), Following: cs(PREA), Latency: t.NRAS},
		{Level: Rank, Preceding: cs(PREA), Following: cs(ACT), Latency: t.NRP},

		// --- DRAM default: same bank group ---
		{Level: BankGroup, Preceding: cs(RD), Following: cs(RD), Latency: t.NCCDL},
		{Level: BankGroup, Preceding: cs(WR), Following: cs(WR), Latency: t.NCCDL},
		{Level: BankGroup, Preceding: cs(WR), Following: cs(RD), Latency: t.NCWL + t.NBL + t.NWTRL},
		{Level: BankGroup, Preceding: cs(ACT), Following: cs(ACT), Latency: t.NRRDL},
		{Level: BankGroup, Preceding: cs(ACT), Following: cs(REFsb), Latency: t.NRRDL + 1},
		{Level: BankGroup, Preceding: cs(REFsb), Following: cs(ACT), Latency: t.NRRDL - 1},

		// --- DRAM default: Bank ---
		{Level: Bank, Preceding: cs(ACT), Following: cs(ACT), Latency: t.NRC},
		{Level: Bank, Preceding: cs(ACT), Following: cs(RD), Latency: t.NRCDRD},
		{Level: Bank, Preceding: cs(ACT), Following: cs(WR), Latency: t.NRCDWR},
		{Level: Bank, Preceding: cs(ACT), Following: cs(PRE), Latency: t.NRAS},
		{Level: Bank, Preceding: cs(PRE), Following: cs(ACT), Latency: t.NRP},
		{Level: Bank, Preceding: cs(RD), Following: cs(PRE), Latency: t.NRTPL},
		{Level: Bank, Preceding: cs(WR), Following: cs(PRE), Latency: t.NCWL + t.NBL + t.NWR},
	}
}

func cs(cmds ...Command) []Command { return cmds }

// index groups a built graph by (level, preceding command) for O(1)
// dispatch during issue, matching the spec's flat-behavior-table design:
// no runtime scan of the edge list per issued command.
type graphIndex map[Level]map[Command][]Edge

func indexGraph(edges []Edge) graphIndex {
	idx := make(graphIndex)
	for _, e := range edges {
		if idx[e.Level] == nil {
			idx[e.Level] = make(map[Command][]Edge)
		}
		for _, p := range e.Preceding {
			idx[e.Level][p] = append(idx[e.Level][p], e)
		}
	}
	return idx
}
