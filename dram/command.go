package dram

// Command identifies one device command, DRAM or PIM. BARRIER is
// deliberately absent: it is a PIM-buffer control token consumed by the
// scheduler and never reaches IssueCommand.
type Command int

const (
	ACT Command = iota
	PRE
	PREA
	PRESB
	PREPB
	RD
	WR
	REFab
	REFsb
	ACTAB
	ACTSB
	ACTPB
	MACAB
	MACSB
	MACPB
	WRGB
	MVSB
	MVGB
	SFM
	SETM
	SETH

	// NumCommands is the number of device commands.
	NumCommands
)

var commandNames = [NumCommands]string{
	ACT: "ACT", PRE: "PRE", PREA: "PREA", PRESB: "PRESB", PREPB: "PREPB",
	RD: "RD", WR: "WR", REFab: "REFab", REFsb: "REFsb",
	ACTAB: "ACTAB", ACTSB: "ACTSB", ACTPB: "ACTPB",
	MACAB: "MACAB", MACSB: "MACSB", MACPB: "MACPB",
	WRGB: "WRGB", MVSB: "MVSB", MVGB: "MVGB", SFM: "SFM",
	SETM: "SETM", SETH: "SETH",
}

func (c Command) String() string {
	if c < 0 || int(c) >= len(commandNames) {
		return "unknown"
	}
	return commandNames[c]
}

// CommandMeta describes the structural effect of a command on bank state.
type CommandMeta struct {
	IsOpening   bool
	IsClosing   bool
	IsAccessing bool
	IsRefreshing bool
}

var commandMeta = [NumCommands]CommandMeta{
	ACT:   {IsOpening: true},
	PRE:   {IsClosing: true},
	PREA:  {IsClosing: true},
	PRESB: {IsClosing: true},
	PREPB: {IsClosing: true},
	RD:    {IsAccessing: true},
	WR:    {IsAccessing: true},
	REFab: {IsRefreshing: true},
	REFsb: {IsRefreshing: true},
	ACTAB: {IsOpening: true},
	ACTSB: {IsOpening: true},
	ACTPB: {IsOpening: true},
	MACAB: {IsAccessing: true},
	MACSB: {IsAccessing: true},
	MACPB: {IsAccessing: true},
	// WRGB, MVSB, MVGB, SFM, SETM, SETH carry no action/prerequisite: they
	// move data between on-die buffers and never touch bank open/closed
	// state, matching the Ramulator reference's comment that these have no
	// registered action or preq lambdas.
}

// Meta returns the structural metadata for a command.
func (c Command) Meta() CommandMeta {
	return commandMeta[c]
}

// rowType is true for the opening, closing and refresh commands
// (spec.md §4.4's "Row" classification); false for column (data-path)
// commands. Used by the controller to enforce dual-issue disjointness.
var rowType = map[Command]bool{
	ACT: true, PRE: true, PREA: true, PRESB: true, PREPB: true,
	REFab: true, REFsb: true, ACTAB: true, ACTSB: true, ACTPB: true,
}

var columnType = map[Command]bool{
	RD: true, WR: true, MACAB: true, MACSB: true, MACPB: true,
	WRGB: true, MVSB: true, MVGB: true, SFM: true, SETM: true, SETH: true,
}

// IsRowCommand reports whether a command is row-type per spec.md §4.4.
func IsRowCommand(c Command) bool {
	return rowType[c]
}

// IsColumnCommand reports whether a command is column-type per spec.md §4.4.
func IsColumnCommand(c Command) bool {
	return columnType[c]
}

// CommandType classifies a command as row (0) or column (1) for dual-issue
// disjointness checks; -1 for a command that is neither (shouldn't occur
// for any command actually scheduled).
func CommandType(c Command) int {
	if IsRowCommand(c) {
		return 0
	}
	if IsColumnCommand(c) {
		return 1
	}
	return -1
}

// OppositeResourceType reports whether a and b belong to different
// row/column classes, both classified. Used by the controller's dual-issue
// secondary schedule to enforce resource disjointness (spec.md §4.4 step 5).
func OppositeResourceType(a, b Command) bool {
	ta, tb := CommandType(a), CommandType(b)
	if ta == -1 || tb == -1 {
		return false
	}
	return ta != tb
}
