package dram

// NodeState is a bank's row-buffer state. Only Bank nodes use Opened;
// every other level stays NA for its lifetime, matching m_init_states.
type NodeState int

const (
	StateNA NodeState = iota
	StateClosed
	StateOpened
)

func (s NodeState) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateOpened:
		return "Opened"
	default:
		return "N/A"
	}
}

// Node is one element of a channel's hierarchy tree: channel, pseudochannel,
// rank, bankgroup, or bank. Row and column have no node instances of their
// own — a bank node's OpenRow field carries the row state directly, and
// column never holds state at all.
type Node struct {
	Level    Level
	ID       int
	Parent   *Node
	Children []*Node

	State   NodeState
	OpenRow int

	futureReady map[Command]uint64
	actWindow   map[Command][]uint64
}

func newNode(level Level, id int, parent *Node) *Node {
	n := &Node{
		Level:       level,
		ID:          id,
		Parent:      parent,
		futureReady: make(map[Command]uint64),
		actWindow:   make(map[Command][]uint64),
	}
	if level == Bank {
		n.State = StateClosed
		n.OpenRow = -1
	} else {
		n.State = StateNA
	}
	return n
}

// buildTree recursively populates a node's children down to (and
// including) Bank, using counts indexed by Level from the organization.
func buildTree(n *Node, counts [NumLevels]int) {
	if n.Level == Bank {
		return
	}
	childLevel := n.Level + 1
	count := counts[childLevel]
	n.Children = make([]*Node, count)
	for i := 0; i < count; i++ {
		child := newNode(childLevel, i, n)
		n.Children[i] = child
		buildTree(child, counts)
	}
}

// ready returns the earliest cycle at which cmd may legally be issued at
// this node, 0 if no constraint has ever been raised against it.
func (n *Node) ready(cmd Command) uint64 {
	return n.futureReady[cmd]
}

// raiseReady advances cmd's future-ready time at this node to at least
// tick; it never moves it backward.
func (n *Node) raiseReady(cmd Command, tick uint64) {
	if tick > n.futureReady[cmd] {
		n.futureReady[cmd] = tick
	}
}

// pushWindow records an issue of cmd at clk for a windowed constraint
// (e.g. nFAW's 4-activation window), keeping only the most recent `window`
// timestamps.
func (n *Node) pushWindow(cmd Command, clk uint64, window int) {
	hist := n.actWindow[cmd]
	hist = append(hist, clk)
	if len(hist) > window {
		hist = hist[len(hist)-window:]
	}
	n.actWindow[cmd] = hist
}

// windowReady returns the ready time implied by a window-th occurrence
// constraint: the timestamp `window` issues ago, plus latency. ok is false
// until cmd has been issued at this node at least `window` times, meaning
// no constraint applies yet.
func (n *Node) windowReady(cmd Command, window int, latency int) (tick uint64, ok bool) {
	hist := n.actWindow[cmd]
	if len(hist) < window {
		return 0, false
	}
	return hist[0] + uint64(latency), true
}

// descendants returns every node at the given level in this node's
// subtree (inclusive of n itself if n.Level == level).
func (n *Node) descendants(level Level) []*Node {
	if n.Level == level {
		return []*Node{n}
	}
	var out []*Node
	for _, c := range n.Children {
		out = append(out, c.descendants(level)...)
	}
	return out
}

// child resolves the single child matching an address-vector index,
// panicking if the tree was built with a different organization than the
// address vector assumes — a programming error, not a runtime condition.
func (n *Node) child(addrVec AddrVec) *Node {
	idx := addrVec[n.Level+1]
	return n.Children[idx]
}
