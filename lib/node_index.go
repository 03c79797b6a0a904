package lib

// NodeIndex is the set of every string leaf found in the automatic
// attributes of the known chef nodes
type NodeIndex map[string]struct{}

// BuildNodeIndex collects the leaves of all nodes into a NodeIndex.
// Nil nodes are skipped and counted.
func BuildNodeIndex(nodes []*Node) (NodeIndex, int) {
	idx := NodeIndex{}
	skipped := 0

	for _, node := range nodes {
		if node == nil {
			skipped++
			continue
		}

		for leaf := range node.Leaves() {
			if leaf == "" {
				continue
			}
			idx[leaf] = struct{}{}
		}
	}

	return idx, skipped
}

// Has reports whether the address is known to chef. The empty string
// is never known.
func (idx NodeIndex) Has(addr string) bool {
	if addr == "" {
		return false
	}
	_, ok := idx[addr]
	return ok
}

// Registered is true when either of the instance addresses is present
func (idx NodeIndex) Registered(inst *Instance) bool {
	public, private := inst.Addresses()
	return idx.Has(public) || idx.Has(private)
}
