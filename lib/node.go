package lib

import (
	"iter"
	"sort"
)

// Node is a chef node as returned by a node search. Automatic holds
// the ohai-populated attribute tree, decoded from JSON.
type Node struct {
	Name      string                 `json:"name"`
	Automatic map[string]interface{} `json:"automatic"`
}

// Leaves walks the automatic attribute tree depth-first and yields
// every string leaf. Keys are visited in sorted order.
func (n *Node) Leaves() iter.Seq[string] {
	return func(yield func(string) bool) {
		if n == nil {
			return
		}
		walkLeaves(n.Automatic, yield)
	}
}

func walkLeaves(attrs map[string]interface{}, yield func(string) bool) bool {
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch v := attrs[key].(type) {
		case map[string]interface{}:
			if !walkLeaves(v, yield) {
				return false
			}
		case string:
			if !yield(v) {
				return false
			}
		}
	}

	return true
}
