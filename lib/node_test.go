package lib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func collectLeaves(n *Node) []string {
	out := []string{}
	for leaf := range n.Leaves() {
		out = append(out, leaf)
	}
	return out
}

func TestNodeLeaves(t *testing.T) {
	n := &Node{
		Name: "host0",
		Automatic: map[string]interface{}{
			"cloud": map[string]interface{}{
				"public_ipv4": "3.1.1.1",
				"local_ipv4":  "10.1.1.3",
			},
			"hostname": "host0",
			"uptime":   float64(123),
			"roles":    []interface{}{"web", "db"},
			"nothing":  nil,
			"deep": map[string]interface{}{
				"a": map[string]interface{}{"b": map[string]interface{}{"c": "5.5.5.5"}},
			},
		},
	}

	assert.Equal(t, []string{"10.1.1.3", "3.1.1.1", "5.5.5.5", "host0"}, collectLeaves(n))
}

func TestNodeLeavesMissingAutomatic(t *testing.T) {
	assert.Empty(t, collectLeaves(&Node{Name: "bare"}))
	assert.Empty(t, collectLeaves(nil))
}

func TestNodeLeavesStopsEarly(t *testing.T) {
	n := &Node{Automatic: map[string]interface{}{
		"a": "1",
		"b": map[string]interface{}{"c": "2", "d": "3"},
		"e": "4",
	}}

	seen := []string{}
	for leaf := range n.Leaves() {
		seen = append(seen, leaf)
		if leaf == "2" {
			break
		}
	}

	assert.Equal(t, []string{"1", "2"}, seen)
}
