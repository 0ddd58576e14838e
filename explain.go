package dataframe

/* This file renders the computation graph for human consumption.

The output is stable for a given booking sequence so it can be
compared against golden files in tests.
*/
import (
	"fmt"
	"strings"
)

// Describe renders the whole computation graph as an indented tree,
// one line per node. Handles share the graph so the rendering is the
// same whichever handle it is called through. Actions carry their
// lifecycle state so the output also shows what a Run would do.
func (self *DataFrame) Describe() string {
	self.graph.mu.Lock()
	defer self.graph.mu.Unlock()

	result := &strings.Builder{}
	fmt.Fprintf(result, "dataset (%v entries, %v)\n",
		self.graph.reader.EntryCount(), self.graph.state)
	self.graph.describeChildren(result, 0, 1)

	return result.String()
}

// Caller must hold mu.
func (self *graph) describeChildren(out *strings.Builder, node_id int, depth int) {
	indent := strings.Repeat("  ", depth)

	for _, child_id := range self.nodes[node_id].children {
		child := self.nodes[child_id]

		switch child.kind {
		case filterNode:
			fmt.Fprintf(out, "%vfilter %v\n", indent, child.label)

		case branchNode:
			fmt.Fprintf(out, "%vbranch %v\n", indent, child.label)

		case actionNode:
			state := "pending"
			if child.finalized {
				state = "finalized"
			}
			fmt.Fprintf(out, "%v%v [%v]\n", indent, child.label, state)
		}

		self.describeChildren(out, child_id, depth+1)
	}
}
