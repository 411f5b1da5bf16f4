// Package analysis computes shape statistics over an entity hierarchy.
// The outputs are deterministic and JSON-shaped so they can feed both the
// robot CLI surface and the export headers.
package analysis

import (
	"sort"

	"treescope/pkg/hierarchy"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the shape of one entity tree.
type Summary struct {
	Nodes    int `json:"nodes"`     // Total node count
	Leaves   int `json:"leaves"`    // Nodes with no children
	MaxDepth int `json:"max_depth"` // Depth of the deepest node (root = 0)

	// LevelWidths[d] is the number of nodes at depth d.
	LevelWidths []int `json:"level_widths"`

	// Branching statistics over internal nodes (child counts).
	BranchingMean   float64 `json:"branching_mean"`
	BranchingStdDev float64 `json:"branching_stddev"`

	// LeafRatio is leaves / nodes, 0 for an empty tree.
	LeafRatio float64 `json:"leaf_ratio"`

	// WidestLevel is the depth with the most nodes; ties go to the
	// shallowest.
	WidestLevel int `json:"widest_level"`

	// URLCount is the number of nodes carrying a navigation URL.
	URLCount int `json:"url_count"`
}

// Summarize walks the full hierarchy, hidden nodes included. Collapse
// state is a view concern and does not change the shape of the data.
func Summarize(t *hierarchy.Tree) Summary {
	var s Summary
	if t == nil || t.Len() == 0 {
		return s
	}

	s.Nodes = t.Len()
	widths := make(map[int]int)
	var branching []float64

	for i := 0; i < t.Len(); i++ {
		n := t.Node(i)
		if n.Depth > s.MaxDepth {
			s.MaxDepth = n.Depth
		}
		widths[n.Depth]++
		if len(n.Children) == 0 {
			s.Leaves++
		} else {
			branching = append(branching, float64(len(n.Children)))
		}
		if n.URL != "" {
			s.URLCount++
		}
	}

	s.LevelWidths = make([]int, s.MaxDepth+1)
	for d, w := range widths {
		s.LevelWidths[d] = w
	}

	widest := 0
	for d, w := range s.LevelWidths {
		if w > s.LevelWidths[widest] {
			widest = d
		}
	}
	s.WidestLevel = widest

	if len(branching) > 0 {
		sort.Float64s(branching)
		s.BranchingMean = stat.Mean(branching, nil)
		if len(branching) > 1 {
			s.BranchingStdDev = stat.StdDev(branching, nil)
		}
	}
	s.LeafRatio = float64(s.Leaves) / float64(s.Nodes)
	return s
}
