package canvas

import (
	"github.com/flowplane/flowplane/pkg/models"
)

// NodeWidth is the rendered width of every canvas node. Heights vary by
// type, see NodeHeight.
const NodeWidth = 260.0

const (
	horizontalGap = 80.0
	verticalGap   = 60.0
	topMargin     = 40.0
	centerX       = 400.0
)

// NodeHeight returns the rendered height for the node type. Compound steps
// get taller cards than plain ones.
func NodeHeight(t NodeType) float64 {
	switch t {
	case NodeTypeTrigger, NodeTypeEnd:
		return 64.0
	case NodeTypeConditional, NodeTypeParallel, NodeTypeLoop:
		return 168.0
	default:
		return 120.0
	}
}

// AutoLayout computes a position for every node from the graph structure
// alone. The same graph always yields the same positions: nodes are ranked
// by longest path from the entry, rows are laid out top to bottom in rank
// order, and nodes within a row keep their insertion order. Cycles are
// broken at the earliest unplaced node, so the layout terminates on any
// input.
func AutoLayout(g *Graph) map[string]models.Position {
	ranks := computeRanks(g)

	maxRank := 0
	for _, r := range ranks {
		if r > maxRank {
			maxRank = r
		}
	}

	rows := make([][]*Node, maxRank+1)
	for i := range g.Nodes {
		node := &g.Nodes[i]
		r := ranks[node.ID]
		rows[r] = append(rows[r], node)
	}

	positions := make(map[string]models.Position, len(g.Nodes))

	y := topMargin

	for _, row := range rows {
		if len(row) == 0 {
			continue
		}

		rowHeight := 0.0
		for _, node := range row {
			if h := NodeHeight(node.Type); h > rowHeight {
				rowHeight = h
			}
		}

		rowWidth := float64(len(row))*NodeWidth + float64(len(row)-1)*horizontalGap
		x := centerX - rowWidth/2

		for _, node := range row {
			positions[node.ID] = models.Position{
				X: x,
				Y: y + (rowHeight-NodeHeight(node.Type))/2,
			}
			x += NodeWidth + horizontalGap
		}

		y += rowHeight + verticalGap
	}

	return positions
}

// ApplyAutoLayout overwrites every node position with the auto-layout
// result.
func ApplyAutoLayout(g *Graph) {
	positions := AutoLayout(g)
	for i := range g.Nodes {
		g.Nodes[i].Position = positions[g.Nodes[i].ID]
	}
}

// computeRanks assigns each node its row index: the longest edge path from
// any entry node. Edges to or from unknown nodes and self-loops are ignored
// for ranking. When a cycle blocks progress, the earliest unplaced node (in
// insertion order) is forced into the next row below its placed
// predecessors, which keeps the result deterministic.
func computeRanks(g *Graph) map[string]int {
	known := make(map[string]bool, len(g.Nodes))
	for i := range g.Nodes {
		known[g.Nodes[i].ID] = true
	}

	succs := make(map[string][]string, len(g.Nodes))
	preds := make(map[string][]string, len(g.Nodes))
	indegree := make(map[string]int, len(g.Nodes))

	type pair struct{ source, target string }

	seen := make(map[pair]bool, len(g.Edges))

	for _, edge := range g.Edges {
		if edge.Source == edge.Target {
			continue
		}

		if !known[edge.Source] || !known[edge.Target] {
			continue
		}

		key := pair{edge.Source, edge.Target}
		if seen[key] {
			continue
		}

		seen[key] = true
		succs[edge.Source] = append(succs[edge.Source], edge.Target)
		preds[edge.Target] = append(preds[edge.Target], edge.Source)
		indegree[edge.Target]++
	}

	ranks := make(map[string]int, len(g.Nodes))
	placed := make(map[string]bool, len(g.Nodes))

	place := func(id string) {
		rank := 0
		for _, pred := range preds[id] {
			if placed[pred] && ranks[pred]+1 > rank {
				rank = ranks[pred] + 1
			}
		}

		ranks[id] = rank
		placed[id] = true

		for _, succ := range succs[id] {
			indegree[succ]--
		}
	}

	for {
		progress := false

		for i := range g.Nodes {
			id := g.Nodes[i].ID
			if placed[id] || indegree[id] > 0 {
				continue
			}

			place(id)

			progress = true
		}

		if progress {
			continue
		}

		// Every remaining node sits on a cycle. Force the earliest one.
		forced := false

		for i := range g.Nodes {
			id := g.Nodes[i].ID
			if placed[id] {
				continue
			}

			place(id)

			forced = true

			break
		}

		if !forced {
			return ranks
		}
	}
}
