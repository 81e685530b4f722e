package canvas

import (
	"github.com/flowplane/flowplane/pkg/models"
)

// Compile translates a workflow definition into its editable canvas graph:
// a synthesized trigger node, one typed node per step in definition order, a
// synthesized end node, and the connecting edges. Saved positions from the
// definition's layout key are applied as-is; every remaining node is placed
// by the auto-layout over the unpositioned subset, so a partial saved layout
// never dislodges the nodes the user already arranged.
//
// The trigger argument wins over the definition's own trigger when both are
// set. A nil definition compiles like an empty one. Compile never fails on
// data shape: unknown step kinds are skipped, dangling branch targets
// produce edges to nowhere rather than errors.
func Compile(def *models.WorkflowDefinition, trigger *models.Trigger, bctx BuildContext) *Graph {
	if def == nil {
		def = &models.WorkflowDefinition{}
	}

	if trigger == nil {
		trigger = def.Trigger
	}

	if bctx.Steps == nil {
		bctx.Steps = def.Steps
	}

	if bctx.Trigger == nil {
		bctx.Trigger = trigger
	}

	graph := &Graph{}

	seen := make(map[string]bool)
	addEdge := func(source, target, label string) {
		edge := NewEdge(source, target, label)
		if seen[edge.ID] {
			return
		}

		seen[edge.ID] = true
		graph.Edges = append(graph.Edges, edge)
	}

	graph.Nodes = append(graph.Nodes, NewTriggerNode(trigger))

	prev := TriggerNodeID
	prevConditional := false

	for _, step := range def.Steps {
		node, ok := NewStepNode(step, bctx)
		if !ok {
			continue
		}

		graph.Nodes = append(graph.Nodes, node)

		if !prevConditional {
			addEdge(prev, node.ID, "")
		}

		if data, ok := node.Data.(ConditionalNodeData); ok {
			for _, branch := range data.Branches {
				if branch.TargetStepID == "" {
					continue
				}

				addEdge(node.ID, branch.TargetStepID, branch.Condition)
			}
		}

		prev = node.ID
		prevConditional = step.Type == models.StepKindConditional
	}

	graph.Nodes = append(graph.Nodes, NewEndNode())
	addEdge(prev, EndNodeID, "")

	positioned := applySavedPositions(graph, def.Context)
	fillLayout(graph, positioned)

	return graph
}

// applySavedPositions copies saved layout positions onto matching nodes and
// reports which node ids were covered. Saved entries for nodes no longer on
// the canvas are ignored.
func applySavedPositions(g *Graph, context map[string]any) map[string]bool {
	positioned := make(map[string]bool)

	layout, ok := models.CanvasLayoutFromContext(context)
	if !ok {
		return positioned
	}

	for i := range g.Nodes {
		pos, ok := layout.Positions[g.Nodes[i].ID]
		if !ok {
			continue
		}

		g.Nodes[i].Position = pos
		positioned[g.Nodes[i].ID] = true
	}

	return positioned
}

// fillLayout runs the auto-layout over the nodes that have no saved
// position, with edges restricted to that subset, and applies the result.
func fillLayout(g *Graph, positioned map[string]bool) {
	if len(positioned) == len(g.Nodes) {
		return
	}

	sub := &Graph{}

	for i := range g.Nodes {
		if positioned[g.Nodes[i].ID] {
			continue
		}

		sub.Nodes = append(sub.Nodes, g.Nodes[i])
	}

	for _, edge := range g.Edges {
		if positioned[edge.Source] || positioned[edge.Target] {
			continue
		}

		sub.Edges = append(sub.Edges, edge)
	}

	placed := AutoLayout(sub)

	for i := range g.Nodes {
		if pos, ok := placed[g.Nodes[i].ID]; ok {
			g.Nodes[i].Position = pos
		}
	}
}
