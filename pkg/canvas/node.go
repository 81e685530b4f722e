package canvas

import (
	"encoding/json"
	"fmt"

	"github.com/flowplane/flowplane/pkg/models"
)

// NodeType discriminates canvas nodes. Step nodes mirror the step kinds;
// trigger and end are synthetic boundary markers.
type NodeType string

const (
	NodeTypeTrigger     NodeType = "trigger"
	NodeTypeAgent       NodeType = "agent"
	NodeTypeConditional NodeType = "conditional"
	NodeTypeParallel    NodeType = "parallel"
	NodeTypeLoop        NodeType = "loop"
	NodeTypeApproval    NodeType = "approval"
	NodeTypeEnd         NodeType = "end"
)

// Reserved node identifiers for the synthetic boundary nodes.
const (
	TriggerNodeID = "trigger"
	EndNodeID     = "end"
)

// DefaultBranchLabel labels the fallback edge out of a conditional node.
const DefaultBranchLabel = "default"

// Node is one canvas node: a stable identifier (the step id, or a reserved
// constant for boundary nodes), a top-left position, and a type-specific
// payload.
type Node struct {
	ID       string          `json:"id"`
	Type     NodeType        `json:"type"`
	Position models.Position `json:"position"`
	Data     NodeData        `json:"data"`
}

// NodeData is the per-type payload union. It is sealed: the set of payload
// types matches the set of node types, and Node.UnmarshalJSON dispatches on
// the type tag.
type NodeData interface {
	nodeType() NodeType
}

// TriggerNodeData surfaces the workflow's entry configuration.
type TriggerNodeData struct {
	Label       string                `json:"label"`
	TriggerType models.TriggerType    `json:"trigger_type"`
	Webhook     *models.WebhookConfig `json:"webhook,omitempty"`
	Schedule    string                `json:"schedule,omitempty"`
}

// AgentNodeData renders a single agent invocation. AgentName and AgentGoal
// are display fields resolved from the known-agent set; they are refreshed in
// place when the set changes and never persisted back into the definition.
type AgentNodeData struct {
	Label          string                 `json:"label"`
	AgentID        string                 `json:"agent_id,omitempty"`
	AgentName      string                 `json:"agent_name,omitempty"`
	AgentGoal      string                 `json:"agent_goal,omitempty"`
	Input          string                 `json:"input,omitempty"`
	SuggestedAgent *models.SuggestedAgent `json:"suggested_agent,omitempty"`
	Readiness      ReadinessState         `json:"readiness"`
}

// Branch is one routed alternative out of a conditional node, ordered for
// stable rendering. The entry labeled with DefaultBranchLabel is the
// fallback.
type Branch struct {
	Condition      string `json:"condition"`
	TargetStepID   string `json:"target_step_id"`
	TargetStepName string `json:"target_step_name,omitempty"`
}

type ConditionalNodeData struct {
	Label          string         `json:"label"`
	ClassifierID   string         `json:"classifier_id,omitempty"`
	ClassifierName string         `json:"classifier_name,omitempty"`
	Branches       []Branch       `json:"branches,omitempty"`
	Readiness      ReadinessState `json:"readiness"`
}

// ParallelBranchView is the rendered summary of one parallel lane.
type ParallelBranchView struct {
	ID        string `json:"id"`
	AgentID   string `json:"agent_id,omitempty"`
	AgentName string `json:"agent_name,omitempty"`
	Input     string `json:"input,omitempty"`
	Timeout   int    `json:"timeout,omitempty"`
}

type ParallelNodeData struct {
	Label       string               `json:"label"`
	Branches    []ParallelBranchView `json:"branches,omitempty"`
	Aggregation string               `json:"aggregation,omitempty"`
	Readiness   ReadinessState       `json:"readiness"`
}

// LoopNodeData carries the loop configuration verbatim. Body steps are part
// of the node payload, not independent graph nodes: they have no positions.
type LoopNodeData struct {
	Label         string                `json:"label"`
	Mode          models.LoopMode       `json:"mode"`
	Count         int                   `json:"count,omitempty"`
	Items         string                `json:"items,omitempty"`
	Until         string                `json:"until,omitempty"`
	MaxIterations int                   `json:"max_iterations,omitempty"`
	Body          []models.WorkflowStep `json:"body,omitempty"`
	Readiness     ReadinessState        `json:"readiness"`
}

type ApprovalNodeData struct {
	Label     string         `json:"label"`
	Approvers []string       `json:"approvers,omitempty"`
	Prompt    string         `json:"prompt,omitempty"`
	Readiness ReadinessState `json:"readiness"`
}

type EndNodeData struct {
	Label string `json:"label"`
}

func (TriggerNodeData) nodeType() NodeType     { return NodeTypeTrigger }
func (AgentNodeData) nodeType() NodeType       { return NodeTypeAgent }
func (ConditionalNodeData) nodeType() NodeType { return NodeTypeConditional }
func (ParallelNodeData) nodeType() NodeType    { return NodeTypeParallel }
func (LoopNodeData) nodeType() NodeType        { return NodeTypeLoop }
func (ApprovalNodeData) nodeType() NodeType    { return NodeTypeApproval }
func (EndNodeData) nodeType() NodeType         { return NodeTypeEnd }

// Readiness returns the payload's readiness state. Boundary nodes report
// ok=false: they have none.
func (n Node) Readiness() (ReadinessState, bool) {
	switch data := n.Data.(type) {
	case AgentNodeData:
		return data.Readiness, true
	case ConditionalNodeData:
		return data.Readiness, true
	case ParallelNodeData:
		return data.Readiness, true
	case LoopNodeData:
		return data.Readiness, true
	case ApprovalNodeData:
		return data.Readiness, true
	default:
		return "", false
	}
}

// IsBoundary reports whether the node is one of the synthetic trigger/end
// markers rather than a step.
func (n Node) IsBoundary() bool {
	return n.Type == NodeTypeTrigger || n.Type == NodeTypeEnd
}

// UnmarshalJSON decodes the payload into the concrete type selected by the
// type tag.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       string          `json:"id"`
		Type     NodeType        `json:"type"`
		Position models.Position `json:"position"`
		Data     json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	n.ID = raw.ID
	n.Type = raw.Type
	n.Position = raw.Position

	switch raw.Type {
	case NodeTypeTrigger:
		var payload TriggerNodeData

		return decodeInto(n, raw.Data, &payload)
	case NodeTypeAgent:
		var payload AgentNodeData

		return decodeInto(n, raw.Data, &payload)
	case NodeTypeConditional:
		var payload ConditionalNodeData

		return decodeInto(n, raw.Data, &payload)
	case NodeTypeParallel:
		var payload ParallelNodeData

		return decodeInto(n, raw.Data, &payload)
	case NodeTypeLoop:
		var payload LoopNodeData

		return decodeInto(n, raw.Data, &payload)
	case NodeTypeApproval:
		var payload ApprovalNodeData

		return decodeInto(n, raw.Data, &payload)
	case NodeTypeEnd:
		var payload EndNodeData

		return decodeInto(n, raw.Data, &payload)
	default:
		return fmt.Errorf("unknown node type %q on node %s", raw.Type, raw.ID)
	}
}

func decodeInto[T NodeData](n *Node, raw json.RawMessage, payload *T) error {
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, payload); err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
	}

	n.Data = *payload

	return nil
}

// Graph is the full editable canvas: nodes plus edges.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodeByID returns a pointer into the node slice, or nil. The pointer stays
// valid until nodes are appended or removed.
func (g *Graph) NodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}

	return nil
}

// Positions collects every node's current position, keyed by node id —
// exactly the shape persisted under the definition's reserved layout key.
func (g *Graph) Positions() map[string]models.Position {
	positions := make(map[string]models.Position, len(g.Nodes))
	for _, node := range g.Nodes {
		positions[node.ID] = node.Position
	}

	return positions
}
