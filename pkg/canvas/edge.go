package canvas

// Edge connects two nodes. Branch edges out of conditional steps carry the
// condition string as their label; sequential edges are unlabeled.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// NewEdge builds an edge with its derived identifier.
func NewEdge(source, target, label string) Edge {
	return Edge{
		ID:     EdgeID(source, target, label),
		Source: source,
		Target: target,
		Label:  label,
	}
}

// EdgeID derives the stable edge identifier "source-target[-label]". Callers
// rely on it to deduplicate: two edges are the same edge exactly when source,
// target and label all coincide.
func EdgeID(source, target, label string) string {
	id := source + "-" + target
	if label != "" {
		id += "-" + label
	}

	return id
}
