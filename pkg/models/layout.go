package models

import (
	"encoding/json"
	"maps"
	"time"
)

// CanvasLayoutKey is the reserved context key under which saved node
// positions live. It is the only canvas-owned data inside an otherwise
// execution-focused definition; all access goes through the typed accessors
// below so unrelated context keys round-trip untouched.
const CanvasLayoutKey = "canvas_layout"

// Position is a top-left node position on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CanvasLayout is the persisted layout: node id → position, plus the save
// instant (RFC 3339 on the wire).
type CanvasLayout struct {
	Positions map[string]Position `json:"positions"`
	SavedAt   time.Time           `json:"savedAt,omitzero"`
}

// CanvasLayoutFromContext extracts the saved layout from a definition's
// context map. A missing or unreadable value reports ok=false — no saved
// layout is never an error.
func CanvasLayoutFromContext(context map[string]any) (CanvasLayout, bool) {
	raw, ok := context[CanvasLayoutKey]
	if !ok {
		return CanvasLayout{}, false
	}

	switch value := raw.(type) {
	case CanvasLayout:
		return value, true
	default:
		// Context loaded from JSON holds a plain map; decode through JSON to
		// stay tolerant of shape drift.
		data, err := json.Marshal(value)
		if err != nil {
			return CanvasLayout{}, false
		}

		var layout CanvasLayout
		if err := json.Unmarshal(data, &layout); err != nil {
			return CanvasLayout{}, false
		}

		return layout, true
	}
}

// WithCanvasLayout returns a copy of the context map with the saved layout
// set under the reserved key. The input map is not mutated.
func WithCanvasLayout(context map[string]any, layout CanvasLayout) map[string]any {
	updated := maps.Clone(context)
	if updated == nil {
		updated = make(map[string]any, 1)
	}

	updated[CanvasLayoutKey] = layout

	return updated
}
