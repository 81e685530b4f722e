// Package agents provides an indexed view over the known-agent set used for
// step reference resolution.
package agents

import (
	"sort"
	"strings"
	"unicode"

	"github.com/flowplane/flowplane/pkg/models"
)

// Directory indexes known agents by id and by normalized name. It is an
// immutable snapshot: refreshes build a new Directory rather than mutating
// one shared between goroutines.
type Directory struct {
	byID   map[string]models.Agent
	byName map[string]models.Agent
}

// NewDirectory builds a directory from an agent list. When two agents share
// a normalized name, the first one registered wins the name slot; ids stay
// authoritative either way.
func NewDirectory(list []models.Agent) *Directory {
	d := &Directory{
		byID:   make(map[string]models.Agent, len(list)),
		byName: make(map[string]models.Agent, len(list)),
	}

	for _, agent := range list {
		if agent.ID == "" {
			continue
		}

		d.byID[agent.ID] = agent

		key := Normalize(agent.Name)
		if key == "" {
			continue
		}

		if _, taken := d.byName[key]; !taken {
			d.byName[key] = agent
		}
	}

	return d
}

// ByID looks an agent up by identifier.
func (d *Directory) ByID(id string) (models.Agent, bool) {
	agent, ok := d.byID[id]

	return agent, ok
}

// ByNormalizedName looks an agent up by its normalized display name.
func (d *Directory) ByNormalizedName(name string) (models.Agent, bool) {
	agent, ok := d.byName[Normalize(name)]

	return agent, ok
}

// ResolveAgentRef resolves a step's agent reference. An explicit id is
// resolved by id only — a stale id must surface as unresolved, not silently
// re-bind by name. Without an id, the suggested-agent payload (if any) is
// matched by normalized name to recover from an agent being created right
// before a save that never attached the id.
func (d *Directory) ResolveAgentRef(agentID string, suggested *models.SuggestedAgent) (models.Agent, bool) {
	if agentID != "" {
		return d.ByID(agentID)
	}

	if suggested == nil || suggested.Name == "" {
		return models.Agent{}, false
	}

	return d.ByNormalizedName(suggested.Name)
}

// Len reports how many agents the directory holds.
func (d *Directory) Len() int {
	return len(d.byID)
}

// All returns the agents sorted by name for stable display.
func (d *Directory) All() []models.Agent {
	all := make([]models.Agent, 0, len(d.byID))
	for _, agent := range d.byID {
		all = append(all, agent)
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Name == all[j].Name {
			return all[i].ID < all[j].ID
		}

		return all[i].Name < all[j].Name
	})

	return all
}

// Normalize collapses a display name to its matching key: lower-cased, with
// every non-alphanumeric run reduced to a single hyphen.
func Normalize(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	return strings.Join(fields, "-")
}
