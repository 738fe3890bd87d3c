// Package access computes a user's effective permission set from the
// layered inputs: dealership module grants, role module gates, and
// granular role grants. The resolver is pure; storage and caching live
// in the infrastructure layers.
package access

import (
	"encoding/json"
	"sort"

	"github.com/mydetailarea/access/pkg/domain/module"
	"github.com/mydetailarea/access/pkg/domain/permission"
)

// EffectiveSet is the resolved set of actions a user may perform within
// one dealership. It is immutable once built.
type EffectiveSet struct {
	actions map[permission.Action]struct{}
}

// NewEffectiveSet builds a set from the given actions.
func NewEffectiveSet(actions ...permission.Action) EffectiveSet {
	set := EffectiveSet{actions: make(map[permission.Action]struct{}, len(actions))}
	for _, a := range actions {
		set.actions[a] = struct{}{}
	}
	return set
}

// Has reports whether the action is in the set.
func (s EffectiveSet) Has(a permission.Action) bool {
	_, ok := s.actions[a]
	return ok
}

// HasAny reports whether at least one of the actions is in the set.
func (s EffectiveSet) HasAny(actions ...permission.Action) bool {
	for _, a := range actions {
		if s.Has(a) {
			return true
		}
	}
	return false
}

// HasAll reports whether every action is in the set.
func (s EffectiveSet) HasAll(actions ...permission.Action) bool {
	for _, a := range actions {
		if !s.Has(a) {
			return false
		}
	}
	return true
}

// HasModule reports whether any action of the module is in the set.
// Useful for navigation menus that show or hide whole modules.
func (s EffectiveSet) HasModule(m module.Module) bool {
	for a := range s.actions {
		if am, _ := a.Module(); am == m {
			return true
		}
	}
	return false
}

// Len returns the number of actions in the set.
func (s EffectiveSet) Len() int {
	return len(s.actions)
}

// Actions returns the actions in stable sorted order.
func (s EffectiveSet) Actions() []permission.Action {
	out := make([]permission.Action, 0, len(s.actions))
	for a := range s.actions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Union returns a new set containing the actions of both sets.
func (s EffectiveSet) Union(other EffectiveSet) EffectiveSet {
	merged := make([]permission.Action, 0, len(s.actions)+len(other.actions))
	for a := range s.actions {
		merged = append(merged, a)
	}
	for a := range other.actions {
		merged = append(merged, a)
	}
	return NewEffectiveSet(merged...)
}

// MarshalJSON encodes the set as a sorted JSON array of action keys.
func (s EffectiveSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Actions())
}

// UnmarshalJSON decodes a JSON array of action keys.
func (s *EffectiveSet) UnmarshalJSON(data []byte) error {
	var actions []permission.Action
	if err := json.Unmarshal(data, &actions); err != nil {
		return err
	}
	*s = NewEffectiveSet(actions...)
	return nil
}
