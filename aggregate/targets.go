// Package aggregate implements the bounded-range ("skimmer") comparison
// transform: instead of ranking who heard the primary call, each input
// callsign's own receptions are re-keyed by the station that was heard, so
// the slots can be compared against a common set of detected targets. An
// optional geographic scope narrows that target set.
package aggregate

import (
	"sort"
	"strconv"
	"strings"

	"github.com/s53zo/RBN-spots-analysis-tool/cty"
	"github.com/s53zo/RBN-spots-analysis-tool/orchestrator"
	"github.com/s53zo/RBN-spots-analysis-tool/spot"
)

// ScopeKind selects how the target set is narrowed.
type ScopeKind string

const (
	ScopeGlobal    ScopeKind = "global"
	ScopeContinent ScopeKind = "continent"
	ScopeDXCC      ScopeKind = "dxcc"
	ScopeCQZone    ScopeKind = "cq"
	ScopeITUZone   ScopeKind = "itu"
	ScopeCall      ScopeKind = "call"
)

// Scope is a geographic filter over detected targets. The zero value is
// global (no filtering).
type Scope struct {
	Kind  ScopeKind
	Value string // continent code, entity name, zone number, or callsign
}

// Global reports whether the scope keeps every target.
func (s Scope) Global() bool {
	return s.Kind == "" || s.Kind == ScopeGlobal
}

// Target is one heard station with the detections of it grouped per slot.
type Target struct {
	Call      string
	Continent string
	DXCC      string
	CQZone    int
	ITUZone   int

	// BySlot maps slot ID to this target's detections by that slot's
	// receiver, chronological.
	BySlot map[string][]*spot.Spot
	Total  int
}

// SlotsHeard lists the slot IDs that detected this target, ascending.
func (t *Target) SlotsHeard() []string {
	ids := make([]string, 0, len(t.BySlot))
	for id := range t.BySlot {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Targets inverts the ready slots' "we heard" spots into a target-keyed view
// and applies the scope. Under any non-global scope a target whose geography
// cannot be resolved is excluded, so the comparison never mixes known and
// unknown locations. Targets come back ordered by total detections
// descending, callsign ascending on ties.
func Targets(slots []*orchestrator.SlotResult, scope Scope, resolver *cty.Resolver) []*Target {
	byCall := make(map[string]*Target)
	for _, s := range slots {
		if s == nil || s.Status != orchestrator.StatusReady {
			continue
		}
		for _, sp := range s.SpotsByUs {
			t := byCall[sp.DXCall]
			if t == nil {
				t = &Target{Call: sp.DXCall, BySlot: make(map[string][]*spot.Spot)}
				byCall[sp.DXCall] = t
			}
			t.BySlot[s.Slot] = append(t.BySlot[s.Slot], sp)
			t.Total++
		}
	}

	targets := make([]*Target, 0, len(byCall))
	for _, t := range byCall {
		geo := resolver.Resolve(t.Call, scope.Global())
		t.Continent = geo.Continent
		t.DXCC = geo.DXCC
		t.CQZone = geo.CQZone
		t.ITUZone = geo.ITUZone
		if matchesScope(t, geo, scope) {
			targets = append(targets, t)
		}
	}

	sort.Slice(targets, func(i, j int) bool {
		if targets[i].Total != targets[j].Total {
			return targets[i].Total > targets[j].Total
		}
		return targets[i].Call < targets[j].Call
	})
	return targets
}

// matchesScope applies the scope filter. Non-global scopes require resolved
// geography before the value comparison even runs.
func matchesScope(t *Target, geo cty.GeoMeta, scope Scope) bool {
	if scope.Global() {
		return true
	}
	if !geo.Matched {
		return false
	}
	switch scope.Kind {
	case ScopeContinent:
		return geo.Continent != "" && geo.Continent == cty.NormalizeContinent(scope.Value)
	case ScopeDXCC:
		return geo.DXCC != "" && strings.EqualFold(geo.DXCC, strings.TrimSpace(scope.Value))
	case ScopeCQZone:
		zone, err := strconv.Atoi(strings.TrimSpace(scope.Value))
		return err == nil && geo.CQZone != 0 && geo.CQZone == zone
	case ScopeITUZone:
		zone, err := strconv.Atoi(strings.TrimSpace(scope.Value))
		return err == nil && geo.ITUZone != 0 && geo.ITUZone == zone
	case ScopeCall:
		return t.Call == spot.NormalizeCall(scope.Value)
	}
	return false
}
