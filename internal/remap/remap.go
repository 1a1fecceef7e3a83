// Package remap rewrites the interlinked sub-entities of a dashboard: tabs
// and parameters get fresh opaque ids (the platform requires new ids for
// created sub-entities), and every cross-reference from dashcards and
// parameter bindings is rewritten to stay consistent with those fresh ids
// and with the column identifier mapping.
package remap

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"mbswitch/internal/mbql"
	"mbswitch/internal/metabase"
)

// NewOpaqueID returns a short random identifier for a freshly created tab
// or parameter. Eight hex characters of a v4 UUID; collisions within one
// dashboard's worth of entities are negligible.
func NewOpaqueID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// RemapTabs gives every tab a fresh id, preserving order, and returns the
// old id -> new id map.
func RemapTabs(tabs []metabase.Tab) ([]metabase.Tab, map[string]string) {
	out := make([]metabase.Tab, len(tabs))
	idMap := make(map[string]string, len(tabs))
	for i, tab := range tabs {
		newID := NewOpaqueID()
		idMap[tab.ID] = newID
		out[i] = metabase.Tab{ID: newID, Name: tab.Name}
	}
	return out, idMap
}

// RemapParameters gives every parameter a fresh id, preserving order, and
// returns the old id -> new id map.
func RemapParameters(params []metabase.Parameter) ([]metabase.Parameter, map[string]string) {
	out := make([]metabase.Parameter, len(params))
	idMap := make(map[string]string, len(params))
	for i, p := range params {
		newID := NewOpaqueID()
		idMap[p.ID] = newID
		np := p
		np.ID = newID
		out[i] = np
	}
	return out, idMap
}

// RemapBindings rewrites each parameter mapping: the bound column id goes
// through the field mapping (an unmapped column keeps its stale source-side
// id — degraded but non-fatal; the second return value reports those), the
// owning parameter id goes through paramIDs, and the target card id through
// cardIDs.
func RemapBindings(bindings []metabase.ParameterMapping, fieldMap map[int]int, paramIDs map[string]string, cardIDs map[int]int) ([]metabase.ParameterMapping, []int) {
	out := make([]metabase.ParameterMapping, len(bindings))
	var stale []int
	staleSeen := make(map[int]bool)

	for i, b := range bindings {
		nb := b
		if newParam, ok := paramIDs[b.ParameterID]; ok {
			nb.ParameterID = newParam
		}
		if newCard, ok := cardIDs[b.CardID]; ok {
			nb.CardID = newCard
		}
		if b.Target != nil {
			nb.Target = mbql.RewriteNode(b.Target, fieldMap, nil).([]any)
			for _, id := range mbql.ExtractFieldIDs(b.Target) {
				if _, mapped := fieldMap[id]; !mapped && !staleSeen[id] {
					staleSeen[id] = true
					stale = append(stale, id)
				}
			}
		}
		out[i] = nb
	}
	return out, stale
}

// RemapParamFields rewrites the candidate-column lists, keyed by the new
// parameter ids. Candidate columns without a target counterpart keep their
// source ids.
func RemapParamFields(paramFields map[string][]int, fieldMap map[int]int, paramIDs map[string]string) map[string][]int {
	if paramFields == nil {
		return nil
	}
	out := make(map[string][]int, len(paramFields))
	for oldParam, fieldIDs := range paramFields {
		key := oldParam
		if newParam, ok := paramIDs[oldParam]; ok {
			key = newParam
		}
		ids := make([]int, len(fieldIDs))
		for i, id := range fieldIDs {
			if mapped, ok := fieldMap[id]; ok {
				ids[i] = mapped
			} else {
				ids[i] = id
			}
		}
		out[key] = ids
	}
	return out
}

// RemapDashcards rebuilds every placement for the new dashboard: card ids
// go through cardIDs (old card -> migrated card), tab references through
// tabIDs, and bindings through RemapBindings. Placement ids become negative
// placeholders, which the platform treats as rows to create. The second
// return value lists column ids left pointing at the source database.
func RemapDashcards(cards []metabase.DashCard, fieldMap map[int]int, paramIDs, tabIDs map[string]string, cardIDs map[int]int) ([]metabase.DashCard, []int) {
	out := make([]metabase.DashCard, len(cards))
	var stale []int
	staleSeen := make(map[int]bool)

	for i, dc := range cards {
		nc := dc
		nc.ID = -(i + 1)
		if dc.CardID != nil {
			if newID, ok := cardIDs[*dc.CardID]; ok {
				v := newID
				nc.CardID = &v
			}
		}
		if dc.DashboardTabID != nil {
			if newTab, ok := tabIDs[*dc.DashboardTabID]; ok {
				v := newTab
				nc.DashboardTabID = &v
			}
		}
		bindings, staleHere := RemapBindings(dc.ParameterMappings, fieldMap, paramIDs, cardIDs)
		nc.ParameterMappings = bindings
		for _, id := range staleHere {
			if !staleSeen[id] {
				staleSeen[id] = true
				stale = append(stale, id)
			}
		}
		out[i] = nc
	}
	return out, stale
}

// BindingFieldIDs collects every column id referenced by the dashboard's
// parameter bindings and candidate-column lists, deduplicated and sorted.
func BindingFieldIDs(dash *metabase.Dashboard) []int {
	var targets []any
	for _, dc := range dash.Dashcards {
		for _, pm := range dc.ParameterMappings {
			if pm.Target != nil {
				targets = append(targets, pm.Target)
			}
		}
	}
	ids := mbql.ExtractFieldIDs(targets)
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	for _, fieldIDs := range dash.ParamFields {
		for _, id := range fieldIDs {
			seen[id] = true
		}
	}
	out := make([]int, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
