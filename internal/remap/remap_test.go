package remap

import (
	"reflect"
	"testing"

	"mbswitch/internal/metabase"
)

func TestNewOpaqueID_Freshness(t *testing.T) {
	const n = 1000
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		id := NewOpaqueID()
		if len(id) != 8 {
			t.Fatalf("NewOpaqueID() = %q, want 8 characters", id)
		}
		if seen[id] {
			t.Fatalf("NewOpaqueID() repeated %q", id)
		}
		seen[id] = true
	}
}

func TestRemapTabs(t *testing.T) {
	tabs := []metabase.Tab{
		{ID: "tab-a", Name: "Overview"},
		{ID: "tab-b", Name: "Detail"},
	}

	newTabs, idMap := RemapTabs(tabs)

	if len(newTabs) != 2 || len(idMap) != 2 {
		t.Fatalf("RemapTabs() sizes = %d, %d", len(newTabs), len(idMap))
	}
	for i, tab := range tabs {
		if newTabs[i].Name != tab.Name {
			t.Errorf("tab %d name changed: %q", i, newTabs[i].Name)
		}
		if newTabs[i].ID == tab.ID {
			t.Errorf("tab %d kept its old id %q", i, tab.ID)
		}
		if idMap[tab.ID] != newTabs[i].ID {
			t.Errorf("idMap[%q] = %q, want %q", tab.ID, idMap[tab.ID], newTabs[i].ID)
		}
	}
	if newTabs[0].ID == newTabs[1].ID {
		t.Error("two tabs received the same fresh id")
	}
}

func TestRemapParameters(t *testing.T) {
	params := []metabase.Parameter{
		{ID: "p1", Name: "Status", Slug: "status", Type: "string/="},
		{ID: "p2", Name: "Date", Slug: "date", Type: "date/range"},
	}

	newParams, idMap := RemapParameters(params)

	for i, p := range params {
		np := newParams[i]
		if np.ID == p.ID {
			t.Errorf("parameter %d kept its old id", i)
		}
		if np.Name != p.Name || np.Slug != p.Slug || np.Type != p.Type {
			t.Errorf("parameter %d lost attributes: %+v", i, np)
		}
		if idMap[p.ID] != np.ID {
			t.Errorf("idMap[%q] = %q, want %q", p.ID, idMap[p.ID], np.ID)
		}
	}
}

func TestRemapBindings(t *testing.T) {
	bindings := []metabase.ParameterMapping{
		{
			ParameterID: "p1",
			CardID:      100,
			Target:      []any{"dimension", []any{"field", 501, nil}},
		},
		{
			ParameterID: "p2",
			CardID:      100,
			Target:      []any{"dimension", []any{"field", 555, nil}},
		},
	}
	fieldMap := map[int]int{501: 9001}
	paramIDs := map[string]string{"p1": "n1", "p2": "n2"}
	cardIDs := map[int]int{100: 200}

	got, stale := RemapBindings(bindings, fieldMap, paramIDs, cardIDs)

	if got[0].ParameterID != "n1" || got[0].CardID != 200 {
		t.Errorf("binding 0 refs = %q, %d", got[0].ParameterID, got[0].CardID)
	}
	wantTarget := []any{"dimension", []any{"field", 9001, nil}}
	if !reflect.DeepEqual(got[0].Target, wantTarget) {
		t.Errorf("binding 0 target = %v, want %v", got[0].Target, wantTarget)
	}

	// Unmapped column: binding keeps the stale source-side id and is reported.
	staleTarget := []any{"dimension", []any{"field", 555, nil}}
	if !reflect.DeepEqual(got[1].Target, staleTarget) {
		t.Errorf("binding 1 target = %v, want stale %v", got[1].Target, staleTarget)
	}
	if !reflect.DeepEqual(stale, []int{555}) {
		t.Errorf("stale = %v, want [555]", stale)
	}

	// Input untouched.
	if bindings[0].ParameterID != "p1" || bindings[0].Target[1].([]any)[1] != 501 {
		t.Errorf("RemapBindings mutated its input: %+v", bindings[0])
	}
}

func TestRemapParamFields(t *testing.T) {
	got := RemapParamFields(
		map[string][]int{"p1": {501, 555}},
		map[int]int{501: 9001},
		map[string]string{"p1": "n1"},
	)

	want := map[string][]int{"n1": {9001, 555}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RemapParamFields() = %v, want %v", got, want)
	}

	if RemapParamFields(nil, nil, nil) != nil {
		t.Error("RemapParamFields(nil) should stay nil")
	}
}

func TestRemapDashcards_ClosurePreserved(t *testing.T) {
	card1, card2 := 100, 101
	tabA := "tab-a"
	dashcards := []metabase.DashCard{
		{
			ID:             1,
			CardID:         &card1,
			DashboardTabID: &tabA,
			Row:            0, Col: 0, SizeX: 4, SizeY: 4,
			ParameterMappings: []metabase.ParameterMapping{
				{ParameterID: "p1", CardID: 100, Target: []any{"dimension", []any{"field", 501, nil}}},
			},
		},
		{ID: 2, CardID: &card2, Row: 4, Col: 0, SizeX: 4, SizeY: 4},
	}

	tabIDs := map[string]string{"tab-a": "fresh-tab"}
	paramIDs := map[string]string{"p1": "fresh-p"}
	cardIDs := map[int]int{100: 200, 101: 201}

	got, stale := RemapDashcards(dashcards, map[int]int{501: 9001}, paramIDs, tabIDs, cardIDs)

	if len(stale) != 0 {
		t.Errorf("stale = %v, want none", stale)
	}
	if *got[0].CardID != 200 || *got[1].CardID != 201 {
		t.Errorf("card ids = %d, %d", *got[0].CardID, *got[1].CardID)
	}
	if *got[0].DashboardTabID != "fresh-tab" {
		t.Errorf("tab id = %q", *got[0].DashboardTabID)
	}
	if got[0].ParameterMappings[0].ParameterID != "fresh-p" {
		t.Errorf("parameter id = %q", got[0].ParameterMappings[0].ParameterID)
	}
	if got[0].ParameterMappings[0].CardID != 200 {
		t.Errorf("binding card id = %d", got[0].ParameterMappings[0].CardID)
	}
	// Placement ids become negative placeholders; geometry carries over.
	if got[0].ID != -1 || got[1].ID != -2 {
		t.Errorf("placement ids = %d, %d", got[0].ID, got[1].ID)
	}
	if got[1].Row != 4 || got[1].SizeX != 4 {
		t.Errorf("geometry lost: %+v", got[1])
	}

	// Every reference in the output resolves within the output's own sets.
	newTabSet := map[string]bool{"fresh-tab": true}
	newParamSet := map[string]bool{"fresh-p": true}
	newCardSet := map[int]bool{200: true, 201: true}
	for _, dc := range got {
		if dc.DashboardTabID != nil && !newTabSet[*dc.DashboardTabID] {
			t.Errorf("dangling tab reference %q", *dc.DashboardTabID)
		}
		if dc.CardID != nil && !newCardSet[*dc.CardID] {
			t.Errorf("dangling card reference %d", *dc.CardID)
		}
		for _, pm := range dc.ParameterMappings {
			if !newParamSet[pm.ParameterID] {
				t.Errorf("dangling parameter reference %q", pm.ParameterID)
			}
			if !newCardSet[pm.CardID] {
				t.Errorf("dangling binding card reference %d", pm.CardID)
			}
		}
	}
}

func TestBindingFieldIDs(t *testing.T) {
	card := 100
	dash := &metabase.Dashboard{
		Dashcards: []metabase.DashCard{
			{
				CardID: &card,
				ParameterMappings: []metabase.ParameterMapping{
					{ParameterID: "p1", CardID: 100, Target: []any{"dimension", []any{"field", 501, nil}}},
					{ParameterID: "p2", CardID: 100, Target: []any{"dimension", []any{"field", 502, nil}}},
				},
			},
		},
		ParamFields: map[string][]int{"p1": {501, 777}},
	}

	got := BindingFieldIDs(dash)
	want := []int{501, 502, 777}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BindingFieldIDs() = %v, want %v", got, want)
	}
}
