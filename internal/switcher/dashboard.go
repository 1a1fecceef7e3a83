package switcher

import (
	"context"
	"fmt"

	"mbswitch/internal/bridge"
	"mbswitch/internal/events"
	"mbswitch/internal/metabase"
	"mbswitch/internal/remap"
)

// DashboardResult reports one migrated dashboard. The Planned* fields hold
// the fully transformed structure; under dry-run they are what a real run
// would have written. NewDashboardID is zero under dry-run.
type DashboardResult struct {
	Original           *metabase.Dashboard
	NewDashboardID     int
	CardResults        []*QuestionResult
	PlannedTabs        []metabase.Tab
	PlannedParameters  []metabase.Parameter
	PlannedDashcards   []metabase.DashCard
	PlannedParamFields map[string][]int
	StaleBindingFields []int
}

// SwitchDashboard migrates a dashboard: every contained question goes
// through the single-question flow, tabs and parameters are recreated with
// fresh ids, and every cross-reference (card ids, tab ids, parameter ids,
// bound column ids) is rewritten consistently before the new dashboard is
// populated in one batched update.
//
// A collaborator failure after the new dashboard is created leaves it
// partially populated; nothing is rolled back. The returned error names the
// failing step so the caller can clean up.
func (s *Switcher) SwitchDashboard(ctx context.Context, dashboardID int, opts Options) (*DashboardResult, error) {
	dash, err := s.client.GetDashboard(ctx, dashboardID)
	if err != nil {
		return nil, fmt.Errorf("fetch dashboard %d: %w", dashboardID, err)
	}
	s.emit(events.Event{Kind: events.DashboardFetched, ID: dash.ID, Name: dash.Name})

	src, tgt, err := s.buildCatalogs(ctx, opts)
	if err != nil {
		return nil, err
	}
	tableMap := bridge.BuildTableMapping(src, tgt)

	// One shared column mapping covers every binding and candidate list on
	// the dashboard; contained questions resolve their own query refs.
	bindingIDs := remap.BindingFieldIDs(dash)
	idToPath, err := bridge.ResolvePaths(ctx, bindingIDs, s.client.GetField)
	if err != nil {
		return nil, fmt.Errorf("resolve binding column paths: %w", err)
	}
	s.emit(events.Event{Kind: events.FieldsResolved, Count: len(idToPath)})

	fieldMap := bridge.BuildFieldMapping(idToPath, tgt)
	for _, id := range bridge.Unmapped(bindingIDs, fieldMap) {
		detail := "no path resolved"
		if path, ok := idToPath[id]; ok {
			detail = "no target column at " + path.String()
		}
		s.emit(events.Event{Kind: events.UnresolvedColumn, ID: id, Detail: detail})
	}

	newTabs, tabIDs := remap.RemapTabs(dash.Tabs)
	s.emit(events.Event{Kind: events.TabsRemapped, Count: len(newTabs)})

	res := &DashboardResult{Original: dash, PlannedTabs: newTabs}

	// Migrate each distinct contained question once, in placement order.
	cardIDs := make(map[int]int)
	for _, oldID := range containedCardIDs(dash) {
		qres, err := s.switchQuestion(ctx, oldID, opts, tgt, tableMap)
		if err != nil {
			return nil, fmt.Errorf("migrate card %d: %w", oldID, err)
		}
		res.CardResults = append(res.CardResults, qres)
		if qres.NewCardID != 0 {
			cardIDs[oldID] = qres.NewCardID
		}
		s.emit(events.Event{Kind: events.CardMigrated, ID: oldID, Count: qres.NewCardID})
	}

	newParams, paramIDs := remap.RemapParameters(dash.Parameters)
	s.emit(events.Event{Kind: events.ParametersRemapped, Count: len(newParams)})

	newCards, stale := remap.RemapDashcards(dash.Dashcards, fieldMap, paramIDs, tabIDs, cardIDs)
	res.PlannedParameters = newParams
	res.PlannedDashcards = newCards
	res.PlannedParamFields = remap.RemapParamFields(dash.ParamFields, fieldMap, paramIDs)
	res.StaleBindingFields = stale

	if opts.DryRun {
		s.emit(events.Event{Kind: events.DryRunComplete, ID: dash.ID})
		return res, nil
	}

	created, err := s.client.CreateDashboard(ctx, metabase.DashboardPayload{
		Name:         fmt.Sprintf("%s (switched to DB %d)", dash.Name, opts.TargetDB),
		Description:  dash.Description,
		CollectionID: opts.Collection.resolve(dash.CollectionID),
	})
	if err != nil {
		return nil, fmt.Errorf("create dashboard in database %d: %w", opts.TargetDB, err)
	}
	res.NewDashboardID = created.ID
	s.emit(events.Event{Kind: events.DashboardCreated, ID: created.ID})

	if _, err := s.client.UpdateDashboard(ctx, created.ID, metabase.DashboardUpdate{
		Dashcards:   newCards,
		Tabs:        newTabs,
		Parameters:  newParams,
		ParamFields: res.PlannedParamFields,
	}); err != nil {
		return res, fmt.Errorf("populate dashboard %d (created but left incomplete): %w", created.ID, err)
	}
	s.emit(events.Event{Kind: events.DashboardUpdated, ID: created.ID, Count: len(newCards)})
	return res, nil
}

// containedCardIDs returns the distinct saved-question ids referenced by
// the dashboard's placements, in first-appearance order.
func containedCardIDs(dash *metabase.Dashboard) []int {
	seen := make(map[int]bool)
	var ids []int
	for _, dc := range dash.Dashcards {
		if dc.CardID == nil {
			continue
		}
		if !seen[*dc.CardID] {
			seen[*dc.CardID] = true
			ids = append(ids, *dc.CardID)
		}
	}
	return ids
}
