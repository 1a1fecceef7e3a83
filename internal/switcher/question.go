package switcher

import (
	"context"
	"fmt"
	"sort"

	"mbswitch/internal/bridge"
	"mbswitch/internal/catalog"
	"mbswitch/internal/events"
	"mbswitch/internal/mbql"
	"mbswitch/internal/metabase"
)

// QuestionResult reports one migrated saved question. NewCardID and
// DuplicateID are zero under dry-run.
type QuestionResult struct {
	Original         *metabase.Card
	PlannedQuery     map[string]any
	NewCardID        int
	DuplicateID      int
	UnresolvedFields []int
}

// SwitchQuestion migrates one saved question: duplicate the original as a
// preservation copy, remap every table/column reference in its query to the
// target database, and create the rewritten question there.
func (s *Switcher) SwitchQuestion(ctx context.Context, questionID int, opts Options) (*QuestionResult, error) {
	src, tgt, err := s.buildCatalogs(ctx, opts)
	if err != nil {
		return nil, err
	}
	tableMap := bridge.BuildTableMapping(src, tgt)
	return s.switchQuestion(ctx, questionID, opts, tgt, tableMap)
}

// switchQuestion is the shared flow; the dashboard path calls it with
// catalogs it already built.
func (s *Switcher) switchQuestion(ctx context.Context, questionID int, opts Options, tgt *catalog.Catalog, tableMap map[int]int) (*QuestionResult, error) {
	card, err := s.client.GetCard(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("fetch question %d: %w", questionID, err)
	}
	s.emit(events.Event{Kind: events.QuestionFetched, ID: card.ID, Name: card.Name})

	res := &QuestionResult{Original: card}

	// Preserve the original as an untouched copy. Skipped under dry-run:
	// it is a create call.
	if !opts.DryRun {
		dup, err := s.client.CreateCard(ctx, metabase.CardPayload{
			Name:                  card.Name + " (copy)",
			Description:           card.Description,
			DatasetQuery:          card.DatasetQuery,
			Display:               card.Display,
			VisualizationSettings: vizSettings(card),
			CollectionID:          card.CollectionID,
		})
		if err != nil {
			return nil, fmt.Errorf("duplicate question %d: %w", questionID, err)
		}
		res.DuplicateID = dup.ID
		s.emit(events.Event{Kind: events.QuestionDuplicated, ID: dup.ID})
	}

	fieldMap, unresolved, err := s.resolveFields(ctx, card.DatasetQuery, tgt)
	if err != nil {
		return nil, err
	}
	res.UnresolvedFields = unresolved

	res.PlannedQuery = mbql.Rewrite(card.DatasetQuery, fieldMap, tableMap, opts.TargetDB)
	s.emit(events.Event{Kind: events.QueryRewritten, ID: card.ID, Count: len(fieldMap)})

	if opts.DryRun {
		s.emit(events.Event{Kind: events.DryRunComplete, ID: card.ID})
		return res, nil
	}

	payload := metabase.CardPayload{
		Name:                  fmt.Sprintf("%s (switched to DB %d)", card.Name, opts.TargetDB),
		Description:           card.Description,
		DatasetQuery:          res.PlannedQuery,
		Display:               card.Display,
		VisualizationSettings: vizSettings(card),
		CollectionID:          opts.Collection.resolve(card.CollectionID),
	}
	created, err := s.client.CreateCard(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("create question in database %d: %w", opts.TargetDB, err)
	}
	res.NewCardID = created.ID
	s.emit(events.Event{Kind: events.QuestionCreated, ID: created.ID, Name: payload.Name})
	return res, nil
}

// resolveFields extracts every column id used by the query, resolves each
// to its path via the collaborator, and maps it into the target catalog.
// Ids without a target counterpart come back in the second return value.
func (s *Switcher) resolveFields(ctx context.Context, datasetQuery map[string]any, tgt *catalog.Catalog) (map[int]int, []int, error) {
	query := datasetQuery["query"]
	ids := union(mbql.ExtractFieldIDs(query), mbql.ExtractSourceFieldIDs(query))

	idToPath, err := bridge.ResolvePaths(ctx, ids, s.client.GetField)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve column paths: %w", err)
	}
	s.emit(events.Event{Kind: events.FieldsResolved, Count: len(idToPath)})

	fieldMap := bridge.BuildFieldMapping(idToPath, tgt)
	unresolved := bridge.Unmapped(ids, fieldMap)
	for _, id := range unresolved {
		detail := "no path resolved"
		if path, ok := idToPath[id]; ok {
			detail = "no target column at " + path.String()
		}
		s.emit(events.Event{Kind: events.UnresolvedColumn, ID: id, Detail: detail})
	}
	return fieldMap, unresolved, nil
}

func vizSettings(card *metabase.Card) map[string]any {
	if card.VisualizationSettings != nil {
		return card.VisualizationSettings
	}
	return map[string]any{}
}

func union(a, b []int) []int {
	seen := make(map[int]bool, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, id := range a {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range b {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}
