// Package bridge turns source-database column ids into target-database
// column ids by joining the two identifier namespaces on schema-qualified
// names. Resolution is two-phase: a remote lookup per id to learn each
// column's path, then a local lookup against the target catalog. The split
// exists because the first phase costs a network round trip per id and the
// second is free.
package bridge

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"mbswitch/internal/catalog"
	"mbswitch/internal/metabase"
)

// lookupLimit bounds concurrent per-id lookups against the platform.
const lookupLimit = 8

// LookupFunc fetches one column descriptor, including its owning table,
// from the platform.
type LookupFunc func(ctx context.Context, fieldID int) (*metabase.Field, error)

// ResolvePaths resolves each id to its schema-qualified column path via one
// collaborator call per id. Lookups run concurrently; results assemble into
// a map, so completion order is irrelevant. Ids whose descriptor carries no
// owning table are dropped, never guessed. A failing lookup aborts the
// whole resolution.
func ResolvePaths(ctx context.Context, ids []int, lookup LookupFunc) (map[int]catalog.ColumnPath, error) {
	paths := make(map[int]catalog.ColumnPath, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupLimit)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			field, err := lookup(gctx, id)
			if err != nil {
				return err
			}
			if field == nil || field.Table == nil || field.Table.Name == "" || field.Name == "" {
				return nil
			}
			mu.Lock()
			paths[id] = catalog.ColumnPath{
				Schema: field.Table.Schema,
				Table:  field.Table.Name,
				Column: field.Name,
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// BuildFieldMapping looks each resolved path up in the target catalog and
// returns source id -> target id. Paths absent from the target are left
// unmapped; the rewriter preserves unmapped ids as-is.
func BuildFieldMapping(idToPath map[int]catalog.ColumnPath, target *catalog.Catalog) map[int]int {
	mapping := make(map[int]int, len(idToPath))
	for id, path := range idToPath {
		if field, ok := target.FindColumn(path); ok {
			mapping[id] = field.ID
		}
	}
	return mapping
}

// BuildTableMapping maps every source table id to the target table id with
// the same path. Tables without a counterpart are left unmapped.
func BuildTableMapping(source, target *catalog.Catalog) map[int]int {
	mapping := make(map[int]int)
	for _, id := range source.TableIDs() {
		path, ok := source.TablePathByID(id)
		if !ok {
			continue
		}
		if table, found := target.FindTable(path); found {
			mapping[id] = table.ID
		}
	}
	return mapping
}

// Unmapped returns the ids from the given set that resolved to a path but
// have no counterpart in the mapping, sorted by the caller if needed. Used
// for unresolved-reference reporting.
func Unmapped(ids []int, mapping map[int]int) []int {
	var out []int
	for _, id := range ids {
		if _, ok := mapping[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
