package bridge

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"

	"mbswitch/internal/catalog"
	"mbswitch/internal/metabase"
)

func targetCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(&metabase.DatabaseMetadata{
		ID: 2,
		Tables: []metabase.Table{
			{
				ID:     77,
				Schema: "public",
				Name:   "orders",
				Fields: []metabase.Field{
					{ID: 9001, Name: "id"},
					{ID: 9002, Name: "total"},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("build target catalog: %v", err)
	}
	return c
}

func sourceCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(&metabase.DatabaseMetadata{
		ID: 1,
		Tables: []metabase.Table{
			{ID: 10, Schema: "public", Name: "orders"},
			{ID: 11, Schema: "public", Name: "legacy_only"},
		},
	})
	if err != nil {
		t.Fatalf("build source catalog: %v", err)
	}
	return c
}

func TestResolvePaths(t *testing.T) {
	descriptors := map[int]*metabase.Field{
		501: {ID: 501, Name: "id", Table: &metabase.Table{ID: 10, Schema: "public", Name: "orders"}},
		502: {ID: 502, Name: "total", Table: &metabase.Table{ID: 10, Schema: "public", Name: "orders"}},
		503: {ID: 503, Name: "orphan"}, // no owning table: dropped
	}
	lookup := func(ctx context.Context, id int) (*metabase.Field, error) {
		f, ok := descriptors[id]
		if !ok {
			return nil, fmt.Errorf("no field %d", id)
		}
		return f, nil
	}

	got, err := ResolvePaths(context.Background(), []int{501, 502, 503}, lookup)
	if err != nil {
		t.Fatalf("ResolvePaths() error: %v", err)
	}

	want := map[int]catalog.ColumnPath{
		501: {Schema: "public", Table: "orders", Column: "id"},
		502: {Schema: "public", Table: "orders", Column: "total"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolvePaths() = %v, want %v", got, want)
	}
}

func TestResolvePaths_ManyIDsConcurrently(t *testing.T) {
	var calls atomic.Int64
	lookup := func(ctx context.Context, id int) (*metabase.Field, error) {
		calls.Add(1)
		return &metabase.Field{
			ID:    id,
			Name:  fmt.Sprintf("col_%d", id),
			Table: &metabase.Table{Schema: "public", Name: "wide"},
		}, nil
	}

	ids := make([]int, 200)
	for i := range ids {
		ids[i] = i + 1
	}

	got, err := ResolvePaths(context.Background(), ids, lookup)
	if err != nil {
		t.Fatalf("ResolvePaths() error: %v", err)
	}
	if len(got) != len(ids) {
		t.Errorf("resolved %d paths, want %d", len(got), len(ids))
	}
	if calls.Load() != int64(len(ids)) {
		t.Errorf("lookup called %d times, want %d", calls.Load(), len(ids))
	}
	if got[7] != (catalog.ColumnPath{Schema: "public", Table: "wide", Column: "col_7"}) {
		t.Errorf("path for id 7 = %v", got[7])
	}
}

func TestResolvePaths_LookupFailureAborts(t *testing.T) {
	wantErr := errors.New("boom")
	lookup := func(ctx context.Context, id int) (*metabase.Field, error) {
		if id == 2 {
			return nil, wantErr
		}
		return &metabase.Field{ID: id, Name: "x", Table: &metabase.Table{Name: "t"}}, nil
	}

	_, err := ResolvePaths(context.Background(), []int{1, 2, 3}, lookup)
	if !errors.Is(err, wantErr) {
		t.Errorf("ResolvePaths() error = %v, want %v", err, wantErr)
	}
}

func TestBuildFieldMapping(t *testing.T) {
	idToPath := map[int]catalog.ColumnPath{
		501: {Schema: "public", Table: "orders", Column: "id"},
		502: {Schema: "public", Table: "orders", Column: "total"},
		555: {Schema: "public", Table: "orders", Column: "gone"},  // column drifted away
		556: {Schema: "private", Table: "secrets", Column: "id"},  // table absent
	}

	got := BuildFieldMapping(idToPath, targetCatalog(t))

	want := map[int]int{501: 9001, 502: 9002}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildFieldMapping() = %v, want %v", got, want)
	}
}

func TestBuildTableMapping(t *testing.T) {
	got := BuildTableMapping(sourceCatalog(t), targetCatalog(t))

	// legacy_only has no counterpart and stays unmapped.
	want := map[int]int{10: 77}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildTableMapping() = %v, want %v", got, want)
	}
}

func TestUnmapped(t *testing.T) {
	got := Unmapped([]int{501, 502, 555}, map[int]int{501: 9001, 502: 9002})
	if !reflect.DeepEqual(got, []int{555}) {
		t.Errorf("Unmapped() = %v, want [555]", got)
	}
}
