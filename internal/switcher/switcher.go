// Package switcher orchestrates migrating saved questions and dashboards
// from one database connection to another. It owns the sequencing; all
// remote access goes through the Client collaborator and all progress
// reporting through an events.Sink.
package switcher

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"mbswitch/internal/catalog"
	"mbswitch/internal/events"
	"mbswitch/internal/metabase"
)

// ErrInvalidCollection means a destination collection argument was neither
// "root" nor a numeric id. Rejected before any remote call.
var ErrInvalidCollection = errors.New(`collection must be either "root" or a numeric id`)

// Client is the catalog-service collaborator. The production implementation
// is *metabase.Client; tests substitute fakes.
type Client interface {
	GetDatabaseMetadata(ctx context.Context, databaseID int) (*metabase.DatabaseMetadata, error)
	GetField(ctx context.Context, fieldID int) (*metabase.Field, error)
	GetCard(ctx context.Context, cardID int) (*metabase.Card, error)
	CreateCard(ctx context.Context, payload metabase.CardPayload) (*metabase.Card, error)
	GetDashboard(ctx context.Context, dashboardID int) (*metabase.Dashboard, error)
	CreateDashboard(ctx context.Context, payload metabase.DashboardPayload) (*metabase.Dashboard, error)
	UpdateDashboard(ctx context.Context, dashboardID int, payload metabase.DashboardUpdate) (*metabase.Dashboard, error)
}

// Collection is a parsed destination-collection choice. A nil *Collection
// means inherit the source artifact's collection.
type Collection struct {
	Root bool
	ID   int
}

// ParseCollection parses a --collection argument. Empty means inherit.
func ParseCollection(s string) (*Collection, error) {
	if s == "" {
		return nil, nil
	}
	if s == "root" {
		return &Collection{Root: true}, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidCollection, s)
	}
	return &Collection{ID: id}, nil
}

// resolve picks the destination collection id for a created artifact:
// inherit when unset, none for root, the explicit id otherwise.
func (c *Collection) resolve(inherited *int) *int {
	switch {
	case c == nil:
		return inherited
	case c.Root:
		return nil
	default:
		id := c.ID
		return &id
	}
}

// Options configures one migration.
type Options struct {
	SourceDB   int
	TargetDB   int
	Collection *Collection
	DryRun     bool
}

// Switcher sequences migrations.
type Switcher struct {
	client Client
	emit   events.Sink
}

// New creates a Switcher. A nil sink discards events.
func New(client Client, sink events.Sink) *Switcher {
	if sink == nil {
		sink = events.Discard
	}
	return &Switcher{client: client, emit: sink}
}

// buildCatalogs fetches both metadata snapshots and indexes them. An
// ambiguous snapshot aborts the migration here, before any lookups run
// against it.
func (s *Switcher) buildCatalogs(ctx context.Context, opts Options) (src, tgt *catalog.Catalog, err error) {
	srcMeta, err := s.client.GetDatabaseMetadata(ctx, opts.SourceDB)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch source metadata: %w", err)
	}
	tgtMeta, err := s.client.GetDatabaseMetadata(ctx, opts.TargetDB)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch target metadata: %w", err)
	}
	src, err = catalog.New(srcMeta)
	if err != nil {
		return nil, nil, fmt.Errorf("index source database %d: %w", opts.SourceDB, err)
	}
	tgt, err = catalog.New(tgtMeta)
	if err != nil {
		return nil, nil, fmt.Errorf("index target database %d: %w", opts.TargetDB, err)
	}
	s.emit(events.Event{Kind: events.CatalogBuilt, ID: opts.SourceDB, Count: len(srcMeta.Tables)})
	s.emit(events.Event{Kind: events.CatalogBuilt, ID: opts.TargetDB, Count: len(tgtMeta.Tables)})
	return src, tgt, nil
}
