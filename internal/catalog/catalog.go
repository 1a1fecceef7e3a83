// Package catalog indexes one database's metadata snapshot by
// schema-qualified name. Names are the only identity shared between two
// databases, so these indexes are the join point for every remap.
package catalog

import (
	"errors"
	"fmt"

	"mbswitch/internal/metabase"
)

// ErrAmbiguousCatalog means one database snapshot contains two tables or
// two columns with the same schema-qualified path. Name lookups against
// such a snapshot would be unsound, so construction fails.
var ErrAmbiguousCatalog = errors.New("ambiguous catalog")

// TablePath is the canonical cross-database identity of a table. An empty
// Schema means the table has no schema (some warehouses omit it).
type TablePath struct {
	Schema string
	Name   string
}

func (p TablePath) String() string {
	if p.Schema == "" {
		return p.Name
	}
	return p.Schema + "." + p.Name
}

// ColumnPath is the canonical cross-database identity of a column.
type ColumnPath struct {
	Schema string
	Table  string
	Column string
}

func (p ColumnPath) String() string {
	if p.Schema == "" {
		return p.Table + "." + p.Column
	}
	return p.Schema + "." + p.Table + "." + p.Column
}

// Catalog is a read-only index over one database's metadata snapshot.
// Built once per migration, discarded after.
type Catalog struct {
	tables         map[TablePath]metabase.Table
	columns        map[ColumnPath]metabase.Field
	tablePathsByID map[int]TablePath
}

// New builds a Catalog from a metadata snapshot. Duplicate table or column
// paths are a configuration error on the database side and abort the
// migration.
func New(meta *metabase.DatabaseMetadata) (*Catalog, error) {
	c := &Catalog{
		tables:         make(map[TablePath]metabase.Table, len(meta.Tables)),
		columns:        make(map[ColumnPath]metabase.Field),
		tablePathsByID: make(map[int]TablePath, len(meta.Tables)),
	}
	for _, table := range meta.Tables {
		tp := TablePath{Schema: table.Schema, Name: table.Name}
		if _, exists := c.tables[tp]; exists {
			return nil, fmt.Errorf("%w: table %s appears twice in database %d", ErrAmbiguousCatalog, tp, meta.ID)
		}
		c.tables[tp] = table
		c.tablePathsByID[table.ID] = tp

		for _, field := range table.Fields {
			cp := ColumnPath{Schema: table.Schema, Table: table.Name, Column: field.Name}
			if _, exists := c.columns[cp]; exists {
				return nil, fmt.Errorf("%w: column %s appears twice in database %d", ErrAmbiguousCatalog, cp, meta.ID)
			}
			c.columns[cp] = field
		}
	}
	return c, nil
}

// FindTable looks up a table by path. Absent is a valid result.
func (c *Catalog) FindTable(p TablePath) (metabase.Table, bool) {
	t, ok := c.tables[p]
	return t, ok
}

// FindColumn looks up a column by path. Absent is a valid result.
func (c *Catalog) FindColumn(p ColumnPath) (metabase.Field, bool) {
	f, ok := c.columns[p]
	return f, ok
}

// TablePathByID returns the path of a table given its numeric id in this
// database.
func (c *Catalog) TablePathByID(id int) (TablePath, bool) {
	p, ok := c.tablePathsByID[id]
	return p, ok
}

// TableIDs returns every table id in the snapshot. Order is unspecified.
func (c *Catalog) TableIDs() []int {
	ids := make([]int, 0, len(c.tablePathsByID))
	for id := range c.tablePathsByID {
		ids = append(ids, id)
	}
	return ids
}
