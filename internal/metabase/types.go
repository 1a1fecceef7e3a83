package metabase

// Table is one table descriptor from a database metadata snapshot.
type Table struct {
	ID     int     `json:"id"`
	Schema string  `json:"schema"`
	Name   string  `json:"name"`
	Fields []Field `json:"fields,omitempty"`
}

// Field is one column descriptor. When fetched via GetField the owning
// table is attached; inside a metadata snapshot Table is nil.
type Field struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	BaseType    string `json:"base_type,omitempty"`
	Table       *Table `json:"table,omitempty"`
}

// DatabaseMetadata is the full table/field snapshot for one database.
type DatabaseMetadata struct {
	ID     int     `json:"id"`
	Name   string  `json:"name,omitempty"`
	Tables []Table `json:"tables"`
}

// Card is a saved question: a structured query plus display settings.
// DatasetQuery stays untyped because MBQL trees are arbitrarily nested;
// the mbql package knows how to walk them.
type Card struct {
	ID                    int            `json:"id"`
	Name                  string         `json:"name"`
	Description           *string        `json:"description"`
	Display               string         `json:"display"`
	VisualizationSettings map[string]any `json:"visualization_settings"`
	CollectionID          *int           `json:"collection_id"`
	DatabaseID            int            `json:"database_id,omitempty"`
	DatasetQuery          map[string]any `json:"dataset_query"`
}

// CardPayload is the create body for POST /api/card.
type CardPayload struct {
	Name                  string         `json:"name"`
	Description           *string        `json:"description,omitempty"`
	DatasetQuery          map[string]any `json:"dataset_query"`
	Display               string         `json:"display"`
	VisualizationSettings map[string]any `json:"visualization_settings"`
	CollectionID          *int           `json:"collection_id,omitempty"`
}

// Tab is one dashboard tab. Tab ids are opaque strings; freshly created
// tabs get ids from remap.NewOpaqueID.
type Tab struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Parameter is one dashboard-level filter parameter.
type Parameter struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Type      string `json:"type"`
	SectionID string `json:"sectionId,omitempty"`
	Default   any    `json:"default,omitempty"`
}

// ParameterMapping binds a parameter to a column inside one dashcard's
// query. Target is an MBQL fragment, e.g. ["dimension", ["field", 501, nil]].
type ParameterMapping struct {
	ParameterID string `json:"parameter_id"`
	CardID      int    `json:"card_id"`
	Target      []any  `json:"target"`
}

// DashCard is one positioned card instance on a dashboard.
type DashCard struct {
	ID                    int                `json:"id"`
	CardID                *int               `json:"card_id"`
	DashboardTabID        *string            `json:"dashboard_tab_id,omitempty"`
	Row                   int                `json:"row"`
	Col                   int                `json:"col"`
	SizeX                 int                `json:"size_x"`
	SizeY                 int                `json:"size_y"`
	ParameterMappings     []ParameterMapping `json:"parameter_mappings"`
	VisualizationSettings map[string]any     `json:"visualization_settings,omitempty"`
}

// Dashboard is a composite artifact: dashcards plus shared tabs and
// parameters. ParamFields maps a parameter id to the field ids it may
// bind to.
type Dashboard struct {
	ID           int              `json:"id"`
	Name         string           `json:"name"`
	Description  *string          `json:"description"`
	CollectionID *int             `json:"collection_id"`
	Dashcards    []DashCard       `json:"dashcards"`
	Tabs         []Tab            `json:"tabs,omitempty"`
	Parameters   []Parameter      `json:"parameters,omitempty"`
	ParamFields  map[string][]int `json:"param_fields,omitempty"`
}

// DashboardPayload is the create body for POST /api/dashboard. The
// platform only accepts name/description/collection at creation time;
// contents arrive via a follow-up update.
type DashboardPayload struct {
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	CollectionID *int    `json:"collection_id,omitempty"`
}

// DashboardUpdate is the batched update body for PUT /api/dashboard/:id.
type DashboardUpdate struct {
	Dashcards   []DashCard       `json:"dashcards"`
	Tabs        []Tab            `json:"tabs,omitempty"`
	Parameters  []Parameter      `json:"parameters,omitempty"`
	ParamFields map[string][]int `json:"param_fields,omitempty"`
}
