// Package events defines the typed progress stream emitted by a migration.
// The orchestrator never prints; it hands events to a Sink and the
// presentation layer decides what they look like.
package events

import "fmt"

// Kind identifies one step of a migration.
type Kind string

const (
	QuestionFetched    Kind = "question.fetched"
	QuestionDuplicated Kind = "question.duplicated"
	CatalogBuilt       Kind = "catalog.built"
	FieldsResolved     Kind = "fields.resolved"
	UnresolvedColumn   Kind = "column.unresolved"
	QueryRewritten     Kind = "query.rewritten"
	QuestionCreated    Kind = "question.created"
	DashboardFetched   Kind = "dashboard.fetched"
	TabsRemapped       Kind = "tabs.remapped"
	ParametersRemapped Kind = "parameters.remapped"
	CardMigrated       Kind = "card.migrated"
	DashboardCreated   Kind = "dashboard.created"
	DashboardUpdated   Kind = "dashboard.updated"
	DryRunComplete     Kind = "dryrun.complete"
)

// Event is one progress notification. ID carries the artifact or database
// id the step concerns, Count a cardinality where one applies, and Detail a
// human-oriented supplement (names, paths).
type Event struct {
	Kind   Kind
	ID     int
	Name   string
	Count  int
	Detail string
}

func (e Event) String() string {
	switch {
	case e.Detail != "" && e.ID != 0:
		return fmt.Sprintf("%s id=%d %s", e.Kind, e.ID, e.Detail)
	case e.Detail != "":
		return fmt.Sprintf("%s %s", e.Kind, e.Detail)
	case e.ID != 0:
		return fmt.Sprintf("%s id=%d", e.Kind, e.ID)
	default:
		return string(e.Kind)
	}
}

// Sink consumes events in emission order.
type Sink func(Event)

// Discard drops every event. Useful default so callers never nil-check.
func Discard(Event) {}

// Collect returns a sink that appends into the given slice, for tests and
// dry-run summaries.
func Collect(dst *[]Event) Sink {
	return func(e Event) { *dst = append(*dst, e) }
}
