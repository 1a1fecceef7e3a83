// Package render turns migration results and progress events into terminal
// output. The core never prints; everything user-visible funnels through
// here.
package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pmezard/go-difflib/difflib"

	"mbswitch/internal/events"
)

// JSON writes indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// QueryDiff writes a unified diff between the original and planned
// dataset_query, so a dry run shows exactly which identifiers move.
func QueryDiff(w io.Writer, original, planned any) error {
	before, err := json.MarshalIndent(original, "", "  ")
	if err != nil {
		return fmt.Errorf("encode original query: %w", err)
	}
	after, err := json.MarshalIndent(planned, "", "  ")
	if err != nil {
		return fmt.Errorf("encode planned query: %w", err)
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "original",
		ToFile:   "planned",
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("diff queries: %w", err)
	}
	if diff == "" {
		diff = "(no changes)\n"
	}
	_, err = io.WriteString(w, diff)
	return err
}

// EventSink returns a sink that prints one line per progress event.
func EventSink(w io.Writer) events.Sink {
	return func(e events.Event) {
		fmt.Fprintln(w, e.String())
	}
}
