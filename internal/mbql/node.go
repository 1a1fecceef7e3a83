// Package mbql walks and rewrites MBQL query trees. Trees arrive as decoded
// JSON (map[string]any / []any), so every recognizer tolerates missing keys
// and wrong types by classifying the node as something more generic instead
// of failing.
package mbql

const (
	fieldTag       = "field"
	sourceFieldKey = "source-field"
	sourceTableKey = "source-table"
	databaseKey    = "database"
	queryKey       = "query"
)

// Kind discriminates the node shapes the walk cares about.
type Kind int

const (
	// KindScalar is any leaf value: string, number, bool, nil.
	KindScalar Kind = iota
	// KindSeq is an ordered sequence with no recognized reference shape.
	KindSeq
	// KindMap is a mapping node.
	KindMap
	// KindColumnRef is a sequence of the shape ["field", <numeric id>, opts...].
	KindColumnRef
)

// Classify reports the shape of a node. For KindColumnRef the column id is
// returned as the second value.
func Classify(node any) (Kind, int) {
	switch n := node.(type) {
	case map[string]any:
		return KindMap, 0
	case []any:
		if id, ok := columnRefID(n); ok {
			return KindColumnRef, id
		}
		return KindSeq, 0
	default:
		return KindScalar, 0
	}
}

// columnRefID recognizes ["field", id, opts...] and returns the id.
func columnRefID(seq []any) (int, bool) {
	if len(seq) < 2 {
		return 0, false
	}
	tag, ok := seq[0].(string)
	if !ok || tag != fieldTag {
		return 0, false
	}
	return asInt(seq[1])
}

// asInt coerces a decoded JSON value to an integer id. encoding/json
// produces float64, but trees built in code carry int, so both are accepted.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
		return 0, false
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}
