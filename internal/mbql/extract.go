package mbql

import "sort"

// ExtractFieldIDs returns every column id referenced by a ["field", id, ...]
// shape anywhere in the tree, deduplicated and sorted.
func ExtractFieldIDs(node any) []int {
	seen := make(map[int]bool)
	walkFieldIDs(node, seen)
	return sortedKeys(seen)
}

func walkFieldIDs(node any, seen map[int]bool) {
	kind, id := Classify(node)
	switch kind {
	case KindColumnRef:
		seen[id] = true
		// Option elements may hold nested refs (e.g. a source-field id).
		for _, v := range node.([]any)[2:] {
			walkFieldIDs(v, seen)
		}
	case KindSeq:
		for _, v := range node.([]any) {
			walkFieldIDs(v, seen)
		}
	case KindMap:
		for _, v := range node.(map[string]any) {
			walkFieldIDs(v, seen)
		}
	}
}

// ExtractSourceFieldIDs returns every column id carried by a "source-field"
// option key anywhere in the tree. A column can name another column as its
// origin (a foreign-key hop), and both sides must be remapped.
func ExtractSourceFieldIDs(node any) []int {
	seen := make(map[int]bool)
	walkSourceFieldIDs(node, seen)
	return sortedKeys(seen)
}

func walkSourceFieldIDs(node any, seen map[int]bool) {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			if k == sourceFieldKey {
				if id, ok := asInt(v); ok {
					seen[id] = true
				}
			}
			walkSourceFieldIDs(v, seen)
		}
	case []any:
		for _, v := range n {
			walkSourceFieldIDs(v, seen)
		}
	}
}

// ExtractSourceTableIDs returns every table id carried by a "source-table"
// key at any query stage.
func ExtractSourceTableIDs(node any) []int {
	seen := make(map[int]bool)
	walkSourceTableIDs(node, seen)
	return sortedKeys(seen)
}

func walkSourceTableIDs(node any, seen map[int]bool) {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			if k == sourceTableKey {
				if id, ok := asInt(v); ok {
					seen[id] = true
				}
			}
			walkSourceTableIDs(v, seen)
		}
	case []any:
		for _, v := range n {
			walkSourceTableIDs(v, seen)
		}
	}
}

func sortedKeys(seen map[int]bool) []int {
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
