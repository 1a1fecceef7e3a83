package mbql

// Rewrite returns a copy of a dataset_query with the database marker set to
// targetDBID and every recognized column/table reference substituted through
// the given mappings. Ids absent from a mapping are preserved verbatim; they
// are never zeroed or defaulted. The input is not mutated.
func Rewrite(datasetQuery map[string]any, fieldMap, tableMap map[int]int, targetDBID int) map[string]any {
	out := make(map[string]any, len(datasetQuery))
	for k, v := range datasetQuery {
		out[k] = v
	}
	out[databaseKey] = targetDBID
	if q, ok := out[queryKey]; ok {
		out[queryKey] = RewriteNode(q, fieldMap, tableMap)
	}
	return out
}

// RewriteNode is the structural transform underneath Rewrite. It rebuilds
// every map and sequence, substituting column refs, source-field options and
// source-table selections. Traversal order cannot affect the result: each
// substitution depends only on the node itself.
func RewriteNode(node any, fieldMap, tableMap map[int]int) any {
	kind, id := Classify(node)
	switch kind {
	case KindColumnRef:
		seq := node.([]any)
		out := make([]any, len(seq))
		out[0] = seq[0]
		if mapped, ok := fieldMap[id]; ok {
			out[1] = mapped
		} else {
			out[1] = seq[1]
		}
		// Trailing options go through the same pass so nested refs
		// (source-field and the like) cannot diverge from top-level ones.
		for i, v := range seq[2:] {
			out[i+2] = RewriteNode(v, fieldMap, tableMap)
		}
		return out

	case KindSeq:
		seq := node.([]any)
		out := make([]any, len(seq))
		for i, v := range seq {
			out[i] = RewriteNode(v, fieldMap, tableMap)
		}
		return out

	case KindMap:
		m := node.(map[string]any)
		out := make(map[string]any, len(m))
		for k, v := range m {
			switch k {
			case sourceFieldKey:
				if fid, ok := asInt(v); ok {
					if mapped, found := fieldMap[fid]; found {
						out[k] = mapped
						continue
					}
				}
				out[k] = RewriteNode(v, fieldMap, tableMap)
			case sourceTableKey:
				if tid, ok := asInt(v); ok {
					if mapped, found := tableMap[tid]; found {
						out[k] = mapped
						continue
					}
				}
				out[k] = RewriteNode(v, fieldMap, tableMap)
			default:
				out[k] = RewriteNode(v, fieldMap, tableMap)
			}
		}
		return out

	default:
		return node
	}
}
