package store

const estimatesNamespace = "estimates"

// Result is a cached estimate: the computed time plus enough of the
// request to tell whether a cache hit is still valid.
type Result struct {
	Filename        string  `json:"filename"`
	ContentHash     string  `json:"content_hash"`
	Dialect         string  `json:"dialect"`
	EstimatedSeconds float64 `json:"estimated_seconds"`
	BlockCount      int     `json:"block_count"`
}

// GetResult looks up a cached Result by content hash. The hash is the
// cache key: the same bytes under the same dialect always produce the
// same time (spec.md §8's determinism property), so it's safe to skip
// recomputation on a hit.
func (s *Store) GetResult(hash string) (Result, bool) {
	v, ok := s.GetItem(estimatesNamespace, hash)
	if !ok {
		return Result{}, false
	}
	return decodeResult(v)
}

// PutResult caches r under its ContentHash.
func (s *Store) PutResult(r Result) error {
	return s.SetItem(estimatesNamespace, r.ContentHash, map[string]interface{}{
		"filename":          r.Filename,
		"content_hash":      r.ContentHash,
		"dialect":           r.Dialect,
		"estimated_seconds": r.EstimatedSeconds,
		"block_count":       r.BlockCount,
	})
}

func decodeResult(v interface{}) (Result, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return Result{}, false
	}
	r := Result{}
	if s, ok := m["filename"].(string); ok {
		r.Filename = s
	}
	if s, ok := m["content_hash"].(string); ok {
		r.ContentHash = s
	}
	if s, ok := m["dialect"].(string); ok {
		r.Dialect = s
	}
	if f, ok := m["estimated_seconds"].(float64); ok {
		r.EstimatedSeconds = f
	}
	// block_count is an int while the item is only in memory and a
	// float64 once it has been reloaded from the JSON file.
	switch n := m["block_count"].(type) {
	case float64:
		r.BlockCount = int(n)
	case int:
		r.BlockCount = n
	}
	return r, true
}
