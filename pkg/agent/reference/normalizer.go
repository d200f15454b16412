package reference

import (
	"encoding/json"
	"fmt"
)

// Mappable is the structured-export hook. Reference objects that know
// their own serializable shape implement it.
type Mappable interface {
	AsMap() map[string]interface{}
}

// Group wraps an inner reference list. Groups are spliced flat, the
// wrapper itself is discarded.
type Group interface {
	ReferenceItems() []interface{}
}

// Source data nests at most two levels deep.
const maxFlattenDepth = 2

// Normalize flattens, serializes and deduplicates a heterogeneous
// reference sequence. Identity is the resolvable filename; first
// occurrence wins and first-seen order is preserved. Items with no
// resolvable filename are always kept.
func Normalize(items []interface{}) []map[string]interface{} {
	flat := flatten(items, 0)

	out := make([]map[string]interface{}, 0, len(flat))
	seen := make(map[string]struct{}, len(flat))

	for _, item := range flat {
		record := serialize(item)
		if record == nil {
			continue
		}

		key, ok := identityKey(record)
		if ok {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, record)
	}
	return out
}

// NormalizeCitations flattens and serializes without deduplication.
// Citations are model-asserted attributions; repeats are meaningful.
func NormalizeCitations(items []interface{}) []map[string]interface{} {
	flat := flatten(items, 0)

	out := make([]map[string]interface{}, 0, len(flat))
	for _, item := range flat {
		if record := serialize(item); record != nil {
			out = append(out, record)
		}
	}
	return out
}

func flatten(items []interface{}, depth int) []interface{} {
	if depth >= maxFlattenDepth {
		return items
	}

	var flat []interface{}
	for _, item := range items {
		switch v := item.(type) {
		case Group:
			flat = append(flat, flatten(v.ReferenceItems(), depth+1)...)
		case []interface{}:
			flat = append(flat, flatten(v, depth+1)...)
		default:
			if inner, ok := innerReferenceList(item); ok {
				flat = append(flat, flatten(inner, depth+1)...)
			} else {
				flat = append(flat, item)
			}
		}
	}
	return flat
}

// innerReferenceList detects map-shaped group wrappers.
func innerReferenceList(item interface{}) ([]interface{}, bool) {
	m, ok := item.(map[string]interface{})
	if !ok {
		return nil, false
	}
	refs, ok := m["references"].([]interface{})
	if !ok {
		return nil, false
	}
	return refs, true
}

// serialize turns any leaf into a plain key-value record. Preference
// order: structured export, plain mapping, field mapping via JSON
// round-trip, raw string form. Never fails.
func serialize(item interface{}) map[string]interface{} {
	if item == nil {
		return nil
	}

	if m, ok := item.(Mappable); ok {
		return m.AsMap()
	}

	if m, ok := item.(map[string]interface{}); ok {
		return m
	}

	if b, err := json.Marshal(item); err == nil {
		var m map[string]interface{}
		if err := json.Unmarshal(b, &m); err == nil {
			return m
		}
	}

	return map[string]interface{}{"raw": fmt.Sprint(item)}
}

// identityKey resolves the dedup key: meta_data.file_name, then the
// top-level file_name, else no identity.
func identityKey(record map[string]interface{}) (string, bool) {
	if meta, ok := record["meta_data"].(map[string]interface{}); ok {
		if name, ok := meta["file_name"].(string); ok && name != "" {
			return name, true
		}
	}
	if name, ok := record["file_name"].(string); ok && name != "" {
		return name, true
	}
	return "", false
}
