package aggregate

import (
	"log"
	"sort"

	"pathexplorer/domain/result"
)

// Union merges per-contrast record sets into one combined view. Every
// record keeps its originating contrast tag, and instances of the same
// identifier across contrasts stay distinct records: the point of the
// combined view is cross-contrast comparison, never deduplication.
//
// The caller re-runs similarity and embedding over the returned union;
// per-contrast embeddings are not reusable because their coordinate
// spaces are independent.
func Union(contrasts []*result.Contrast) []*result.ResultRecord {
	ordered := make([]*result.Contrast, len(contrasts))
	copy(ordered, contrasts)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	seen := map[result.RecordKey]bool{}
	var union []*result.ResultRecord
	dupes := 0
	for _, c := range ordered {
		for _, r := range c.Records {
			key := r.Key()
			if seen[key] {
				// Exact (id, kind, contrast) duplicate within the inputs;
				// keep the first occurrence only.
				dupes++
				continue
			}
			seen[key] = true
			union = append(union, r)
		}
	}
	if dupes > 0 {
		log.Printf("[Aggregator] Dropped %d exact duplicate rows during union", dupes)
	}
	log.Printf("[Aggregator] Combined %d contrasts into %d records", len(ordered), len(union))
	return union
}

// SplitByContrast groups loaded records into Contrast objects, each owning
// its records exclusively. Records without a contrast column land under
// fallback.
func SplitByContrast(records []*result.ResultRecord, fallback string) []*result.Contrast {
	byName := map[string]*result.Contrast{}
	var order []string
	for _, r := range records {
		name := r.Contrast
		if name == "" {
			name = fallback
			r.Contrast = fallback
		}
		c, ok := byName[name]
		if !ok {
			c = &result.Contrast{Name: name}
			byName[name] = c
			order = append(order, name)
		}
		c.Records = append(c.Records, r)
	}
	sort.Strings(order)
	contrasts := make([]*result.Contrast, 0, len(order))
	for _, name := range order {
		contrasts = append(contrasts, byName[name])
	}
	return contrasts
}
